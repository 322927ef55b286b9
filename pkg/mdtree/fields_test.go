package mdtree

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"
)

const alnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// word is a non-empty alphanumeric string of up to 45 characters.
type word string

func (word) Generate(r *rand.Rand, _ int) reflect.Value {
	b := make([]byte, 1+r.Intn(45))
	for i := range b {
		b[i] = alnum[r.Intn(len(alnum))]
	}
	return reflect.ValueOf(word(b))
}

func TestText_ContentRoundTrip(t *testing.T) {
	_, opts := testEngine(t)
	text := NewText(opts...)
	defer text.Close()
	f := func(w word) bool {
		if err := text.SetContent(string(w)); err != nil {
			return false
		}
		got, err := text.Content()
		return err == nil && got == string(w)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestCodeBlock_FenceInfoRoundTrip(t *testing.T) {
	_, opts := testEngine(t)
	doc := mustParse(t, "```\ncode\n```\n", opts)
	code, ok := mustFirst(t, doc).(*CodeBlock)
	if !ok {
		t.Fatal("first child is not a code block")
	}
	f := func(w word) bool {
		if err := code.SetFenceInfo(string(w)); err != nil {
			return false
		}
		got, err := code.FenceInfo()
		return err == nil && got == string(w)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestSetContent_NulByte(t *testing.T) {
	_, opts := testEngine(t)
	text := NewText(opts...)
	defer text.Close()
	if err := text.SetContent("a\x00b"); !errors.Is(err, ErrNulByte) {
		t.Errorf("err = %v, want ErrNulByte", err)
	}
}

func TestContent_InvalidUTF8(t *testing.T) {
	_, opts := testEngine(t)
	code := NewCode(opts...)
	defer code.Close()
	if err := code.SetContent("\xff\xfe"); err != nil {
		t.Fatal(err)
	}
	if _, err := code.Content(); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("err = %v, want ErrInvalidUTF8", err)
	}
}

func TestContent_LiteralKinds(t *testing.T) {
	_, opts := testEngine(t)
	doc := mustParse(t, "<div>\nhi\n</div>\n\n    indented\n\nsome <b>bold</b>\n", opts)

	html := mustFirst(t, doc).(*HtmlBlock)
	if s, _ := html.Content(); s != "<div>\nhi\n</div>\n" {
		t.Errorf("html block = %q", s)
	}
	next, _ := html.NextSibling()
	code := next.(*CodeBlock)
	if s, _ := code.Content(); s != "indented\n" {
		t.Errorf("code block = %q", s)
	}
	para, _ := code.NextSibling()
	inline, _ := mustFirst(t, para).NextSibling()
	if h, ok := inline.(*HtmlInline); !ok {
		t.Errorf("second inline = %T", inline)
	} else if s, _ := h.Content(); s != "<b>" {
		t.Errorf("html inline = %q", s)
	}
}

func TestHeading_Level(t *testing.T) {
	_, opts := testEngine(t)
	doc := mustParse(t, "### Three\n", opts)
	h := mustFirst(t, doc).(*Heading)
	if lvl, _ := h.Level(); lvl != 3 {
		t.Errorf("level = %d, want 3", lvl)
	}
	if err := h.SetLevel(5); err != nil {
		t.Fatal(err)
	}
	if err := h.SetLevel(9); !errors.Is(err, ErrReturnCode) {
		t.Errorf("SetLevel(9) = %v", err)
	}
	out, _ := doc.RenderCommonMark()
	if out != "##### Three\n" {
		t.Errorf("render = %q", out)
	}
}

func TestList_Fields(t *testing.T) {
	_, opts := testEngine(t)
	doc := mustParse(t, "3) a\n4) b\n", opts)
	list := mustFirst(t, doc).(*List)
	lt, err := list.ListType()
	if err != nil || lt != ListOrdered {
		t.Errorf("type = %s, %v", lt, err)
	}
	d, _ := list.Delimiter()
	if d != DelimParen {
		t.Errorf("delimiter = %s", d)
	}
	if start, _ := list.Start(); start != 3 {
		t.Errorf("start = %d", start)
	}
	if tight, _ := list.Tight(); !tight {
		t.Error("list is not tight")
	}

	bullet := NewList(opts...)
	defer bullet.Close()
	if lt, _ := bullet.ListType(); lt != ListBullet {
		t.Errorf("new list type = %s", lt)
	}
	if d, _ := bullet.Delimiter(); d != DelimNone {
		t.Errorf("new list delimiter = %s", d)
	}
}

func TestLink_Fields(t *testing.T) {
	_, opts := testEngine(t)
	doc := mustParse(t, "[go](https://go.dev \"Go\") ![img](/a.png)\n", opts)
	link := mustFirst(t, mustFirst(t, doc)).(*Link)
	if u, _ := link.URL(); u != "https://go.dev" {
		t.Errorf("url = %q", u)
	}
	if title, _ := link.Title(); title != "Go" {
		t.Errorf("title = %q", title)
	}
	if err := link.SetURL("https://example.com"); err != nil {
		t.Fatal(err)
	}
	last, _ := mustFirst(t, doc).LastChild()
	img := last.(*Image)
	if u, _ := img.URL(); u != "/a.png" {
		t.Errorf("image url = %q", u)
	}
	img.SetTitle("pic")
	out, _ := doc.RenderCommonMark()
	if out != "[go](https://example.com \"Go\") ![img](/a.png \"pic\")\n" {
		t.Errorf("render = %q", out)
	}
}

func TestDocument_ConsolidateTextNodes(t *testing.T) {
	_, opts := testEngine(t)
	doc := NewDocument(opts...)
	defer doc.Close()
	para := NewParagraph(opts...)
	doc.AppendChild(para)
	for _, s := range []string{"a", "b", "c"} {
		text := NewText(opts...)
		text.SetContent(s)
		para.AppendChild(text)
	}
	if err := doc.ConsolidateTextNodes(); err != nil {
		t.Fatal(err)
	}
	first := mustFirst(t, para).(*Text)
	if s, _ := first.Content(); s != "abc" {
		t.Errorf("content = %q", s)
	}
	if next, _ := first.NextSibling(); next != nil {
		t.Error("text nodes were not merged")
	}
}

func TestStartPosition(t *testing.T) {
	_, opts := testEngine(t)
	doc := mustParse(t, "intro\n\n## Second\n", opts)
	h, _ := doc.LastChild()
	line, _ := h.StartLine()
	col, _ := h.StartColumn()
	if line != 3 || col != 1 {
		t.Errorf("heading at %d:%d, want 3:1", line, col)
	}
	built := NewParagraph(opts...)
	defer built.Close()
	if line, _ := built.StartLine(); line != 0 {
		t.Errorf("built node line = %d, want 0", line)
	}
}

func TestKinds(t *testing.T) {
	ks := Kinds()
	if len(ks) != 20 || ks[0] != KindDocument || ks[19] != KindImage {
		t.Fatalf("kinds = %v", ks)
	}
	for _, k := range ks {
		if k.IsBlock() == k.IsInline() {
			t.Errorf("%s is both or neither block and inline", k)
		}
		if back, ok := ParseKind(k.String()); !ok || back != k {
			t.Errorf("ParseKind(%q) = %v", k.String(), back)
		}
	}
	if _, err := kindFromCode(0); !errors.Is(err, ErrNoNode) {
		t.Errorf("code 0: %v", err)
	}
	if _, err := kindFromCode(21); !errors.Is(err, ErrBadEnum) {
		t.Errorf("code 21: %v", err)
	}
	if _, err := listTypeFromCode(7); !errors.Is(err, ErrBadEnum) {
		t.Errorf("list type 7: %v", err)
	}
	if _, err := delimiterFromCode(-1); !errors.Is(err, ErrBadEnum) {
		t.Errorf("delimiter -1: %v", err)
	}
}
