package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := render(&buf, "Title\n=====\n\n* a\n* b\n", "commonmark"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "# Title\n\n- a\n- b\n" {
		t.Errorf("render = %q", buf.String())
	}

	buf.Reset()
	if err := render(&buf, "hi\n", "xml"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "<?xml") {
		t.Errorf("xml = %q", buf.String())
	}

	if err := render(&buf, "hi\n", "html"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRender_SkipsFrontmatter(t *testing.T) {
	var buf bytes.Buffer
	src := "---\ntitle: Notes\ntags: [a]\n---\n# Body\n"
	if err := render(&buf, src, "commonmark"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "# Body\n" {
		t.Errorf("render = %q, want only the body", buf.String())
	}
}

func TestDumpTree_SkipsFrontmatter(t *testing.T) {
	var buf bytes.Buffer
	if err := dumpTree(&buf, "---\ntitle: Notes\n---\ntext\n"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "thematic_break") || strings.Contains(out, "title") {
		t.Errorf("frontmatter leaked into tree:\n%s", out)
	}
	if !strings.Contains(out, `content="text"`) {
		t.Errorf("body missing from tree:\n%s", out)
	}
}

func TestDumpTree(t *testing.T) {
	var buf bytes.Buffer
	if err := dumpTree(&buf, "# Hi\n\n[x](https://a.example)\n"); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"enter document @1:1",
		"  enter heading level=1 @1:1",
		`    enter text content="Hi" @1:3`,
		"  exit  heading",
		"  enter paragraph @3:1",
		`    enter link url="https://a.example" @3:1`,
		`      enter text content="x" @3:2`,
		"    exit  link",
		"  exit  paragraph",
		"exit  document",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("dump =\n%s", buf.String())
	}
	for i := range want {
		// Inline positions depend on the engine; compare the prefix only.
		if !strings.HasPrefix(got[i], strings.SplitN(want[i], " @", 2)[0]) {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunTransform(t *testing.T) {
	src := []byte("---\ntitle: T\n---\n# one\n\n## two\n\ntext\n")

	out, err := runTransform(src, transformOptions{upper: true, pruneLevel: 2})
	if err != nil {
		t.Fatal(err)
	}
	if out != "---\ntitle: T\n---\n# ONE\n\nTEXT\n" {
		t.Errorf("out = %q", out)
	}

	out, err = runTransform(src, transformOptions{where: `kind == "heading" && level == 1`, diff: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "-# one\n") {
		t.Errorf("diff = %q", out)
	}

	if _, err := runTransform(src, transformOptions{}); err == nil {
		t.Error("expected error without operations")
	}
	if _, err := runTransform(src, transformOptions{where: "kind =="}); err == nil {
		t.Error("expected error for a bad expression")
	}
}
