package index

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/models"
	"github.com/starford/mdtree/internal/parser"
	"github.com/starford/mdtree/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func row(path, cs string) DocumentRow {
	return DocumentRow{Path: path, Checksum: cs, UpdatedAt: time.Now()}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"documents", "headings", "links"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	r := DocumentRow{
		Path:      "hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "test"},
		Size:      42,
		UpdatedAt: time.Now(),
	}
	if err := db.Upsert(r, "hello world text", nil, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil || cs != "abc123" {
		t.Errorf("checksum = %q, %v", cs, err)
	}
	got, err := db.GetDocument("hello.md")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Hello World" || got.Size != 42 || len(got.Tags) != 2 {
		t.Errorf("document = %+v", got)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetDocument("nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	cs, err := db.GetChecksum("nope.md")
	if err != nil || cs != "" {
		t.Errorf("checksum = %q, %v", cs, err)
	}
}

func TestOutline(t *testing.T) {
	db := testDB(t)
	hs := []models.Heading{{Level: 1, Text: "A", Line: 1}, {Level: 2, Text: "B", Line: 4}}
	if err := db.Upsert(row("o.md", "1"), "", hs, nil); err != nil {
		t.Fatal(err)
	}
	got, err := db.Outline("o.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != hs[0] || got[1] != hs[1] {
		t.Errorf("outline = %+v", got)
	}

	_ = db.Upsert(row("o.md", "2"), "", hs[:1], nil)
	got, _ = db.Outline("o.md")
	if len(got) != 1 {
		t.Errorf("outline after upsert = %+v", got)
	}
	if _, err := db.Outline("missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(row("notes/b.md", "0"), "", nil, nil)
	_ = db.Upsert(row("a.md", "1"), "", nil, []models.Link{{Target: "notes/b.md", Type: "relative"}})
	_ = db.Upsert(row("c.md", "2"), "", nil, []models.Link{{Target: "b", Type: "wikilink"}})
	_ = db.Upsert(row("d.md", "3"), "", nil, []models.Link{{Target: "b.md", Type: "relative"}})

	bl, err := db.Backlinks("notes/b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 || bl[0].Source != "a.md" || bl[1].Source != "c.md" {
		t.Fatalf("backlinks = %+v", bl)
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(row("del.md", "x"), "body", []models.Heading{{Level: 1, Text: "T"}},
		[]models.Link{{Target: "target.md", Type: "relative"}})

	if err := db.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if cs, _ := db.GetChecksum("del.md"); cs != "" {
		t.Errorf("deleted document still has checksum %q", cs)
	}
	if bl, _ := db.Backlinks("target.md"); len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
	var n int
	_ = db.conn.QueryRow(`SELECT count(*) FROM headings`).Scan(&n)
	if n != 0 {
		t.Errorf("headings left: %d", n)
	}
}

func TestUpsertReplacesLinks(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(row("up.md", "1"), "old", nil, []models.Link{{Target: "x.md", Type: "relative"}})
	_ = db.Upsert(row("up.md", "2"), "new", nil, []models.Link{{Target: "y.md", Type: "relative"}})

	if cs, _ := db.GetChecksum("up.md"); cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	if bl, _ := db.Backlinks("x.md"); len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	if bl, _ := db.Backlinks("y.md"); len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestListDocuments(t *testing.T) {
	db := testDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = db.Upsert(DocumentRow{Path: "b.md", Title: "Alpha", Checksum: "1", Tags: []string{"go"}, UpdatedAt: base}, "", nil, nil)
	_ = db.Upsert(DocumentRow{Path: "a.md", Title: "Zulu", Checksum: "2", UpdatedAt: base.Add(time.Hour)}, "", nil, nil)
	_ = db.Upsert(DocumentRow{Path: "dir/c.md", Title: "Mike", Checksum: "3", Tags: []string{"go", "x"}, UpdatedAt: base.Add(2 * time.Hour)}, "", nil, nil)

	rows, total, err := db.ListDocuments(ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || rows[0].Path != "a.md" {
		t.Errorf("default list = %d %+v", total, rows)
	}

	rows, _, _ = db.ListDocuments(ListOptions{Sort: "title"})
	if rows[0].Title != "Alpha" {
		t.Errorf("title sort first = %q", rows[0].Title)
	}
	rows, _, _ = db.ListDocuments(ListOptions{Sort: "updated"})
	if rows[0].Path != "dir/c.md" {
		t.Errorf("updated sort first = %q", rows[0].Path)
	}

	rows, total, _ = db.ListDocuments(ListOptions{Tag: "go"})
	if total != 2 || len(rows) != 2 {
		t.Errorf("tag filter = %d %+v", total, rows)
	}
	rows, total, _ = db.ListDocuments(ListOptions{Prefix: "dir/"})
	if total != 1 || rows[0].Path != "dir/c.md" {
		t.Errorf("prefix filter = %d %+v", total, rows)
	}
	rows, total, _ = db.ListDocuments(ListOptions{Limit: 1, Offset: 1})
	if total != 3 || len(rows) != 1 || rows[0].Path != "b.md" {
		t.Errorf("page = %d %+v", total, rows)
	}

	if _, _, err := db.ListDocuments(ListOptions{Sort: "size; DROP TABLE documents"}); !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(DocumentRow{Path: "s.md", Title: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here", nil, nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestLinks_Classification(t *testing.T) {
	res := &parser.Result{
		Links:     []string{"https://x.example/a", "../up.md", "sib.md#part", "#local", "/abs/doc.md?x=1"},
		Wikilinks: []string{"Other Note", "Page#Section"},
	}
	got := Links("dir/sub/src.md", res)
	want := []models.Link{
		{Source: "dir/sub/src.md", Target: "https://x.example/a", Type: "url"},
		{Source: "dir/sub/src.md", Target: "dir/up.md", Type: "relative"},
		{Source: "dir/sub/src.md", Target: "dir/sub/sib.md", Type: "relative"},
		{Source: "dir/sub/src.md", Target: "abs/doc.md", Type: "relative"},
		{Source: "dir/sub/src.md", Target: "Other Note", Type: "wikilink"},
		{Source: "dir/sub/src.md", Target: "Page", Type: "wikilink"},
	}
	if len(got) != len(want) {
		t.Fatalf("links = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("link %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("one.md", []byte("---\ntags: [x]\n---\n# One\n\nSee [two](two.md).\n"))
	_ = store.Write("two.md", []byte("# Two\n\n## Part\n"))
	_ = db.Upsert(row("stale.md", "s"), "", nil, nil)

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatal(err)
	}
	if cs, _ := db.GetChecksum("stale.md"); cs != "" {
		t.Error("stale entry not removed")
	}
	doc, err := db.GetDocument("one.md")
	if err != nil || doc.Title != "One" || len(doc.Tags) != 1 {
		t.Fatalf("one.md = %+v, %v", doc, err)
	}
	outline, _ := db.Outline("two.md")
	if len(outline) != 2 || outline[1].Text != "Part" || outline[1].Line != 3 {
		t.Errorf("outline = %+v", outline)
	}
	bl, _ := db.Backlinks("two.md")
	if len(bl) != 1 || bl[0].Source != "one.md" {
		t.Errorf("backlinks = %+v", bl)
	}
}
