package parser

import (
	"testing"

	"github.com/starford/mdtree/internal/models"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - mdtree\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if len(r.Tags) < 2 || r.Tags[0] != "go" || r.Tags[1] != "mdtree" {
		t.Errorf("tags = %v, want [go mdtree]", r.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
	if len(r.Headings) != 1 || r.Headings[0].Line != 7 {
		t.Errorf("headings = %+v, want line 7", r.Headings)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Invalid YAML falls back to treating everything as body.
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestParse_Outline(t *testing.T) {
	input := []byte("# Top\n\nintro\n\n## *Second* part\n\ntext\n\n### Third\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.Heading{
		{Level: 1, Text: "Top", Line: 1},
		{Level: 2, Text: "Second part", Line: 5},
		{Level: 3, Text: "Third", Line: 9},
	}
	if len(r.Headings) != len(want) {
		t.Fatalf("headings = %+v", r.Headings)
	}
	for i := range want {
		if r.Headings[i] != want[i] {
			t.Errorf("heading %d = %+v, want %+v", i, r.Headings[i], want[i])
		}
	}
}

func TestParse_Links(t *testing.T) {
	input := []byte("See [[Note A]] and [[Note B|alias]], [site](https://example.com) and ![pic](img.png).\nAlso [[Note A]] again.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Links) != 2 || r.Links[0] != "https://example.com" || r.Links[1] != "img.png" {
		t.Errorf("links = %v", r.Links)
	}
	if len(r.Wikilinks) != 2 || r.Wikilinks[0] != "Note A" || r.Wikilinks[1] != "Note B" {
		t.Errorf("wikilinks = %v", r.Wikilinks)
	}
}

func TestParse_TagsIgnoreCode(t *testing.T) {
	input := []byte("Some text #beta and `#notatag`.\n\n```\n#nope\n```\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Tags) != 1 || r.Tags[0] != "beta" {
		t.Errorf("tags = %v, want [beta]", r.Tags)
	}
	if r.Text == "" {
		t.Error("plain text is empty")
	}
}

func TestExtractLinks_EmptyTarget(t *testing.T) {
	links := extractLinks("see [[ ]] and [[|alias]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	fm := map[string]any{
		"tags": []any{"alpha"},
	}
	tags := extractTags("Some text #beta and #alpha again.", fm)
	// alpha from FM, beta from body; alpha not duplicated.
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	fm := map[string]any{"title": "FM Title"}
	title := deriveTitle(fm, []models.Heading{{Level: 1, Text: "H1 Title"}})
	if title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	title := deriveTitle(nil, []models.Heading{{Level: 2, Text: "Sub"}, {Level: 1, Text: "My Heading"}})
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}

func TestSplitFrontmatter(t *testing.T) {
	front, body := SplitFrontmatter([]byte("---\ntitle: x\n---\n\n# Body\n"))
	if front != "---\ntitle: x\n---\n\n" || body != "# Body\n" {
		t.Errorf("front = %q, body = %q", front, body)
	}
	front, body = SplitFrontmatter([]byte("# No front\n"))
	if front != "" || body != "# No front\n" {
		t.Errorf("front = %q, body = %q", front, body)
	}
}
