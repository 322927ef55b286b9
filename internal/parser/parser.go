// Package parser extracts frontmatter, outline, links, and tags from Markdown
// documents.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/mdtree/internal/models"
	"github.com/starford/mdtree/pkg/mdtree"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Result holds the output of parsing a Markdown document.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Title       string
	Headings    []models.Heading
	// Links holds link and image destinations in document order.
	Links     []string
	Wikilinks []string
	Tags      []string
	// Text is the plain text of the body, used for full-text search.
	Text string
}

// Parse splits off YAML frontmatter and walks the CommonMark tree of the body.
func Parse(data []byte, opts ...mdtree.Option) (*Result, error) {
	fm, body := splitFrontmatter(data)

	doc, err := mdtree.Parse(body, opts...)
	if err != nil {
		return nil, fmt.Errorf("parser: parse body: %w", err)
	}
	defer doc.Close()
	if err := doc.ConsolidateTextNodes(); err != nil {
		return nil, fmt.Errorf("parser: consolidate: %w", err)
	}

	// Heading lines count from the top of the file.
	w := &walker{lineOffset: bytes.Count(data[:len(data)-len(body)], []byte("\n"))}
	if err := w.walk(doc); err != nil {
		return nil, fmt.Errorf("parser: walk: %w", err)
	}

	prose := w.prose.String()
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, w.headings),
		Headings:    w.headings,
		Links:       dedupe(w.urls),
		Wikilinks:   extractLinks(prose),
		Tags:        extractTags(prose, fm),
		Text:        strings.TrimSpace(w.plain.String()),
	}, nil
}

// walker collects outline and text while iterating a tree. prose holds only
// Text content so that code never yields tags or wikilinks.
type walker struct {
	lineOffset int
	headings   []models.Heading
	heading    *strings.Builder
	urls       []string
	prose      strings.Builder
	plain      strings.Builder
}

func (w *walker) walk(doc *mdtree.Document) error {
	it, err := doc.Iter()
	if err != nil {
		return err
	}
	for n, ev := range it.All() {
		err := w.visit(n, ev)
		n.Close()
		if err != nil {
			it.Close()
			return err
		}
	}
	return nil
}

func (w *walker) visit(n mdtree.Node, ev mdtree.EventType) error {
	switch n := n.(type) {
	case *mdtree.Heading:
		if ev == mdtree.EventEnter {
			w.heading = &strings.Builder{}
			return nil
		}
		level, err := n.Level()
		if err != nil {
			return err
		}
		line, err := n.StartLine()
		if err != nil {
			return err
		}
		w.headings = append(w.headings, models.Heading{
			Level: level,
			Text:  strings.TrimSpace(w.heading.String()),
			Line:  line + w.lineOffset,
		})
		w.heading = nil

	case *mdtree.Text:
		s, err := n.Content()
		if err != nil {
			return err
		}
		w.write(s)
		w.prose.WriteString(s)

	case *mdtree.Code:
		s, err := n.Content()
		if err != nil {
			return err
		}
		w.write(s)

	case *mdtree.CodeBlock:
		s, err := n.Content()
		if err != nil {
			return err
		}
		w.plain.WriteString(s)
		w.prose.WriteByte('\n')

	case *mdtree.SoftBreak, *mdtree.LineBreak:
		w.write(" ")
		w.prose.WriteByte('\n')

	case *mdtree.Link:
		if ev == mdtree.EventEnter {
			u, err := n.URL()
			if err != nil {
				return err
			}
			w.addURL(u)
		}

	case *mdtree.Image:
		if ev == mdtree.EventEnter {
			u, err := n.URL()
			if err != nil {
				return err
			}
			w.addURL(u)
		}

	case *mdtree.Paragraph, *mdtree.Item, *mdtree.BlockQuote:
		if ev == mdtree.EventExit {
			w.plain.WriteByte('\n')
			w.prose.WriteByte('\n')
		}
	}
	return nil
}

func (w *walker) write(s string) {
	w.plain.WriteString(s)
	if w.heading != nil {
		w.heading.WriteString(s)
	}
}

func (w *walker) addURL(u string) {
	if u = strings.TrimSpace(u); u != "" {
		w.urls = append(w.urls, u)
	}
}

// SplitFrontmatter returns the raw YAML frontmatter block, delimiters and
// trailing blank lines included, and the Markdown body that follows it. front
// is empty when data has no well-formed frontmatter.
func SplitFrontmatter(data []byte) (front, body string) {
	if _, n, ok := frontmatter(data); ok {
		return string(data[:n]), string(data[n:])
	}
	return "", string(data)
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string) {
	fm, n, ok := frontmatter(data)
	if !ok {
		return nil, string(data)
	}
	return fm, string(data[n:])
}

// frontmatter decodes the leading frontmatter of data and returns the offset
// at which the body starts.
func frontmatter(data []byte) (map[string]interface{}, int, bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, 0, false
	}

	start := len(data) - len(trimmed) + len(delim)
	idx := bytes.Index(data[start:], []byte("\n"+delim))
	if idx < 0 {
		return nil, 0, false
	}
	yamlBlock := data[start : start+idx]
	after := data[start+idx+1+len(delim):]
	body := bytes.TrimLeft(after, "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML is kept as part of the body.
		return nil, 0, false
	}
	return fm, len(data) - len(body), true
}

// extractLinks returns wikilink targets, normalising aliases.
func extractLinks(text string) []string {
	var out []string
	for _, m := range wikilinkRe.FindAllStringSubmatch(text, -1) {
		target := m[1]
		// [[Target|Alias]] → Target.
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		if target = strings.TrimSpace(target); target != "" {
			out = append(out, target)
		}
	}
	return dedupe(out)
}

// extractTags collects tags from the frontmatter "tags" field, then #tags
// from the text.
func extractTags(text string, fm map[string]interface{}) []string {
	var out []string
	if raw, ok := fm["tags"].([]interface{}); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return dedupe(out)
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// level 1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, headings []models.Heading) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, h := range headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
