// Package transform rewrites parsed Markdown trees: case conversion, pruning,
// selection and appending of fragments.
package transform

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/mdtree/pkg/mdtree"
)

// Visit calls fn for every node of the subtree rooted at root, in document
// order and on enter only. Each node value is closed after fn returns unless
// fn reports that it keeps it.
func Visit(root mdtree.Node, fn func(n mdtree.Node) (keep bool, err error)) error {
	it, err := root.Iter()
	if err != nil {
		return err
	}
	defer it.Close()
	for n, ev := range it.All() {
		if ev != mdtree.EventEnter {
			n.Close()
			continue
		}
		keep, err := fn(n)
		if !keep {
			n.Close()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func caser(upper bool, lang string) cases.Caser {
	tag := language.Und
	if lang != "" {
		tag = language.Make(lang)
	}
	if upper {
		return cases.Upper(tag)
	}
	return cases.Lower(tag)
}

func mapText(root mdtree.Node, fn func(string) string) (int, error) {
	changed := 0
	err := Visit(root, func(n mdtree.Node) (bool, error) {
		text, ok := n.(*mdtree.Text)
		if !ok {
			return false, nil
		}
		s, err := text.Content()
		if err != nil {
			return false, err
		}
		if out := fn(s); out != s {
			changed++
			return false, text.SetContent(out)
		}
		return false, nil
	})
	return changed, err
}

// Uppercase converts every Text node under root to upper case using the
// rules of the BCP 47 language lang. An empty lang selects neutral rules.
func Uppercase(root mdtree.Node, lang string) (int, error) {
	return mapText(root, caser(true, lang).String)
}

// Lowercase converts every Text node under root to lower case.
func Lowercase(root mdtree.Node, lang string) (int, error) {
	return mapText(root, caser(false, lang).String)
}

// TitleHeadings title-cases the text of every heading under root.
func TitleHeadings(root mdtree.Node, lang string) (int, error) {
	tag := language.Und
	if lang != "" {
		tag = language.Make(lang)
	}
	title := cases.Title(tag)

	headings, err := Select(root, func(n mdtree.Node) (bool, error) {
		_, ok := n.(*mdtree.Heading)
		return ok, nil
	})
	if err != nil {
		return 0, err
	}
	defer closeAll(headings)

	changed := 0
	for _, h := range headings {
		n, err := mapText(h, title.String)
		if err != nil {
			return changed, err
		}
		changed += n
	}
	return changed, nil
}

// Select returns the nodes under root for which match holds. The caller owns
// the returned values and should Close them.
func Select(root mdtree.Node, match func(mdtree.Node) (bool, error)) ([]mdtree.Node, error) {
	var out []mdtree.Node
	err := Visit(root, func(n mdtree.Node) (bool, error) {
		ok, err := match(n)
		if ok && err == nil {
			out = append(out, n)
		}
		return ok && err == nil, err
	})
	if err != nil {
		closeAll(out)
		return nil, err
	}
	return out, nil
}

// Prune unlinks every node under root, other than root itself, for which
// match holds. Unlinked nodes stay owned by root's tree. It returns the
// number of nodes removed.
func Prune(root mdtree.Node, match func(mdtree.Node) (bool, error)) (int, error) {
	nodes, err := Select(root, func(n mdtree.Node) (bool, error) {
		if n.Equal(root) {
			return false, nil
		}
		return match(n)
	})
	if err != nil {
		return 0, err
	}
	defer closeAll(nodes)
	for _, n := range nodes {
		if err := n.Unlink(); err != nil {
			return 0, fmt.Errorf("transform: unlink %s: %w", n, err)
		}
	}
	return len(nodes), nil
}

// PruneHeadings unlinks every heading of the given level.
func PruneHeadings(root mdtree.Node, level int) (int, error) {
	return Prune(root, func(n mdtree.Node) (bool, error) {
		h, ok := n.(*mdtree.Heading)
		if !ok {
			return false, nil
		}
		l, err := h.Level()
		return l == level, err
	})
}

// Where adapts a compiled predicate for Select and Prune.
func Where(p *Predicate) func(mdtree.Node) (bool, error) {
	return p.Match
}

// Append parses markdown and moves its top-level blocks to the end of doc.
// opts must select the engine doc was built on.
func Append(doc *mdtree.Document, markdown string, opts ...mdtree.Option) (int, error) {
	frag, err := mdtree.Parse(markdown, opts...)
	if err != nil {
		return 0, fmt.Errorf("transform: parse fragment: %w", err)
	}
	defer frag.Close()

	moved := 0
	for {
		child, err := frag.FirstChild()
		if err != nil {
			return moved, err
		}
		if child == nil {
			return moved, nil
		}
		ok, err := doc.CanAppendChild(child)
		if err == nil && !ok {
			err = fmt.Errorf("transform: document cannot hold %s", child.Kind())
		}
		if err == nil {
			err = doc.AppendChild(child)
		}
		child.Close()
		if err != nil {
			return moved, err
		}
		moved++
	}
}

func closeAll(nodes []mdtree.Node) {
	for _, n := range nodes {
		n.Close()
	}
}
