package mdtree

import (
	"strings"

	"github.com/starford/mdtree/internal/engine"
)

func (c *nodeCore) getText(get func(Engine, Handle) []byte) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	b := get(c.m.eng, c.h)
	if b == nil {
		return "", nil
	}
	return text(b)
}

func (c *nodeCore) setText(op string, s string, set func(Engine, Handle, []byte) int) error {
	if err := c.check(); err != nil {
		return err
	}
	if strings.IndexByte(s, 0) >= 0 {
		return ErrNulByte
	}
	if status := set(c.m.eng, c.h, []byte(s)); status != engine.StatusOK {
		return &ReturnCodeError{Op: op, Code: status}
	}
	return nil
}

func (c *nodeCore) content() (string, error) { return c.getText(Engine.Literal) }

func (c *nodeCore) setContent(s string) error {
	return c.setText("set_literal", s, Engine.SetLiteral)
}

// Content returns the literal text.
func (n *Text) Content() (string, error) { return n.content() }

// SetContent replaces the literal text.
func (n *Text) SetContent(s string) error { return n.setContent(s) }

// Content returns the code span text.
func (n *Code) Content() (string, error) { return n.content() }

// SetContent replaces the code span text.
func (n *Code) SetContent(s string) error { return n.setContent(s) }

// Content returns the code, including its trailing newline.
func (n *CodeBlock) Content() (string, error) { return n.content() }

func (n *CodeBlock) SetContent(s string) error { return n.setContent(s) }

// FenceInfo returns the info string following the opening fence.
func (n *CodeBlock) FenceInfo() (string, error) { return n.getText(Engine.FenceInfo) }

func (n *CodeBlock) SetFenceInfo(s string) error {
	return n.setText("set_fence_info", s, Engine.SetFenceInfo)
}

func (n *HtmlBlock) Content() (string, error)  { return n.content() }
func (n *HtmlBlock) SetContent(s string) error { return n.setContent(s) }

func (n *HtmlInline) Content() (string, error)  { return n.content() }
func (n *HtmlInline) SetContent(s string) error { return n.setContent(s) }

// Level returns the heading level, 1 through 6.
func (n *Heading) Level() (int, error) {
	if err := n.check(); err != nil {
		return 0, err
	}
	return n.m.eng.HeadingLevel(n.h), nil
}

// SetLevel changes the heading level. Levels outside 1..6 are rejected by
// the engine with a *ReturnCodeError.
func (n *Heading) SetLevel(level int) error {
	if err := n.check(); err != nil {
		return err
	}
	if status := n.m.eng.SetHeadingLevel(n.h, level); status != engine.StatusOK {
		return &ReturnCodeError{Op: "set_heading_level", Code: status}
	}
	return nil
}

// ListType returns whether the list is a bullet or an ordered list.
func (n *List) ListType() (ListType, error) {
	if err := n.check(); err != nil {
		return ListNone, err
	}
	return listTypeFromCode(n.m.eng.ListType(n.h))
}

// Delimiter returns the delimiter of an ordered list, DelimNone otherwise.
func (n *List) Delimiter() (Delimiter, error) {
	if err := n.check(); err != nil {
		return DelimNone, err
	}
	return delimiterFromCode(n.m.eng.ListDelim(n.h))
}

// Start returns the number of the first item of an ordered list.
func (n *List) Start() (int, error) {
	if err := n.check(); err != nil {
		return 0, err
	}
	return n.m.eng.ListStart(n.h), nil
}

// Tight reports whether the list items are not separated by blank lines.
func (n *List) Tight() (bool, error) {
	if err := n.check(); err != nil {
		return false, err
	}
	return n.m.eng.ListTight(n.h), nil
}

func (n *Link) URL() (string, error)   { return n.getText(Engine.URL) }
func (n *Link) Title() (string, error) { return n.getText(Engine.Title) }

func (n *Link) SetURL(s string) error   { return n.setText("set_url", s, Engine.SetURL) }
func (n *Link) SetTitle(s string) error { return n.setText("set_title", s, Engine.SetTitle) }

func (n *Image) URL() (string, error)   { return n.getText(Engine.URL) }
func (n *Image) Title() (string, error) { return n.getText(Engine.Title) }

func (n *Image) SetURL(s string) error   { return n.setText("set_url", s, Engine.SetURL) }
func (n *Image) SetTitle(s string) error { return n.setText("set_title", s, Engine.SetTitle) }

// ConsolidateTextNodes merges adjacent Text nodes throughout the document.
func (n *Document) ConsolidateTextNodes() error {
	if err := n.check(); err != nil {
		return err
	}
	n.m.eng.ConsolidateTextNodes(n.h)
	return nil
}
