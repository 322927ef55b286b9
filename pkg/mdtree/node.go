package mdtree

import (
	"fmt"
	"runtime"
	"unicode/utf8"

	"github.com/starford/mdtree/internal/engine"
)

// Node is a handle to one node of a CommonMark tree. The concrete types are
// *Document, *BlockQuote, *List, *Item, *CodeBlock, *HtmlBlock,
// *CustomBlock, *Paragraph, *Heading, *ThematicBreak, *Text, *SoftBreak,
// *LineBreak, *Code, *HtmlInline, *CustomInline, *Emph, *Strong, *Link and
// *Image.
//
// Nodes reached from another node by navigation, iteration or Itself share
// its tree ownership, so holding any of them keeps the whole tree alive. The
// tree is freed once every Node bound to it was closed or garbage collected.
// A Node is not safe for concurrent use.
type Node interface {
	Kind() Kind
	ID() uint64
	Equal(other Node) bool
	String() string
	TypeString() (string, error)

	Itself() (Node, error)
	NextSibling() (Node, error)
	PrevSibling() (Node, error)
	Parent() (Node, error)
	FirstChild() (Node, error)
	LastChild() (Node, error)

	Unlink() error
	AppendChild(child Node) error
	CanAppendChild(child Node) (bool, error)

	StartLine() (int, error)
	StartColumn() (int, error)
	RenderCommonMark() (string, error)
	RenderXML() (string, error)
	Iter() (*Iterator, error)
	Close() error

	core() *nodeCore
}

type nodeCore struct {
	h       Handle
	kind    Kind
	m       *manager
	closed  bool
	cleanup runtime.Cleanup
}

func (c *nodeCore) core() *nodeCore { return c }

func (c *nodeCore) attach(m *manager) {
	m.acquire()
	c.m = m
	c.cleanup = runtime.AddCleanup(c, (*manager).release, m)
}

func (c *nodeCore) detach() {
	c.cleanup.Stop()
	c.m.release()
}

// bind wraps h as a Node of kind k owned by m.
func bind(m *manager, h Handle, k Kind) Node {
	c := &nodeCore{h: h, kind: k}
	c.attach(m)
	switch k {
	case KindDocument:
		return &Document{c}
	case KindBlockQuote:
		return &BlockQuote{c}
	case KindList:
		return &List{c}
	case KindItem:
		return &Item{c}
	case KindCodeBlock:
		return &CodeBlock{c}
	case KindHtmlBlock:
		return &HtmlBlock{c}
	case KindCustomBlock:
		return &CustomBlock{c}
	case KindParagraph:
		return &Paragraph{c}
	case KindHeading:
		return &Heading{c}
	case KindThematicBreak:
		return &ThematicBreak{c}
	case KindText:
		return &Text{c}
	case KindSoftBreak:
		return &SoftBreak{c}
	case KindLineBreak:
		return &LineBreak{c}
	case KindCode:
		return &Code{c}
	case KindHtmlInline:
		return &HtmlInline{c}
	case KindCustomInline:
		return &CustomInline{c}
	case KindEmph:
		return &Emph{c}
	case KindStrong:
		return &Strong{c}
	case KindLink:
		return &Link{c}
	default:
		return &Image{c}
	}
}

// fromRaw classifies h through the engine and wraps it without tracking it.
// The caller's tree must already own h.
func fromRaw(m *manager, h Handle) (Node, error) {
	k, err := kindFromCode(m.eng.Type(h))
	if err != nil {
		return nil, err
	}
	return bind(m, h, k), nil
}

func (c *nodeCore) check() error {
	if c.closed || !c.m.eng.Valid(c.h) {
		return ErrResourceUnavailable
	}
	return nil
}

func (c *nodeCore) Kind() Kind { return c.kind }

// ID returns the numeric identity of the underlying node.
func (c *nodeCore) ID() uint64 { return uint64(c.h) }

// Equal reports whether both values refer to the same underlying node,
// whichever tree owns them.
func (c *nodeCore) Equal(other Node) bool {
	if other == nil {
		return false
	}
	return c.h == other.core().h
}

func (c *nodeCore) String() string {
	return fmt.Sprintf("%s id: %d", c.kind, c.h)
}

// TypeString returns the engine's name for the node kind.
func (c *nodeCore) TypeString() (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	name := c.m.eng.TypeString(c.h)
	if name == nil {
		return "", ErrNoNode
	}
	return text(name)
}

// Itself returns another value for the same node sharing its ownership.
func (c *nodeCore) Itself() (Node, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return fromRaw(c.m, c.h)
}

func (c *nodeCore) navigate(step func(Engine, Handle) Handle) (Node, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	h := step(c.m.eng, c.h)
	if h == engine.None {
		return nil, nil
	}
	return fromRaw(c.m, h)
}

// NextSibling returns the following sibling, or nil when there is none.
func (c *nodeCore) NextSibling() (Node, error) { return c.navigate(Engine.Next) }

// PrevSibling returns the preceding sibling, or nil when there is none.
func (c *nodeCore) PrevSibling() (Node, error) { return c.navigate(Engine.Previous) }

// Parent returns the parent, or nil for a detached node.
func (c *nodeCore) Parent() (Node, error) { return c.navigate(Engine.Parent) }

// FirstChild returns the first child, or nil for a node without children.
func (c *nodeCore) FirstChild() (Node, error) { return c.navigate(Engine.FirstChild) }

// LastChild returns the last child, or nil for a node without children.
func (c *nodeCore) LastChild() (Node, error) { return c.navigate(Engine.LastChild) }

// Unlink detaches the node, with its children, from its parent and siblings.
// The detached subtree becomes a root of this value's tree and is freed with
// it.
func (c *nodeCore) Unlink() error {
	if err := c.check(); err != nil {
		return err
	}
	c.m.eng.Unlink(c.h)
	c.m.trackRoot(c.h)
	return nil
}

// AppendChild detaches child and appends it as the last child of the node.
// On success child becomes part of this tree. When the engine rejects the
// pair the result is a *ReturnCodeError and child stays detached; use
// CanAppendChild to check first. Nodes of different engines cannot be
// linked (ErrEngineMismatch).
func (c *nodeCore) AppendChild(child Node) error {
	if err := c.check(); err != nil {
		return err
	}
	if child == nil {
		return ErrNoNode
	}
	cc := child.core()
	if cc.m.eng != c.m.eng {
		return ErrEngineMismatch
	}
	if err := cc.Unlink(); err != nil {
		return err
	}
	if status := c.m.eng.AppendChild(c.h, cc.h); status != engine.StatusOK {
		return &ReturnCodeError{Op: "append_child", Code: status}
	}
	cc.m.untrackRoot(cc.h)
	if cc.m != c.m {
		cc.detach()
		cc.attach(c.m)
	}
	return nil
}

// CanAppendChild reports whether child may be appended to the node.
func (c *nodeCore) CanAppendChild(child Node) (bool, error) {
	if child == nil {
		return false, ErrNoNode
	}
	cc := child.core()
	if cc.m.eng != c.m.eng {
		return false, ErrEngineMismatch
	}
	k, err := kindFromCode(cc.m.eng.Type(cc.h))
	if err != nil {
		return false, err
	}
	return CanContain(c.kind, k), nil
}

// StartLine returns the 1-based source line, 0 for nodes built in code.
func (c *nodeCore) StartLine() (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	return c.m.eng.StartLine(c.h), nil
}

// StartColumn returns the 1-based source column, 0 for nodes built in code.
func (c *nodeCore) StartColumn() (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	return c.m.eng.StartColumn(c.h), nil
}

// RenderCommonMark renders the subtree rooted at the node as CommonMark.
func (c *nodeCore) RenderCommonMark() (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	return string(c.m.eng.RenderCommonMark(c.h)), nil
}

// RenderXML renders the subtree rooted at the node as CommonMark XML.
func (c *nodeCore) RenderXML() (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	return string(c.m.eng.RenderXML(c.h)), nil
}

// Close releases this value's share of the tree. Once every value bound to
// the tree is closed the tree is freed. Close is idempotent.
func (c *nodeCore) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.detach()
	return nil
}

func text(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}
