// Package engine is the in-process CommonMark node store used by mdtree.
//
// It owns every node record and hands out opaque handles. Handles are never
// reused, so an operation on a freed handle behaves like an operation on a
// missing node and Valid reports false. All methods are safe to call from
// multiple goroutines; the tree built on top of it is not.
package engine

import (
	"sync"
)

// Handle identifies a node owned by an Engine. The zero Handle means "none".
type Handle uint64

// Cursor identifies an iterator owned by an Engine. The zero Cursor is invalid.
type Cursor uint64

// None is the absent handle.
const None Handle = 0

// Node type codes.
const (
	TypeNone = iota
	TypeDocument
	TypeBlockQuote
	TypeList
	TypeItem
	TypeCodeBlock
	TypeHTMLBlock
	TypeCustomBlock
	TypeParagraph
	TypeHeading
	TypeThematicBreak
	TypeText
	TypeSoftBreak
	TypeLineBreak
	TypeCode
	TypeHTMLInline
	TypeCustomInline
	TypeEmph
	TypeStrong
	TypeLink
	TypeImage
)

// Status codes returned by mutating calls.
const (
	StatusFail = 0
	StatusOK   = 1
)

// List type codes.
const (
	NoList = iota
	BulletList
	OrderedList
)

// List delimiter codes.
const (
	NoDelim = iota
	PeriodDelim
	ParenDelim
)

// Iterator event codes.
const (
	EventNone = iota
	EventDone
	EventEnter
	EventExit
)

var typeNames = [...]string{
	TypeNone:          "none",
	TypeDocument:      "document",
	TypeBlockQuote:    "block_quote",
	TypeList:          "list",
	TypeItem:          "item",
	TypeCodeBlock:     "code_block",
	TypeHTMLBlock:     "html_block",
	TypeCustomBlock:   "custom_block",
	TypeParagraph:     "paragraph",
	TypeHeading:       "heading",
	TypeThematicBreak: "thematic_break",
	TypeText:          "text",
	TypeSoftBreak:     "softbreak",
	TypeLineBreak:     "linebreak",
	TypeCode:          "code",
	TypeHTMLInline:    "html_inline",
	TypeCustomInline:  "custom_inline",
	TypeEmph:          "emph",
	TypeStrong:        "strong",
	TypeLink:          "link",
	TypeImage:         "image",
}

type record struct {
	typ int

	parent Handle
	first  Handle
	last   Handle
	prev   Handle
	next   Handle

	literal []byte
	info    []byte
	url     []byte
	title   []byte

	level    int
	listType int
	delim    int
	start    int
	tight    bool

	line int
	col  int
}

// Engine is an arena of CommonMark nodes.
type Engine struct {
	mu    sync.Mutex
	nodes map[Handle]*record
	iters map[Cursor]*iterState
	seq   uint64
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{
		nodes: make(map[Handle]*record),
		iters: make(map[Cursor]*iterState),
	}
}

// Default is the process-wide engine used when no other engine is supplied.
var Default = New()

// Live returns the number of allocated nodes.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.nodes)
}

// LiveCursors returns the number of iterators not yet freed.
func (e *Engine) LiveCursors() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.iters)
}

// NewNode allocates a detached node of the given type. It returns None for
// type codes outside the known range.
func (e *Engine) NewNode(typ int) Handle {
	if typ <= TypeNone || typ > TypeImage {
		return None
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alloc(typ)
}

func (e *Engine) alloc(typ int) Handle {
	e.seq++
	h := Handle(e.seq)
	rec := &record{typ: typ}
	switch typ {
	case TypeHeading:
		rec.level = 1
	case TypeList:
		rec.listType = BulletList
	}
	if hasLiteral(typ) {
		rec.literal = []byte{}
	}
	if typ == TypeCodeBlock {
		rec.info = []byte{}
	}
	if typ == TypeLink || typ == TypeImage {
		rec.url = []byte{}
		rec.title = []byte{}
	}
	e.nodes[h] = rec
	return h
}

// Valid reports whether h refers to a live node.
func (e *Engine) Valid(h Handle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.nodes[h]
	return ok
}

// Free unlinks h and releases it together with its whole subtree.
func (e *Engine) Free(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.nodes[h]; !ok {
		return
	}
	e.unlink(h)
	e.freeTree(h)
}

func (e *Engine) freeTree(h Handle) {
	rec := e.nodes[h]
	if rec == nil {
		return
	}
	for c := rec.first; c != None; {
		next := e.nodes[c].next
		e.freeTree(c)
		c = next
	}
	delete(e.nodes, h)
}

// Type returns the type code of h, or TypeNone for a missing node.
func (e *Engine) Type(h Handle) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rec := e.nodes[h]; rec != nil {
		return rec.typ
	}
	return TypeNone
}

// TypeString returns the type name of h. It returns nil for a missing node.
func (e *Engine) TypeString(h Handle) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.nodes[h]
	if rec == nil {
		return nil
	}
	return []byte(typeName(rec.typ))
}

func typeName(typ int) string {
	if typ < 0 || typ >= len(typeNames) {
		return "<unknown>"
	}
	return typeNames[typ]
}

func isBlock(typ int) bool {
	return typ >= TypeDocument && typ <= TypeThematicBreak
}

func isInline(typ int) bool {
	return typ >= TypeText && typ <= TypeImage
}

func isLeaf(typ int) bool {
	switch typ {
	case TypeHTMLBlock, TypeThematicBreak, TypeCodeBlock, TypeText,
		TypeSoftBreak, TypeLineBreak, TypeCode, TypeHTMLInline:
		return true
	}
	return false
}

func hasLiteral(typ int) bool {
	switch typ {
	case TypeHTMLBlock, TypeText, TypeHTMLInline, TypeCode, TypeCodeBlock:
		return true
	}
	return false
}
