package mdtree

import (
	"github.com/starford/mdtree/internal/engine"
)

// Handle is an opaque engine node identity. The zero Handle means "none".
type Handle = engine.Handle

// Cursor is an opaque engine iterator identity.
type Cursor = engine.Cursor

// Engine is the node store a tree is built on. It owns node memory, parses
// and renders, and exposes tree links by handle. Integer results use the
// codes of package engine: kind codes 0..20, status 1 for success and 0 for
// failure, and the list, delimiter and event codes.
type Engine interface {
	NewNode(typ int) Handle
	Parse(src []byte) Handle
	Free(h Handle)
	Valid(h Handle) bool

	Type(h Handle) int
	TypeString(h Handle) []byte
	Literal(h Handle) []byte
	SetLiteral(h Handle, content []byte) int
	StartLine(h Handle) int
	StartColumn(h Handle) int
	ListType(h Handle) int
	ListDelim(h Handle) int
	ListStart(h Handle) int
	ListTight(h Handle) bool
	HeadingLevel(h Handle) int
	SetHeadingLevel(h Handle, level int) int
	URL(h Handle) []byte
	SetURL(h Handle, url []byte) int
	Title(h Handle) []byte
	SetTitle(h Handle, title []byte) int
	FenceInfo(h Handle) []byte
	SetFenceInfo(h Handle, info []byte) int

	Next(h Handle) Handle
	Previous(h Handle) Handle
	Parent(h Handle) Handle
	FirstChild(h Handle) Handle
	LastChild(h Handle) Handle
	Unlink(h Handle)
	AppendChild(parent, child Handle) int
	ConsolidateTextNodes(root Handle)

	RenderCommonMark(h Handle) []byte
	RenderXML(h Handle) []byte

	IterNew(root Handle) Cursor
	IterNext(c Cursor) int
	IterNode(c Cursor) Handle
	IterFree(c Cursor)
}

var _ Engine = (*engine.Engine)(nil)
