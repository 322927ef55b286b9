package mdtree

import (
	"fmt"
)

// New allocates a detached node of kind k. The node is the root of a new
// tree and is freed when that tree is released. New panics if the engine
// cannot allocate the node.
func New(k Kind, opts ...Option) (Node, error) {
	if !k.valid() {
		return nil, &BadEnumError{What: "node kind", Value: int(k)}
	}
	o := buildOptions(opts)
	h := o.engine.NewNode(int(k))
	if h == 0 {
		panic(fmt.Sprintf("mdtree: engine failed to allocate a %s node", k))
	}
	m := newManager(o)
	n := bind(m, h, k)
	m.trackRoot(h)
	return n, nil
}

func mustNew(k Kind, opts []Option) Node {
	n, err := New(k, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// Document is the root of a parsed or built document.
type Document struct{ *nodeCore }

// NewDocument allocates a detached Document node.
func NewDocument(opts ...Option) *Document { return mustNew(KindDocument, opts).(*Document) }

// BlockQuote is a block quote.
type BlockQuote struct{ *nodeCore }

// NewBlockQuote allocates a detached BlockQuote node.
func NewBlockQuote(opts ...Option) *BlockQuote { return mustNew(KindBlockQuote, opts).(*BlockQuote) }

// List is a bullet or ordered list.
type List struct{ *nodeCore }

// NewList allocates a detached List node.
func NewList(opts ...Option) *List { return mustNew(KindList, opts).(*List) }

// Item is a list item.
type Item struct{ *nodeCore }

// NewItem allocates a detached Item node.
func NewItem(opts ...Option) *Item { return mustNew(KindItem, opts).(*Item) }

// CodeBlock is a fenced or indented code block.
type CodeBlock struct{ *nodeCore }

// NewCodeBlock allocates a detached CodeBlock node.
func NewCodeBlock(opts ...Option) *CodeBlock { return mustNew(KindCodeBlock, opts).(*CodeBlock) }

// HtmlBlock is a raw HTML block.
type HtmlBlock struct{ *nodeCore }

// NewHtmlBlock allocates a detached HtmlBlock node.
func NewHtmlBlock(opts ...Option) *HtmlBlock { return mustNew(KindHtmlBlock, opts).(*HtmlBlock) }

// CustomBlock is a block of application-defined content.
type CustomBlock struct{ *nodeCore }

// NewCustomBlock allocates a detached CustomBlock node.
func NewCustomBlock(opts ...Option) *CustomBlock { return mustNew(KindCustomBlock, opts).(*CustomBlock) }

// Paragraph is a paragraph.
type Paragraph struct{ *nodeCore }

// NewParagraph allocates a detached Paragraph node.
func NewParagraph(opts ...Option) *Paragraph { return mustNew(KindParagraph, opts).(*Paragraph) }

// Heading is an ATX or setext heading.
type Heading struct{ *nodeCore }

// NewHeading allocates a detached Heading node.
func NewHeading(opts ...Option) *Heading { return mustNew(KindHeading, opts).(*Heading) }

// ThematicBreak is a thematic break.
type ThematicBreak struct{ *nodeCore }

// NewThematicBreak allocates a detached ThematicBreak node.
func NewThematicBreak(opts ...Option) *ThematicBreak { return mustNew(KindThematicBreak, opts).(*ThematicBreak) }

// Text is literal text.
type Text struct{ *nodeCore }

// NewText allocates a detached Text node.
func NewText(opts ...Option) *Text { return mustNew(KindText, opts).(*Text) }

// SoftBreak is a soft line break.
type SoftBreak struct{ *nodeCore }

// NewSoftBreak allocates a detached SoftBreak node.
func NewSoftBreak(opts ...Option) *SoftBreak { return mustNew(KindSoftBreak, opts).(*SoftBreak) }

// LineBreak is a hard line break.
type LineBreak struct{ *nodeCore }

// NewLineBreak allocates a detached LineBreak node.
func NewLineBreak(opts ...Option) *LineBreak { return mustNew(KindLineBreak, opts).(*LineBreak) }

// Code is an inline code span.
type Code struct{ *nodeCore }

// NewCode allocates a detached Code node.
func NewCode(opts ...Option) *Code { return mustNew(KindCode, opts).(*Code) }

// HtmlInline is inline raw HTML.
type HtmlInline struct{ *nodeCore }

// NewHtmlInline allocates a detached HtmlInline node.
func NewHtmlInline(opts ...Option) *HtmlInline { return mustNew(KindHtmlInline, opts).(*HtmlInline) }

// CustomInline is inline application-defined content.
type CustomInline struct{ *nodeCore }

// NewCustomInline allocates a detached CustomInline node.
func NewCustomInline(opts ...Option) *CustomInline { return mustNew(KindCustomInline, opts).(*CustomInline) }

// Emph is emphasis.
type Emph struct{ *nodeCore }

// NewEmph allocates a detached Emph node.
func NewEmph(opts ...Option) *Emph { return mustNew(KindEmph, opts).(*Emph) }

// Strong is strong emphasis.
type Strong struct{ *nodeCore }

// NewStrong allocates a detached Strong node.
func NewStrong(opts ...Option) *Strong { return mustNew(KindStrong, opts).(*Strong) }

// Link is a link.
type Link struct{ *nodeCore }

// NewLink allocates a detached Link node.
func NewLink(opts ...Option) *Link { return mustNew(KindLink, opts).(*Link) }

// Image is an image.
type Image struct{ *nodeCore }

// NewImage allocates a detached Image node.
func NewImage(opts ...Option) *Image { return mustNew(KindImage, opts).(*Image) }
