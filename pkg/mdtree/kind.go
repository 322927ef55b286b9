package mdtree

import (
	"github.com/starford/mdtree/internal/engine"
)

// Kind identifies one of the 20 CommonMark node kinds.
type Kind int

const (
	KindDocument Kind = iota + 1
	KindBlockQuote
	KindList
	KindItem
	KindCodeBlock
	KindHtmlBlock
	KindCustomBlock
	KindParagraph
	KindHeading
	KindThematicBreak
	KindText
	KindSoftBreak
	KindLineBreak
	KindCode
	KindHtmlInline
	KindCustomInline
	KindEmph
	KindStrong
	KindLink
	KindImage
)

var kindNames = [...]string{
	KindDocument:      "document",
	KindBlockQuote:    "block_quote",
	KindList:          "list",
	KindItem:          "item",
	KindCodeBlock:     "code_block",
	KindHtmlBlock:     "html_block",
	KindCustomBlock:   "custom_block",
	KindParagraph:     "paragraph",
	KindHeading:       "heading",
	KindThematicBreak: "thematic_break",
	KindText:          "text",
	KindSoftBreak:     "softbreak",
	KindLineBreak:     "linebreak",
	KindCode:          "code",
	KindHtmlInline:    "html_inline",
	KindCustomInline:  "custom_inline",
	KindEmph:          "emph",
	KindStrong:        "strong",
	KindLink:          "link",
	KindImage:         "image",
}

// Kinds returns every node kind in code order.
func Kinds() []Kind {
	out := make([]Kind, 0, KindImage)
	for k := KindDocument; k <= KindImage; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if !k.valid() {
		return "unknown"
	}
	return kindNames[k]
}

func (k Kind) valid() bool { return k >= KindDocument && k <= KindImage }

// IsBlock reports whether k is a block-level kind.
func (k Kind) IsBlock() bool { return k >= KindDocument && k <= KindThematicBreak }

// IsInline reports whether k is an inline kind.
func (k Kind) IsInline() bool { return k >= KindText && k <= KindImage }

// IsLeaf reports whether the iterator visits k without an exit event.
func (k Kind) IsLeaf() bool {
	switch k {
	case KindHtmlBlock, KindThematicBreak, KindCodeBlock, KindText,
		KindSoftBreak, KindLineBreak, KindCode, KindHtmlInline:
		return true
	}
	return false
}

// ParseKind returns the kind with the given name as printed by Kind.String.
func ParseKind(name string) (Kind, bool) {
	for k := KindDocument; k <= KindImage; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return 0, false
}

func kindFromCode(code int) (Kind, error) {
	if code == engine.TypeNone {
		return 0, ErrNoNode
	}
	k := Kind(code)
	if !k.valid() {
		return 0, &BadEnumError{What: "node kind", Value: code}
	}
	return k, nil
}

// ListType is the marker family of a list.
type ListType int

const (
	ListNone ListType = iota
	ListBullet
	ListOrdered
)

func (t ListType) String() string {
	switch t {
	case ListBullet:
		return "bullet"
	case ListOrdered:
		return "ordered"
	}
	return "none"
}

func listTypeFromCode(code int) (ListType, error) {
	switch code {
	case engine.NoList, engine.BulletList, engine.OrderedList:
		return ListType(code), nil
	}
	return 0, &BadEnumError{What: "list type", Value: code}
}

// Delimiter is the punctuation following the number of an ordered list item.
type Delimiter int

const (
	DelimNone Delimiter = iota
	DelimPeriod
	DelimParen
)

func (d Delimiter) String() string {
	switch d {
	case DelimPeriod:
		return "period"
	case DelimParen:
		return "paren"
	}
	return "none"
}

func delimiterFromCode(code int) (Delimiter, error) {
	switch code {
	case engine.NoDelim, engine.PeriodDelim, engine.ParenDelim:
		return Delimiter(code), nil
	}
	return 0, &BadEnumError{What: "list delimiter", Value: code}
}

// EventType is a step of a tree walk.
type EventType int

const (
	EventNone EventType = iota
	EventDone
	EventEnter
	EventExit
)

func (e EventType) String() string {
	switch e {
	case EventDone:
		return "done"
	case EventEnter:
		return "enter"
	case EventExit:
		return "exit"
	}
	return "none"
}

func eventFromCode(code int) (EventType, error) {
	switch code {
	case engine.EventNone, engine.EventDone, engine.EventEnter, engine.EventExit:
		return EventType(code), nil
	}
	return 0, &BadEnumError{What: "iterator event", Value: code}
}
