package engine

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var markdown = goldmark.New(goldmark.WithParser(newParser()))

func newParser() parser.Parser {
	breaks := parser.NewThematicBreakParser()
	blocks := parser.DefaultBlockParsers()
	for i, v := range blocks {
		if v.Value == breaks {
			blocks[i] = util.Prioritized(breakParser{breaks}, v.Priority)
		}
	}
	return parser.NewParser(
		parser.WithBlockParsers(blocks...),
		parser.WithInlineParsers(parser.DefaultInlineParsers()...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
}

// breakParser records the marker line of a thematic break, which goldmark
// leaves without a segment.
type breakParser struct {
	parser.BlockParser
}

func (b breakParser) Open(parent gast.Node, reader text.Reader, pc parser.Context) (gast.Node, parser.State) {
	_, seg := reader.PeekLine()
	n, state := b.BlockParser.Open(parent, reader, pc)
	if n != nil {
		n.Lines().Append(seg.TrimLeftSpace(reader.Source()))
	}
	return n, state
}

// Parse parses src as a CommonMark document and returns the handle of a new,
// detached Document node.
func (e *Engine) Parse(src []byte) Handle {
	doc := markdown.Parser().Parse(text.NewReader(src))

	e.mu.Lock()
	defer e.mu.Unlock()
	l := &lowering{e: e, src: src, lines: newLineIndex(src)}
	root := e.alloc(TypeDocument)
	rec := e.nodes[root]
	rec.line, rec.col = 1, 1
	l.children(root, doc)
	return root
}

// lowering copies a goldmark AST into arena records.
type lowering struct {
	e     *Engine
	src   []byte
	lines lineIndex
}

func (l *lowering) children(parent Handle, n gast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		l.node(parent, c)
	}
}

func (l *lowering) add(parent Handle, typ int) (Handle, *record) {
	h := l.e.alloc(typ)
	l.e.attach(parent, h)
	return h, l.e.nodes[h]
}

func (l *lowering) node(parent Handle, n gast.Node) {
	switch n := n.(type) {
	case *gast.Paragraph, *gast.TextBlock:
		h, rec := l.add(parent, TypeParagraph)
		l.placeSegment(rec, n.Lines(), false)
		l.children(h, n)

	case *gast.Heading:
		h, rec := l.add(parent, TypeHeading)
		rec.level = n.Level
		l.placeSegment(rec, n.Lines(), true)
		l.children(h, n)

	case *gast.ThematicBreak:
		_, rec := l.add(parent, TypeThematicBreak)
		l.placeSegment(rec, n.Lines(), false)

	case *gast.CodeBlock:
		_, rec := l.add(parent, TypeCodeBlock)
		rec.literal = l.join(n.Lines())
		l.placeSegment(rec, n.Lines(), false)

	case *gast.FencedCodeBlock:
		_, rec := l.add(parent, TypeCodeBlock)
		rec.literal = l.join(n.Lines())
		if n.Info != nil {
			rec.info = unescape(n.Info.Segment.Value(l.src))
			rec.line, rec.col = l.lines.firstNonSpace(l.src, n.Info.Segment.Start)
		} else if n.Lines().Len() > 0 {
			line, _ := l.lines.pos(n.Lines().At(0).Start)
			if line > 1 {
				rec.line, rec.col = l.lines.firstNonSpace(l.src, l.lines.starts[line-2])
			}
		}

	case *gast.HTMLBlock:
		_, rec := l.add(parent, TypeHTMLBlock)
		rec.literal = l.join(n.Lines())
		if n.HasClosure() {
			rec.literal = append(rec.literal, n.ClosureLine.Value(l.src)...)
		}
		l.placeSegment(rec, n.Lines(), false)

	case *gast.Blockquote:
		h, _ := l.add(parent, TypeBlockQuote)
		l.children(h, n)
		l.inherit(h, true)

	case *gast.List:
		h, rec := l.add(parent, TypeList)
		if n.IsOrdered() {
			rec.listType = OrderedList
			rec.delim = PeriodDelim
			if n.Marker == ')' {
				rec.delim = ParenDelim
			}
			rec.start = n.Start
		} else {
			rec.listType = BulletList
		}
		rec.tight = n.IsTight
		l.children(h, n)
		l.inherit(h, true)

	case *gast.ListItem:
		h, _ := l.add(parent, TypeItem)
		l.children(h, n)
		l.inherit(h, true)

	case *gast.Text:
		value := n.Segment.Value(l.src)
		if n.SoftLineBreak() || n.HardLineBreak() {
			value = bytes.TrimRight(value, " \t")
		}
		if !n.IsRaw() {
			value = unescape(value)
		}
		// goldmark closes every line with a text segment, often empty
		if len(value) > 0 {
			_, rec := l.add(parent, TypeText)
			rec.literal = own(value)
			rec.line, rec.col = l.lines.pos(n.Segment.Start)
		}
		switch {
		case n.HardLineBreak():
			l.add(parent, TypeLineBreak)
		case n.SoftLineBreak():
			l.add(parent, TypeSoftBreak)
		}

	case *gast.String:
		_, rec := l.add(parent, TypeText)
		rec.literal = own(n.Value)

	case *gast.CodeSpan:
		_, rec := l.add(parent, TypeCode)
		var buf bytes.Buffer
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *gast.Text:
				v := t.Segment.Value(l.src)
				if rec.line == 0 {
					rec.line, rec.col = l.lines.pos(t.Segment.Start)
				}
				if bytes.HasSuffix(v, []byte("\n")) {
					buf.Write(v[:len(v)-1])
					buf.WriteByte(' ')
				} else {
					buf.Write(v)
				}
			case *gast.String:
				buf.Write(t.Value)
			}
		}
		rec.literal = own(buf.Bytes())

	case *gast.Emphasis:
		typ := TypeEmph
		if n.Level >= 2 {
			typ = TypeStrong
		}
		h, _ := l.add(parent, typ)
		l.children(h, n)
		l.inherit(h, false)

	case *gast.Link:
		h, rec := l.add(parent, TypeLink)
		rec.url = own(unescape(n.Destination))
		rec.title = own(unescape(n.Title))
		l.children(h, n)
		l.inherit(h, false)

	case *gast.Image:
		h, rec := l.add(parent, TypeImage)
		rec.url = own(unescape(n.Destination))
		rec.title = own(unescape(n.Title))
		l.children(h, n)
		l.inherit(h, false)

	case *gast.AutoLink:
		h, rec := l.add(parent, TypeLink)
		rec.url = own(n.URL(l.src))
		_, label := l.add(h, TypeText)
		label.literal = own(n.Label(l.src))

	case *gast.RawHTML:
		_, rec := l.add(parent, TypeHTMLInline)
		var buf bytes.Buffer
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			if i == 0 {
				rec.line, rec.col = l.lines.pos(seg.Start)
			}
			buf.Write(seg.Value(l.src))
		}
		rec.literal = own(buf.Bytes())

	default:
		typ := TypeCustomInline
		if n.Type() == gast.TypeBlock {
			typ = TypeCustomBlock
		}
		h, _ := l.add(parent, typ)
		l.children(h, n)
		l.inherit(h, typ == TypeCustomBlock)
	}
}

func (l *lowering) join(lines *text.Segments) []byte {
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(l.src))
	}
	return own(buf.Bytes())
}

// placeSegment positions a block at its first content segment. When
// lineStart is set the column is the first non-blank column of that line,
// which is where ATX and setext markers sit.
func (l *lowering) placeSegment(rec *record, lines *text.Segments, lineStart bool) {
	if lines == nil || lines.Len() == 0 {
		return
	}
	off := lines.At(0).Start
	if lineStart {
		rec.line, rec.col = l.lines.firstNonSpace(l.src, off)
		return
	}
	rec.line, rec.col = l.lines.pos(off)
}

// inherit positions a container at its first positioned child.
func (l *lowering) inherit(h Handle, block bool) {
	rec := l.e.nodes[h]
	for c := rec.first; c != None; c = l.e.nodes[c].next {
		crec := l.e.nodes[c]
		if crec.line == 0 {
			continue
		}
		rec.line, rec.col = crec.line, crec.col
		if block {
			line, col := l.lines.firstNonSpace(l.src, l.lines.starts[crec.line-1])
			if line == crec.line && col < crec.col {
				rec.col = col
			}
		}
		return
	}
}

// attach links child as the last child of parent without validity checks.
func (e *Engine) attach(parent, child Handle) {
	prec, crec := e.nodes[parent], e.nodes[child]
	crec.parent = parent
	crec.prev = prec.last
	if prec.last != None {
		e.nodes[prec.last].next = child
	} else {
		prec.first = child
	}
	prec.last = child
}

func unescape(b []byte) []byte {
	if len(b) == 0 {
		return b
	}
	b = util.UnescapePunctuations(b)
	b = util.ResolveNumericReferences(b)
	return util.ResolveEntityNames(b)
}

// lineIndex maps byte offsets to 1-based line and column numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(src []byte) lineIndex {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts}
}

func (li lineIndex) pos(off int) (int, int) {
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > off }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, off - li.starts[i] + 1
}

func (li lineIndex) firstNonSpace(src []byte, off int) (int, int) {
	line, _ := li.pos(off)
	start := li.starts[line-1]
	i := start
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return line, i - start + 1
}
