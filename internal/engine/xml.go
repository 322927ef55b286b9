package engine

import (
	"strconv"
	"strings"
)

const (
	xmlHeader    = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<!DOCTYPE document SYSTEM \"CommonMark.dtd\">\n"
	xmlNamespace = "http://commonmark.org/xml/1.0"
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")

// RenderXML serializes the subtree rooted at h in the CommonMark XML format.
func (e *Engine) RenderXML(h Handle) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.nodes[h] == nil {
		return []byte{}
	}
	var b strings.Builder
	b.WriteString(xmlHeader)
	e.xmlNode(&b, h, 0)
	return []byte(b.String())
}

func (e *Engine) xmlNode(b *strings.Builder, h Handle, depth int) {
	rec := e.nodes[h]
	name := typeName(rec.typ)

	b.WriteString(strings.Repeat("  ", depth))
	b.WriteByte('<')
	b.WriteString(name)
	for _, a := range e.xmlAttrs(rec) {
		b.WriteString(" " + a[0] + "=\"" + xmlEscaper.Replace(a[1]) + "\"")
	}

	if hasLiteral(rec.typ) {
		b.WriteString(" xml:space=\"preserve\">")
		b.WriteString(xmlEscaper.Replace(string(rec.literal)))
		b.WriteString("</" + name + ">\n")
		return
	}
	if rec.first == None {
		b.WriteString(" />\n")
		return
	}
	b.WriteString(">\n")
	for c := rec.first; c != None; c = e.nodes[c].next {
		e.xmlNode(b, c, depth+1)
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString("</" + name + ">\n")
}

func (e *Engine) xmlAttrs(rec *record) [][2]string {
	switch rec.typ {
	case TypeDocument:
		return [][2]string{{"xmlns", xmlNamespace}}
	case TypeList:
		if rec.listType == OrderedList {
			delim := "period"
			if rec.delim == ParenDelim {
				delim = "paren"
			}
			return [][2]string{
				{"type", "ordered"},
				{"start", strconv.Itoa(rec.start)},
				{"delim", delim},
				{"tight", strconv.FormatBool(rec.tight)},
			}
		}
		return [][2]string{{"type", "bullet"}, {"tight", strconv.FormatBool(rec.tight)}}
	case TypeHeading:
		return [][2]string{{"level", strconv.Itoa(rec.level)}}
	case TypeCodeBlock:
		if len(rec.info) > 0 {
			return [][2]string{{"info", string(rec.info)}}
		}
	case TypeLink, TypeImage:
		return [][2]string{{"destination", string(rec.url)}, {"title", string(rec.title)}}
	}
	return nil
}
