package engine

import (
	"bytes"
	"strconv"
	"strings"
)

// RenderCommonMark serializes the subtree rooted at h as CommonMark. A
// missing node renders as the empty string.
func (e *Engine) RenderCommonMark(h Handle) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.nodes[h]
	if rec == nil {
		return []byte{}
	}
	var out string
	if isInline(rec.typ) {
		w := &cmInline{e: e, bol: true}
		w.node(h)
		out = w.b.String()
	} else {
		out = e.cmBlock(h)
	}
	if out == "" {
		return []byte{}
	}
	return []byte(out + "\n")
}

// cmBlocks renders the children of h as blocks separated by sep. Runs of
// inline children are rendered together as one paragraph-like block.
func (e *Engine) cmBlocks(h Handle, sep string) string {
	var parts []string
	for c := e.nodes[h].first; c != None; {
		if isInline(e.nodes[c].typ) {
			w := &cmInline{e: e, bol: true}
			for ; c != None && isInline(e.nodes[c].typ); c = e.nodes[c].next {
				w.node(c)
			}
			parts = append(parts, w.b.String())
			continue
		}
		parts = append(parts, e.cmBlock(c))
		c = e.nodes[c].next
	}
	return strings.Join(parts, sep)
}

func (e *Engine) cmBlock(h Handle) string {
	rec := e.nodes[h]
	switch rec.typ {
	case TypeDocument, TypeCustomBlock:
		return e.cmBlocks(h, "\n\n")

	case TypeParagraph:
		return e.cmInlines(h)

	case TypeHeading:
		level := rec.level
		if level < 1 {
			level = 1
		}
		marker := strings.Repeat("#", level)
		content := e.cmInlines(h)
		if content == "" {
			return marker
		}
		return marker + " " + strings.ReplaceAll(content, "\n", " ")

	case TypeThematicBreak:
		return "-----"

	case TypeCodeBlock:
		fence := strings.Repeat("`", max(3, longestRun(rec.literal, '`')+1))
		var b strings.Builder
		b.WriteString(fence)
		b.Write(rec.info)
		b.WriteByte('\n')
		b.Write(rec.literal)
		if len(rec.literal) > 0 && rec.literal[len(rec.literal)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteString(fence)
		return b.String()

	case TypeHTMLBlock:
		return strings.TrimRight(string(rec.literal), "\n")

	case TypeBlockQuote:
		return prefixLines(e.cmBlocks(h, "\n\n"), "> ", ">")

	case TypeList:
		sep := "\n\n"
		if rec.tight {
			sep = "\n"
		}
		var items []string
		n := rec.start
		bullet := e.bulletMarker(h)
		for c := rec.first; c != None; c = e.nodes[c].next {
			marker := bullet
			if rec.listType == OrderedList {
				d := "."
				if rec.delim == ParenDelim {
					d = ")"
				}
				marker = strconv.Itoa(n) + d
				n++
			}
			items = append(items, e.cmItem(c, marker, rec.tight))
		}
		return strings.Join(items, sep)

	case TypeItem:
		return e.cmItem(h, "-", false)
	}

	if isInline(rec.typ) {
		w := &cmInline{e: e, bol: true}
		w.node(h)
		return w.b.String()
	}
	return ""
}

// bulletMarker alternates "-" and "*" across runs of adjacent bullet lists so
// that they do not merge into one list when parsed again.
func (e *Engine) bulletMarker(h Handle) string {
	run := 0
	for p := e.nodes[h].prev; p != None; p = e.nodes[p].prev {
		prev := e.nodes[p]
		if prev.typ != TypeList || prev.listType != BulletList {
			break
		}
		run++
	}
	if run%2 == 1 {
		return "*"
	}
	return "-"
}

func (e *Engine) cmItem(h Handle, marker string, tight bool) string {
	sep := "\n\n"
	if tight {
		sep = "\n"
	}
	content := e.cmBlocks(h, sep)
	if content == "" {
		return marker
	}
	indent := strings.Repeat(" ", len(marker)+1)
	return marker + " " + strings.TrimPrefix(prefixLines(content, indent, ""), indent)
}

func (e *Engine) cmInlines(h Handle) string {
	w := &cmInline{e: e, bol: true}
	for c := e.nodes[h].first; c != None; c = e.nodes[c].next {
		w.node(c)
	}
	return w.b.String()
}

// cmInline writes inline content. bol is set while the writer sits at the
// start of a line, where block markers need escaping.
type cmInline struct {
	e   *Engine
	b   strings.Builder
	bol bool
}

func (w *cmInline) children(h Handle) {
	for c := w.e.nodes[h].first; c != None; c = w.e.nodes[c].next {
		w.node(c)
	}
}

func (w *cmInline) write(s string) {
	if s == "" {
		return
	}
	w.b.WriteString(s)
	w.bol = false
}

func (w *cmInline) node(h Handle) {
	rec := w.e.nodes[h]
	switch rec.typ {
	case TypeText:
		w.write(escapeText(rec.literal, w.bol))

	case TypeSoftBreak:
		w.b.WriteByte('\n')
		w.bol = true

	case TypeLineBreak:
		w.b.WriteString("\\\n")
		w.bol = true

	case TypeCode:
		fence := strings.Repeat("`", longestRun(rec.literal, '`')+1)
		pad := ""
		if len(rec.literal) > 0 && (rec.literal[0] == '`' || rec.literal[len(rec.literal)-1] == '`' ||
			(rec.literal[0] == ' ' && rec.literal[len(rec.literal)-1] == ' ' && len(bytes.TrimSpace(rec.literal)) > 0)) {
			pad = " "
		}
		w.write(fence + pad + string(rec.literal) + pad + fence)

	case TypeHTMLInline:
		w.write(string(rec.literal))

	case TypeEmph:
		w.write("*")
		w.children(h)
		w.write("*")

	case TypeStrong:
		w.write("**")
		w.children(h)
		w.write("**")

	case TypeLink, TypeImage:
		if rec.typ == TypeImage {
			w.write("!")
		}
		w.write("[")
		w.children(h)
		w.write("](" + linkDestination(rec.url) + linkTitle(rec.title) + ")")

	case TypeCustomInline:
		w.children(h)

	default:
		if isBlock(rec.typ) {
			w.write(w.e.cmBlock(h))
		}
	}
}

func linkDestination(url []byte) string {
	if len(url) == 0 {
		return "<>"
	}
	if bytes.ContainsAny(url, " ()<>\n") {
		r := strings.NewReplacer("<", "\\<", ">", "\\>")
		return "<" + r.Replace(string(url)) + ">"
	}
	return string(url)
}

func linkTitle(title []byte) string {
	if len(title) == 0 {
		return ""
	}
	r := strings.NewReplacer("\\", "\\\\", "\"", "\\\"")
	return " \"" + r.Replace(string(title)) + "\""
}

// escapeText backslash-escapes characters that would otherwise be read as
// markup. bol marks text that starts a line.
func escapeText(lit []byte, bol bool) string {
	var b strings.Builder
	start := 0
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		switch c {
		case '\\', '*', '_', '`', '[', ']', '<':
			b.WriteByte('\\')
		case '&':
			if i+1 < len(lit) && (isAlnum(lit[i+1]) || lit[i+1] == '#') {
				b.WriteByte('\\')
			}
		case '#', '-', '+', '=', '>':
			if bol && i == start {
				b.WriteByte('\\')
			}
		case '.', ')':
			if bol && allDigits(lit[start:i]) {
				b.WriteByte('\\')
			}
		case '\n':
			b.WriteByte(c)
			bol, start = true, i+1
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func prefixLines(s, prefix, blank string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = blank
		} else {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

func longestRun(b []byte, c byte) int {
	best, cur := 0, 0
	for _, x := range b {
		if x == c {
			cur++
			best = max(best, cur)
		} else {
			cur = 0
		}
	}
	return best
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func allDigits(b []byte) bool {
	if len(b) == 0 || len(b) > 9 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
