package engine

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// own copies b into a non-nil slice so that an empty value stays distinct
// from an absent one.
func own(b []byte) []byte {
	return append([]byte{}, b...)
}

func (e *Engine) get(h Handle, fn func(*record) []byte) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.nodes[h]
	if rec == nil {
		return nil
	}
	return clone(fn(rec))
}

func (e *Engine) set(h Handle, ok func(*record) bool, fn func(*record)) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.nodes[h]
	if rec == nil || !ok(rec) {
		return StatusFail
	}
	fn(rec)
	return StatusOK
}

func (e *Engine) num(h Handle, fn func(*record) int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.nodes[h]
	if rec == nil {
		return 0
	}
	return fn(rec)
}

// Literal returns the literal content of Text, Code, CodeBlock, HTMLBlock and
// HTMLInline nodes, and nil for every other type.
func (e *Engine) Literal(h Handle) []byte {
	return e.get(h, func(r *record) []byte { return r.literal })
}

// SetLiteral replaces the literal content of a literal-bearing node.
func (e *Engine) SetLiteral(h Handle, content []byte) int {
	return e.set(h,
		func(r *record) bool { return hasLiteral(r.typ) },
		func(r *record) { r.literal = own(content) })
}

// StartLine returns the 1-based source line of h, or 0 for built nodes.
func (e *Engine) StartLine(h Handle) int {
	return e.num(h, func(r *record) int { return r.line })
}

// StartColumn returns the 1-based source column of h, or 0 for built nodes.
func (e *Engine) StartColumn(h Handle) int {
	return e.num(h, func(r *record) int { return r.col })
}

// ListType returns the list type code, NoList for non-list nodes.
func (e *Engine) ListType(h Handle) int {
	return e.num(h, func(r *record) int { return r.listType })
}

// ListDelim returns the list delimiter code, NoDelim for bullet lists and
// non-list nodes.
func (e *Engine) ListDelim(h Handle) int {
	return e.num(h, func(r *record) int { return r.delim })
}

// ListStart returns the starting number of an ordered list.
func (e *Engine) ListStart(h Handle) int {
	return e.num(h, func(r *record) int { return r.start })
}

// ListTight reports whether the list is tight.
func (e *Engine) ListTight(h Handle) bool {
	return e.num(h, func(r *record) int {
		if r.tight {
			return 1
		}
		return 0
	}) == 1
}

// HeadingLevel returns the level of a heading, 0 for other types.
func (e *Engine) HeadingLevel(h Handle) int {
	return e.num(h, func(r *record) int { return r.level })
}

// SetHeadingLevel sets the level of a heading. Levels outside 1..6 fail.
func (e *Engine) SetHeadingLevel(h Handle, level int) int {
	return e.set(h,
		func(r *record) bool { return r.typ == TypeHeading && level >= 1 && level <= 6 },
		func(r *record) { r.level = level })
}

// URL returns the destination of a link or image.
func (e *Engine) URL(h Handle) []byte {
	return e.get(h, func(r *record) []byte { return r.url })
}

// SetURL sets the destination of a link or image.
func (e *Engine) SetURL(h Handle, url []byte) int {
	return e.set(h,
		func(r *record) bool { return r.typ == TypeLink || r.typ == TypeImage },
		func(r *record) { r.url = own(url) })
}

// Title returns the title of a link or image.
func (e *Engine) Title(h Handle) []byte {
	return e.get(h, func(r *record) []byte { return r.title })
}

// SetTitle sets the title of a link or image.
func (e *Engine) SetTitle(h Handle, title []byte) int {
	return e.set(h,
		func(r *record) bool { return r.typ == TypeLink || r.typ == TypeImage },
		func(r *record) { r.title = own(title) })
}

// FenceInfo returns the info string of a code block.
func (e *Engine) FenceInfo(h Handle) []byte {
	return e.get(h, func(r *record) []byte { return r.info })
}

// SetFenceInfo sets the info string of a code block.
func (e *Engine) SetFenceInfo(h Handle, info []byte) int {
	return e.set(h,
		func(r *record) bool { return r.typ == TypeCodeBlock },
		func(r *record) { r.info = own(info) })
}
