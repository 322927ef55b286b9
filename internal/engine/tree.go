package engine

func (e *Engine) link(h Handle, pick func(*record) Handle) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.nodes[h]
	if rec == nil {
		return None
	}
	return pick(rec)
}

// Next returns the following sibling of h.
func (e *Engine) Next(h Handle) Handle {
	return e.link(h, func(r *record) Handle { return r.next })
}

// Previous returns the preceding sibling of h.
func (e *Engine) Previous(h Handle) Handle {
	return e.link(h, func(r *record) Handle { return r.prev })
}

// Parent returns the parent of h.
func (e *Engine) Parent(h Handle) Handle {
	return e.link(h, func(r *record) Handle { return r.parent })
}

// FirstChild returns the first child of h.
func (e *Engine) FirstChild(h Handle) Handle {
	return e.link(h, func(r *record) Handle { return r.first })
}

// LastChild returns the last child of h.
func (e *Engine) LastChild(h Handle) Handle {
	return e.link(h, func(r *record) Handle { return r.last })
}

// Unlink detaches h from its parent and siblings. Its children stay in place.
func (e *Engine) Unlink(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unlink(h)
}

func (e *Engine) unlink(h Handle) {
	rec := e.nodes[h]
	if rec == nil {
		return
	}
	if rec.prev != None {
		e.nodes[rec.prev].next = rec.next
	}
	if rec.next != None {
		e.nodes[rec.next].prev = rec.prev
	}
	if parent := e.nodes[rec.parent]; parent != nil {
		if parent.first == h {
			parent.first = rec.next
		}
		if parent.last == h {
			parent.last = rec.prev
		}
	}
	rec.parent, rec.prev, rec.next = None, None, None
}

// AppendChild moves child to the end of parent's children. It returns
// StatusFail when parent may not contain child.
func (e *Engine) AppendChild(parent, child Handle) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.canContain(parent, child) {
		return StatusFail
	}
	e.unlink(child)

	prec, crec := e.nodes[parent], e.nodes[child]
	crec.parent = parent
	crec.prev = prec.last
	if prec.last != None {
		e.nodes[prec.last].next = child
	} else {
		prec.first = child
	}
	prec.last = child
	return StatusOK
}

func (e *Engine) canContain(parent, child Handle) bool {
	prec, crec := e.nodes[parent], e.nodes[child]
	if prec == nil || crec == nil || parent == child {
		return false
	}
	// child may not be an ancestor of parent
	for cur := prec.parent; cur != None; cur = e.nodes[cur].parent {
		if cur == child {
			return false
		}
	}
	return CanContain(prec.typ, crec.typ)
}

// CanContain reports whether a node of type parent may hold a direct child
// of type child.
func CanContain(parent, child int) bool {
	if child == TypeDocument || child <= TypeNone || child > TypeImage {
		return false
	}
	switch parent {
	case TypeDocument, TypeBlockQuote, TypeItem:
		return isBlock(child) && child != TypeItem
	case TypeList:
		return child == TypeItem
	case TypeCustomBlock:
		return true
	case TypeParagraph, TypeHeading, TypeEmph, TypeStrong, TypeLink,
		TypeImage, TypeCustomInline:
		return isInline(child)
	}
	return false
}

// ConsolidateTextNodes merges runs of adjacent Text siblings anywhere under
// root into the first Text node of each run.
func (e *Engine) ConsolidateTextNodes(root Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.consolidate(root)
}

func (e *Engine) consolidate(h Handle) {
	rec := e.nodes[h]
	if rec == nil {
		return
	}
	for c := rec.first; c != None; c = e.nodes[c].next {
		crec := e.nodes[c]
		if crec.typ != TypeText {
			e.consolidate(c)
			continue
		}
		for crec.next != None && e.nodes[crec.next].typ == TypeText {
			tmp := crec.next
			crec.literal = append(crec.literal, e.nodes[tmp].literal...)
			e.unlink(tmp)
			e.freeTree(tmp)
		}
	}
}
