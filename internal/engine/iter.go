package engine

type iterEvent struct {
	ev   int
	node Handle
}

type iterState struct {
	root Handle
	cur  iterEvent
	next iterEvent
}

// IterNew starts a walk over the subtree rooted at root. It returns the zero
// Cursor when root is not a live node.
func (e *Engine) IterNew(root Handle) Cursor {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.nodes[root]; !ok {
		return 0
	}
	e.seq++
	c := Cursor(e.seq)
	e.iters[c] = &iterState{
		root: root,
		cur:  iterEvent{ev: EventNone},
		next: iterEvent{ev: EventEnter, node: root},
	}
	return c
}

// IterNext advances the cursor and returns the event for the new position.
// Container nodes produce an enter and an exit event, leaf nodes only enter.
// The walk never leaves root. A node freed or detached from root mid-walk
// ends the walk with EventDone.
func (e *Engine) IterNext(c Cursor) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	it := e.iters[c]
	if it == nil {
		return EventNone
	}

	ev, node := it.next.ev, it.next.node
	it.cur = it.next
	if ev == EventDone {
		return ev
	}
	rec := e.nodes[node]
	if rec == nil {
		it.cur = iterEvent{ev: EventDone}
		it.next = it.cur
		return EventDone
	}

	switch {
	case ev == EventEnter && !isLeaf(rec.typ):
		if rec.first == None {
			it.next = iterEvent{ev: EventExit, node: node}
		} else {
			it.next = iterEvent{ev: EventEnter, node: rec.first}
		}
	case node == it.root:
		it.next = iterEvent{ev: EventDone}
	case rec.next != None:
		it.next = iterEvent{ev: EventEnter, node: rec.next}
	case rec.parent != None:
		it.next = iterEvent{ev: EventExit, node: rec.parent}
	default:
		it.next = iterEvent{ev: EventDone}
	}
	return ev
}

// IterNode returns the node at the cursor's current position.
func (e *Engine) IterNode(c Cursor) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if it := e.iters[c]; it != nil {
		return it.cur.node
	}
	return None
}

// IterFree releases the cursor. Freeing an unknown cursor is a no-op.
func (e *Engine) IterFree(c Cursor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.iters, c)
}
