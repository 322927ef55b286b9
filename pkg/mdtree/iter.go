package mdtree

import (
	"iter"
	"log/slog"
	"runtime"
)

// Iterator walks a subtree in document order. Container nodes are reported
// on enter and on exit, leaf nodes only on enter. An Iterator is single-use:
// once it reports the end of the walk it stays there.
//
// The engine cursor behind an Iterator is released exactly once, on Close,
// when the walk ends, or by the garbage collector for an abandoned Iterator.
type Iterator struct {
	res     *cursorRes
	done    bool
	cleanup runtime.Cleanup
}

// cursorRes is what an abandoned Iterator still has to give back.
type cursorRes struct {
	m      *manager
	cursor Cursor
}

func (r *cursorRes) free() {
	r.m.eng.IterFree(r.cursor)
	r.m.release()
}

// Iter starts a walk over the subtree rooted at the node. The walk never
// leaves that subtree.
func (c *nodeCore) Iter() (*Iterator, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	cur := c.m.eng.IterNew(c.h)
	if cur == 0 {
		return nil, ErrResourceUnavailable
	}
	c.m.acquire()
	it := &Iterator{res: &cursorRes{m: c.m, cursor: cur}}
	it.cleanup = runtime.AddCleanup(it, (*cursorRes).free, it.res)
	return it, nil
}

// Next advances the walk. It returns false once the walk is over, after
// which the Iterator is closed.
func (it *Iterator) Next() (Node, EventType, bool) {
	if it.done {
		return nil, EventDone, false
	}
	eng := it.res.m.eng
	ev, err := eventFromCode(eng.IterNext(it.res.cursor))
	if err == nil && (ev == EventDone || ev == EventNone) {
		it.Close()
		return nil, ev, false
	}
	var n Node
	if err == nil {
		n, err = fromRaw(it.res.m, eng.IterNode(it.res.cursor))
	}
	if err != nil {
		it.res.m.log.Error("mdtree: iteration stopped", slog.String("error", err.Error()))
		it.Close()
		return nil, EventDone, false
	}
	return n, ev, true
}

// All returns the remaining walk as a sequence. The Iterator is closed when
// the loop ends, whether it ran to completion or not.
func (it *Iterator) All() iter.Seq2[Node, EventType] {
	return func(yield func(Node, EventType) bool) {
		defer it.Close()
		for {
			n, ev, ok := it.Next()
			if !ok || !yield(n, ev) {
				return
			}
		}
	}
}

// Close releases the engine cursor. It is safe to call more than once.
func (it *Iterator) Close() error {
	if it.done {
		return nil
	}
	it.done = true
	it.cleanup.Stop()
	it.res.free()
	return nil
}
