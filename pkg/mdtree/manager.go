package mdtree

import (
	"log/slog"
	"sync"
)

// manager owns the tracked roots of one tree arena. Every Node value bound to
// it holds one reference; the last release frees each tracked root through
// the engine, which frees the root's whole subtree.
//
// A manager is not meant to be shared across goroutines. mu only serializes
// the releases issued by GC cleanups, which run on their own goroutine.
type manager struct {
	mu    sync.Mutex
	eng   Engine
	log   *slog.Logger
	roots map[Handle]struct{}
	refs  int
	down  bool
}

func newManager(o options) *manager {
	return &manager{
		eng:   o.engine,
		log:   o.logger,
		roots: make(map[Handle]struct{}),
	}
}

// owners maps each tracked root to the one manager that tracks it. Values
// bound to different managers can alias the same node, so moving a handle
// between trees must be seen by every manager, not just the caller's.
//
// Lock order: owners.mu before any manager's mu.
var owners = struct {
	mu sync.Mutex
	m  map[ownerKey]*manager
}{m: make(map[ownerKey]*manager)}

type ownerKey struct {
	eng Engine
	h   Handle
}

// trackRoot makes m the only tracker of h.
func (m *manager) trackRoot(h Handle) {
	owners.mu.Lock()
	defer owners.mu.Unlock()
	k := ownerKey{m.eng, h}
	if prev := owners.m[k]; prev != nil && prev != m {
		prev.mu.Lock()
		delete(prev.roots, h)
		prev.mu.Unlock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		delete(owners.m, k)
		return
	}
	m.roots[h] = struct{}{}
	owners.m[k] = m
}

// untrackRoot stops tracking h in whichever manager tracks it.
func (m *manager) untrackRoot(h Handle) {
	owners.mu.Lock()
	defer owners.mu.Unlock()
	k := ownerKey{m.eng, h}
	prev := owners.m[k]
	if prev == nil {
		return
	}
	prev.mu.Lock()
	delete(prev.roots, h)
	prev.mu.Unlock()
	delete(owners.m, k)
}

func (m *manager) isTracking(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.roots[h]
	return ok
}

func (m *manager) acquire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs++
}

func (m *manager) release() {
	owners.mu.Lock()
	defer owners.mu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs--
	if m.refs > 0 || m.down {
		return
	}
	m.down = true
	for h := range m.roots {
		k := ownerKey{m.eng, h}
		if owners.m[k] == m {
			delete(owners.m, k)
		}
		m.eng.Free(h)
	}
	m.log.Debug("mdtree: tree released", slog.Int("roots", len(m.roots)))
	clear(m.roots)
}
