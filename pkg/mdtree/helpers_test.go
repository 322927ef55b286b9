package mdtree

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/mdtree/internal/engine"
)

func testEngine(t *testing.T) (*engine.Engine, []Option) {
	t.Helper()
	e := engine.New()
	return e, []Option{WithEngine(e), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
}

func mustParse(t *testing.T, src string, opts []Option) *Document {
	t.Helper()
	doc, err := Parse(src, opts...)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	t.Cleanup(func() { doc.Close() })
	return doc
}

func mustFirst(t *testing.T, n Node) Node {
	t.Helper()
	c, err := n.FirstChild()
	if err != nil {
		t.Fatalf("FirstChild: %v", err)
	}
	if c == nil {
		t.Fatalf("%s has no children", n)
	}
	return c
}

// skewEngine reports corrupt codes for selected handles and cursors.
// A non-zero rootKind is reported for every document it parses.
type skewEngine struct {
	*engine.Engine
	kinds    map[Handle]int
	events   map[Cursor]int
	rootKind int
}

func newSkewEngine() *skewEngine {
	return &skewEngine{
		Engine: engine.New(),
		kinds:  map[Handle]int{},
		events: map[Cursor]int{},
	}
}

func (s *skewEngine) Type(h Handle) int {
	if code, ok := s.kinds[h]; ok {
		return code
	}
	return s.Engine.Type(h)
}

func (s *skewEngine) Parse(src []byte) Handle {
	h := s.Engine.Parse(src)
	if s.rootKind != 0 {
		s.kinds[h] = s.rootKind
	}
	return h
}

func (s *skewEngine) IterNew(root Handle) Cursor {
	c := s.Engine.IterNew(root)
	if code, ok := s.events[0]; ok {
		s.events[c] = code
	}
	return c
}

func (s *skewEngine) IterNext(c Cursor) int {
	if code, ok := s.events[c]; ok {
		s.Engine.IterNext(c)
		return code
	}
	return s.Engine.IterNext(c)
}
