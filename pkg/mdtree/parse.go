// Package mdtree is a mutable, navigable CommonMark tree.
//
// A tree is created by Parse or New and is built on an Engine that owns the
// node memory. Nodes can be detached, moved between trees and re-attached;
// each tree tracks the detached roots it owns and frees every node exactly
// once when the last Node value bound to it is closed or collected.
package mdtree

import (
	"fmt"
)

// Parse parses a CommonMark document into a new tree.
func Parse(text string, opts ...Option) (*Document, error) {
	return ParseBytes([]byte(text), opts...)
}

// ParseBytes parses a CommonMark document into a new tree.
func ParseBytes(src []byte, opts ...Option) (*Document, error) {
	o := buildOptions(opts)
	h := o.engine.Parse(src)
	k, err := kindFromCode(o.engine.Type(h))
	if err != nil {
		o.engine.Free(h)
		return nil, fmt.Errorf("mdtree: parse: %w", err)
	}
	if k != KindDocument {
		o.engine.Free(h)
		return nil, fmt.Errorf("mdtree: parse: root is %s: %w", k, ErrBadEnum)
	}
	m := newManager(o)
	doc := bind(m, h, k).(*Document)
	m.trackRoot(h)
	return doc, nil
}
