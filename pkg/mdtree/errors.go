package mdtree

import (
	"errors"
	"fmt"
)

var (
	// ErrNoNode is returned when the engine reports the "none" kind for a
	// handle that was expected to be a node.
	ErrNoNode = errors.New("mdtree: no node")
	// ErrResourceUnavailable is returned when a Node is used after Close or
	// after its underlying node was freed by another owner.
	ErrResourceUnavailable = errors.New("mdtree: resource unavailable")
	ErrInvalidUTF8         = errors.New("mdtree: engine returned invalid utf-8")
	ErrNulByte             = errors.New("mdtree: text contains a NUL byte")
	ErrBadEnum             = errors.New("mdtree: enum value out of range")
	ErrReturnCode          = errors.New("mdtree: engine call failed")
	// ErrEngineMismatch is returned when two nodes from trees built on
	// different engines are linked.
	ErrEngineMismatch = errors.New("mdtree: nodes belong to different engines")
)

// BadEnumError reports an engine code outside the known set of What.
type BadEnumError struct {
	What  string
	Value int
}

func (e *BadEnumError) Error() string {
	return fmt.Sprintf("mdtree: unknown %s code %d", e.What, e.Value)
}

func (e *BadEnumError) Is(target error) bool { return target == ErrBadEnum }

// ReturnCodeError reports a non-success status from a mutating engine call.
type ReturnCodeError struct {
	Op   string
	Code int
}

func (e *ReturnCodeError) Error() string {
	return fmt.Sprintf("mdtree: %s: engine status %d", e.Op, e.Code)
}

func (e *ReturnCodeError) Is(target error) bool { return target == ErrReturnCode }
