package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidFormat     = errors.New("invalid format")
	ErrInvalidExpression = errors.New("invalid expression")
)
