package tree

import "errors"

var (
	// ErrNotFound is returned when an operation names an ID the tree does not contain.
	// The tree returned alongside it is always the unchanged input.
	ErrNotFound = errors.New("node not found")

	// ErrDuplicateID is returned when a node would be added under an ID already in use.
	ErrDuplicateID = errors.New("duplicate node id")

	// ErrEmptyID is returned for nodes without an ID.
	ErrEmptyID = errors.New("empty node id")

	// ErrInvalidPosition is returned for positions other than before/after/inside.
	ErrInvalidPosition = errors.New("invalid position")
)
