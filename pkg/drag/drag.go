// Package drag moves nodes around a tree in response to drag-and-drop
// gestures, refusing drops that would corrupt the tree.
package drag

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/arbor/pkg/tree"
)

var (
	// ErrSelfDrop is returned when a node is dropped onto itself.
	ErrSelfDrop = errors.New("cannot drop a node onto itself")
	// ErrCycle is returned when a node is dropped into its own subtree.
	ErrCycle = errors.New("cannot drop a node into its own subtree")
	// ErrNoDrag is returned by Session.Drop when nothing is being dragged or
	// no target has been chosen.
	ErrNoDrag = errors.New("no drag in progress")
)

// ResolvePosition maps the pointer's vertical offset within a target row to
// a drop position: the top quarter means before, the bottom quarter after,
// and the middle half inside.
func ResolvePosition(offsetY, rowHeight float64) tree.Position {
	if rowHeight <= 0 {
		return tree.Inside
	}
	switch {
	case offsetY < rowHeight*0.25:
		return tree.Before
	case offsetY > rowHeight*0.75:
		return tree.After
	default:
		return tree.Inside
	}
}

// Move repositions draggedID relative to targetID. On any error the input
// tree is returned unchanged.
func Move(t tree.Tree, draggedID, targetID string, pos tree.Position) (tree.Tree, error) {
	if draggedID == targetID {
		return t, ErrSelfDrop
	}
	if !t.Has(draggedID) {
		return t, fmt.Errorf("move: dragged %w: %q", tree.ErrNotFound, draggedID)
	}
	if !t.Has(targetID) {
		return t, fmt.Errorf("move: target %w: %q", tree.ErrNotFound, targetID)
	}
	if t.IsDescendant(draggedID, targetID) {
		return t, fmt.Errorf("move %q %s %q: %w", draggedID, pos, targetID, ErrCycle)
	}

	rest, node, err := t.Extract(draggedID)
	if err != nil {
		return t, err
	}
	next, err := rest.InsertAt(targetID, node, pos)
	if err != nil {
		return t, err
	}
	return next, nil
}

// Session tracks one drag gesture from start to drop.
type Session struct {
	dragged  string
	target   string
	position tree.Position
}

// Start begins dragging id, discarding any previous gesture.
func (s *Session) Start(id string) {
	*s = Session{dragged: id, position: tree.Inside}
}

// Over records the row currently under the pointer. Hovering the dragged
// node itself clears the target.
func (s *Session) Over(targetID string, pos tree.Position) {
	if s.dragged == "" {
		return
	}
	if targetID == s.dragged {
		s.target = ""
		return
	}
	s.target = targetID
	s.position = pos
}

// CyclePosition steps the drop position before → inside → after → before.
// Renderers without pixel offsets use it instead of ResolvePosition.
func (s *Session) CyclePosition() tree.Position {
	switch s.position {
	case tree.Before:
		s.position = tree.Inside
	case tree.Inside:
		s.position = tree.After
	default:
		s.position = tree.Before
	}
	return s.position
}

// Drop applies the gesture to t and ends it, whatever the outcome.
func (s *Session) Drop(t tree.Tree) (tree.Tree, error) {
	defer s.End()
	if s.dragged == "" || s.target == "" {
		return t, ErrNoDrag
	}
	return Move(t, s.dragged, s.target, s.position)
}

// End abandons the gesture.
func (s *Session) End() {
	*s = Session{}
}

// Active reports whether a drag is in progress.
func (s *Session) Active() bool { return s.dragged != "" }

// Dragged returns the ID being dragged.
func (s *Session) Dragged() string { return s.dragged }

// Target returns the current drop target, if any.
func (s *Session) Target() string { return s.target }

// Position returns the current drop position.
func (s *Session) Position() tree.Position { return s.position }
