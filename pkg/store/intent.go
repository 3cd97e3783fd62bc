package store

import (
	"github.com/vanderheijden86/arbor/pkg/lazy"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

// Intent is a user or system request to change the tree.
type Intent interface {
	name() string
	subject() string
}

// Toggle expands or collapses a node, fetching children when needed.
type Toggle struct{ ID string }

// AddChild appends a new node under ParentID.
type AddChild struct {
	ParentID string
	Label    string
}

// AddRoot appends a new top-level node.
type AddRoot struct{ Label string }

// Rename changes a node's label.
type Rename struct {
	ID    string
	Label string
}

// Delete removes a node and its subtree.
type Delete struct{ ID string }

// Move drops DraggedID relative to TargetID.
type Move struct {
	DraggedID string
	TargetID  string
	Position  tree.Position
}

// FetchDone delivers the outcome of a child fetch started by Toggle.
type FetchDone struct{ Result lazy.Result }

// Reload replaces the whole tree, keeping expansion by ID.
type Reload struct{ Nodes []tree.Node }

func (Toggle) name() string    { return "toggle" }
func (AddChild) name() string  { return "add_child" }
func (AddRoot) name() string   { return "add_root" }
func (Rename) name() string    { return "rename" }
func (Delete) name() string    { return "delete" }
func (Move) name() string      { return "move" }
func (FetchDone) name() string { return "fetch_done" }
func (Reload) name() string    { return "reload" }

func (i Toggle) subject() string    { return i.ID }
func (i AddChild) subject() string  { return i.ParentID }
func (AddRoot) subject() string     { return "" }
func (i Rename) subject() string    { return i.ID }
func (i Delete) subject() string    { return i.ID }
func (i Move) subject() string      { return i.DraggedID }
func (i FetchDone) subject() string { return i.Result.NodeID }
func (Reload) subject() string      { return "" }
