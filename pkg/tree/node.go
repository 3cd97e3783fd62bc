// Package tree implements the immutable tree-mutation engine behind arbor.
//
// A Tree is an arena: every node lives in a flat table keyed by ID, with its
// parent ID and an ordered list of child IDs. Tree values are never modified
// in place. Every mutation returns a new Tree that shares the untouched
// records with its predecessor, so callers can keep old values around (for
// before/after comparison, or to discard a rejected transition) for free.
//
// Node is the nested value form used at API boundaries: seed files, fetch
// results, and the subtree handed back by Find and Extract.
package tree

import (
	"fmt"
	"strings"
)

// Node is a single tree entry together with its (loaded) subtree.
type Node struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	HasChildren bool   `json:"hasChildren,omitempty"` // eligible for children, even if not yet fetched
	Children    []Node `json:"children,omitempty"`
	Loaded      bool   `json:"-"` // children are known (possibly zero of them)
	Expanded    bool   `json:"expanded,omitempty"`
	Loading     bool   `json:"-"` // a child fetch is in flight
}

// IsLeaf reports whether the node can never show children.
func (n Node) IsLeaf() bool {
	return !n.HasChildren && len(n.Children) == 0
}

// NeedsFetch reports whether expanding the node requires asking a child
// source first.
func (n Node) NeedsFetch() bool {
	return n.HasChildren && !n.Loaded && len(n.Children) == 0
}

// Clone returns a deep copy of the node and its subtree.
func (n Node) Clone() Node {
	clone := n
	if n.Children != nil {
		clone.Children = make([]Node, len(n.Children))
		for i, c := range n.Children {
			clone.Children[i] = c.Clone()
		}
	}
	return clone
}

// Count returns the number of nodes in the subtree, including n.
func (n Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// IDs returns every ID in the subtree in pre-order.
func (n Node) IDs() []string {
	ids := []string{n.ID}
	for _, c := range n.Children {
		ids = append(ids, c.IDs()...)
	}
	return ids
}

// Patch describes a partial update. Nil fields are left untouched.
type Patch struct {
	Label       *string
	HasChildren *bool
	Expanded    *bool
	Loading     *bool
}

// SetLabel returns a patch changing only the label.
func SetLabel(label string) Patch { return Patch{Label: &label} }

// SetHasChildren returns a patch changing only the eligibility hint. Marking
// an unloaded leaf makes its next expansion fetch.
func SetHasChildren(has bool) Patch { return Patch{HasChildren: &has} }

// SetExpanded returns a patch changing only the expanded flag.
func SetExpanded(expanded bool) Patch { return Patch{Expanded: &expanded} }

// SetLoading returns a patch changing only the loading flag.
func SetLoading(loading bool) Patch { return Patch{Loading: &loading} }

// Merge combines two patches; fields set in other win.
func (p Patch) Merge(other Patch) Patch {
	if other.Label != nil {
		p.Label = other.Label
	}
	if other.HasChildren != nil {
		p.HasChildren = other.HasChildren
	}
	if other.Expanded != nil {
		p.Expanded = other.Expanded
	}
	if other.Loading != nil {
		p.Loading = other.Loading
	}
	return p
}

// IsEmpty reports whether applying the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Label == nil && p.HasChildren == nil && p.Expanded == nil && p.Loading == nil
}

// Position says where a node goes relative to a drop target.
type Position int

const (
	Before Position = iota // sibling immediately before the target
	After                  // sibling immediately after the target
	Inside                 // last child of the target
)

func (p Position) String() string {
	switch p {
	case Before:
		return "before"
	case After:
		return "after"
	case Inside:
		return "inside"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// Valid reports whether p is one of the three known positions.
func (p Position) Valid() bool {
	return p == Before || p == After || p == Inside
}

// ParsePosition converts "before", "after" or "inside" (case-insensitive).
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before":
		return Before, nil
	case "after":
		return After, nil
	case "inside":
		return Inside, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}
