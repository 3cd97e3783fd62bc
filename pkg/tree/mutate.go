package tree

import (
	"fmt"
	"slices"
)

// editor is a private, writable copy of a tree's record table. Records are
// copied on first write so the source tree stays untouched.
type editor struct {
	nodes  map[string]*record
	roots  []string
	copied map[string]bool
}

func (t Tree) edit() *editor {
	nodes := make(map[string]*record, len(t.nodes)+1)
	for id, r := range t.nodes {
		nodes[id] = r
	}
	return &editor{
		nodes:  nodes,
		roots:  slices.Clone(t.roots),
		copied: make(map[string]bool),
	}
}

func (e *editor) publish() Tree {
	return Tree{nodes: e.nodes, roots: e.roots}
}

// writable returns a private copy of the record for id.
func (e *editor) writable(id string) *record {
	r := e.nodes[id]
	if e.copied[id] {
		return r
	}
	cp := *r
	cp.children = slices.Clone(r.children)
	e.nodes[id] = &cp
	e.copied[id] = true
	return &cp
}

// checkInsertable validates that n and its subtree can join the tree.
func (e *editor) checkInsertable(n Node) error {
	seen := make(map[string]bool)
	var check func(n Node) error
	check = func(n Node) error {
		if n.ID == "" {
			return ErrEmptyID
		}
		if _, exists := e.nodes[n.ID]; exists || seen[n.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateID, n.ID)
		}
		seen[n.ID] = true
		for _, c := range n.Children {
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}
	return check(n)
}

// add stores n and its subtree under parent without linking n into the
// parent's child list.
func (e *editor) add(n Node, parent string) {
	r := &record{
		id:          n.ID,
		label:       n.Label,
		hasChildren: n.HasChildren || len(n.Children) > 0,
		loaded:      n.Loaded || len(n.Children) > 0,
		expanded:    n.Expanded,
		loading:     n.Loading,
		parent:      parent,
	}
	for _, c := range n.Children {
		r.children = append(r.children, c.ID)
	}
	e.nodes[n.ID] = r
	e.copied[n.ID] = true
	for _, c := range n.Children {
		e.add(c, n.ID)
	}
}

// drop deletes id and its subtree from the table without unlinking it.
func (e *editor) drop(id string) {
	r := e.nodes[id]
	for _, c := range r.children {
		e.drop(c)
	}
	delete(e.nodes, id)
	delete(e.copied, id)
}

// unlink removes id from its parent's child list (or the root list).
func (e *editor) unlink(id string) {
	parent := e.nodes[id].parent
	if parent == "" {
		e.roots = slices.DeleteFunc(e.roots, func(s string) bool { return s == id })
		return
	}
	p := e.writable(parent)
	p.children = slices.DeleteFunc(p.children, func(s string) bool { return s == id })
}

// Update applies patch to the node with id. Only that node changes.
func (t Tree) Update(id string, patch Patch) (Tree, error) {
	if !t.Has(id) {
		return t, fmt.Errorf("update: %w: %q", ErrNotFound, id)
	}
	if patch.IsEmpty() {
		return t, nil
	}
	e := t.edit()
	r := e.writable(id)
	if patch.Label != nil {
		r.label = *patch.Label
	}
	if patch.HasChildren != nil {
		r.hasChildren = *patch.HasChildren
	}
	if patch.Expanded != nil {
		r.expanded = *patch.Expanded
	}
	if patch.Loading != nil {
		r.loading = *patch.Loading
	}
	return e.publish(), nil
}

// Remove deletes the node with id and its entire subtree. Siblings keep
// their relative order.
func (t Tree) Remove(id string) (Tree, error) {
	if !t.Has(id) {
		return t, fmt.Errorf("remove: %w: %q", ErrNotFound, id)
	}
	e := t.edit()
	e.unlink(id)
	e.drop(id)
	return e.publish(), nil
}

// Extract removes the node with id and returns it as a detached subtree.
// The returned node shares no memory with either tree.
func (t Tree) Extract(id string) (Tree, Node, error) {
	if !t.Has(id) {
		return t, Node{}, fmt.Errorf("extract: %w: %q", ErrNotFound, id)
	}
	n := t.materialize(id)
	next, err := t.Remove(id)
	if err != nil {
		return t, Node{}, err
	}
	return next, n, nil
}

// InsertAt places n relative to targetID. Inside appends n as the last child
// and forces the target to be eligible, loaded and expanded.
func (t Tree) InsertAt(targetID string, n Node, pos Position) (Tree, error) {
	if !pos.Valid() {
		return t, fmt.Errorf("insert: %w: %v", ErrInvalidPosition, pos)
	}
	target, ok := t.nodes[targetID]
	if !ok {
		return t, fmt.Errorf("insert: %w: %q", ErrNotFound, targetID)
	}
	e := t.edit()
	if err := e.checkInsertable(n); err != nil {
		return t, fmt.Errorf("insert: %w", err)
	}

	if pos == Inside {
		e.add(n, targetID)
		p := e.writable(targetID)
		p.children = append(p.children, n.ID)
		p.hasChildren = true
		p.loaded = true
		p.expanded = true
		return e.publish(), nil
	}

	e.add(n, target.parent)
	var siblings []string
	if target.parent == "" {
		siblings = e.roots
	} else {
		siblings = e.writable(target.parent).children
	}
	idx := slices.Index(siblings, targetID)
	if pos == After {
		idx++
	}
	siblings = slices.Insert(siblings, idx, n.ID)
	if target.parent == "" {
		e.roots = siblings
	} else {
		e.nodes[target.parent].children = siblings
	}
	return e.publish(), nil
}

// AddChild appends n under parentID, marking the parent as having loaded,
// visible children.
func (t Tree) AddChild(parentID string, n Node) (Tree, error) {
	return t.InsertAt(parentID, n, Inside)
}

// AddRoot appends n at the end of the root level.
func (t Tree) AddRoot(n Node) (Tree, error) {
	e := t.edit()
	if err := e.checkInsertable(n); err != nil {
		return t, fmt.Errorf("add root: %w", err)
	}
	e.add(n, "")
	e.roots = append(e.roots, n.ID)
	return e.publish(), nil
}

// SetChildren replaces the children of id with the given subtrees and marks
// the node loaded. The node keeps its eligibility flag, so an empty slice
// yields the "expanded but empty" state once expanded.
func (t Tree) SetChildren(id string, children []Node) (Tree, error) {
	r, ok := t.nodes[id]
	if !ok {
		return t, fmt.Errorf("set children: %w: %q", ErrNotFound, id)
	}
	e := t.edit()
	for _, c := range r.children {
		e.drop(c)
	}
	p := e.writable(id)
	p.children = nil
	p.loaded = true
	if len(children) > 0 {
		p.hasChildren = true
	}
	for _, c := range children {
		if err := e.checkInsertable(c); err != nil {
			return t, fmt.Errorf("set children: %w", err)
		}
		e.add(c, id)
		p.children = append(p.children, c.ID)
	}
	return e.publish(), nil
}
