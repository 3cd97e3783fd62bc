package tree

import (
	"fmt"
	"slices"
)

// record is the arena entry for one node. Records reachable from a published
// Tree are never written to again; edits replace them with copies.
type record struct {
	id          string
	label       string
	hasChildren bool
	loaded      bool
	expanded    bool
	loading     bool
	parent      string // "" for roots
	children    []string
}

// Tree is an immutable forest of nodes. The zero value is an empty tree.
type Tree struct {
	nodes map[string]*record
	roots []string
}

// New returns an empty tree.
func New() Tree {
	return Tree{nodes: make(map[string]*record)}
}

// FromNodes builds a tree from nested nodes, rejecting empty or duplicate IDs.
// A node that carries children is treated as loaded and eligible for
// children, whatever its flags say.
func FromNodes(nodes []Node) (Tree, error) {
	e := New().edit()
	for _, n := range nodes {
		if err := e.checkInsertable(n); err != nil {
			return Tree{}, err
		}
		e.add(n, "")
		e.roots = append(e.roots, n.ID)
	}
	return e.publish(), nil
}

// MustFromNodes is FromNodes for fixtures; it panics on invalid input.
func MustFromNodes(nodes []Node) Tree {
	t, err := FromNodes(nodes)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of nodes in the tree.
func (t Tree) Len() int {
	return len(t.nodes)
}

// Has reports whether id is in the tree.
func (t Tree) Has(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// Roots returns the root IDs in order.
func (t Tree) Roots() []string {
	return slices.Clone(t.roots)
}

// Children returns the child IDs of id in order. Unloaded and unknown nodes
// have none.
func (t Tree) Children(id string) []string {
	if r, ok := t.nodes[id]; ok {
		return slices.Clone(r.children)
	}
	return nil
}

// Parent returns the parent ID of id. Roots report ("", true).
func (t Tree) Parent(id string) (string, bool) {
	r, ok := t.nodes[id]
	if !ok {
		return "", false
	}
	return r.parent, true
}

// Siblings returns the ordered IDs sharing id's parent, id included.
func (t Tree) Siblings(id string) []string {
	r, ok := t.nodes[id]
	if !ok {
		return nil
	}
	if r.parent == "" {
		return t.Roots()
	}
	return t.Children(r.parent)
}

// Depth returns the nesting level of id (0 for roots), or -1 if absent.
func (t Tree) Depth(id string) int {
	r, ok := t.nodes[id]
	if !ok {
		return -1
	}
	depth := 0
	for r.parent != "" {
		r = t.nodes[r.parent]
		depth++
	}
	return depth
}

// IsDescendant reports whether id sits strictly below ancestorID.
// It walks the parent chain, so it costs O(depth).
func (t Tree) IsDescendant(ancestorID, id string) bool {
	r, ok := t.nodes[id]
	if !ok {
		return false
	}
	for r.parent != "" {
		if r.parent == ancestorID {
			return true
		}
		r = t.nodes[r.parent]
	}
	return false
}

// Get returns the node's own fields without its subtree.
func (t Tree) Get(id string) (Node, bool) {
	r, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return r.node(), true
}

// Find returns the node with id together with a freshly allocated copy of its
// loaded subtree. IDs are unique, so the first pre-order match is the only one.
func (t Tree) Find(id string) (Node, bool) {
	if _, ok := t.nodes[id]; !ok {
		return Node{}, false
	}
	return t.materialize(id), true
}

// Nodes exports the whole tree in nested form.
func (t Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.materialize(id))
	}
	return out
}

// IDs returns every ID in pre-order.
func (t Tree) IDs() []string {
	ids := make([]string, 0, len(t.nodes))
	t.Walk(func(n Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// Walk visits nodes in pre-order with their depth. Returning false from fn
// skips the node's subtree.
func (t Tree) Walk(fn func(n Node, depth int) bool) {
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		r := t.nodes[id]
		if !fn(r.node(), depth) {
			return
		}
		for _, c := range r.children {
			visit(c, depth+1)
		}
	}
	for _, id := range t.roots {
		visit(id, 0)
	}
}

// Equal reports whether both trees hold the same nodes in the same shape.
func (t Tree) Equal(other Tree) bool {
	if len(t.nodes) != len(other.nodes) || !slices.Equal(t.roots, other.roots) {
		return false
	}
	for id, a := range t.nodes {
		b, ok := other.nodes[id]
		if !ok {
			return false
		}
		if a == b {
			continue
		}
		if a.label != b.label || a.hasChildren != b.hasChildren || a.loaded != b.loaded ||
			a.expanded != b.expanded || a.loading != b.loading || a.parent != b.parent ||
			!slices.Equal(a.children, b.children) {
			return false
		}
	}
	return true
}

// String renders a compact outline, handy in test failures.
func (t Tree) String() string {
	var out []byte
	t.Walk(func(n Node, depth int) bool {
		for i := 0; i < depth; i++ {
			out = append(out, "  "...)
		}
		out = fmt.Appendf(out, "%s %q\n", n.ID, n.Label)
		return true
	})
	return string(out)
}

func (t Tree) materialize(id string) Node {
	r := t.nodes[id]
	n := r.node()
	if len(r.children) > 0 {
		n.Children = make([]Node, len(r.children))
		for i, c := range r.children {
			n.Children[i] = t.materialize(c)
		}
	}
	return n
}

func (r *record) node() Node {
	return Node{
		ID:          r.id,
		Label:       r.label,
		HasChildren: r.hasChildren,
		Loaded:      r.loaded,
		Expanded:    r.expanded,
		Loading:     r.loading,
	}
}
