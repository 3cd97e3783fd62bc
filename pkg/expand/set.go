// Package expand tracks which nodes are expanded by ID, independently of the
// tree value itself. Because membership is keyed by identity, a tree can be
// replaced wholesale (reloaded from its seed, say) and the user's
// expand/collapse choices carried over with Capture and Apply.
package expand

import (
	"sort"

	"github.com/vanderheijden86/arbor/pkg/tree"
)

// Set is a set of expanded node IDs. The zero value is an empty, usable set.
//
// A set built by Capture also remembers every ID it saw, expanded or not.
// Apply only decides for those; nodes that are new to the set keep the flag
// they arrived with.
type Set struct {
	ids   map[string]struct{}
	known map[string]struct{}
}

// NewSet returns a set holding ids.
func NewSet(ids ...string) Set {
	s := Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Capture records every expanded node of t.
func Capture(t tree.Tree) Set {
	s := NewSet()
	s.known = make(map[string]struct{}, t.Len())
	t.Walk(func(n tree.Node, _ int) bool {
		s.known[n.ID] = struct{}{}
		if n.Expanded {
			s.ids[n.ID] = struct{}{}
		}
		return true
	})
	return s
}

// governs reports whether Apply decides the flag of id.
func (s Set) governs(id string) bool {
	if s.known == nil {
		return true
	}
	_, ok := s.known[id]
	return ok
}

// IsExpanded reports whether id is in the set.
func (s Set) IsExpanded(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Toggle flips membership of id and returns the new state.
func (s *Set) Toggle(id string) bool {
	if s.IsExpanded(id) {
		s.Collapse(id)
		return false
	}
	s.Expand(id)
	return true
}

// Expand adds id.
func (s *Set) Expand(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
	if s.known != nil {
		s.known[id] = struct{}{}
	}
}

// Collapse removes id.
func (s *Set) Collapse(id string) {
	delete(s.ids, id)
	if s.known != nil {
		s.known[id] = struct{}{}
	}
}

// Len returns the number of expanded IDs.
func (s Set) Len() int {
	return len(s.ids)
}

// IDs returns the members in sorted order.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	c := NewSet(s.IDs()...)
	if s.known != nil {
		c.known = make(map[string]struct{}, len(s.known))
		for id := range s.known {
			c.known[id] = struct{}{}
		}
	}
	return c
}

// Retain drops IDs that no longer exist in t. It returns how many were removed.
func (s *Set) Retain(t tree.Tree) int {
	removed := 0
	for id := range s.ids {
		if !t.Has(id) {
			delete(s.ids, id)
			removed++
		}
	}
	for id := range s.known {
		if !t.Has(id) {
			delete(s.known, id)
		}
	}
	return removed
}

// Apply returns t with each node's expanded flag set from the set. Leaves
// without children are left alone, and so are nodes the set never saw.
// A branch whose children are not loaded is always collapsed: expanding it
// needs a fetch.
func (s Set) Apply(t tree.Tree) tree.Tree {
	out := t
	t.Walk(func(n tree.Node, _ int) bool {
		if n.IsLeaf() {
			return true
		}
		if n.NeedsFetch() {
			if n.Expanded {
				out, _ = out.Update(n.ID, tree.SetExpanded(false))
			}
			return true
		}
		if !s.governs(n.ID) {
			return true
		}
		want := s.IsExpanded(n.ID)
		if n.Expanded != want {
			// The ID comes from t itself, so Update cannot miss.
			out, _ = out.Update(n.ID, tree.SetExpanded(want))
		}
		return true
	})
	return out
}
