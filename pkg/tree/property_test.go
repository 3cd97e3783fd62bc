package tree

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"pgregory.net/rapid"
)

// genTree draws a random forest with unique IDs n0..nk.
func genTree(t *rapid.T) Tree {
	count := rapid.IntRange(1, 30).Draw(t, "count")
	tr := New()
	for i := 0; i < count; i++ {
		n := Node{
			ID:          fmt.Sprintf("n%d", i),
			Label:       fmt.Sprintf("label %d", i),
			HasChildren: rapid.Bool().Draw(t, "hasChildren"),
			Expanded:    rapid.Bool().Draw(t, "expanded"),
		}
		var err error
		if i == 0 || rapid.IntRange(0, 3).Draw(t, "rootChance") == 0 {
			tr, err = tr.AddRoot(n)
		} else {
			parent := fmt.Sprintf("n%d", rapid.IntRange(0, i-1).Draw(t, "parent"))
			tr, err = tr.AddChild(parent, n)
		}
		if err != nil {
			t.Fatalf("building tree: %v", err)
		}
	}
	return tr
}

func drawID(t *rapid.T, tr Tree, label string) string {
	return rapid.SampledFrom(tr.IDs()).Draw(t, label)
}

func assertUnique(t *rapid.T, tr Tree) {
	ids := tr.IDs()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q in\n%s", id, tr)
		}
		seen[id] = true
	}
	if len(ids) != tr.Len() {
		t.Fatalf("walk saw %d nodes, table has %d", len(ids), tr.Len())
	}
}

func TestPropertyUniquenessUnderAddRemove(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := genTree(t)
		next := 1000
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if tr.Len() == 0 || rapid.Bool().Draw(t, "add") {
				n := Node{ID: fmt.Sprintf("n%d", next)}
				next++
				var err error
				if tr.Len() == 0 {
					tr, err = tr.AddRoot(n)
				} else {
					tr, err = tr.AddChild(drawID(t, tr, "parent"), n)
				}
				if err != nil {
					t.Fatalf("add: %v", err)
				}
				// Re-adding an existing ID must always be refused.
				if _, err := tr.AddRoot(Node{ID: n.ID}); err == nil {
					t.Fatalf("duplicate add of %q accepted", n.ID)
				}
			} else {
				var err error
				tr, err = tr.Remove(drawID(t, tr, "victim"))
				if err != nil {
					t.Fatalf("remove: %v", err)
				}
			}
			assertUnique(t, tr)
		}
	})
}

func TestPropertyUpdateLocality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := genTree(t)
		id := drawID(t, tr, "id")
		label := rapid.String().Draw(t, "label")

		next, err := tr.Update(id, SetLabel(label))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		for _, other := range tr.IDs() {
			before, _ := tr.Get(other)
			after, _ := next.Get(other)
			if other == id {
				before.Label = label
			}
			if !reflect.DeepEqual(before, after) {
				t.Fatalf("node %s: want %+v, got %+v", other, before, after)
			}
			if !slices.Equal(tr.Children(other), next.Children(other)) {
				t.Fatalf("children of %s changed", other)
			}
		}
	})
}

func TestPropertyRemoveCompleteness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := genTree(t)
		id := drawID(t, tr, "id")
		sub, _ := tr.Find(id)

		next, err := tr.Remove(id)
		if err != nil {
			t.Fatalf("remove: %v", err)
		}
		for _, gone := range sub.IDs() {
			if _, ok := next.Find(gone); ok {
				t.Fatalf("%s survived removal of %s", gone, id)
			}
		}
		if next.Len() != tr.Len()-sub.Count() {
			t.Fatalf("expected %d nodes, got %d", tr.Len()-sub.Count(), next.Len())
		}
	})
}

func TestPropertyExtractInsertRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := genTree(t)
		id := drawID(t, tr, "id")
		original, _ := tr.Find(id)

		rest, n, err := tr.Extract(id)
		if err != nil {
			t.Fatalf("extract: %v", err)
		}
		if rest.Len() == 0 {
			return
		}
		target := drawID(t, rest, "target")
		moved, err := rest.InsertAt(target, n, After)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}

		siblings := moved.Siblings(target)
		idx := slices.Index(siblings, target)
		if idx < 0 || idx+1 >= len(siblings) || siblings[idx+1] != id {
			t.Fatalf("%s is not the right sibling of %s: %v", id, target, siblings)
		}
		got, _ := moved.Find(id)
		if !slices.Equal(got.IDs(), original.IDs()) {
			t.Fatalf("subtree changed: %v -> %v", original.IDs(), got.IDs())
		}
		if moved.Len() != tr.Len() {
			t.Fatalf("node count changed: %d -> %d", tr.Len(), moved.Len())
		}
	})
}

func TestPropertyMissingIDIsNoOp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := genTree(t)
		const missing = "does-not-exist"

		ops := map[string]func() (Tree, error){
			"update": func() (Tree, error) { return tr.Update(missing, SetLabel("x")) },
			"remove": func() (Tree, error) { return tr.Remove(missing) },
			"extract": func() (Tree, error) {
				next, _, err := tr.Extract(missing)
				return next, err
			},
			"insert": func() (Tree, error) { return tr.InsertAt(missing, Node{ID: "fresh"}, Inside) },
			"children": func() (Tree, error) { return tr.SetChildren(missing, nil) },
		}
		for name, op := range ops {
			next, err := op()
			if err == nil {
				t.Fatalf("%s: expected ErrNotFound", name)
			}
			if !next.Equal(tr) {
				t.Fatalf("%s changed the tree", name)
			}
		}
	})
}
