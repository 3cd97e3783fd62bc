package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// abc builds A -> [B, C].
func abc(t *testing.T) Tree {
	t.Helper()
	tr, err := FromNodes([]Node{{
		ID: "A", Label: "A", Expanded: true,
		Children: []Node{{ID: "B", Label: "B"}, {ID: "C", Label: "C"}},
	}})
	require.NoError(t, err)
	return tr
}

func TestFromNodesRejectsDuplicates(t *testing.T) {
	_, err := FromNodes([]Node{
		{ID: "A", Children: []Node{{ID: "B"}}},
		{ID: "B"},
	})
	require.ErrorIs(t, err, ErrDuplicateID)

	_, err = FromNodes([]Node{{ID: ""}})
	require.ErrorIs(t, err, ErrEmptyID)
}

func TestFromNodesFlags(t *testing.T) {
	tr := MustFromNodes([]Node{
		{ID: "lazy", HasChildren: true},
		{ID: "parent", Children: []Node{{ID: "kid"}}},
		{ID: "empty", HasChildren: true, Loaded: true},
	})

	lazy, _ := tr.Get("lazy")
	assert.True(t, lazy.NeedsFetch())

	parent, _ := tr.Get("parent")
	assert.True(t, parent.HasChildren, "node with children must be eligible")
	assert.True(t, parent.Loaded)

	empty, _ := tr.Get("empty")
	assert.False(t, empty.NeedsFetch())
	assert.Equal(t, []string{"lazy", "parent", "kid", "empty"}, tr.IDs())
}

func TestFindReturnsDetachedSubtree(t *testing.T) {
	tr := abc(t)
	a, ok := tr.Find("A")
	require.True(t, ok)
	require.Len(t, a.Children, 2)

	a.Children[0].Label = "mutated"
	b, _ := tr.Get("B")
	assert.Equal(t, "B", b.Label, "Find must not alias tree storage")

	_, ok = tr.Find("missing")
	assert.False(t, ok)
}

func TestUpdateLocality(t *testing.T) {
	tr := abc(t)
	next, err := tr.Update("B", SetLabel("renamed"))
	require.NoError(t, err)

	b, _ := next.Get("B")
	assert.Equal(t, "renamed", b.Label)

	old, _ := tr.Get("B")
	assert.Equal(t, "B", old.Label, "input tree must be unmodified")

	for _, id := range []string{"A", "C"} {
		before, _ := tr.Get(id)
		after, _ := next.Get(id)
		assert.Equal(t, before, after, "node %s changed", id)
	}
}

func TestUpdateHasChildren(t *testing.T) {
	tr := abc(t)
	next, err := tr.Update("B", SetHasChildren(true))
	require.NoError(t, err)

	b, _ := next.Get("B")
	assert.True(t, b.HasChildren)
	assert.True(t, b.NeedsFetch(), "a marked leaf fetches on its next expansion")
	assert.False(t, b.IsLeaf())

	next, err = next.Update("B", SetHasChildren(false).Merge(SetLabel("leaf again")))
	require.NoError(t, err)
	b, _ = next.Get("B")
	assert.True(t, b.IsLeaf())
	assert.Equal(t, "leaf again", b.Label)

	assert.False(t, SetHasChildren(false).IsEmpty())
	old, _ := tr.Get("B")
	assert.False(t, old.HasChildren, "input tree must be unmodified")
}

func TestUpdateMissingIsNoOp(t *testing.T) {
	tr := abc(t)
	next, err := tr.Update("nope", SetExpanded(true))
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, tr.Equal(next))
}

func TestRemoveSubtree(t *testing.T) {
	tr := MustFromNodes([]Node{{
		ID: "A",
		Children: []Node{
			{ID: "B", Children: []Node{{ID: "X"}, {ID: "Y"}}},
			{ID: "C"},
		},
	}})

	next, err := tr.Remove("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, next.Children("A"))
	for _, id := range []string{"B", "X", "Y"} {
		_, ok := next.Find(id)
		assert.False(t, ok, "%s should be gone", id)
	}
	assert.Equal(t, 2, next.Len())
	assert.Equal(t, 5, tr.Len(), "input tree must be unmodified")
}

func TestRemoveRootKeepsOrder(t *testing.T) {
	tr := MustFromNodes([]Node{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}})
	next, err := tr.Remove("r2")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r3"}, next.Roots())
}

func TestExtract(t *testing.T) {
	tr := MustFromNodes([]Node{{
		ID: "A",
		Children: []Node{
			{ID: "B", Children: []Node{{ID: "X"}}},
			{ID: "C"},
		},
	}})

	next, n, err := tr.Extract("B")
	require.NoError(t, err)
	assert.Equal(t, "B", n.ID)
	require.Len(t, n.Children, 1)
	assert.Equal(t, "X", n.Children[0].ID)
	assert.False(t, next.Has("X"))

	_, _, err = tr.Extract("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertInside(t *testing.T) {
	tr := abc(t)
	next, err := tr.InsertAt("B", Node{ID: "new", Label: "New"}, Inside)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "C"}, next.Children("A"))
	assert.Equal(t, []string{"new"}, next.Children("B"))

	b, _ := next.Get("B")
	assert.True(t, b.HasChildren)
	assert.True(t, b.Expanded)
	assert.True(t, b.Loaded)

	parent, _ := next.Parent("new")
	assert.Equal(t, "B", parent)
}

func TestInsertBeforeAfter(t *testing.T) {
	tr := abc(t)

	next, err := tr.InsertAt("C", Node{ID: "n1"}, Before)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "n1", "C"}, next.Children("A"))

	next, err = next.InsertAt("C", Node{ID: "n2"}, After)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "n1", "C", "n2"}, next.Children("A"))

	next, err = next.InsertAt("A", Node{ID: "r0"}, Before)
	require.NoError(t, err)
	assert.Equal(t, []string{"r0", "A"}, next.Roots())
}

func TestInsertErrors(t *testing.T) {
	tr := abc(t)

	next, err := tr.InsertAt("missing", Node{ID: "n"}, After)
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, tr.Equal(next))

	_, err = tr.InsertAt("A", Node{ID: "B"}, Inside)
	require.ErrorIs(t, err, ErrDuplicateID)

	_, err = tr.InsertAt("A", Node{ID: "n"}, Position(9))
	require.ErrorIs(t, err, ErrInvalidPosition)
}

func TestAddChildFlipsHasChildren(t *testing.T) {
	tr := MustFromNodes([]Node{{ID: "leaf", Label: "Leaf"}})
	next, err := tr.AddChild("leaf", Node{ID: "kid", Label: "Kid"})
	require.NoError(t, err)

	leaf, _ := next.Get("leaf")
	assert.True(t, leaf.HasChildren)
	assert.True(t, leaf.Expanded)

	next, err = next.AddRoot(Node{ID: "root2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf", "root2"}, next.Roots())
}

func TestSetChildren(t *testing.T) {
	tr := MustFromNodes([]Node{{ID: "p", HasChildren: true}})

	next, err := tr.SetChildren("p", []Node{{ID: "p-a", HasChildren: true}, {ID: "p-b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p-a", "p-b"}, next.Children("p"))

	p, _ := next.Get("p")
	assert.True(t, p.Loaded)

	empty, err := tr.SetChildren("p", nil)
	require.NoError(t, err)
	p, _ = empty.Get("p")
	assert.True(t, p.Loaded)
	assert.True(t, p.HasChildren)
	assert.Empty(t, empty.Children("p"))

	_, err = tr.SetChildren("p", []Node{{ID: "p"}})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestIsDescendantAndDepth(t *testing.T) {
	tr := MustFromNodes([]Node{{
		ID: "A",
		Children: []Node{
			{ID: "B", Children: []Node{{ID: "X"}}},
		},
	}, {ID: "Z"}})

	assert.True(t, tr.IsDescendant("A", "X"))
	assert.True(t, tr.IsDescendant("B", "X"))
	assert.False(t, tr.IsDescendant("X", "A"))
	assert.False(t, tr.IsDescendant("A", "A"))
	assert.False(t, tr.IsDescendant("A", "Z"))

	assert.Equal(t, 0, tr.Depth("A"))
	assert.Equal(t, 2, tr.Depth("X"))
	assert.Equal(t, -1, tr.Depth("nope"))
	assert.Equal(t, []string{"A", "Z"}, tr.Siblings("A"))
}

func TestZeroTreeIsUsable(t *testing.T) {
	var tr Tree
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.Nodes())

	next, err := tr.AddRoot(Node{ID: "first"})
	require.NoError(t, err)
	assert.Equal(t, 1, next.Len())

	_, err = tr.Remove("first")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		want Position
		ok   bool
	}{
		{"before", Before, true},
		{"AFTER", After, true},
		{" inside ", Inside, true},
		{"above", 0, false},
	}
	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, mustParse(t, got.String()))
		} else {
			assert.ErrorIs(t, err, ErrInvalidPosition)
		}
	}
}

func mustParse(t *testing.T, s string) Position {
	t.Helper()
	p, err := ParsePosition(s)
	require.NoError(t, err)
	return p
}
