package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/arbor/pkg/tree"
)

func TestMockShapesChildren(t *testing.T) {
	m := NewMock(0, 42)
	kids, err := m.FetchChildren(context.Background(), "root-1-2")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(kids), 1)
	require.LessOrEqual(t, len(kids), 4)

	for i, k := range kids {
		assert.True(t, strings.HasPrefix(k.ID, "root-1-2-child-"), k.ID)
		assert.Equal(t, "Child "+string(rune('1'+i))+" of 2", k.Label)
		assert.False(t, k.Loaded)
	}

	again, err := m.FetchChildren(context.Background(), "root-1-2")
	require.NoError(t, err)
	for _, a := range again {
		for _, k := range kids {
			assert.NotEqual(t, k.ID, a.ID, "IDs must be unique across fetches")
		}
	}
}

func TestMockIsDeterministic(t *testing.T) {
	a, _ := NewMock(0, 7).FetchChildren(context.Background(), "x")
	b, _ := NewMock(0, 7).FetchChildren(context.Background(), "x")
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].HasChildren, b[i].HasChildren)
	}
}

func TestMockHonoursContext(t *testing.T) {
	m := NewMock(time.Hour, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := m.FetchChildren(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockFailRate(t *testing.T) {
	m := NewMock(0, 1)
	m.FailRate = 1
	_, err := m.FetchChildren(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrInjected), "got %v", err)
}

func TestStaticClones(t *testing.T) {
	s := Static{"a": {{ID: "b", Label: "B"}}}
	kids, err := s.FetchChildren(context.Background(), "a")
	require.NoError(t, err)
	kids[0].Label = "changed"
	assert.Equal(t, "B", s["a"][0].Label)

	none, err := s.FetchChildren(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	require.NoError(t, db.Seed(ctx, []tree.Node{
		{ID: "docs", Label: "Documents", Children: []tree.Node{
			{ID: "work", Label: "Work"},
			{ID: "personal", Label: "Personal"},
		}},
		{ID: "projects", Label: "Projects", HasChildren: true},
	}))

	roots, err := db.Roots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "docs", roots[0].ID)
	assert.True(t, roots[0].HasChildren)
	assert.True(t, roots[1].HasChildren)
	assert.Empty(t, roots[0].Children, "roots come back unloaded")

	kids, err := db.FetchChildren(ctx, "docs")
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, []string{"work", "personal"}, []string{kids[0].ID, kids[1].ID})
	assert.False(t, kids[0].HasChildren)

	empty, err := db.FetchChildren(ctx, "projects")
	require.NoError(t, err)
	assert.Empty(t, empty)

	// A duplicate ID aborts the whole seed.
	err = db.Seed(ctx, []tree.Node{{ID: "new"}, {ID: "docs"}})
	assert.Error(t, err)
	roots, _ = db.Roots(ctx)
	assert.Len(t, roots, 2)
}

func TestOpenSQLiteRejectsEmptyDSN(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}
