// Package store owns the current tree and turns intents into transitions.
package store

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vanderheijden86/arbor/pkg/drag"
	"github.com/vanderheijden86/arbor/pkg/expand"
	"github.com/vanderheijden86/arbor/pkg/lazy"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

// ErrEmptyLabel is returned when a new or renamed node has a blank label.
var ErrEmptyLabel = errors.New("label must not be empty")

// Effect tells the caller what to do after an intent was applied.
type Effect struct {
	// Fetch, when non-nil, must be run and its result fed back as FetchDone.
	Fetch *lazy.Fetch
	// Select is the node the cursor should move to, or "" to stay put.
	Select string
}

// Store holds the current tree. It is not safe for concurrent use; the UI
// applies every intent from its update loop.
type Store struct {
	tree    tree.Tree
	lazy    *lazy.Controller
	log     logrus.FieldLogger
	newID   func() string
	version uint64
}

// New creates a store over an initial tree. A nil logger discards output.
func New(initial tree.Tree, src lazy.ChildSource, log logrus.FieldLogger) *Store {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Store{
		tree:  initial,
		lazy:  lazy.NewController(src, log),
		log:   log,
		newID: uuid.NewString,
	}
}

// Tree returns the current tree.
func (s *Store) Tree() tree.Tree { return s.tree }

// Version increments on every applied transition.
func (s *Store) Version() uint64 { return s.version }

// Fetches returns how many child fetches reached the source.
func (s *Store) Fetches() int64 { return s.lazy.Fetches() }

// Apply runs one intent. When the intent is rejected the tree is unchanged.
func (s *Store) Apply(in Intent) (Effect, error) {
	next, eff, err := s.apply(in)

	entry := s.log.WithFields(logrus.Fields{"intent": in.name(), "id": in.subject()})
	if err != nil {
		entry = entry.WithError(err)
	}
	// A failed fetch still changes the tree: the node leaves Loading.
	if err == nil || isFetchOutcome(in) {
		s.tree = next
		s.version++
		entry.WithField("version", s.version).Debug("intent applied")
	} else {
		entry.Debug("intent rejected")
	}
	return eff, err
}

func isFetchOutcome(in Intent) bool {
	_, ok := in.(FetchDone)
	return ok
}

func (s *Store) apply(in Intent) (tree.Tree, Effect, error) {
	t := s.tree
	switch in := in.(type) {
	case Toggle:
		next, fetch, err := s.lazy.Toggle(t, in.ID)
		return next, Effect{Fetch: fetch, Select: in.ID}, err

	case AddChild:
		label, err := cleanLabel(in.Label)
		if err != nil {
			return t, Effect{}, err
		}
		parent, ok := t.Get(in.ParentID)
		if !ok {
			return t, Effect{}, fmt.Errorf("add child: %w: %q", tree.ErrNotFound, in.ParentID)
		}
		// Adding under an unfetched branch starts the fetch so remote
		// children are merged in front of the new one. A branch already
		// loading takes the child now and merges when its fetch lands.
		var eff Effect
		if parent.NeedsFetch() && !parent.Loading {
			t, eff.Fetch, err = s.lazy.Toggle(t, in.ParentID)
			if err != nil {
				return s.tree, Effect{}, err
			}
		}
		n := tree.Node{ID: s.newID(), Label: label}
		next, err := t.AddChild(in.ParentID, n)
		if err != nil {
			if eff.Fetch != nil {
				s.lazy.Abandon(in.ParentID)
			}
			return s.tree, Effect{}, err
		}
		eff.Select = n.ID
		return next, eff, nil

	case AddRoot:
		label, err := cleanLabel(in.Label)
		if err != nil {
			return t, Effect{}, err
		}
		n := tree.Node{ID: s.newID(), Label: label}
		next, err := t.AddRoot(n)
		return next, Effect{Select: n.ID}, err

	case Rename:
		label, err := cleanLabel(in.Label)
		if err != nil {
			return t, Effect{}, err
		}
		next, err := t.Update(in.ID, tree.SetLabel(label))
		return next, Effect{Select: in.ID}, err

	case Delete:
		sel := neighbour(t, in.ID)
		next, err := t.Remove(in.ID)
		return next, Effect{Select: sel}, err

	case Move:
		next, err := drag.Move(t, in.DraggedID, in.TargetID, in.Position)
		return next, Effect{Select: in.DraggedID}, err

	case FetchDone:
		next, err := s.lazy.Complete(t, in.Result)
		return next, Effect{}, err

	case Reload:
		fresh, err := tree.FromNodes(in.Nodes)
		if err != nil {
			return t, Effect{}, fmt.Errorf("reload: %w", err)
		}
		expanded := expand.Capture(t)
		expanded.Retain(fresh)
		next := expanded.Apply(fresh)
		// Fetches started before the reload still land on the fresh nodes.
		for _, id := range s.lazy.InFlight() {
			if next.Has(id) {
				next, _ = next.Update(id, tree.SetLoading(true))
			}
		}
		return next, Effect{}, nil

	default:
		return t, Effect{}, fmt.Errorf("unknown intent %T", in)
	}
}

func cleanLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyLabel
	}
	return label, nil
}

// neighbour picks the row to select once id is gone: the next sibling, else
// the previous one, else the parent.
func neighbour(t tree.Tree, id string) string {
	sibs := t.Siblings(id)
	for i, sib := range sibs {
		if sib != id {
			continue
		}
		if i+1 < len(sibs) {
			return sibs[i+1]
		}
		if i > 0 {
			return sibs[i-1]
		}
	}
	parent, _ := t.Parent(id)
	return parent
}
