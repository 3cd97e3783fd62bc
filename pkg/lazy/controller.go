// Package lazy decides, for every expand/collapse toggle, whether a node's
// children can be shown from memory or must first be fetched from a
// ChildSource, and folds fetch results back into the tree.
package lazy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/arbor/pkg/tree"
)

// ChildSource supplies the direct children of a node. An empty slice is a
// valid answer: the node turned out to be a leaf.
type ChildSource interface {
	FetchChildren(ctx context.Context, nodeID string) ([]tree.Node, error)
}

// State is the expansion state of one node.
type State int

const (
	// Collapsed means children are hidden (and possibly not fetched yet).
	Collapsed State = iota
	// Loading means a fetch is in flight.
	Loading
	// Expanded means children are shown.
	Expanded
)

func (s State) String() string {
	switch s {
	case Collapsed:
		return "collapsed"
	case Loading:
		return "loading"
	case Expanded:
		return "expanded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StateOf derives a node's state from its flags.
func StateOf(n tree.Node) State {
	switch {
	case n.Loading:
		return Loading
	case n.Expanded:
		return Expanded
	default:
		return Collapsed
	}
}

// ErrFetchInFlight is returned when a node is toggled while its children are
// still loading. The toggle is ignored.
var ErrFetchInFlight = errors.New("fetch already in flight")

// FetchError wraps a failed child fetch with the node it was for.
type FetchError struct {
	NodeID  string
	Cause   error
	Time    time.Time
	Attempt int // consecutive failures for this node, starting at 1
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch children of %q failed: %v (attempt %d)", e.NodeID, e.Cause, e.Attempt)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Result is the outcome of one Fetch.
type Result struct {
	NodeID   string
	Children []tree.Node
	Err      error
	Duration time.Duration
}

// Controller runs the per-node Collapsed/Loading/Expanded state machine.
// It holds no tree itself; callers pass the current tree in and keep the one
// that comes back.
type Controller struct {
	source ChildSource
	log    logrus.FieldLogger
	group  singleflight.Group

	fetches atomic.Int64

	mu       sync.Mutex
	failures map[string]int
	inflight map[string]struct{}
}

// NewController creates a controller over source. A nil logger discards output.
func NewController(source ChildSource, log logrus.FieldLogger) *Controller {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Controller{
		source:   source,
		log:      log,
		failures: make(map[string]int),
		inflight: make(map[string]struct{}),
	}
}

// Fetches returns how many calls actually reached the child source.
func (c *Controller) Fetches() int64 {
	return c.fetches.Load()
}

// InFlight returns the IDs whose fetch has started but not completed,
// sorted.
func (c *Controller) InFlight() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.inflight))
	for id := range c.inflight {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *Controller) isInFlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

// settle clears the in-flight record for id and reports whether there was one.
func (c *Controller) settle(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	delete(c.inflight, id)
	return ok
}

// Abandon forgets the in-flight fetch for id. Its result, if it still
// arrives, is ignored.
func (c *Controller) Abandon(id string) {
	c.settle(id)
}

// Toggle advances the state machine for id. When the node needs its children
// fetched, the returned tree has it in Loading and the returned Fetch must be
// run (asynchronously) and its Result handed to Complete.
func (c *Controller) Toggle(t tree.Tree, id string) (tree.Tree, *Fetch, error) {
	n, ok := t.Get(id)
	if !ok {
		return t, nil, fmt.Errorf("toggle: %w: %q", tree.ErrNotFound, id)
	}
	// The tree can lose the Loading flag (a reload builds fresh nodes) while
	// the fetch is still running.
	if c.isInFlight(id) {
		return t, nil, ErrFetchInFlight
	}

	switch StateOf(n) {
	case Loading:
		return t, nil, ErrFetchInFlight
	case Expanded:
		next, err := t.Update(id, tree.SetExpanded(false))
		return next, nil, err
	}

	if n.IsLeaf() {
		return t, nil, nil
	}
	if n.NeedsFetch() {
		next, err := t.Update(id, tree.SetLoading(true))
		if err != nil {
			return t, nil, err
		}
		c.mu.Lock()
		c.inflight[id] = struct{}{}
		c.mu.Unlock()
		c.log.WithField("id", id).Debug("child fetch started")
		return next, &Fetch{NodeID: id, c: c}, nil
	}
	next, err := t.Update(id, tree.SetExpanded(true))
	return next, nil, err
}

// Complete folds a fetch result into t. Results for nodes that have since
// been deleted, and results with no matching in-flight fetch, are dropped
// without error.
func (c *Controller) Complete(t tree.Tree, r Result) (tree.Tree, error) {
	if !c.settle(r.NodeID) {
		c.log.WithField("id", r.NodeID).Debug("no fetch in flight for node, ignoring result")
		return t, nil
	}
	n, ok := t.Find(r.NodeID)
	if !ok {
		c.log.WithField("id", r.NodeID).Debug("fetch completed for deleted node, ignoring")
		return t, nil
	}

	if r.Err != nil {
		next, _ := t.Update(r.NodeID, tree.SetLoading(false).Merge(tree.SetExpanded(false)))
		return next, c.fail(r.NodeID, r.Err)
	}
	c.resetFailures(r.NodeID)

	// Children added locally while the fetch was in flight stay, after the
	// fetched ones. Fetched subtrees reusing an ID already in the tree are dropped.
	var merged []tree.Node
	var dupes []string
	seen := make(map[string]bool)
	for _, child := range r.Children {
		if clash := clashes(t, child, seen); clash != "" {
			dupes = append(dupes, clash)
			continue
		}
		for _, id := range child.IDs() {
			seen[id] = true
		}
		merged = append(merged, child)
	}
	merged = append(merged, n.Children...)

	next, err := t.SetChildren(r.NodeID, merged)
	if err != nil {
		// Unreachable after the clash filter, but keep the node usable.
		next, _ = t.Update(r.NodeID, tree.SetLoading(false))
		return next, fmt.Errorf("attach children of %q: %w", r.NodeID, err)
	}
	next, err = next.Update(r.NodeID, tree.SetLoading(false).Merge(tree.SetExpanded(true)))
	if err != nil {
		return t, err
	}

	c.log.WithFields(logrus.Fields{
		"id":       r.NodeID,
		"children": len(merged),
		"took":     r.Duration,
	}).Debug("child fetch completed")

	if len(dupes) > 0 {
		return next, fmt.Errorf("fetched children of %q: %w: %v", r.NodeID, tree.ErrDuplicateID, dupes)
	}
	return next, nil
}

// clashes returns the first ID in child's subtree that is already taken,
// either in t or by an earlier fetched sibling.
func clashes(t tree.Tree, child tree.Node, seen map[string]bool) string {
	for _, id := range child.IDs() {
		if t.Has(id) || seen[id] {
			return id
		}
	}
	return ""
}

func (c *Controller) fail(id string, cause error) *FetchError {
	var fe *FetchError
	if !errors.As(cause, &fe) {
		fe = &FetchError{NodeID: id, Cause: cause, Time: time.Now()}
	}
	c.mu.Lock()
	c.failures[id]++
	fe.Attempt = c.failures[id]
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"id": id, "attempt": fe.Attempt}).WithError(fe.Cause).Warn("child fetch failed")
	return fe
}

func (c *Controller) resetFailures(id string) {
	c.mu.Lock()
	delete(c.failures, id)
	c.mu.Unlock()
}

// Fetch is a pending child fetch for one node.
type Fetch struct {
	NodeID string
	c      *Controller
}

// Run asks the child source for the node's children. Concurrent runs for the
// same node share a single source call.
func (f *Fetch) Run(ctx context.Context) Result {
	start := time.Now()
	ch := f.c.group.DoChan(f.NodeID, func() (any, error) {
		return f.c.call(ctx, f.NodeID)
	})

	select {
	case <-ctx.Done():
		return Result{NodeID: f.NodeID, Err: ctx.Err(), Duration: time.Since(start)}
	case res := <-ch:
		r := Result{NodeID: f.NodeID, Err: res.Err, Duration: time.Since(start)}
		if res.Err == nil {
			shared := res.Val.([]tree.Node)
			r.Children = make([]tree.Node, len(shared))
			for i, n := range shared {
				r.Children[i] = n.Clone()
			}
		}
		return r
	}
}

// call invokes the source, turning panics into errors.
func (c *Controller) call(ctx context.Context, id string) (children []tree.Node, err error) {
	c.fetches.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err = &FetchError{
				NodeID: id,
				Cause:  fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
				Time:   time.Now(),
			}
		}
	}()
	if c.source == nil {
		return nil, errors.New("no child source configured")
	}
	return c.source.FetchChildren(ctx, id)
}
