// Package source provides ChildSource implementations: a simulated backend,
// a SQLite table, and a fixed in-memory map.
package source

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vanderheijden86/arbor/pkg/tree"
)

// DefaultLatency is how long Mock takes to answer unless told otherwise.
const DefaultLatency = 800 * time.Millisecond

// ErrInjected is the error Mock returns when a fetch is chosen to fail.
var ErrInjected = errors.New("simulated backend failure")

// Mock simulates a remote backend: every fetch returns one to four fresh
// children after a delay.
type Mock struct {
	// Latency is the simulated round trip. Zero means no delay.
	Latency time.Duration
	// FailRate is the probability, 0 to 1, that a fetch fails.
	FailRate float64

	mu  sync.Mutex
	rng *rand.Rand
	seq atomic.Uint64
}

// NewMock creates a mock seeded with seed, so runs are reproducible.
func NewMock(latency time.Duration, seed uint64) *Mock {
	return &Mock{
		Latency: latency,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// FetchChildren implements lazy.ChildSource.
func (m *Mock) FetchChildren(ctx context.Context, nodeID string) ([]tree.Node, error) {
	if m.Latency > 0 {
		timer := time.NewTimer(m.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if m.FailRate > 0 && m.rng.Float64() < m.FailRate {
		return nil, fmt.Errorf("fetch %q: %w", nodeID, ErrInjected)
	}

	suffix := nodeID
	if i := strings.LastIndex(nodeID, "-"); i >= 0 {
		suffix = nodeID[i+1:]
	}
	count := 1 + m.rng.IntN(4)
	children := make([]tree.Node, count)
	for i := range children {
		children[i] = tree.Node{
			ID:          fmt.Sprintf("%s-child-%d-%d", nodeID, i+1, m.seq.Add(1)),
			Label:       fmt.Sprintf("Child %d of %s", i+1, suffix),
			HasChildren: m.rng.Float64() > 0.5,
		}
	}
	return children, nil
}
