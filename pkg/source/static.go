package source

import (
	"context"

	"github.com/vanderheijden86/arbor/pkg/tree"
)

// Static answers fetches from a fixed map. Unknown IDs have no children.
type Static map[string][]tree.Node

// FetchChildren implements lazy.ChildSource.
func (s Static) FetchChildren(ctx context.Context, nodeID string) ([]tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kids := s[nodeID]
	out := make([]tree.Node, len(kids))
	for i, k := range kids {
		out[i] = k.Clone()
	}
	return out, nil
}
