// Package seed supplies the initial tree: a built-in demo or a JSON file,
// optionally watched for changes.
package seed

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/arbor/pkg/tree"
)

// Default returns the demo tree shown when no seed file is configured.
func Default() []tree.Node {
	return []tree.Node{
		{
			ID:       "root-1",
			Label:    "Documents",
			Expanded: true,
			Children: []tree.Node{
				{ID: "root-1-1", Label: "Work", HasChildren: true},
				{ID: "root-1-2", Label: "Personal"},
			},
		},
		{ID: "root-2", Label: "Projects", HasChildren: true},
		{ID: "root-3", Label: "Archive"},
	}
}

// seedNode mirrors tree.Node on disk. A present "children" key, even an
// empty one, means the node's children are known and need no fetch.
type seedNode struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	HasChildren bool        `json:"hasChildren"`
	Expanded    bool        `json:"expanded"`
	Children    *[]seedNode `json:"children"`
}

func (s seedNode) node() tree.Node {
	n := tree.Node{
		ID:          s.ID,
		Label:       s.Label,
		HasChildren: s.HasChildren,
		Expanded:    s.Expanded,
	}
	if s.Children != nil {
		n.Loaded = true
		for _, c := range *s.Children {
			n.Children = append(n.Children, c.node())
		}
	}
	return n
}

// Parse decodes a JSON array of nodes and checks it forms a valid tree.
func Parse(data []byte) ([]tree.Node, error) {
	var raw []seedNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	nodes := make([]tree.Node, len(raw))
	for i, r := range raw {
		nodes[i] = r.node()
	}
	if _, err := tree.FromNodes(nodes); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return nodes, nil
}

// Load reads and parses the seed file at path.
func Load(path string) ([]tree.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	nodes, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nodes, nil
}

// LoadOrDefault loads path, falling back to the demo tree when path is empty.
func LoadOrDefault(path string) ([]tree.Node, error) {
	if path == "" {
		return Default(), nil
	}
	nodes, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("seed file %s: %w", path, os.ErrNotExist)
	}
	return nodes, err
}
