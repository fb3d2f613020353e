// Package dataset holds the compiled-in record tables the dashboard is served
// from, and loads replacement tables from a TOML file.
package dataset

import (
	"github.com/zheng/rkhl/internal/graph"
)

// RootID is the id of the query subject in the default constellation.
const RootID = "4"

// Dataset is the full set of tables a store is seeded with
type Dataset struct {
	Candidates []graph.SearchResult `toml:"candidates"`
	Persons    []graph.PersonNode   `toml:"persons"`
	Links      []graph.Link         `toml:"links"`
	Sources    []Source             `toml:"sources"`
	Records    []Record             `toml:"records"`
	Tree       []TreeNode           `toml:"tree"`
}

// Graph returns the family constellation held by the dataset
func (d *Dataset) Graph() *graph.Graph {
	return &graph.Graph{Nodes: d.Persons, Links: d.Links}
}

// Default returns a fresh copy of the built-in tables
func Default() *Dataset {
	return &Dataset{
		Candidates: append([]graph.SearchResult(nil), candidates...),
		Persons:    append([]graph.PersonNode(nil), persons...),
		Links:      append([]graph.Link(nil), links...),
		Sources:    append([]Source(nil), sources...),
		Records:    append([]Record(nil), records...),
		Tree:       cloneTree(tree),
	}
}

func cloneTree(nodes []TreeNode) []TreeNode {
	if nodes == nil {
		return nil
	}
	out := make([]TreeNode, len(nodes))
	for i, n := range nodes {
		out[i] = n
		out[i].Children = cloneTree(n.Children)
	}
	return out
}
