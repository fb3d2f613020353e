package graph

import (
	"fmt"
)

// Builder validates a constellation and hands its nodes and links to a store
type Builder struct {
	insertFn func(*PersonNode) error
	edgeFn   func(*Link) error
	skipped  []Link // links dropped because an endpoint is missing
	inserted int
}

// NewBuilder creates a new graph builder
func NewBuilder(insertFn func(*PersonNode) error, edgeFn func(*Link) error) *Builder {
	return &Builder{
		insertFn: insertFn,
		edgeFn:   edgeFn,
	}
}

// Build stores the graph. Nodes go first so links can reference them.
// Dangling links, self loops and duplicate links are not stored.
func (b *Builder) Build(g *Graph) error {
	dangling, err := g.Validate()
	if err != nil {
		return fmt.Errorf("invalid graph: %w", err)
	}
	b.skipped = append(b.skipped, dangling...)

	for i := range g.Nodes {
		if err := b.insertFn(&g.Nodes[i]); err != nil {
			return fmt.Errorf("failed to create node %s: %w", g.Nodes[i].ID, err)
		}
	}

	bad := make(map[Link]bool, len(dangling))
	for _, l := range dangling {
		bad[l] = true
	}

	edgeSet := make(map[string]bool)
	for i := range g.Links {
		l := g.Links[i]
		if bad[l] || l.From == l.To {
			continue
		}

		edgeKey := l.From + "->" + l.To
		if edgeSet[edgeKey] {
			continue
		}
		edgeSet[edgeKey] = true

		if err := b.edgeFn(&l); err != nil {
			return fmt.Errorf("failed to create link %s: %w", edgeKey, err)
		}
		b.inserted++
	}

	return nil
}

// Skipped returns the links that were dropped as dangling
func (b *Builder) Skipped() []Link {
	return b.skipped
}

// GetLinkCount returns the number of links handed to the store
func (b *Builder) GetLinkCount() int {
	return b.inserted
}
