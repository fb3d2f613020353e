package graph

import (
	"errors"
	"fmt"
)

var (
	ErrNoRoot        = errors.New("graph has no root node")
	ErrMultipleRoots = errors.New("graph has more than one root node")
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrOutOfBounds   = errors.New("node coordinates out of [0,100]")
	ErrDanglingLink  = errors.New("link endpoint does not resolve to a node")
)

// Graph is a fixed constellation of relatives around one root person
type Graph struct {
	Nodes []PersonNode `json:"nodes"`
	Links []Link       `json:"links"`
}

// Node returns the node with the given id
func (g *Graph) Node(id string) (PersonNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return PersonNode{}, false
}

// Root returns the query subject. ok is false when the graph has no root.
func (g *Graph) Root() (PersonNode, bool) {
	for _, n := range g.Nodes {
		if n.IsRoot {
			return n, true
		}
	}
	return PersonNode{}, false
}

// Segments resolves every link to its endpoint coordinates.
// Links whose endpoints are missing are skipped.
func (g *Graph) Segments() []Segment {
	index := make(map[string]PersonNode, len(g.Nodes))
	for _, n := range g.Nodes {
		index[n.ID] = n
	}

	segments := make([]Segment, 0, len(g.Links))
	for _, l := range g.Links {
		start, ok := index[l.From]
		if !ok {
			continue
		}
		end, ok := index[l.To]
		if !ok {
			continue
		}
		segments = append(segments, Segment{
			From: l.From,
			To:   l.To,
			X1:   start.X,
			Y1:   start.Y,
			X2:   end.X,
			Y2:   end.Y,
		})
	}
	return segments
}

// Validate checks the structural invariants of the node table.
// Dangling links are reported in the second return value rather than as an
// error, since rendering drops them.
func (g *Graph) Validate() (dangling []Link, err error) {
	seen := make(map[string]bool, len(g.Nodes))
	roots := 0
	for _, n := range g.Nodes {
		if seen[n.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		seen[n.ID] = true
		if n.X < 0 || n.X > 100 || n.Y < 0 || n.Y > 100 {
			return nil, fmt.Errorf("%w: %s (%.1f, %.1f)", ErrOutOfBounds, n.ID, n.X, n.Y)
		}
		if n.IsRoot {
			roots++
		}
	}

	switch {
	case roots == 0:
		return nil, ErrNoRoot
	case roots > 1:
		return nil, fmt.Errorf("%w: found %d", ErrMultipleRoots, roots)
	}

	for _, l := range g.Links {
		if !seen[l.From] || !seen[l.To] {
			dangling = append(dangling, l)
		}
	}
	return dangling, nil
}

// Parents returns the ids linking into the given node
func (g *Graph) Parents(id string) []string {
	var ids []string
	for _, l := range g.Links {
		if l.To == id {
			ids = append(ids, l.From)
		}
	}
	return ids
}

// Children returns the ids the given node links to
func (g *Graph) Children(id string) []string {
	var ids []string
	for _, l := range g.Links {
		if l.From == id {
			ids = append(ids, l.To)
		}
	}
	return ids
}
