package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/graph"
	"github.com/zheng/rkhl/internal/lookup"
)

// FamilySource is everything the family graph view looks up
type FamilySource interface {
	lookup.PersonSearcher
	lookup.GraphSource
	lookup.OverlaySource
}

// Mode is the visible panel of the family graph view
type Mode string

const (
	ModeSearch Mode = "search"
	ModeGraph  Mode = "graph"
)

// Zoom bounds of the graph canvas.
const (
	ZoomMin     = 0.5
	ZoomMax     = 2.0
	ZoomStep    = 0.25
	ZoomDefault = 1.0
)

// SearchingText is shown while a person search is pending.
const SearchingText = "正在检索人口数据库..."

// FamilyGraph holds the state of the family relationship view
type FamilyGraph struct {
	mu  sync.Mutex
	run *runner
	src FamilySource
	log *slog.Logger

	mode      Mode
	query     string
	pending   bool
	results   []graph.SearchResult
	searchErr string

	g        *graph.Graph
	selected string
	zoom     float64
	overlay  *Overlay
}

// NodeView is a node as drawn on the canvas
type NodeView struct {
	graph.PersonNode
	Selected bool            `json:"selected"`
	Style    graph.NodeStyle `json:"style"`
}

// FamilySnapshot is the rendered state of the family graph view
type FamilySnapshot struct {
	Mode     Mode                 `json:"mode"`
	Query    string               `json:"query"`
	Pending  bool                 `json:"pending"`
	Status   string               `json:"status,omitempty"`
	Results  []graph.SearchResult `json:"results"`
	Error    string               `json:"error,omitempty"`
	Selected string               `json:"selected,omitempty"`
	Detail   *graph.Detail        `json:"detail,omitempty"`
	Nodes    []NodeView           `json:"nodes,omitempty"`
	Segments []graph.Segment      `json:"segments,omitempty"`
	Zoom     float64              `json:"zoom"`
	Overlay  *OverlaySnapshot     `json:"overlay,omitempty"`
}

// NewFamilyGraph creates the view in search mode with no results
func NewFamilyGraph(src FamilySource, log *slog.Logger) *FamilyGraph {
	f := &FamilyGraph{
		src:      src,
		log:      log,
		mode:     ModeSearch,
		selected: dataset.RootID,
		zoom:     ZoomDefault,
	}
	f.run = newRunner(&f.mu, log)
	return f
}

// Submit starts a person search. Previous results are cleared at once and
// the new ones appear when the lookup completes. A search still in flight
// is superseded.
func (f *FamilyGraph) Submit(query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.run.closed {
		return ErrClosed
	}
	if f.mode != ModeSearch {
		return fmt.Errorf("search in %s mode: %w", f.mode, ErrInvalidState)
	}

	f.query = query
	f.results = nil
	f.searchErr = ""
	f.pending = true

	launch(f.run, "search",
		func(ctx context.Context) ([]graph.SearchResult, error) {
			return f.src.SearchPersons(ctx, query)
		},
		func(results []graph.SearchResult, err error) {
			f.pending = false
			if err != nil {
				f.searchErr = err.Error()
				f.log.Warn("人员检索失败", "query", query, "error", err)
				return
			}
			f.results = results
		},
	)
	return nil
}

// SelectResult enters graph mode. Whichever row was picked, the selection
// starts at the root of the constellation.
func (f *FamilyGraph) SelectResult(ctx context.Context, index int) error {
	f.mu.Lock()
	if f.run.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.mode != ModeSearch || f.pending {
		f.mu.Unlock()
		return fmt.Errorf("select result: %w", ErrInvalidState)
	}
	if index < 0 || index >= len(f.results) {
		n := len(f.results)
		f.mu.Unlock()
		return fmt.Errorf("result %d of %d: %w", index, n, ErrInvalidArgument)
	}
	f.mu.Unlock()

	g, err := f.src.Graph(ctx)
	if err != nil {
		return err
	}
	root, ok := g.Root()
	if !ok {
		return graph.ErrNoRoot
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.run.closed {
		return ErrClosed
	}
	if f.mode != ModeSearch || f.pending {
		return fmt.Errorf("select result: %w", ErrInvalidState)
	}
	f.g = g
	f.mode = ModeGraph
	f.selected = root.ID
	f.zoom = ZoomDefault
	return nil
}

// SelectNode changes the selected node. Unknown ids are rejected.
func (f *FamilyGraph) SelectNode(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.run.closed {
		return ErrClosed
	}
	if f.mode != ModeGraph {
		return fmt.Errorf("select node: %w", ErrInvalidState)
	}
	if _, ok := f.g.Node(id); !ok {
		return fmt.Errorf("node %s: %w", id, lookup.ErrNotFound)
	}
	if id != f.selected {
		f.closeOverlay()
	}
	f.selected = id
	return nil
}

// Back returns to the search panel keeping the previous results
func (f *FamilyGraph) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.run.closed {
		return ErrClosed
	}
	if f.mode != ModeGraph {
		return fmt.Errorf("back: %w", ErrInvalidState)
	}
	f.closeOverlay()
	f.mode = ModeSearch
	return nil
}

// OpenOverlay opens the detail overlay of the selected node, replacing
// any overlay already open.
func (f *FamilyGraph) OpenOverlay(kind dataset.OverlayKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.run.closed {
		return ErrClosed
	}
	if f.mode != ModeGraph {
		return fmt.Errorf("open overlay: %w", ErrInvalidState)
	}
	if _, ok := dataset.ParseOverlayKind(string(kind)); !ok {
		return fmt.Errorf("overlay kind %q: %w", kind, ErrInvalidArgument)
	}
	f.closeOverlay()
	f.overlay = OpenOverlay(f.src, kind, f.selected, f.log)
	return nil
}

// CloseOverlay discards the overlay. Closing when none is open is a no-op.
func (f *FamilyGraph) CloseOverlay() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeOverlay()
}

func (f *FamilyGraph) closeOverlay() {
	if f.overlay != nil {
		f.overlay.Close()
		f.overlay = nil
	}
}

// Overlay returns the open overlay, if any
func (f *FamilyGraph) Overlay() (*Overlay, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlay, f.overlay != nil
}

// Zoom moves the canvas scale by step increments of ZoomStep, clamped to
// [ZoomMin, ZoomMax]. A zero step resets it.
func (f *FamilyGraph) Zoom(step int) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.run.closed {
		return f.zoom, ErrClosed
	}
	if f.mode != ModeGraph {
		return f.zoom, fmt.Errorf("zoom: %w", ErrInvalidState)
	}
	if step == 0 {
		f.zoom = ZoomDefault
		return f.zoom, nil
	}
	f.zoom = min(ZoomMax, max(ZoomMin, f.zoom+float64(step)*ZoomStep))
	return f.zoom, nil
}

// Wait blocks until the pending search and overlay load have settled
func (f *FamilyGraph) Wait(ctx context.Context) error {
	if err := f.run.settle(ctx); err != nil {
		return err
	}
	if o, ok := f.Overlay(); ok {
		return o.Wait(ctx)
	}
	return nil
}

// Close tears the view down. Pending lookups are dropped.
func (f *FamilyGraph) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.run.shutdown()
	f.closeOverlay()
}

func (f *FamilyGraph) Snapshot() FamilySnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := FamilySnapshot{
		Mode:    f.mode,
		Query:   f.query,
		Pending: f.pending,
		Results: append([]graph.SearchResult(nil), f.results...),
		Error:   f.searchErr,
		Zoom:    f.zoom,
	}
	if f.pending {
		s.Status = SearchingText
	}
	if f.mode != ModeGraph || f.g == nil {
		return s
	}

	s.Selected = f.selected
	for _, n := range f.g.Nodes {
		selected := n.ID == f.selected
		s.Nodes = append(s.Nodes, NodeView{PersonNode: n, Selected: selected, Style: graph.StyleFor(n, selected)})
		if selected {
			d := graph.DetailOf(n)
			s.Detail = &d
		}
	}
	s.Segments = f.g.Segments()
	if f.overlay != nil {
		o := f.overlay.Snapshot()
		s.Overlay = &o
	}
	return s
}
