package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/lookup"
)

// RecordSource is everything the comprehensive query view looks up
type RecordSource interface {
	lookup.RecordSearcher
	lookup.DetailSource
	lookup.TreeSource
}

// Drawer is the slide-in record detail
type Drawer struct {
	Index       int                   `json:"index"`
	Record      dataset.Record        `json:"record"`
	Phase       Phase                 `json:"phase"`
	LoadingText string                `json:"loadingText,omitempty"`
	Content     *dataset.RecordDetail `json:"content,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// Query holds the state of the comprehensive query view
type Query struct {
	mu  sync.Mutex
	run *runner
	src RecordSource
	log *slog.Logger

	sub      dataset.SubModule
	pending  bool
	searched bool
	results  []dataset.Record
	err      string
	drawer   *Drawer
	expanded map[string]bool // tree expansion toggled by the user
}

// QuerySnapshot is the rendered state of the query view
type QuerySnapshot struct {
	Sub        dataset.SubModule       `json:"sub"`
	SubLabel   string                  `json:"subLabel"`
	SubModules []dataset.SubModuleInfo `json:"subModules"`
	Columns    []dataset.Column        `json:"columns"`
	Pending    bool                    `json:"pending"`
	Searched   bool                    `json:"searched"`
	Results    []dataset.Record        `json:"results"`
	Error      string                  `json:"error,omitempty"`
	Drawer     *Drawer                 `json:"drawer,omitempty"`
}

func NewQuery(src RecordSource, log *slog.Logger) *Query {
	q := &Query{
		src:      src,
		log:      log,
		sub:      dataset.SubAddress,
		expanded: make(map[string]bool),
	}
	q.run = newRunner(&q.mu, log)
	return q
}

// SetSub switches the sub-module. Results are cleared and an in-flight
// search or detail load is dropped.
func (q *Query) SetSub(sub dataset.SubModule) error {
	if _, ok := dataset.ParseSubModule(string(sub)); !ok {
		return fmt.Errorf("sub-module %q: %w", sub, ErrInvalidArgument)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.run.closed {
		return ErrClosed
	}
	q.run.stop("search")
	q.run.stop("detail")
	q.sub = sub
	q.pending = false
	q.searched = false
	q.results = nil
	q.err = ""
	q.drawer = nil
	return nil
}

// Search runs the active sub-module search. An open detail drawer is closed.
func (q *Query) Search() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.run.closed {
		return ErrClosed
	}

	sub := q.sub
	q.run.stop("detail")
	q.drawer = nil
	q.pending = true
	q.results = nil
	q.err = ""
	launch(q.run, "search",
		func(ctx context.Context) ([]dataset.Record, error) {
			return q.src.SearchRecords(ctx, sub)
		},
		func(records []dataset.Record, err error) {
			q.pending = false
			q.searched = true
			if err != nil {
				q.err = err.Error()
				q.log.Warn("综合查询失败", "sub", sub, "error", err)
				return
			}
			q.results = records
		},
	)
	return nil
}

// SelectRecord opens the detail drawer of a result row
func (q *Query) SelectRecord(index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.run.closed {
		return ErrClosed
	}
	if index < 0 || index >= len(q.results) {
		return fmt.Errorf("record %d of %d: %w", index, len(q.results), ErrInvalidArgument)
	}

	rec := q.results[index]
	d := &Drawer{Index: index, Record: rec, Phase: PhaseLoading}
	q.drawer = d
	launch(q.run, "detail",
		func(ctx context.Context) (dataset.RecordDetail, error) {
			return q.src.RecordDetail(ctx, rec)
		},
		func(c dataset.RecordDetail, err error) {
			if err != nil {
				d.Phase = PhaseFailed
				d.Error = err.Error()
				return
			}
			d.Phase = PhaseReady
			d.Content = &c
		},
	)
	return nil
}

// CloseDetail discards the drawer
func (q *Query) CloseDetail() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.run.stop("detail")
	q.drawer = nil
}

// TreeView is a division tree node with its current expansion
type TreeView struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Expanded bool       `json:"expanded"`
	Children []TreeView `json:"children,omitempty"`
}

// Tree returns the division tree with the user's expansion applied
func (q *Query) Tree(ctx context.Context) ([]TreeView, error) {
	nodes, err := q.src.Tree(ctx)
	if err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.treeView(nodes), nil
}

func (q *Query) treeView(nodes []dataset.TreeNode) []TreeView {
	var out []TreeView
	for _, n := range nodes {
		v := TreeView{ID: n.ID, Label: n.Label, Expanded: n.Expanded}
		if e, ok := q.expanded[n.ID]; ok {
			v.Expanded = e
		}
		v.Children = q.treeView(n.Children)
		out = append(out, v)
	}
	return out
}

// ToggleTree flips the expansion of a tree node
func (q *Query) ToggleTree(ctx context.Context, id string) error {
	nodes, err := q.src.Tree(ctx)
	if err != nil {
		return err
	}
	n, ok := findTree(nodes, id)
	if !ok {
		return fmt.Errorf("tree node %s: %w", id, lookup.ErrNotFound)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	cur, ok := q.expanded[id]
	if !ok {
		cur = n.Expanded
	}
	q.expanded[id] = !cur
	return nil
}

func findTree(nodes []dataset.TreeNode, id string) (dataset.TreeNode, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
		if c, ok := findTree(n.Children, id); ok {
			return c, true
		}
	}
	return dataset.TreeNode{}, false
}

func (q *Query) Wait(ctx context.Context) error {
	return q.run.settle(ctx)
}

func (q *Query) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.run.shutdown()
	q.drawer = nil
}

func (q *Query) Snapshot() QuerySnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := QuerySnapshot{
		Sub:        q.sub,
		SubLabel:   q.sub.Label(),
		SubModules: dataset.SubModules,
		Columns:    dataset.Columns(q.sub),
		Pending:    q.pending,
		Searched:   q.searched,
		Results:    append([]dataset.Record(nil), q.results...),
		Error:      q.err,
	}
	if q.drawer != nil {
		d := *q.drawer
		if d.Phase == PhaseLoading {
			d.LoadingText = dataset.DetailLoadingText
		}
		s.Drawer = &d
	}
	return s
}
