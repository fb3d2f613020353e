// Package lookup is the seam between the views and their data. Every call a
// view makes that would be a request to a backend goes through one of the
// interfaces here, so the simulated store can be swapped for a real one.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/graph"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("backend unavailable")
	ErrTimeout     = errors.New("lookup timed out")
	ErrCanceled    = errors.New("lookup canceled")
)

// PersonSearcher finds candidate persons for a free-text query
type PersonSearcher interface {
	SearchPersons(ctx context.Context, query string) ([]graph.SearchResult, error)
}

// GraphSource serves the family constellation
type GraphSource interface {
	Graph(ctx context.Context) (*graph.Graph, error)
	Person(ctx context.Context, id string) (graph.PersonNode, error)
}

// OverlaySource loads the archive or trajectory content of a person
type OverlaySource interface {
	Overlay(ctx context.Context, kind dataset.OverlayKind, id string) (dataset.OverlayContent, error)
}

// RecordSearcher runs a comprehensive query sub-module search
type RecordSearcher interface {
	SearchRecords(ctx context.Context, sub dataset.SubModule) ([]dataset.Record, error)
}

// DetailSource loads the drawer of a query result record
type DetailSource interface {
	RecordDetail(ctx context.Context, r dataset.Record) (dataset.RecordDetail, error)
}

// TreeSource serves the administrative division tree
type TreeSource interface {
	Tree(ctx context.Context) ([]dataset.TreeNode, error)
}

// SourceCatalog serves the aggregation monitor
type SourceCatalog interface {
	Sources(ctx context.Context) ([]dataset.Source, error)
	Source(ctx context.Context, id int64) (dataset.Source, error)
	Structure(ctx context.Context, id int64) ([]dataset.DataField, error)
	Logs(ctx context.Context, id int64) ([]dataset.LogEntry, error)
	SyncConfig(ctx context.Context, id int64) (dataset.SyncConfig, error)
}

// Wait blocks for delay or until ctx is done. A non-positive delay only
// checks ctx.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		if err := ctx.Err(); err != nil {
			return interrupted(err)
		}
		return nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return interrupted(ctx.Err())
	}
}

// Simulate waits delay, then calls fn.
func Simulate[T any](ctx context.Context, delay time.Duration, fn func() (T, error)) (T, error) {
	if err := Wait(ctx, delay); err != nil {
		var zero T
		return zero, err
	}
	return fn()
}

func interrupted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrCanceled, err)
}
