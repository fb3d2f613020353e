package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/graph"
	"github.com/zheng/rkhl/internal/logging"
	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/storage"
)

const (
	delay   = 40 * time.Millisecond
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func newStore(t *testing.T, delays lookup.Delays) *lookup.Store {
	t.Helper()
	db, err := storage.OpenSeeded(storage.MemoryPath, dataset.Default())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return lookup.NewStore(db, delays)
}

func allDelays(d time.Duration) lookup.Delays {
	return lookup.Delays{Search: d, Overlay: d, Query: d, Detail: d}
}

func settle(t *testing.T, w interface{ Wait(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, w.Wait(ctx))
}

// failingSource fails every delayed lookup with err.
type failingSource struct {
	*lookup.Store
	err error
}

func (f failingSource) SearchPersons(ctx context.Context, query string) ([]graph.SearchResult, error) {
	return nil, f.err
}

func (f failingSource) SearchRecords(ctx context.Context, sub dataset.SubModule) ([]dataset.Record, error) {
	return nil, f.err
}

var quiet = logging.Discard()
