package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/storage"
)

func TestAggregationSummary(t *testing.T) {
	a := NewAggregation(newStore(t, lookup.Delays{}))

	s, err := a.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dataset.Summary{Total: 7, Normal: 5, Error: 1}, s.Summary)
	assert.Len(t, s.Sources, 7)
	assert.Nil(t, s.Modal)
}

func TestAggregationModals(t *testing.T) {
	a := NewAggregation(newStore(t, lookup.Delays{}))
	ctx := context.Background()

	require.NoError(t, a.Open(ctx, ModalStructure, 6))
	s, err := a.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, s.Modal)
	assert.Equal(t, "数据结构查看", s.Modal.Title)
	assert.Equal(t, dataset.StructureTable, s.Modal.Table)
	assert.Equal(t, "GMSFHM", s.Modal.Structure[0].Name)
	assert.Equal(t, int64(6), s.Modal.Source.ID)

	require.NoError(t, a.Open(ctx, ModalLogs, 4))
	s, err = a.Snapshot(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, s.Modal.Logs)
	var levels []dataset.LogLevel
	for _, l := range s.Modal.Logs {
		levels = append(levels, l.Level)
	}
	assert.Contains(t, levels, dataset.LogError)

	require.NoError(t, a.Open(ctx, ModalConfig, 1))
	s, err = a.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, s.Modal.Config)
	assert.Equal(t, int64(1), s.Modal.Config.SourceID)

	require.NoError(t, a.Open(ctx, ModalImport, 3))
	s, err = a.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, s.Modal.Import)
	assert.Equal(t, "旅馆业住宿登记信息", s.Modal.Import.Target)

	require.NoError(t, a.Open(ctx, ModalAccess, 0))
	s, err = a.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, s.Modal.Source)
	assert.Equal(t, dataset.AccessTypes, s.Modal.Access.Types)

	a.Close()
	s, err = a.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, s.Modal)
}

func TestAggregationOpenErrors(t *testing.T) {
	a := NewAggregation(newStore(t, lookup.Delays{}))
	ctx := context.Background()

	require.NoError(t, a.Open(ctx, ModalLogs, 2))
	assert.ErrorIs(t, a.Open(ctx, ModalStructure, 99), lookup.ErrNotFound)
	assert.ErrorIs(t, a.Open(ctx, "delete", 2), ErrInvalidArgument)

	s, err := a.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModalLogs, s.Modal.Kind, "failed opens keep the current modal")
}

func TestAggregationModalDroppedWhenSourceRemoved(t *testing.T) {
	db, err := storage.OpenSeeded(storage.MemoryPath, dataset.Default())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	a := NewAggregation(lookup.NewStore(db, lookup.Delays{}))
	ctx := context.Background()

	require.NoError(t, a.Open(ctx, ModalStructure, 7))

	d := dataset.Default()
	d.Sources = d.Sources[:1]
	require.NoError(t, db.Seed(d))

	s, err := a.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, s.Modal)
	assert.Len(t, s.Sources, 1)

	// the modal stays closed once the source comes back
	require.NoError(t, db.Seed(dataset.Default()))
	s, err = a.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, s.Modal)
}
