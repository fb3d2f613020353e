package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/lookup"
)

func TestQuerySearch(t *testing.T) {
	q := NewQuery(newStore(t, allDelays(delay)), quiet)
	defer q.Close()

	s := q.Snapshot()
	assert.Equal(t, dataset.SubAddress, s.Sub)
	assert.False(t, s.Searched)
	assert.NotEmpty(t, s.Columns)
	assert.Len(t, s.SubModules, len(dataset.SubModules))

	require.NoError(t, q.Search())
	assert.True(t, q.Snapshot().Pending)
	settle(t, q)

	s = q.Snapshot()
	assert.False(t, s.Pending)
	assert.True(t, s.Searched)
	require.Len(t, s.Results, 3)
	assert.Equal(t, dataset.KindBuilding, s.Results[0].Kind)

	require.NoError(t, q.SetSub(dataset.SubChanges))
	s = q.Snapshot()
	assert.Empty(t, s.Results)
	assert.False(t, s.Searched)

	require.NoError(t, q.Search())
	settle(t, q)
	assert.Len(t, q.Snapshot().Results, 2)

	require.NoError(t, q.SetSub(dataset.SubPermitCard))
	require.NoError(t, q.Search())
	settle(t, q)
	assert.Len(t, q.Snapshot().Results, 3, "unlisted sub-modules share the person table")

	assert.ErrorIs(t, q.SetSub("weather"), ErrInvalidArgument)
}

func TestSwitchSubDropsInflightSearch(t *testing.T) {
	q := NewQuery(newStore(t, allDelays(delay)), quiet)
	defer q.Close()

	require.NoError(t, q.Search())
	require.NoError(t, q.SetSub(dataset.SubHousehold))
	settle(t, q)
	time.Sleep(2 * delay)

	s := q.Snapshot()
	assert.Equal(t, dataset.SubHousehold, s.Sub)
	assert.False(t, s.Pending)
	assert.False(t, s.Searched)
	assert.Empty(t, s.Results)
}

func TestQuerySearchFailure(t *testing.T) {
	src := failingSource{Store: newStore(t, lookup.Delays{}), err: lookup.ErrTimeout}
	q := NewQuery(src, quiet)
	defer q.Close()

	require.NoError(t, q.Search())
	settle(t, q)

	s := q.Snapshot()
	assert.True(t, s.Searched)
	assert.Empty(t, s.Results)
	assert.NotEmpty(t, s.Error)
}

func TestRecordDrawer(t *testing.T) {
	q := NewQuery(newStore(t, allDelays(delay)), quiet)
	defer q.Close()

	assert.ErrorIs(t, q.SelectRecord(0), ErrInvalidArgument)
	require.NoError(t, q.Search())
	settle(t, q)

	require.NoError(t, q.SelectRecord(2))
	d := q.Snapshot().Drawer
	require.NotNil(t, d)
	assert.Equal(t, PhaseLoading, d.Phase)
	assert.Equal(t, dataset.DetailLoadingText, d.LoadingText)
	assert.Equal(t, dataset.KindRoom, d.Record.Kind)

	settle(t, q)
	d = q.Snapshot().Drawer
	require.NotNil(t, d)
	assert.Equal(t, PhaseReady, d.Phase)
	require.NotNil(t, d.Content)
	assert.Equal(t, "地址详情", d.Content.Title)

	q.CloseDetail()
	assert.Nil(t, q.Snapshot().Drawer)
}

func TestDrawerClosedWhileLoading(t *testing.T) {
	q := NewQuery(newStore(t, allDelays(delay)), quiet)
	defer q.Close()

	require.NoError(t, q.SetSub(dataset.SubHousehold))
	require.NoError(t, q.Search())
	settle(t, q)

	require.NoError(t, q.SelectRecord(0))
	q.CloseDetail()
	settle(t, q)
	time.Sleep(2 * delay)
	assert.Nil(t, q.Snapshot().Drawer)
}

func TestSearchClosesDrawer(t *testing.T) {
	q := NewQuery(newStore(t, allDelays(delay)), quiet)
	defer q.Close()

	require.NoError(t, q.Search())
	settle(t, q)
	require.NoError(t, q.SelectRecord(1))

	require.NoError(t, q.Search())
	s := q.Snapshot()
	assert.Nil(t, s.Drawer)
	assert.Empty(t, s.Results)

	settle(t, q)
	time.Sleep(2 * delay)
	s = q.Snapshot()
	assert.Nil(t, s.Drawer, "detail load from the previous results must not reopen the drawer")
	assert.Len(t, s.Results, 3)
}

func TestTreeToggle(t *testing.T) {
	q := NewQuery(newStore(t, lookup.Delays{}), quiet)
	defer q.Close()
	ctx := context.Background()

	tree, err := q.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.True(t, tree[0].Expanded)
	assert.Len(t, tree[0].Children, 5)

	require.NoError(t, q.ToggleTree(ctx, "370702"))
	require.NoError(t, q.ToggleTree(ctx, "370703"))
	tree, err = q.Tree(ctx)
	require.NoError(t, err)
	assert.False(t, tree[0].Children[0].Expanded)
	assert.True(t, tree[0].Children[1].Expanded)

	require.NoError(t, q.ToggleTree(ctx, "370702"))
	tree, _ = q.Tree(ctx)
	assert.True(t, tree[0].Children[0].Expanded)

	assert.ErrorIs(t, q.ToggleTree(ctx, "999"), lookup.ErrNotFound)
}
