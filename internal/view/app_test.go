package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/rkhl/internal/lookup"
)

func newApp(t *testing.T, navigate time.Duration, opts ...Option) *App {
	t.Helper()
	store := newStore(t, lookup.Delays{})
	opts = append([]Option{WithNavigateDelay(navigate), WithLogger(quiet)}, opts...)
	a := NewApp(Deps{Family: store, Catalog: store, Records: store}, opts...)
	t.Cleanup(a.Close)
	return a
}

func TestAppStartsOnDashboard(t *testing.T) {
	a := newApp(t, delay)

	s := a.Snapshot()
	assert.Equal(t, ModuleDashboard, s.Active)
	assert.False(t, s.Loading)
	assert.Len(t, s.Modules, 4)

	_, err := a.Cockpit()
	assert.NoError(t, err)
	_, err = a.Family()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNavigateToActiveModuleIsNoop(t *testing.T) {
	a := newApp(t, delay)

	c, err := a.Cockpit()
	require.NoError(t, err)
	require.NoError(t, c.SelectRegion("奎文区"))

	changed, err := a.Navigate(ModuleDashboard)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, a.Snapshot().Loading)

	same, err := a.Cockpit()
	require.NoError(t, err)
	assert.Same(t, c, same)
	assert.Equal(t, "奎文区", same.Snapshot().Region)
}

func TestNavigateShowsLoadingThenMounts(t *testing.T) {
	a := newApp(t, delay)

	changed, err := a.Navigate(ModuleFamily)
	require.NoError(t, err)
	assert.True(t, changed)

	s := a.Snapshot()
	assert.True(t, s.Loading)
	assert.Equal(t, ModuleDashboard, s.Active)
	assert.Equal(t, ModuleFamily, s.Target)
	assert.Equal(t, ModuleLoadingText, s.LoadingText)

	_, err = a.Cockpit()
	assert.ErrorIs(t, err, ErrInvalidState, "nothing mounted while loading")
	_, err = a.Family()
	assert.ErrorIs(t, err, ErrInvalidState)

	changed, err = a.Navigate(ModuleFamily)
	require.NoError(t, err)
	assert.False(t, changed, "already heading there")

	settle(t, a)
	s = a.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, ModuleFamily, s.Active)
	assert.Empty(t, s.Target)
	assert.Empty(t, s.LoadingText)

	f, err := a.Family()
	require.NoError(t, err)
	assert.Equal(t, ModeSearch, f.Snapshot().Mode)
}

func TestNavigateRetargetsTransition(t *testing.T) {
	a := newApp(t, delay)

	_, err := a.Navigate(ModuleQuery)
	require.NoError(t, err)
	_, err = a.Navigate(ModuleAggregation)
	require.NoError(t, err)
	settle(t, a)

	assert.Equal(t, ModuleAggregation, a.Snapshot().Active)
	_, err = a.Aggregation()
	assert.NoError(t, err)
	_, err = a.Query()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNavigateMountsFreshView(t *testing.T) {
	a := newApp(t, 0, WithInitialModule(ModuleFamily))

	f, err := a.Family()
	require.NoError(t, err)
	enterGraph(t, f)

	_, err = a.Navigate(ModuleQuery)
	require.NoError(t, err)
	settle(t, a)
	assert.ErrorIs(t, f.Submit("x"), ErrClosed, "old view is closed")

	_, err = a.Navigate(ModuleFamily)
	require.NoError(t, err)
	settle(t, a)

	fresh, err := a.Family()
	require.NoError(t, err)
	assert.NotSame(t, f, fresh)
	s := fresh.Snapshot()
	assert.Equal(t, ModeSearch, s.Mode)
	assert.Empty(t, s.Results)
}

func TestNavigateRejectsUnknownModule(t *testing.T) {
	a := newApp(t, delay)

	_, err := a.Navigate("settings")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.False(t, a.Snapshot().Loading)
}

func TestCloseDropsTransition(t *testing.T) {
	a := newApp(t, delay)

	_, err := a.Navigate(ModuleQuery)
	require.NoError(t, err)
	a.Close()
	settle(t, a)

	s := a.Snapshot()
	assert.Equal(t, ModuleDashboard, s.Active)
	assert.False(t, s.Loading)
	_, err = a.Query()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = a.Navigate(ModuleFamily)
	assert.ErrorIs(t, err, ErrClosed)
}
