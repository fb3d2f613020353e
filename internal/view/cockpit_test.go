package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/rkhl/internal/cockpit"
	"github.com/zheng/rkhl/internal/lookup"
)

func TestCockpitDefaults(t *testing.T) {
	c := NewCockpit()

	s := c.Snapshot()
	assert.Equal(t, cockpit.TabOverview, s.Tab)
	assert.Equal(t, cockpit.CityWide, s.Region)
	assert.False(t, s.CanReset)
	assert.Len(t, s.Regions, 12)
	for _, r := range s.Regions {
		assert.False(t, r.Selected)
		assert.Equal(t, r.Color, r.Fill)
	}
}

func TestCockpitSelectRegion(t *testing.T) {
	c := NewCockpit()

	require.NoError(t, c.SelectRegion("奎文区"))
	s := c.Snapshot()
	assert.True(t, s.CanReset)
	assert.Equal(t, "奎文区", s.Data.Region)
	for _, r := range s.Regions {
		if r.Name == "奎文区" {
			assert.True(t, r.Selected)
			assert.Equal(t, cockpit.SelectedFill, r.Fill)
		}
	}

	assert.ErrorIs(t, c.SelectRegion("北京市"), lookup.ErrNotFound)
	assert.Equal(t, "奎文区", c.Snapshot().Region)

	require.NoError(t, c.SelectRegion(cockpit.CityWide))
	assert.False(t, c.Snapshot().CanReset)
}

func TestCockpitHit(t *testing.T) {
	c := NewCockpit()

	for _, r := range cockpit.Regions() {
		name, ok := c.Hit(r.Anchor.X, r.Anchor.Y)
		require.True(t, ok, r.Name)
		assert.Equal(t, r.Name, name)
		assert.Equal(t, r.Name, c.Snapshot().Region)
	}

	last := c.Snapshot().Region
	_, ok := c.Hit(5, 5)
	assert.False(t, ok)
	assert.Equal(t, last, c.Snapshot().Region)
}

func TestCockpitSelectTab(t *testing.T) {
	c := NewCockpit()

	require.NoError(t, c.SelectTab(cockpit.TabFloating))
	assert.Equal(t, cockpit.TabFloating, c.Snapshot().Tab)
	assert.ErrorIs(t, c.SelectTab("weather"), ErrInvalidArgument)
	assert.Equal(t, cockpit.TabFloating, c.Snapshot().Tab)
}
