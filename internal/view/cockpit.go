package view

import (
	"fmt"
	"sync"

	"github.com/zheng/rkhl/internal/cockpit"
	"github.com/zheng/rkhl/internal/lookup"
)

// Cockpit holds the active tab and the region selected on the map
type Cockpit struct {
	mu     sync.Mutex
	tab    cockpit.Tab
	region string
}

// RegionView is a map polygon as drawn
type RegionView struct {
	cockpit.MapRegion
	Selected bool   `json:"selected"`
	Fill     string `json:"fill"`
}

// CockpitSnapshot is the rendered state of the cockpit
type CockpitSnapshot struct {
	Tab      cockpit.Tab       `json:"tab"`
	Tabs     []cockpit.TabInfo `json:"tabs"`
	Region   string            `json:"region"`
	CanReset bool              `json:"canReset"`
	Data     cockpit.Data      `json:"data"`
	Regions  []RegionView      `json:"regions"`
}

func NewCockpit() *Cockpit {
	return &Cockpit{tab: cockpit.TabOverview, region: cockpit.CityWide}
}

func (c *Cockpit) SelectTab(tab cockpit.Tab) error {
	if _, ok := cockpit.ParseTab(string(tab)); !ok {
		return fmt.Errorf("tab %q: %w", tab, ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tab = tab
	return nil
}

// SelectRegion accepts 全市 or any map district
func (c *Cockpit) SelectRegion(name string) error {
	if !cockpit.Valid(name) {
		return fmt.Errorf("region %q: %w", name, lookup.ErrNotFound)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = name
	return nil
}

// Hit selects the district under a map point. A miss changes nothing.
func (c *Cockpit) Hit(x, y float64) (string, bool) {
	name, ok := cockpit.RegionAt(x, y)
	if !ok {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = name
	return name, true
}

func (c *Cockpit) Snapshot() CockpitSnapshot {
	c.mu.Lock()
	tab, region := c.tab, c.region
	c.mu.Unlock()

	s := CockpitSnapshot{
		Tab:      tab,
		Tabs:     cockpit.Tabs,
		Region:   region,
		CanReset: region != cockpit.CityWide,
		Data:     cockpit.RegionData(region),
	}
	for _, r := range cockpit.Regions() {
		v := RegionView{MapRegion: r, Fill: r.Color}
		if r.Name == region {
			v.Selected = true
			v.Fill = cockpit.SelectedFill
		}
		s.Regions = append(s.Regions, v)
	}
	return s
}
