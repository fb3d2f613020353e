// Package view keeps the state of every dashboard screen in explicit holder
// objects. Delayed lookups run in the background and their results are
// applied only while the holder that asked for them is still open.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zheng/rkhl/internal/lookup"
)

// Module is a top-level dashboard screen
type Module string

const (
	ModuleDashboard   Module = "dashboard"
	ModuleAggregation Module = "aggregation"
	ModuleQuery       Module = "query"
	ModuleFamily      Module = "family"
)

// ModuleInfo is a sidebar entry
type ModuleInfo struct {
	ID    Module `json:"id"`
	Label string `json:"label"`
}

// Modules in sidebar order.
var Modules = []ModuleInfo{
	{ModuleDashboard, "数据驾驶舱"},
	{ModuleAggregation, "数据汇聚"},
	{ModuleQuery, "综合查询"},
	{ModuleFamily, "人员家族图谱"},
}

// ParseModule validates a module id
func ParseModule(s string) (Module, bool) {
	for _, m := range Modules {
		if string(m.ID) == s {
			return m.ID, true
		}
	}
	return "", false
}

// DefaultNavigateDelay is the simulated page transition.
const DefaultNavigateDelay = 800 * time.Millisecond

// ModuleLoadingText is shown during a page transition.
const ModuleLoadingText = "系统模块加载中..."

// Deps are the lookups the module views are built on
type Deps struct {
	Family  FamilySource
	Catalog lookup.SourceCatalog
	Records RecordSource
}

// Option configures an App
type Option func(*App)

// WithNavigateDelay sets the page transition delay
func WithNavigateDelay(d time.Duration) Option {
	return func(a *App) {
		a.navigateDelay = d
	}
}

// WithLogger sets the logger handed to every module view
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.log = l
	}
}

// WithInitialModule sets the module mounted at start
func WithInitialModule(m Module) Option {
	return func(a *App) {
		a.active = m
	}
}

// App is the module navigator. Exactly one module view is mounted at a
// time, and none while a transition is loading.
type App struct {
	mu            sync.Mutex
	run           *runner
	deps          Deps
	log           *slog.Logger
	navigateDelay time.Duration

	active  Module
	target  Module
	loading bool

	cockpit     *Cockpit
	aggregation *Aggregation
	query       *Query
	family      *FamilyGraph
}

// AppSnapshot is the rendered navigation state
type AppSnapshot struct {
	Active      Module       `json:"active"`
	Target      Module       `json:"target,omitempty"`
	Loading     bool         `json:"loading"`
	LoadingText string       `json:"loadingText,omitempty"`
	Modules     []ModuleInfo `json:"modules"`
}

// NewApp creates the navigator with the dashboard mounted
func NewApp(deps Deps, opts ...Option) *App {
	a := &App{
		deps:          deps,
		log:           slog.Default(),
		navigateDelay: DefaultNavigateDelay,
		active:        ModuleDashboard,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.run = newRunner(&a.mu, a.log)
	a.mount(a.active)
	return a
}

// Navigate switches to another module. Picking the active module does
// nothing and reports false. Otherwise the current view is unmounted, a
// loading transition starts and the target is mounted fresh when it
// completes. Navigating during a transition retargets it.
func (a *App) Navigate(m Module) (bool, error) {
	if _, ok := ParseModule(string(m)); !ok {
		return false, fmt.Errorf("module %q: %w", m, ErrInvalidArgument)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.run.closed {
		return false, ErrClosed
	}
	if m == a.active || (a.loading && m == a.target) {
		return false, nil
	}

	a.unmount()
	a.loading = true
	a.target = m
	delay := a.navigateDelay
	launch(a.run, "navigate",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, lookup.Wait(ctx, delay)
		},
		func(_ struct{}, err error) {
			if err != nil {
				return
			}
			a.log.Debug("模块切换完成", "from", a.active, "to", a.target)
			a.active = a.target
			a.target = ""
			a.loading = false
			a.mount(a.active)
		},
	)
	return true, nil
}

func (a *App) mount(m Module) {
	switch m {
	case ModuleDashboard:
		a.cockpit = NewCockpit()
	case ModuleAggregation:
		a.aggregation = NewAggregation(a.deps.Catalog)
	case ModuleQuery:
		a.query = NewQuery(a.deps.Records, a.log)
	case ModuleFamily:
		a.family = NewFamilyGraph(a.deps.Family, a.log)
	}
}

func (a *App) unmount() {
	if a.family != nil {
		a.family.Close()
	}
	if a.query != nil {
		a.query.Close()
	}
	if a.aggregation != nil {
		a.aggregation.Close()
	}
	a.cockpit, a.aggregation, a.query, a.family = nil, nil, nil, nil
}

func (a *App) Snapshot() AppSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := AppSnapshot{
		Active:  a.active,
		Target:  a.target,
		Loading: a.loading,
		Modules: Modules,
	}
	if a.loading {
		s.LoadingText = ModuleLoadingText
	}
	return s
}

func (a *App) notMounted(m Module) error {
	if a.run.closed {
		return ErrClosed
	}
	return fmt.Errorf("module %s not mounted: %w", m, ErrInvalidState)
}

// Cockpit returns the mounted cockpit view
func (a *App) Cockpit() (*Cockpit, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cockpit == nil {
		return nil, a.notMounted(ModuleDashboard)
	}
	return a.cockpit, nil
}

// Aggregation returns the mounted aggregation view
func (a *App) Aggregation() (*Aggregation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.aggregation == nil {
		return nil, a.notMounted(ModuleAggregation)
	}
	return a.aggregation, nil
}

// Query returns the mounted query view
func (a *App) Query() (*Query, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.query == nil {
		return nil, a.notMounted(ModuleQuery)
	}
	return a.query, nil
}

// Family returns the mounted family graph view
func (a *App) Family() (*FamilyGraph, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.family == nil {
		return nil, a.notMounted(ModuleFamily)
	}
	return a.family, nil
}

// Wait blocks until a pending transition has completed
func (a *App) Wait(ctx context.Context) error {
	return a.run.settle(ctx)
}

// Close unmounts the current view and drops a pending transition
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.run.shutdown()
	a.unmount()
	a.loading = false
	a.target = ""
}
