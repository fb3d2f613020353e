package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/lookup"
)

// ModalKind is a modal of the aggregation monitor
type ModalKind string

const (
	ModalStructure ModalKind = "structure"
	ModalLogs      ModalKind = "logs"
	ModalConfig    ModalKind = "config"
	ModalAccess    ModalKind = "access"
	ModalImport    ModalKind = "import"
)

// ParseModalKind validates a modal kind
func ParseModalKind(s string) (ModalKind, bool) {
	switch k := ModalKind(s); k {
	case ModalStructure, ModalLogs, ModalConfig, ModalAccess, ModalImport:
		return k, true
	}
	return "", false
}

func (k ModalKind) Title() string {
	switch k {
	case ModalStructure:
		return "数据结构查看"
	case ModalLogs:
		return "系统运行日志"
	case ModalConfig:
		return "数据源配置"
	case ModalAccess:
		return "接入新数据源"
	case ModalImport:
		return "人工数据导入"
	}
	return ""
}

// PerSource reports whether the modal belongs to one source row.
func (k ModalKind) PerSource() bool {
	return k != ModalAccess
}

// Aggregation holds the open modal of the aggregation monitor
type Aggregation struct {
	mu     sync.Mutex
	src    lookup.SourceCatalog
	modal  ModalKind
	source *dataset.Source
}

// AccessForm is the body of the new source modal
type AccessForm struct {
	Types []string `json:"types"`
}

// ImportForm is the body of the manual import modal
type ImportForm struct {
	Target   string   `json:"target"`
	Formats  []string `json:"formats"`
	MaxBytes int64    `json:"maxBytes"`
}

// ModalSnapshot is the rendered open modal
type ModalSnapshot struct {
	Kind      ModalKind           `json:"kind"`
	Title     string              `json:"title"`
	Source    *dataset.Source     `json:"source,omitempty"`
	Table     string              `json:"table,omitempty"`
	Structure []dataset.DataField `json:"structure,omitempty"`
	Logs      []dataset.LogEntry  `json:"logs,omitempty"`
	Config    *dataset.SyncConfig `json:"config,omitempty"`
	Access    *AccessForm         `json:"access,omitempty"`
	Import    *ImportForm         `json:"import,omitempty"`
}

// AggregationSnapshot is the rendered aggregation monitor
type AggregationSnapshot struct {
	Summary dataset.Summary  `json:"summary"`
	Sources []dataset.Source `json:"sources"`
	Modal   *ModalSnapshot   `json:"modal,omitempty"`
}

func NewAggregation(src lookup.SourceCatalog) *Aggregation {
	return &Aggregation{src: src}
}

// Open shows a modal. Every kind but access needs an existing source.
func (a *Aggregation) Open(ctx context.Context, kind ModalKind, sourceID int64) error {
	if _, ok := ParseModalKind(string(kind)); !ok {
		return fmt.Errorf("modal %q: %w", kind, ErrInvalidArgument)
	}

	var source *dataset.Source
	if kind.PerSource() {
		s, err := a.src.Source(ctx, sourceID)
		if err != nil {
			return err
		}
		source = &s
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.modal = kind
	a.source = source
	return nil
}

func (a *Aggregation) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.modal = ""
	a.source = nil
}

func (a *Aggregation) Snapshot(ctx context.Context) (AggregationSnapshot, error) {
	sources, err := a.src.Sources(ctx)
	if err != nil {
		return AggregationSnapshot{}, err
	}
	s := AggregationSnapshot{Summary: dataset.Summarize(sources), Sources: sources}

	a.mu.Lock()
	kind, source := a.modal, a.source
	a.mu.Unlock()
	if kind == "" {
		return s, nil
	}

	// A reload may have removed the source behind the open modal.
	if kind.PerSource() && !hasSource(sources, source.ID) {
		a.dropModal(kind, source)
		return s, nil
	}

	m := &ModalSnapshot{Kind: kind, Title: kind.Title(), Source: source}
	switch kind {
	case ModalStructure:
		m.Table = dataset.StructureTable
		m.Structure, err = a.src.Structure(ctx, source.ID)
	case ModalLogs:
		m.Logs, err = a.src.Logs(ctx, source.ID)
	case ModalConfig:
		var cfg dataset.SyncConfig
		cfg, err = a.src.SyncConfig(ctx, source.ID)
		m.Config = &cfg
	case ModalAccess:
		m.Access = &AccessForm{Types: dataset.AccessTypes}
	case ModalImport:
		m.Import = &ImportForm{Target: source.Name, Formats: dataset.ImportFormats, MaxBytes: dataset.ImportMaxBytes}
	}
	if errors.Is(err, lookup.ErrNotFound) {
		a.dropModal(kind, source)
		return s, nil
	}
	if err != nil {
		return s, err
	}
	s.Modal = m
	return s, nil
}

// dropModal closes the modal unless another one was opened meanwhile
func (a *Aggregation) dropModal(kind ModalKind, source *dataset.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.modal == kind && a.source == source {
		a.modal = ""
		a.source = nil
	}
}

func hasSource(list []dataset.Source, id int64) bool {
	for _, s := range list {
		if s.ID == id {
			return true
		}
	}
	return false
}
