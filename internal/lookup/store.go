package lookup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zheng/rkhl/internal/config"
	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/graph"
	"github.com/zheng/rkhl/internal/storage"
)

// Delays is the simulated latency of each delayed lookup
type Delays struct {
	Search  time.Duration
	Overlay time.Duration
	Query   time.Duration
	Detail  time.Duration
}

// DelaysFrom applies the configured scale to every lookup delay
func DelaysFrom(c config.DelayConfig) Delays {
	return Delays{
		Search:  c.Scaled(c.Search),
		Overlay: c.Scaled(c.Overlay),
		Query:   c.Scaled(c.Query),
		Detail:  c.Scaled(c.Detail),
	}
}

// Store implements every lookup interface on top of the sqlite store
type Store struct {
	db     *storage.DB
	delays Delays
}

// NewStore creates a lookup store
func NewStore(db *storage.DB, delays Delays) *Store {
	return &Store{db: db, delays: delays}
}

// SearchPersons ignores the query and returns the whole candidate table.
func (s *Store) SearchPersons(ctx context.Context, query string) ([]graph.SearchResult, error) {
	return Simulate(ctx, s.delays.Search, func() ([]graph.SearchResult, error) {
		results, err := s.db.GetCandidates()
		return results, wrap(err, "search persons")
	})
}

func (s *Store) Graph(ctx context.Context) (*graph.Graph, error) {
	if err := Wait(ctx, 0); err != nil {
		return nil, err
	}
	g, err := s.db.GetGraph()
	return g, wrap(err, "load graph")
}

func (s *Store) Person(ctx context.Context, id string) (graph.PersonNode, error) {
	if err := Wait(ctx, 0); err != nil {
		return graph.PersonNode{}, err
	}
	p, err := s.db.GetPersonByID(id)
	if err != nil {
		return graph.PersonNode{}, wrap(err, "person "+id)
	}
	return *p, nil
}

func (s *Store) Overlay(ctx context.Context, kind dataset.OverlayKind, id string) (dataset.OverlayContent, error) {
	return Simulate(ctx, s.delays.Overlay, func() (dataset.OverlayContent, error) {
		p, err := s.db.GetPersonByID(id)
		if err != nil {
			return dataset.OverlayContent{}, wrap(err, "person "+id)
		}
		return dataset.ContentFor(kind, *p), nil
	})
}

func (s *Store) SearchRecords(ctx context.Context, sub dataset.SubModule) ([]dataset.Record, error) {
	return Simulate(ctx, s.delays.Query, func() ([]dataset.Record, error) {
		records, err := s.db.GetRecords(dataset.TableFor(sub))
		return records, wrap(err, "search "+string(sub))
	})
}

func (s *Store) RecordDetail(ctx context.Context, r dataset.Record) (dataset.RecordDetail, error) {
	return Simulate(ctx, s.delays.Detail, func() (dataset.RecordDetail, error) {
		return dataset.DetailFor(r), nil
	})
}

func (s *Store) Sources(ctx context.Context) ([]dataset.Source, error) {
	if err := Wait(ctx, 0); err != nil {
		return nil, err
	}
	list, err := s.db.GetSources()
	return list, wrap(err, "list sources")
}

func (s *Store) Source(ctx context.Context, id int64) (dataset.Source, error) {
	if err := Wait(ctx, 0); err != nil {
		return dataset.Source{}, err
	}
	src, err := s.db.GetSourceByID(id)
	if err != nil {
		return dataset.Source{}, wrap(err, fmt.Sprintf("source %d", id))
	}
	return *src, nil
}

func (s *Store) Structure(ctx context.Context, id int64) ([]dataset.DataField, error) {
	if _, err := s.Source(ctx, id); err != nil {
		return nil, err
	}
	fields, err := s.db.GetSourceFields(id)
	return fields, wrap(err, fmt.Sprintf("source %d structure", id))
}

func (s *Store) Logs(ctx context.Context, id int64) ([]dataset.LogEntry, error) {
	if _, err := s.Source(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.db.GetSourceLogs(id)
	return logs, wrap(err, fmt.Sprintf("source %d logs", id))
}

func (s *Store) SyncConfig(ctx context.Context, id int64) (dataset.SyncConfig, error) {
	src, err := s.Source(ctx, id)
	if err != nil {
		return dataset.SyncConfig{}, err
	}
	return dataset.ConfigFor(src), nil
}

// Tree returns the administrative division tree
func (s *Store) Tree(ctx context.Context) ([]dataset.TreeNode, error) {
	if err := Wait(ctx, 0); err != nil {
		return nil, err
	}
	tree, err := s.db.GetTree()
	return tree, wrap(err, "load tree")
}

// wrap maps storage errors onto the lookup taxonomy.
func wrap(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", what, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", what, ErrUnavailable, err)
}
