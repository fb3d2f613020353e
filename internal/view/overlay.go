package view

import (
	"context"
	"log/slog"
	"sync"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/lookup"
)

// Phase of an overlay or drawer
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
	PhaseClosed  Phase = "closed"
)

// Overlay is the archive / trajectory modal of one person. It starts
// loading when opened and retains nothing once closed.
type Overlay struct {
	mu      sync.Mutex
	run     *runner
	kind    dataset.OverlayKind
	nodeID  string
	phase   Phase
	content *dataset.OverlayContent
	err     string
}

// OverlaySnapshot is the rendered state of an overlay
type OverlaySnapshot struct {
	Kind        dataset.OverlayKind     `json:"kind"`
	Title       string                  `json:"title"`
	NodeID      string                  `json:"nodeId"`
	Phase       Phase                   `json:"phase"`
	LoadingText string                  `json:"loadingText,omitempty"`
	Content     *dataset.OverlayContent `json:"content,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// OpenOverlay creates an overlay and starts loading its content
func OpenOverlay(src lookup.OverlaySource, kind dataset.OverlayKind, nodeID string, log *slog.Logger) *Overlay {
	o := &Overlay{kind: kind, nodeID: nodeID, phase: PhaseLoading}
	o.run = newRunner(&o.mu, log)

	o.mu.Lock()
	defer o.mu.Unlock()
	launch(o.run, "content",
		func(ctx context.Context) (dataset.OverlayContent, error) {
			return src.Overlay(ctx, kind, nodeID)
		},
		func(c dataset.OverlayContent, err error) {
			if err != nil {
				o.phase = PhaseFailed
				o.err = err.Error()
				return
			}
			o.phase = PhaseReady
			o.content = &c
		},
	)
	return o
}

// Close discards the overlay. A pending load is cancelled and never applied.
func (o *Overlay) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.run.shutdown()
	o.phase = PhaseClosed
	o.content = nil
	o.err = ""
}

// Wait blocks until the content load finished or was dropped
func (o *Overlay) Wait(ctx context.Context) error {
	return o.run.settle(ctx)
}

func (o *Overlay) Snapshot() OverlaySnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := OverlaySnapshot{
		Kind:    o.kind,
		Title:   o.kind.Title(),
		NodeID:  o.nodeID,
		Phase:   o.phase,
		Content: o.content,
		Error:   o.err,
	}
	if o.phase == PhaseLoading {
		s.LoadingText = dataset.OverlayLoadingText
	}
	return s
}
