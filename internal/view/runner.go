package view

import (
	"context"
	"log/slog"
	"sync"
)

// runner runs the delayed lookups of one state holder. Lookups are grouped
// in named lanes; starting a lookup on a lane supersedes the previous one.
// A result is applied under the holder's lock only if its lane was not
// restarted or stopped meanwhile and the holder is not closed.
type runner struct {
	mu      *sync.Mutex // the holder's state lock
	ctx     context.Context
	cancel  context.CancelFunc
	lanes   map[string]*lane
	running int
	idle    chan struct{} // closed while running == 0
	closed  bool
	log     *slog.Logger
}

type lane struct {
	gen    uint64
	cancel context.CancelFunc
}

func newRunner(mu *sync.Mutex, log *slog.Logger) *runner {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &runner{
		mu:     mu,
		ctx:    ctx,
		cancel: cancel,
		lanes:  make(map[string]*lane),
		idle:   idle,
		log:    log,
	}
}

// launch runs fetch in the background and hands its result to apply.
// The caller holds r.mu; apply runs with r.mu held.
func launch[T any](r *runner, name string, fetch func(context.Context) (T, error), apply func(T, error)) {
	if r.closed {
		return
	}

	l := r.lanes[name]
	if l == nil {
		l = &lane{}
		r.lanes[name] = l
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen

	ctx, cancel := context.WithCancel(r.ctx)
	l.cancel = cancel
	if r.running == 0 {
		r.idle = make(chan struct{})
	}
	r.running++

	go func() {
		v, err := fetch(ctx)

		r.mu.Lock()
		defer r.mu.Unlock()
		cancel()
		r.running--
		if r.running == 0 {
			close(r.idle)
		}

		if r.closed || l.gen != gen {
			r.log.Debug("丢弃过期结果", "lane", name)
			return
		}
		l.cancel = nil
		apply(v, err)
	}()
}

// stop drops the in-flight lookup of a lane. The caller holds r.mu.
func (r *runner) stop(name string) {
	l := r.lanes[name]
	if l == nil {
		return
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}

// shutdown cancels every lane; nothing is applied afterwards.
// The caller holds r.mu.
func (r *runner) shutdown() {
	if r.closed {
		return
	}
	r.closed = true
	r.cancel()
}

// settle blocks until no lookup is in flight. The caller must not hold r.mu.
func (r *runner) settle(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.running == 0 {
			r.mu.Unlock()
			return nil
		}
		idle := r.idle
		r.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
