// SPDX-License-Identifier: BSD-3-Clause

package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Func is a unit of scheduled work. It receives the scheduler's run context,
// which is cancelled when the scheduler is closed.
type Func func(ctx context.Context)

// Handle cancels a previously scheduled delivery. Cancel is idempotent and
// safe to call from any goroutine, including from within the scheduled
// callback itself.
type Handle struct {
	canceled atomic.Bool
	stop     func()
}

// Cancel prevents the associated scheduled work from running if it has not
// already started. It has no effect if the work already ran or was already
// cancelled.
func (h *Handle) Cancel() {
	if h.canceled.CompareAndSwap(false, true) {
		if h.stop != nil {
			h.stop()
		}
	}
}

// Canceled reports whether Cancel has been called on this handle.
func (h *Handle) Canceled() bool {
	return h.canceled.Load()
}

// Scheduler is a shared scheduled executor with a bounded pool of worker
// goroutines. The hot path (tick handling, FSM event delivery) never runs
// directly on a time.Timer's goroutine; all dispatch happens on workers.
type Scheduler struct {
	cfg *Config

	workCh chan func()

	runCtx    context.Context
	runCancel context.CancelFunc

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New creates a Scheduler from the given configuration. The scheduler is not
// started; call Start to spin up its worker pool.
func New(cfg *Config) (*Scheduler, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Scheduler{
		cfg:    cfg,
		workCh: make(chan func(), cfg.QueueSize),
	}, nil
}

// Start launches the worker pool. The workers run until ctx is cancelled or
// Close is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runCancel != nil {
		return
	}

	s.runCtx, s.runCancel = context.WithCancel(ctx)

	for range s.cfg.Workers {
		s.wg.Add(1)
		go s.worker(s.runCtx)
	}
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case fn := <-s.workCh:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// ScheduleOnce submits fn for delivery after delay on a worker goroutine.
// The returned Handle cancels the delivery if called before the delay
// elapses, or before a worker has picked up the dispatched closure.
func (s *Scheduler) ScheduleOnce(delay time.Duration, fn Func) (*Handle, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	if s.isClosed() {
		return nil, ErrSchedulerClosed
	}

	h := &Handle{}

	timer := time.AfterFunc(delay, func() {
		if h.Canceled() {
			return
		}
		s.dispatch(h, fn)
	})
	h.stop = func() { timer.Stop() }

	return h, nil
}

// ScheduleFixedRate submits fn for repeated delivery, first after
// initialDelay and then every period, until cancelled.
func (s *Scheduler) ScheduleFixedRate(initialDelay, period time.Duration, fn Func) (*Handle, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	if period <= 0 {
		return nil, ErrInvalidConfig
	}
	if s.isClosed() {
		return nil, ErrSchedulerClosed
	}

	h := &Handle{}
	done := make(chan struct{})
	h.stop = func() { close(done) }

	go func() {
		timer := time.NewTimer(initialDelay)
		defer timer.Stop()

		for {
			select {
			case <-done:
				return
			case <-s.runCtxDone():
				return
			case <-timer.C:
				if h.Canceled() {
					return
				}
				s.dispatch(h, fn)
				timer.Reset(period)
			}
		}
	}()

	return h, nil
}

func (s *Scheduler) dispatch(h *Handle, fn Func) {
	wrapped := func() {
		if h.Canceled() {
			return
		}
		fn(s.runCtx)
	}
	select {
	case s.workCh <- wrapped:
	case <-s.runCtxDone():
	}
}

func (s *Scheduler) runCtxDone() <-chan struct{} {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		return nil
	}
	return ctx.Done()
}

func (s *Scheduler) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops the worker pool and waits for in-flight dispatches to drain.
// Pending one-shot timers and fixed-rate loops are cancelled; they will not
// deliver after Close returns.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.runCancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}
