package watcher

import (
	"context"
	"sync/atomic"
	"time"

	"chordring/internal/logger"
)

// TickerHandle schedules a stabilization step at a fixed cadence and
// implements StabilizerHandle so the step function can stop its own
// scheduling (the bankrupt transition). If the previous step has not
// returned when the next tick fires, the tick is skipped rather than
// queued, matching the single-runner discipline the stabilizer requires.
type TickerHandle struct {
	lgr      logger.Logger
	cancel   context.CancelFunc
	running  atomic.Bool
	stopped  atomic.Bool
	stopOnce chan struct{}
}

// NewTickerHandle starts a goroutine that calls step every interval
// until the returned handle is stopped or ctx is canceled. step is
// passed a handle to itself so it can stop further scheduling (e.g. on
// bankruptcy).
func NewTickerHandle(ctx context.Context, interval time.Duration, lgr logger.Logger, step func(context.Context, *TickerHandle)) *TickerHandle {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	runCtx, cancel := context.WithCancel(ctx)
	h := &TickerHandle{
		lgr:      lgr,
		cancel:   cancel,
		stopOnce: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				h.lgr.Info("stabilizer ticker stopped")
				return
			case <-ticker.C:
				if !h.running.CompareAndSwap(false, true) {
					h.lgr.Debug("stabilizer tick skipped, previous step still running")
					continue
				}
				step(runCtx, h)
				h.running.Store(false)
			}
		}
	}()

	return h
}

// Stop halts further scheduling. Idempotent.
func (h *TickerHandle) Stop() {
	if h.stopped.CompareAndSwap(false, true) {
		h.cancel()
		close(h.stopOnce)
	}
}

// Stopped reports whether Stop has been called.
func (h *TickerHandle) Stopped() bool {
	return h.stopped.Load()
}
