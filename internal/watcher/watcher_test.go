package watcher

import (
	"context"
	"testing"
	"time"

	"chordring/internal/ring"
)

func peerAt(v byte, handle string) ring.PeerAddress {
	return ring.PeerAddress{ID: []byte{v}, Handle: handle}
}

func TestSupervisorWatchIdempotent(t *testing.T) {
	s := NewInMemorySupervisor(nil)
	p := peerAt(0x10, "p")

	s.Watch(p)
	s.Watch(p)

	if got := len(s.Watched()); got != 1 {
		t.Fatalf("expected a single watched entry after repeat Watch, got %d", got)
	}
}

func TestSupervisorUnwatchIdempotent(t *testing.T) {
	s := NewInMemorySupervisor(nil)
	p := peerAt(0x10, "p")

	s.Unwatch(p)
	if got := len(s.Watched()); got != 0 {
		t.Fatalf("expected unwatching an unknown peer to be a no-op, got %d entries", got)
	}

	s.Watch(p)
	s.Unwatch(p)
	s.Unwatch(p)
	if got := len(s.Watched()); got != 0 {
		t.Fatalf("expected repeat Unwatch to leave zero entries, got %d", got)
	}
}

func TestTickerHandleStopPreventsFurtherSteps(t *testing.T) {
	calls := make(chan struct{}, 8)
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	var h *TickerHandle
	h = NewTickerHandle(ctx, 5*time.Millisecond, nil, func(_ context.Context, self *TickerHandle) {
		calls <- struct{}{}
		self.Stop()
	})

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first step")
	}

	if !h.Stopped() {
		t.Fatalf("expected handle to report stopped after Stop was called from within step")
	}

	// Drain any step already in flight, then assert no further calls arrive.
	select {
	case <-calls:
	case <-time.After(20 * time.Millisecond):
	}

	select {
	case <-calls:
		t.Fatal("expected no further steps after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTickerHandleStopIdempotent(t *testing.T) {
	ctx := context.Background()
	h := NewTickerHandle(ctx, time.Hour, nil, func(context.Context, *TickerHandle) {})
	h.Stop()
	h.Stop()
	if !h.Stopped() {
		t.Fatalf("expected Stopped to report true after Stop")
	}
}
