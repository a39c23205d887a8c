package node

import (
	"context"
	"errors"
	"testing"
	"time"

	"chordring/internal/ring"
	"chordring/internal/ringid"
	"chordring/internal/stabilizer"
	"chordring/internal/storage"
	"chordring/internal/transport"
	"chordring/internal/watcher"
)

func testSpace() ringid.Space {
	sp, err := ringid.NewSpace(8, 4)
	if err != nil {
		panic(err)
	}
	return sp
}

func peerAt(v byte, handle string) ring.PeerAddress {
	return ring.PeerAddress{ID: ringid.ID{v}, Handle: handle}
}

func testTimeouts() stabilizer.Timeouts {
	return stabilizer.Timeouts{
		Liveness:   time.Second,
		Structural: time.Second,
		FindNode:   time.Second,
		SetChunk:   time.Second,
	}
}

type fakeTransmitter struct {
	findResult *ring.PeerAddress
	findErr    error
}

func (f *fakeTransmitter) CheckLiving(context.Context) bool { return true }
func (f *fakeTransmitter) YourPredecessor(context.Context) (*ring.PeerAddress, error) {
	return nil, nil
}
func (f *fakeTransmitter) YourSuccessor(context.Context) (*ring.PeerAddress, error) {
	return nil, nil
}
func (f *fakeTransmitter) AmIPredecessor(context.Context, ring.PeerAddress) error { return nil }
func (f *fakeTransmitter) FindNode(context.Context, ringid.ID) (*ring.PeerAddress, error) {
	return f.findResult, f.findErr
}
func (f *fakeTransmitter) SetChunk(context.Context, storage.Chunk) error { return nil }

type fakeDialer struct {
	peers map[string]*fakeTransmitter
}

func (f *fakeDialer) register(handle string, tr *fakeTransmitter) {
	if f.peers == nil {
		f.peers = make(map[string]*fakeTransmitter)
	}
	f.peers[handle] = tr
}

func (f *fakeDialer) Dial(_ context.Context, p ring.PeerAddress) (transport.Transmitter, error) {
	tr, ok := f.peers[p.Handle]
	if !ok {
		return nil, errors.New("fakeDialer: no peer registered for " + p.Handle)
	}
	return tr, nil
}

func newTestNode(self ring.PeerAddress, dial transport.Dialer) *Node {
	return New(self, testSpace(), storage.NewMemoryStore(nil), dial, watcher.NewInMemorySupervisor(nil), 4, testTimeouts(), nil)
}

func TestNodePutGetDeleteRoundTrip(t *testing.T) {
	n := newTestNode(peerAt(0x10, "self"), &fakeDialer{})
	ctx := context.Background()

	if err := n.Put(ctx, "hello", "world"); err != nil {
		t.Fatalf("put: %v", err)
	}
	val, err := n.Get(ctx, "hello")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "world" {
		t.Errorf("got %q, want %q", val, "world")
	}

	if err := n.Delete(ctx, "hello"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := n.Get(ctx, "hello"); err != storage.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestNodeLookupAloneReturnsSelf(t *testing.T) {
	self := peerAt(0x10, "self")
	n := newTestNode(self, &fakeDialer{})

	got, err := n.Lookup(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(self) {
		t.Errorf("expected lone node to own every key, got %v", got)
	}
}

func TestNodeAmIPredecessorAdoptsBetterCandidate(t *testing.T) {
	self := peerAt(0x80, "self")
	n := newTestNode(self, &fakeDialer{})

	first := peerAt(0x10, "first")
	if err := n.AmIPredecessor(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pred, _ := n.YourPredecessor(context.Background())
	if pred == nil || !pred.Equal(first) {
		t.Fatalf("expected predecessor to become %v, got %v", first, pred)
	}

	worse := peerAt(0x05, "worse")
	if err := n.AmIPredecessor(context.Background(), worse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pred, _ = n.YourPredecessor(context.Background())
	if !pred.Equal(first) {
		t.Errorf("expected predecessor to stay %v, got %v", first, pred)
	}

	better := peerAt(0x40, "better")
	if err := n.AmIPredecessor(context.Background(), better); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pred, _ = n.YourPredecessor(context.Background())
	if !pred.Equal(better) {
		t.Errorf("expected predecessor to advance to %v, got %v", better, pred)
	}
}

func TestNodeHandleLeaveClearsMatchingPredecessor(t *testing.T) {
	self := peerAt(0x80, "self")
	n := newTestNode(self, &fakeDialer{})

	pred := peerAt(0x10, "pred")
	if err := n.AmIPredecessor(context.Background(), pred); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := peerAt(0x20, "other")
	if err := n.HandleLeave(context.Background(), other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := n.YourPredecessor(context.Background())
	if got == nil || !got.Equal(pred) {
		t.Errorf("expected predecessor to survive an unrelated leave, got %v", got)
	}

	if err := n.HandleLeave(context.Background(), pred); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = n.YourPredecessor(context.Background())
	if got != nil {
		t.Errorf("expected predecessor cleared after its own leave announcement, got %v", got)
	}
}

func TestNodeJoinEmptyPeersStaysAlone(t *testing.T) {
	self := peerAt(0x10, "self")
	n := newTestNode(self, &fakeDialer{})

	if err := n.Join(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !n.Snapshot().Alone() {
		t.Errorf("expected node to remain alone with no bootstrap peers")
	}
}

func TestNodeJoinSucceedsThroughFirstReachablePeer(t *testing.T) {
	self := peerAt(0x10, "self")
	succ := peerAt(0x20, "succ")

	dial := &fakeDialer{}
	dial.register("bad:1", &fakeTransmitter{findErr: errors.New("boom")})
	dial.register("good:1", &fakeTransmitter{findResult: &succ})

	n := newTestNode(self, dial)
	if err := n.Join(context.Background(), []string{"bad:1", "good:1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := n.Snapshot().Successor()
	if !got.Equal(succ) {
		t.Errorf("expected successor %v, got %v", succ, got)
	}
}

func TestNodeJoinFailsWhenNoPeerReachable(t *testing.T) {
	self := peerAt(0x10, "self")
	n := newTestNode(self, &fakeDialer{})

	if err := n.Join(context.Background(), []string{"unknown:1"}); err == nil {
		t.Fatal("expected an error when no bootstrap peer is reachable")
	}
}

func TestNodeStepAdvancesState(t *testing.T) {
	self := peerAt(0x10, "self")
	other := peerAt(0x20, "other")

	dial := &fakeDialer{}
	dial.register(other.Handle, &fakeTransmitter{})
	n := newTestNode(self, dial)
	n.state.SuccList = ring.NewNodeList(self, other)

	n.Step(context.Background(), nil)

	// Successor B's YourPredecessor/YourSuccessor both answer nil through
	// the fake, so the decision tree's Case A (no predecessor known) fires
	// and notifies B without otherwise changing the successor.
	if got := n.Snapshot().Successor(); !got.Equal(other) {
		t.Errorf("expected successor to remain %v, got %v", other, got)
	}
}
