package finder

import (
	"context"
	"errors"
	"testing"

	"chordring/internal/chordstate"
	"chordring/internal/ring"
	"chordring/internal/ringid"
	"chordring/internal/storage"
	"chordring/internal/transport"
)

func peerAt(v byte, handle string) ring.PeerAddress {
	return ring.PeerAddress{ID: ringid.ID{v}, Handle: handle}
}

type outcome int

const (
	none outcome = iota
	selfOwns
	successorOwns
	forward
)

func judgeOutcome(target ringid.ID, self, successor ring.PeerAddress) outcome {
	got := none
	Judge(target, self, successor, Callbacks{
		OnSelfOwns:      func() { got = selfOwns },
		OnSuccessorOwns: func() { got = successorOwns },
		OnForward:       func() { got = forward },
	})
	return got
}

func TestJudgeAloneAlwaysSelfOwns(t *testing.T) {
	self := peerAt(0x10, "self")
	if got := judgeOutcome(ringid.ID{0x50}, self, self); got != selfOwns {
		t.Errorf("expected selfOwns when alone, got %v", got)
	}
}

func TestJudgeTargetIsSelf(t *testing.T) {
	self := peerAt(0x10, "self")
	succ := peerAt(0x20, "succ")
	if got := judgeOutcome(self.ID, self, succ); got != selfOwns {
		t.Errorf("expected selfOwns when target==self, got %v", got)
	}
}

func TestJudgeSuccessorOwnsInclusive(t *testing.T) {
	self := peerAt(0x10, "self")
	succ := peerAt(0x20, "succ")

	if got := judgeOutcome(ringid.ID{0x15}, self, succ); got != successorOwns {
		t.Errorf("expected successorOwns for target strictly inside (self,succ), got %v", got)
	}
	if got := judgeOutcome(succ.ID, self, succ); got != successorOwns {
		t.Errorf("expected successorOwns for target==succ (inclusive upper bound), got %v", got)
	}
}

func TestJudgeForwardOutsideRange(t *testing.T) {
	self := peerAt(0x10, "self")
	succ := peerAt(0x20, "succ")
	if got := judgeOutcome(ringid.ID{0x80}, self, succ); got != forward {
		t.Errorf("expected forward for target outside (self,succ], got %v", got)
	}
}

func TestJudgeInvokesExactlyOneCallback(t *testing.T) {
	self := peerAt(0x10, "self")
	succ := peerAt(0x20, "succ")
	count := 0
	Judge(ringid.ID{0x80}, self, succ, Callbacks{
		OnSelfOwns:      func() { count++ },
		OnSuccessorOwns: func() { count++ },
		OnForward:       func() { count++ },
	})
	if count != 1 {
		t.Fatalf("expected exactly one callback invoked, got %d", count)
	}
}

type fakeDialer struct {
	peer ring.PeerAddress
	tr   transport.Transmitter
	err  error
}

func (f *fakeDialer) Dial(context.Context, ring.PeerAddress) (transport.Transmitter, error) {
	return f.tr, f.err
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

func stateWith(self ring.PeerAddress, succ *ring.PeerAddress, fingers ...ring.PeerAddress) chordstate.State {
	s := chordstate.New(self, storage.NewMemoryStore(nil), nil)
	if succ != nil {
		s.SuccList = ring.NewNodeList(self, *succ)
	}
	s.FingerList = ring.NewNodeList(self, fingers...)
	return s
}

func TestResolveSelfOwnsWhenAlone(t *testing.T) {
	self := peerAt(0x10, "self")
	s := stateWith(self, nil)

	got, err := Resolve(context.Background(), ringid.ID{0x50}, s, &fakeDialer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || !got.Equal(self) {
		t.Errorf("expected self, got %v", got)
	}
}

func TestResolveSuccessorOwns(t *testing.T) {
	self := peerAt(0x10, "self")
	succ := peerAt(0x20, "succ")
	s := stateWith(self, &succ)

	got, err := Resolve(context.Background(), ringid.ID{0x15}, s, &fakeDialer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || !got.Equal(succ) {
		t.Errorf("expected successor, got %v", got)
	}
}

func TestResolveForwardsToClosestFinger(t *testing.T) {
	self := peerAt(0x10, "self")
	succ := peerAt(0x20, "succ")
	finger := peerAt(0x30, "finger")
	remoteAnswer := peerAt(0x90, "custodian")

	s := stateWith(self, &succ, finger)
	dialer := &fakeDialer{peer: finger, tr: &fakeTransmitter{findResult: &remoteAnswer}}

	got, err := Resolve(context.Background(), ringid.ID{0x80}, s, dialer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || !got.Equal(remoteAnswer) {
		t.Errorf("expected forwarded custodian, got %v", got)
	}
}

func TestResolveForwardFailurePropagatesError(t *testing.T) {
	self := peerAt(0x10, "self")
	succ := peerAt(0x20, "succ")
	finger := peerAt(0x30, "finger")

	s := stateWith(self, &succ, finger)
	dialer := &fakeDialer{err: errors.New("dial failed")}

	_, err := Resolve(context.Background(), ringid.ID{0x80}, s, dialer)
	if err == nil {
		t.Fatal("expected dial failure to propagate")
	}
}

func TestResolveFallsBackToSuccessorWhenNoBetterFinger(t *testing.T) {
	self := peerAt(0x10, "self")
	succ := peerAt(0x20, "succ")
	s := stateWith(self, &succ) // no fingers

	got, err := Resolve(context.Background(), ringid.ID{0x80}, s, &fakeDialer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || !got.Equal(succ) {
		t.Errorf("expected fallback to successor, got %v", got)
	}
}
