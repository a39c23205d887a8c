package ring

import "testing"

func peerAt(v byte, handle string) PeerAddress {
	return PeerAddress{ID: []byte{v}, Handle: handle}
}

func TestNearestSuccessorEmptyFallsBackToSelf(t *testing.T) {
	self := peerAt(0x10, "self")
	nl := NodeList{}

	got := nl.NearestSuccessor(self)
	if !got.Equal(self) {
		t.Errorf("expected self, got %v", got)
	}
}

func TestKillNearestNeverEmpty(t *testing.T) {
	self := peerAt(0x10, "self")
	nl := NewNodeList(self, peerAt(0x20, "only"))

	out := nl.KillNearest(self)
	if out.Len() != 0 {
		t.Fatalf("expected empty peer slice after killing the only successor, got %d", out.Len())
	}
	if !out.NearestSuccessor(self).Equal(self) {
		t.Errorf("killNearest on singleton must fall back to [self]")
	}
}

func TestAppendDedupesByID(t *testing.T) {
	self := peerAt(0x10, "self")
	nl := NewNodeList(self, peerAt(0x20, "first-handle"))
	nl = nl.Append(self, peerAt(0x20, "second-handle"))

	if nl.Len() != 1 {
		t.Fatalf("expected dedup to keep a single entry, got %d", nl.Len())
	}
	if nl.Peers()[0].Handle != "first-handle" {
		t.Errorf("expected first occurrence to win, got %q", nl.Peers()[0].Handle)
	}
}

func TestAppendOrdersClockwiseFromSelf(t *testing.T) {
	self := peerAt(0xF0, "self")
	b := peerAt(0x10, "b")
	c := peerAt(0x20, "c")

	nl := NewNodeList(self, c, b) // inserted out of order
	peers := nl.Peers()
	if len(peers) != 2 || !peers[0].Equal(b) || !peers[1].Equal(c) {
		t.Errorf("expected clockwise order [b,c], got %v", peers)
	}
}

func TestAppendIgnoresSelf(t *testing.T) {
	self := peerAt(0x10, "self")
	nl := NewNodeList(self, self)
	if nl.Len() != 0 {
		t.Errorf("appending self must be a no-op, got len=%d", nl.Len())
	}
}

func TestNearestNeighbor(t *testing.T) {
	self := peerAt(0x00, "self")
	a := peerAt(0x10, "a")
	b := peerAt(0x40, "b")
	amongst := NewNodeList(self, a, b)

	got := NearestNeighbor([]byte{0x20}, amongst, self)
	if !got.Equal(a) {
		t.Errorf("expected closest-preceding peer a, got %v", got)
	}

	gotSelf := NearestNeighbor([]byte{0x05}, amongst, self)
	if !gotSelf.Equal(self) {
		t.Errorf("expected self to be closest-preceding when target is just past self, got %v", gotSelf)
	}
}
