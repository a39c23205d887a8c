package ring

import (
	"sort"

	"chordring/internal/ringid"
)

// NodeList is an ordered, bounded, duplicate-free sequence of peers,
// ordered by clockwise distance from an owning node. It never models
// its own owner as an element; methods that need the owner's identity
// take it as an explicit PeerAddress argument, and fall back to it
// when the list has nothing better to offer.
type NodeList struct {
	peers []PeerAddress
}

// NewNodeList builds a NodeList ordered clockwise from self, dropping
// duplicate identifiers (first occurrence wins) and any entry equal to
// self itself.
func NewNodeList(self PeerAddress, peers ...PeerAddress) NodeList {
	nl := NodeList{}
	for _, p := range peers {
		nl = nl.Append(self, p)
	}
	return nl
}

// Len reports the number of peers in the list (excluding self).
func (nl NodeList) Len() int { return len(nl.peers) }

// Peers returns the ordered peers as a fresh slice; callers may not
// mutate the returned slice's backing array via the NodeList.
func (nl NodeList) Peers() []PeerAddress {
	out := make([]PeerAddress, len(nl.peers))
	copy(out, nl.peers)
	return out
}

// NearestSuccessor returns the first entry whose ID differs from self;
// if the list is empty or contains only self, it returns self. Never
// panics.
func (nl NodeList) NearestSuccessor(self PeerAddress) PeerAddress {
	for _, p := range nl.peers {
		if !p.ID.Equal(self.ID) {
			return p
		}
	}
	return self
}

// KillNearest returns a new list with the nearest successor (relative
// to self) removed. If no peer remains, the result is the empty list,
// which stands for [self]: NearestSuccessor on it returns self, so the
// node never loses its own reflexive successor.
func (nl NodeList) KillNearest(self PeerAddress) NodeList {
	nearest := nl.NearestSuccessor(self)
	if nearest.ID.Equal(self.ID) {
		// Already alone; nothing to kill.
		return NewNodeList(self)
	}
	out := make([]PeerAddress, 0, len(nl.peers))
	removed := false
	for _, p := range nl.peers {
		if !removed && p.ID.Equal(nearest.ID) {
			removed = true
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return NewNodeList(self)
	}
	return NodeList{peers: out}
}

// Append inserts p into the list, preserving clockwise ordering from
// self and deduplicating by ID. Inserting self itself, or a peer
// already present, is a no-op (the existing entry is kept).
func (nl NodeList) Append(self PeerAddress, p PeerAddress) NodeList {
	if p.ID.Equal(self.ID) {
		return nl
	}
	for _, existing := range nl.peers {
		if existing.ID.Equal(p.ID) {
			return nl
		}
	}
	out := make([]PeerAddress, len(nl.peers), len(nl.peers)+1)
	copy(out, nl.peers)
	out = append(out, p)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID.Between(self.ID, out[j].ID)
	})
	return NodeList{peers: out}
}

// Truncate returns a new list containing at most n peers, the n
// clockwise-nearest to self.
func (nl NodeList) Truncate(n int) NodeList {
	if n >= len(nl.peers) {
		return nl
	}
	if n <= 0 {
		return NodeList{}
	}
	out := make([]PeerAddress, n)
	copy(out, nl.peers[:n])
	return NodeList{peers: out}
}

// ClosestPrecedingNode returns the entry in the list that most closely
// precedes target on the ring without passing it, falling back to self
// when no entry qualifies. This is the forwarding decision a finger
// table (or, degenerately, a successor list) uses to route a lookup.
func (nl NodeList) ClosestPrecedingNode(target ringid.ID, self PeerAddress) PeerAddress {
	best := self
	for _, p := range nl.peers {
		if p.ID.BetweenExclusive(self.ID, target) {
			if best.ID.Equal(self.ID) || p.ID.BetweenExclusive(best.ID, target) {
				best = p
			}
		}
	}
	return best
}

// NearestNeighbor returns whichever of amongst ∪ {self} lies closest-
// preceding to target on the ring: the element p (or self) maximizing
// "closeness" such that no other candidate lies strictly between p and
// target. This is spec's nearestNeighbor(target, amongst, self).
func NearestNeighbor(target ringid.ID, amongst NodeList, self PeerAddress) PeerAddress {
	return amongst.ClosestPrecedingNode(target, self)
}
