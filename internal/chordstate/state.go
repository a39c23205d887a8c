// Package chordstate holds the pure snapshot of a ring node's
// stabilization-relevant state.
package chordstate

import (
	"chordring/internal/ring"
	"chordring/internal/storage"
	"chordring/internal/watcher"
)

// State is a node's stabilization snapshot: self identity, last known
// predecessor, the successor list, the (externally maintained) finger
// list, the local chunk store, and a handle to stop the scheduler. It
// is replaced wholesale by each Stabilizer step, never mutated
// in place, so that concurrent readers always see either the pre-step
// or the post-step value.
type State struct {
	Self ring.PeerAddress

	// Pred is this node's last known predecessor. Nil if unknown.
	Pred *ring.PeerAddress

	SuccList ring.NodeList

	// FingerList is maintained by an external finger-table routine; the
	// stabilizer only reads it, taking a consistent snapshot at the
	// start of each step.
	FingerList ring.NodeList

	DataHolder storage.DataHolder

	Handle watcher.StabilizerHandle
}

// New builds the initial state for a freshly bootstrapped node:
// alone on the ring, no predecessor.
func New(self ring.PeerAddress, dataHolder storage.DataHolder, handle watcher.StabilizerHandle) State {
	return State{
		Self:       self,
		Pred:       nil,
		SuccList:   ring.NewNodeList(self),
		FingerList: ring.NewNodeList(self),
		DataHolder: dataHolder,
		Handle:     handle,
	}
}

// Successor returns the nearest live successor, which is Self when the
// node is alone on the ring.
func (s State) Successor() ring.PeerAddress {
	return s.SuccList.NearestSuccessor(s.Self)
}

// Alone reports whether this node currently believes it is the only
// member of the ring.
func (s State) Alone() bool {
	return s.Successor().Equal(s.Self)
}
