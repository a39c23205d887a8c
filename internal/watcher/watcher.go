// Package watcher implements the peer-liveness supervision registry and
// the periodic scheduler that drives a ring node's stabilization loop.
package watcher

import "chordring/internal/ring"

// Watcher registers and deregisters interest in a peer's liveness on
// behalf of the stabilizer. Both operations must be idempotent: watching
// an already-watched peer, or unwatching one that was never watched, is
// a no-op.
type Watcher interface {
	Watch(p ring.PeerAddress)
	Unwatch(p ring.PeerAddress)
}

// StabilizerHandle halts further scheduling of stabilization steps. Stop
// is idempotent; calling it more than once has no additional effect.
type StabilizerHandle interface {
	Stop()
}
