// Package transport declares the external RPC boundary the stabilizer
// and node finder talk through; internal/transport/rpc provides a gRPC
// wire implementation.
package transport

import (
	"context"

	"chordring/internal/ring"
	"chordring/internal/ringid"
	"chordring/internal/storage"
)

// Transmitter is the per-peer RPC boundary, obtained on demand from a
// PeerAddress via a Dialer. Every method is a blocking call; timeouts
// are the caller's responsibility (each carries its own deadline per
// internal/config's TimeoutConfig).
type Transmitter interface {
	// CheckLiving is a short-timeout liveness probe. A timeout or
	// transport failure is observationally a "false", never an error.
	CheckLiving(ctx context.Context) bool

	// YourPredecessor returns the peer's current predecessor, or nil if
	// it has none.
	YourPredecessor(ctx context.Context) (*ring.PeerAddress, error)

	// YourSuccessor returns the peer's nearest successor, or nil if it
	// has none (never true for a live, correctly initialized peer).
	YourSuccessor(ctx context.Context) (*ring.PeerAddress, error)

	// AmIPredecessor is a fire-and-forget notification that self may be
	// this peer's predecessor.
	AmIPredecessor(ctx context.Context, self ring.PeerAddress) error

	// FindNode routes a lookup for target through the peer's ring,
	// returning the authoritative custodian.
	FindNode(ctx context.Context, target ringid.ID) (*ring.PeerAddress, error)

	// SetChunk stores c on the peer. Idempotent: re-setting an
	// identical chunk is a no-op on the receiver.
	SetChunk(ctx context.Context, c storage.Chunk) error
}

// Dialer resolves a PeerAddress to a Transmitter. Implementations may
// pool and reuse underlying connections.
type Dialer interface {
	Dial(ctx context.Context, p ring.PeerAddress) (Transmitter, error)
}
