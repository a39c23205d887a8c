// Package bootstrap discovers the peer(s) a freshly started node
// should join through, and optionally publishes the node's own
// address so later joiners can discover it in turn.
package bootstrap

import (
	"context"

	"chordring/internal/ring"
)

// Bootstrap resolves the set of peer addresses a new node may attempt
// to join through, and (for dynamic-discovery backends such as
// Route53) registers and deregisters this node's own address.
type Bootstrap interface {
	// Discover returns known peer handles (host:port). An empty,
	// error-free result means "no ring exists yet":
	// the caller should create a new ring rather than join one.
	Discover(ctx context.Context) ([]string, error)
	// Register publishes self so future Discover calls can find it.
	// A no-op for backends with no registry (e.g. StaticBootstrap).
	Register(ctx context.Context, self ring.PeerAddress) error
	// Deregister withdraws a prior Register. A no-op for backends
	// with no registry.
	Deregister(ctx context.Context, self ring.PeerAddress) error
}
