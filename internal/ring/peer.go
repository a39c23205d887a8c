// Package ring implements the ordered peer list that every node keeps
// around its own position on the identifier ring.
package ring

import "chordring/internal/ringid"

// PeerAddress identifies a peer: its ring identifier plus an opaque
// transport handle (typically "host:port"). Two PeerAddress values are
// equal iff their ID is equal; the handle is never consulted for
// equality, only passed on to the transport/watcher layers.
type PeerAddress struct {
	ID     ringid.ID
	Handle string
}

// Equal reports whether p and q name the same peer.
func (p PeerAddress) Equal(q PeerAddress) bool {
	return p.ID.Equal(q.ID)
}

func (p PeerAddress) String() string {
	return p.ID.ToHexString(true) + "@" + p.Handle
}
