// Package storage implements the DataHolder external collaborator: the
// local key/value store a node's ChordState snapshots by reference.
package storage

import (
	"errors"

	"chordring/internal/ringid"
)

// ErrNotFound is returned when a chunk's key is not present locally.
var ErrNotFound = errors.New("chunk not found")

// Chunk is a single key/value pair held under the KVS interface. Key is
// the ring identifier the raw key hashes to; RawKey is preserved for
// logging and client responses.
type Chunk struct {
	Key    ringid.ID
	RawKey string
	Value  string
}

// DataHolder is the local chunk store a node's stabilizer migrates
// chunks into and out of. Implementations must be safe for concurrent
// use: the stabilizer calls it from its own goroutine while client
// requests may call it concurrently from RPC handlers.
type DataHolder interface {
	Put(chunk Chunk) error
	Get(key ringid.ID) (Chunk, error)
	Delete(key ringid.ID) error
	// Between returns every chunk whose key lies in the circular
	// interval (from, to].
	Between(from, to ringid.ID) ([]Chunk, error)
	// All returns a snapshot of every locally held chunk.
	All() []Chunk
}
