package client

import (
	"context"
	"errors"
	"time"

	"chordring/internal/ring"
	"chordring/internal/storage"
	"chordring/internal/transport/rpc"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnavailable      = errors.New("node unavailable")
	ErrDeadlineExceeded = errors.New("request timeout exceeded")
	ErrInternal         = errors.New("internal gRPC error")
)

// normalizeError converts a gRPC status error (or the sentinel
// storage.ErrNotFound a ClientAPIClient may return directly) into one
// of this package's own sentinel errors.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}

	s, ok := status.FromError(err)
	if !ok {
		return ErrInternal
	}
	switch s.Code() {
	case codes.NotFound:
		return ErrNotFound
	case codes.Unavailable:
		return ErrUnavailable
	case codes.DeadlineExceeded:
		return ErrDeadlineExceeded
	default:
		return ErrInternal
	}
}

// Put inserts or updates a key-value pair on the node.
func Put(ctx context.Context, c rpc.ClientAPIClient, key, value string) (time.Duration, error) {
	start := time.Now()
	err := c.Put(ctx, key, value)
	return time.Since(start), normalizeError(err)
}

// Get retrieves the value for a given key.
func Get(ctx context.Context, c rpc.ClientAPIClient, key string) (string, time.Duration, error) {
	start := time.Now()
	val, err := c.Get(ctx, key)
	return val, time.Since(start), normalizeError(err)
}

// Delete removes a key from the node.
func Delete(ctx context.Context, c rpc.ClientAPIClient, key string) (time.Duration, error) {
	start := time.Now()
	err := c.Delete(ctx, key)
	return time.Since(start), normalizeError(err)
}

// Lookup resolves key's custodian peer.
func Lookup(ctx context.Context, c rpc.ClientAPIClient, key string) (*ring.PeerAddress, time.Duration, error) {
	start := time.Now()
	p, err := c.Lookup(ctx, key)
	if err != nil {
		return nil, time.Since(start), normalizeError(err)
	}
	return p, time.Since(start), nil
}

// ListLocal dumps every chunk the contacted node currently holds.
func ListLocal(ctx context.Context, c rpc.ClientAPIClient) ([]storage.Chunk, time.Duration, error) {
	start := time.Now()
	chunks, err := c.ListLocal(ctx)
	return chunks, time.Since(start), normalizeError(err)
}
