// Package client is the CLI-facing counterpart of transport/rpc's
// ClientAPI service: a thin dial helper plus timed, error-normalized
// wrappers around Put/Get/Delete/Lookup/ListLocal.
package client

import (
	"fmt"

	"chordring/internal/transport/rpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Connect dials addr and returns a ready-to-use ClientAPIClient
// together with the underlying connection, which the caller owns and
// must Close.
func Connect(addr string) (rpc.ClientAPIClient, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return rpc.NewClientAPIClient(conn), conn, nil
}
