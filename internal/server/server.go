// Package server hosts the two gRPC services a running node exposes:
// the node-to-node Ring wire protocol and the client-facing
// Put/Get/Delete/Lookup surface, both backed by a single internal/node.Node.
package server

import (
	"fmt"
	"net"

	"chordring/internal/logger"
	"chordring/internal/node"
	"chordring/internal/transport/rpc"

	"google.golang.org/grpc"
)

// Server wraps a gRPC server hosting both the Ring and ClientAPI
// services against the same underlying node.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	lgr        logger.Logger
}

// New creates a gRPC server bound to lis and registers both the Ring
// and ClientAPI services against n, which satisfies both service
// interfaces directly.
func New(lis net.Listener, n *node.Node, grpcOpts []grpc.ServerOption, srvOpts ...Option) (*Server, error) {
	s := &Server{
		grpcServer: grpc.NewServer(grpcOpts...),
		listener:   lis,
		lgr:        &logger.NopLogger{},
	}
	for _, opt := range srvOpts {
		opt(s)
	}

	rpc.Register(s.grpcServer, n)
	rpc.RegisterClientAPI(s.grpcServer, n)

	return s, nil
}

// Start runs the gRPC server and blocks until it stops.
func (s *Server) Start() error {
	if err := s.grpcServer.Serve(s.listener); err != nil {
		return fmt.Errorf("gRPC server stopped: %w", err)
	}
	return nil
}

// Stop immediately stops the server and closes all active connections.
func (s *Server) Stop() {
	s.grpcServer.Stop()
}

// GracefulStop waits for in-flight RPCs to complete before shutting down.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}
