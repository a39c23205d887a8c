package rpc

import (
	"context"

	"chordring/internal/ring"
	"chordring/internal/ringid"
	"chordring/internal/storage"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// serviceName is the fully-qualified gRPC service name, mirroring the
// shape protoc-gen-go-grpc would emit for a "Ring" service.
const serviceName = "chordring.ring.v1.Ring"

// RingServer is the server-side implementation of the wire protocol, a
// thin adapter over a node's stabilizer/finder state.
type RingServer interface {
	CheckLiving(ctx context.Context) (bool, error)
	YourPredecessor(ctx context.Context) (*ring.PeerAddress, error)
	YourSuccessor(ctx context.Context) (*ring.PeerAddress, error)
	AmIPredecessor(ctx context.Context, self ring.PeerAddress) error
	FindNode(ctx context.Context, target ringid.ID) (*ring.PeerAddress, error)
	SetChunk(ctx context.Context, c storage.Chunk) error
	// HandleLeave is the graceful-leave announcement: self is departing
	// the ring. Implementations clear their predecessor pointer if self
	// was it.
	HandleLeave(ctx context.Context, self ring.PeerAddress) error
}

// Register wires impl into grpcServer under the Ring service descriptor.
func Register(grpcServer *grpc.Server, impl RingServer) {
	grpcServer.RegisterService(&serviceDesc, impl)
}

func toPeerMsg(p *ring.PeerAddress) *peerMsg {
	if p == nil {
		return nil
	}
	return &peerMsg{ID: []byte(p.ID), Handle: p.Handle}
}

func fromPeerMsg(m *peerMsg) *ring.PeerAddress {
	if m == nil {
		return nil
	}
	return &ring.PeerAddress{ID: ringid.ID(m.ID), Handle: m.Handle}
}

func _Ring_CheckLiving_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	if err := dec(&empty{}); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return checkLivingHandler(srv, ctx)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/CheckLiving"}
	return interceptor(ctx, &empty{}, info, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return checkLivingHandler(srv, ctx)
	})
}

func checkLivingHandler(srv interface{}, ctx context.Context) (interface{}, error) {
	alive, err := srv.(RingServer).CheckLiving(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "check living: %v", err)
	}
	return &checkLivingResponse{Alive: alive}, nil
}

func _Ring_YourPredecessor_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	if err := dec(&empty{}); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, _ interface{}) (interface{}, error) {
		p, err := srv.(RingServer).YourPredecessor(ctx)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "your predecessor: %v", err)
		}
		return &peerResponse{Peer: toPeerMsg(p)}, nil
	}
	if interceptor == nil {
		return handle(ctx, nil)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/YourPredecessor"}
	return interceptor(ctx, &empty{}, info, handle)
}

func _Ring_YourSuccessor_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	if err := dec(&empty{}); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, _ interface{}) (interface{}, error) {
		p, err := srv.(RingServer).YourSuccessor(ctx)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "your successor: %v", err)
		}
		return &peerResponse{Peer: toPeerMsg(p)}, nil
	}
	if interceptor == nil {
		return handle(ctx, nil)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/YourSuccessor"}
	return interceptor(ctx, &empty{}, info, handle)
}

func _Ring_AmIPredecessor_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(amIPredecessorRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, in interface{}) (interface{}, error) {
		r := in.(*amIPredecessorRequest)
		if len(r.Self.ID) == 0 {
			return nil, status.Error(codes.InvalidArgument, "missing self id")
		}
		self := ring.PeerAddress{ID: ringid.ID(r.Self.ID), Handle: r.Self.Handle}
		if err := srv.(RingServer).AmIPredecessor(ctx, self); err != nil {
			return nil, status.Errorf(codes.Internal, "am i predecessor: %v", err)
		}
		return &empty{}, nil
	}
	if interceptor == nil {
		return handle(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AmIPredecessor"}
	return interceptor(ctx, req, info, handle)
}

func _Ring_FindNode_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(findNodeRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, in interface{}) (interface{}, error) {
		r := in.(*findNodeRequest)
		if len(r.Target) == 0 {
			return nil, status.Error(codes.InvalidArgument, "missing target")
		}
		p, err := srv.(RingServer).FindNode(ctx, ringid.ID(r.Target))
		if err != nil {
			return nil, status.Errorf(codes.Internal, "find node: %v", err)
		}
		if p == nil {
			return nil, status.Error(codes.NotFound, "no successor found")
		}
		return &peerResponse{Peer: toPeerMsg(p)}, nil
	}
	if interceptor == nil {
		return handle(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/FindNode"}
	return interceptor(ctx, req, info, handle)
}

func _Ring_SetChunk_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(setChunkRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, in interface{}) (interface{}, error) {
		r := in.(*setChunkRequest)
		if len(r.Key) == 0 {
			return nil, status.Error(codes.InvalidArgument, "missing key")
		}
		c := storage.Chunk{Key: ringid.ID(r.Key), RawKey: r.Raw, Value: r.Value}
		if err := srv.(RingServer).SetChunk(ctx, c); err != nil {
			return nil, status.Errorf(codes.Internal, "set chunk: %v", err)
		}
		return &empty{}, nil
	}
	if interceptor == nil {
		return handle(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/SetChunk"}
	return interceptor(ctx, req, info, handle)
}

func _Ring_Leave_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(leaveRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, in interface{}) (interface{}, error) {
		r := in.(*leaveRequest)
		if len(r.Self.ID) == 0 {
			return nil, status.Error(codes.InvalidArgument, "missing self id")
		}
		self := ring.PeerAddress{ID: ringid.ID(r.Self.ID), Handle: r.Self.Handle}
		if err := srv.(RingServer).HandleLeave(ctx, self); err != nil {
			return nil, status.Errorf(codes.Internal, "handle leave: %v", err)
		}
		return &empty{}, nil
	}
	if interceptor == nil {
		return handle(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Leave"}
	return interceptor(ctx, req, info, handle)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckLiving", Handler: _Ring_CheckLiving_Handler},
		{MethodName: "YourPredecessor", Handler: _Ring_YourPredecessor_Handler},
		{MethodName: "YourSuccessor", Handler: _Ring_YourSuccessor_Handler},
		{MethodName: "AmIPredecessor", Handler: _Ring_AmIPredecessor_Handler},
		{MethodName: "FindNode", Handler: _Ring_FindNode_Handler},
		{MethodName: "SetChunk", Handler: _Ring_SetChunk_Handler},
		{MethodName: "Leave", Handler: _Ring_Leave_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/transport/rpc/service.go",
}
