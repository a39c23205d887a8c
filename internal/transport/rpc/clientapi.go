package rpc

import (
	"context"

	"chordring/internal/ring"
	"chordring/internal/storage"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// clientAPIServiceName mirrors what protoc-gen-go-grpc would emit for
// a "ClientAPI" service: the client-facing Put/Get/Delete/Lookup
// surface, distinct from the node-to-node Ring service above.
const clientAPIServiceName = "chordring.client.v1.ClientAPI"

// ClientAPIServer is the server-side implementation of the
// client-facing wire protocol, backed by whatever node resolved the
// request's key locally (a client is expected to Lookup first).
type ClientAPIServer interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Lookup(ctx context.Context, key string) (ring.PeerAddress, error)
	ListLocal(ctx context.Context) ([]storage.Chunk, error)
}

// RegisterClientAPI wires impl into grpcServer under the ClientAPI
// service descriptor.
func RegisterClientAPI(grpcServer *grpc.Server, impl ClientAPIServer) {
	grpcServer.RegisterService(&clientAPIServiceDesc, impl)
}

func _ClientAPI_Put_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(putRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, in interface{}) (interface{}, error) {
		r := in.(*putRequest)
		if r.Key == "" {
			return nil, status.Error(codes.InvalidArgument, "missing key")
		}
		if err := srv.(ClientAPIServer).Put(ctx, r.Key, r.Value); err != nil {
			return nil, status.Errorf(codes.Internal, "put: %v", err)
		}
		return &empty{}, nil
	}
	if interceptor == nil {
		return handle(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + clientAPIServiceName + "/Put"}
	return interceptor(ctx, req, info, handle)
}

func _ClientAPI_Get_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(getRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, in interface{}) (interface{}, error) {
		r := in.(*getRequest)
		if r.Key == "" {
			return nil, status.Error(codes.InvalidArgument, "missing key")
		}
		val, err := srv.(ClientAPIServer).Get(ctx, r.Key)
		if err != nil {
			if err == storage.ErrNotFound {
				return nil, status.Error(codes.NotFound, "key not found")
			}
			return nil, status.Errorf(codes.Internal, "get: %v", err)
		}
		return &getResponse{Value: val}, nil
	}
	if interceptor == nil {
		return handle(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + clientAPIServiceName + "/Get"}
	return interceptor(ctx, req, info, handle)
}

func _ClientAPI_Delete_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(deleteRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, in interface{}) (interface{}, error) {
		r := in.(*deleteRequest)
		if r.Key == "" {
			return nil, status.Error(codes.InvalidArgument, "missing key")
		}
		if err := srv.(ClientAPIServer).Delete(ctx, r.Key); err != nil {
			if err == storage.ErrNotFound {
				return nil, status.Error(codes.NotFound, "key not found")
			}
			return nil, status.Errorf(codes.Internal, "delete: %v", err)
		}
		return &empty{}, nil
	}
	if interceptor == nil {
		return handle(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + clientAPIServiceName + "/Delete"}
	return interceptor(ctx, req, info, handle)
}

func _ClientAPI_Lookup_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(lookupRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, in interface{}) (interface{}, error) {
		r := in.(*lookupRequest)
		if r.Key == "" {
			return nil, status.Error(codes.InvalidArgument, "missing key")
		}
		p, err := srv.(ClientAPIServer).Lookup(ctx, r.Key)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "lookup: %v", err)
		}
		return &peerResponse{Peer: toPeerMsg(&p)}, nil
	}
	if interceptor == nil {
		return handle(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + clientAPIServiceName + "/Lookup"}
	return interceptor(ctx, req, info, handle)
}

func _ClientAPI_ListLocal_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	if err := dec(&empty{}); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, _ interface{}) (interface{}, error) {
		chunks, err := srv.(ClientAPIServer).ListLocal(ctx)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "list local: %v", err)
		}
		resp := &listLocalResponse{Chunks: make([]chunkMsg, len(chunks))}
		for i, c := range chunks {
			resp.Chunks[i] = chunkMsg{RawKey: c.RawKey, Value: c.Value}
		}
		return resp, nil
	}
	if interceptor == nil {
		return handle(ctx, nil)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + clientAPIServiceName + "/ListLocal"}
	return interceptor(ctx, &empty{}, info, handle)
}

var clientAPIServiceDesc = grpc.ServiceDesc{
	ServiceName: clientAPIServiceName,
	HandlerType: (*ClientAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Put", Handler: _ClientAPI_Put_Handler},
		{MethodName: "Get", Handler: _ClientAPI_Get_Handler},
		{MethodName: "Delete", Handler: _ClientAPI_Delete_Handler},
		{MethodName: "Lookup", Handler: _ClientAPI_Lookup_Handler},
		{MethodName: "ListLocal", Handler: _ClientAPI_ListLocal_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/transport/rpc/clientapi.go",
}

// ClientAPIClient is the client-side stub for the ClientAPI service,
// mirroring the shape of a generated *Client interface.
type ClientAPIClient interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Lookup(ctx context.Context, key string) (*ring.PeerAddress, error)
	ListLocal(ctx context.Context) ([]storage.Chunk, error)
}

type clientAPIClient struct {
	cc grpc.ClientConnInterface
}

// NewClientAPIClient wraps a *grpc.ClientConn (or any
// grpc.ClientConnInterface) as a ClientAPIClient.
func NewClientAPIClient(cc grpc.ClientConnInterface) ClientAPIClient {
	return &clientAPIClient{cc: cc}
}

func (c *clientAPIClient) invoke(ctx context.Context, method string, req, resp interface{}) error {
	return c.cc.Invoke(ctx, "/"+clientAPIServiceName+"/"+method, req, resp, grpc.CallContentSubtype(codecName))
}

func (c *clientAPIClient) Put(ctx context.Context, key, value string) error {
	return c.invoke(ctx, "Put", &putRequest{Key: key, Value: value}, &empty{})
}

func (c *clientAPIClient) Get(ctx context.Context, key string) (string, error) {
	var resp getResponse
	if err := c.invoke(ctx, "Get", &getRequest{Key: key}, &resp); err != nil {
		if s, ok := status.FromError(err); ok && s.Code() == codes.NotFound {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return resp.Value, nil
}

func (c *clientAPIClient) Delete(ctx context.Context, key string) error {
	err := c.invoke(ctx, "Delete", &deleteRequest{Key: key}, &empty{})
	if s, ok := status.FromError(err); ok && s.Code() == codes.NotFound {
		return storage.ErrNotFound
	}
	return err
}

func (c *clientAPIClient) Lookup(ctx context.Context, key string) (*ring.PeerAddress, error) {
	var resp peerResponse
	if err := c.invoke(ctx, "Lookup", &lookupRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	return fromPeerMsg(resp.Peer), nil
}

func (c *clientAPIClient) ListLocal(ctx context.Context) ([]storage.Chunk, error) {
	var resp listLocalResponse
	if err := c.invoke(ctx, "ListLocal", &empty{}, &resp); err != nil {
		return nil, err
	}
	out := make([]storage.Chunk, len(resp.Chunks))
	for i, c := range resp.Chunks {
		out[i] = storage.Chunk{RawKey: c.RawKey, Value: c.Value}
	}
	return out, nil
}
