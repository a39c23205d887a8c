package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"chordring/internal/ring"
	"chordring/internal/ringid"
	"chordring/internal/storage"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type stubServer struct {
	alive     bool
	pred      *ring.PeerAddress
	succ      *ring.PeerAddress
	notified  []ring.PeerAddress
	findTo    *ring.PeerAddress
	findErr   error
	chunksSet []storage.Chunk
	left      []ring.PeerAddress
}

func (s *stubServer) CheckLiving(context.Context) (bool, error) { return s.alive, nil }
func (s *stubServer) YourPredecessor(context.Context) (*ring.PeerAddress, error) {
	return s.pred, nil
}
func (s *stubServer) YourSuccessor(context.Context) (*ring.PeerAddress, error) {
	return s.succ, nil
}
func (s *stubServer) AmIPredecessor(_ context.Context, self ring.PeerAddress) error {
	s.notified = append(s.notified, self)
	return nil
}
func (s *stubServer) FindNode(context.Context, ringid.ID) (*ring.PeerAddress, error) {
	return s.findTo, s.findErr
}
func (s *stubServer) SetChunk(_ context.Context, c storage.Chunk) error {
	s.chunksSet = append(s.chunksSet, c)
	return nil
}
func (s *stubServer) HandleLeave(_ context.Context, self ring.PeerAddress) error {
	s.left = append(s.left, self)
	return nil
}

func dialBufconn(t *testing.T, impl RingServer) (transmitter, func()) {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer()
	Register(grpcServer, impl)
	go func() { _ = grpcServer.Serve(lis) }()

	conn, err := grpc.DialContext(
		context.Background(),
		"bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}

	cleanup := func() {
		_ = conn.Close()
		grpcServer.Stop()
	}
	return transmitter{conn: conn}, cleanup
}

func TestTransmitterCheckLiving(t *testing.T) {
	tr, cleanup := dialBufconn(t, &stubServer{alive: true})
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !tr.CheckLiving(ctx) {
		t.Error("expected CheckLiving to report alive")
	}
}

func TestTransmitterYourPredecessorNil(t *testing.T) {
	tr, cleanup := dialBufconn(t, &stubServer{})
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p, err := tr.YourPredecessor(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil predecessor, got %v", p)
	}
}

func TestTransmitterFindNodeRoundTrip(t *testing.T) {
	want := ring.PeerAddress{ID: ringid.ID{0x42}, Handle: "peer:9000"}
	tr, cleanup := dialBufconn(t, &stubServer{findTo: &want})
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := tr.FindNode(ctx, ringid.ID{0x10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTransmitterFindNodeNotFound(t *testing.T) {
	tr, cleanup := dialBufconn(t, &stubServer{findTo: nil})
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := tr.FindNode(ctx, ringid.ID{0x10})
	if err == nil {
		t.Fatal("expected an error when no successor is found")
	}
}

func TestTransmitterSetChunkAndAmIPredecessor(t *testing.T) {
	stub := &stubServer{}
	tr, cleanup := dialBufconn(t, stub)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	chunk := storage.Chunk{Key: ringid.ID{0x01}, RawKey: "k", Value: "v"}
	if err := tr.SetChunk(ctx, chunk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.chunksSet) != 1 || stub.chunksSet[0].Value != "v" {
		t.Errorf("expected chunk to reach the server, got %v", stub.chunksSet)
	}

	self := ring.PeerAddress{ID: ringid.ID{0x02}, Handle: "peer:9001"}
	if err := tr.AmIPredecessor(ctx, self); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.notified) != 1 || !stub.notified[0].Equal(self) {
		t.Errorf("expected AmIPredecessor notification to reach the server, got %v", stub.notified)
	}
}

func TestTransmitterLeaveNotifiesServer(t *testing.T) {
	stub := &stubServer{}
	tr, cleanup := dialBufconn(t, stub)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	self := ring.PeerAddress{ID: ringid.ID{0x03}, Handle: "peer:9002"}
	if err := tr.leave(ctx, self); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.left) != 1 || !stub.left[0].Equal(self) {
		t.Errorf("expected HandleLeave notification to reach the server, got %v", stub.left)
	}
}

type stubClientAPI struct {
	data      map[string]string
	lookupTo  ring.PeerAddress
	lookupErr error
}

func (s *stubClientAPI) Put(_ context.Context, key, value string) error {
	if s.data == nil {
		s.data = make(map[string]string)
	}
	s.data[key] = value
	return nil
}

func (s *stubClientAPI) Get(_ context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *stubClientAPI) Delete(_ context.Context, key string) error {
	if _, ok := s.data[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.data, key)
	return nil
}

func (s *stubClientAPI) Lookup(context.Context, string) (ring.PeerAddress, error) {
	return s.lookupTo, s.lookupErr
}

func (s *stubClientAPI) ListLocal(context.Context) ([]storage.Chunk, error) {
	out := make([]storage.Chunk, 0, len(s.data))
	for k, v := range s.data {
		out = append(out, storage.Chunk{RawKey: k, Value: v})
	}
	return out, nil
}

func dialClientAPIBufconn(t *testing.T, impl ClientAPIServer) (ClientAPIClient, func()) {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer()
	RegisterClientAPI(grpcServer, impl)
	go func() { _ = grpcServer.Serve(lis) }()

	conn, err := grpc.DialContext(
		context.Background(),
		"bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}

	cleanup := func() {
		_ = conn.Close()
		grpcServer.Stop()
	}
	return NewClientAPIClient(conn), cleanup
}

func TestClientAPIPutGetDeleteRoundTrip(t *testing.T) {
	c, cleanup := dialClientAPIBufconn(t, &stubClientAPI{})
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Put(ctx, "hello", "world"); err != nil {
		t.Fatalf("put: %v", err)
	}
	val, err := c.Get(ctx, "hello")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "world" {
		t.Errorf("got %q, want %q", val, "world")
	}

	if err := c.Delete(ctx, "hello"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "hello"); err != storage.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestClientAPILookup(t *testing.T) {
	want := ring.PeerAddress{ID: ringid.ID{0x07}, Handle: "peer:7000"}
	c, cleanup := dialClientAPIBufconn(t, &stubClientAPI{lookupTo: want})
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := c.Lookup(ctx, "some-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
