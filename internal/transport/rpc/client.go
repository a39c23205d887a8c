package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chordring/internal/logger"
	"chordring/internal/ring"
	"chordring/internal/ringid"
	"chordring/internal/storage"
	"chordring/internal/transport"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Manager is a pooling transport.Dialer: one *grpc.ClientConn per
// handle, reused across calls and evicted after idleTTL of disuse.
type Manager struct {
	lgr         logger.Logger
	dialTimeout time.Duration
	idleTTL     time.Duration
	dialOpts    []grpc.DialOption

	mu     sync.Mutex
	conns  map[string]*connEntry
	stopCh chan struct{}
}

type connEntry struct {
	conn     *grpc.ClientConn
	lastUsed time.Time
}

// NewManager builds a Manager. A nil logger falls back to a no-op
// logger. If idleTTL is 0, idle connections are never evicted.
func NewManager(lgr logger.Logger, dialTimeout, idleTTL time.Duration, opts ...grpc.DialOption) *Manager {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	if len(opts) == 0 {
		opts = []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
		}
	}
	m := &Manager{
		lgr:         lgr,
		dialTimeout: dialTimeout,
		idleTTL:     idleTTL,
		dialOpts:    opts,
		conns:       make(map[string]*connEntry),
		stopCh:      make(chan struct{}),
	}
	if idleTTL > 0 {
		go m.evictLoop()
	}
	return m
}

// Close closes every pooled connection and stops the eviction loop.
func (m *Manager) Close() {
	close(m.stopCh)
	m.mu.Lock()
	defer m.mu.Unlock()
	for addr, ce := range m.conns {
		_ = ce.conn.Close()
		delete(m.conns, addr)
	}
}

// Dial implements transport.Dialer.
func (m *Manager) Dial(ctx context.Context, p ring.PeerAddress) (transport.Transmitter, error) {
	conn, err := m.getConn(ctx, p.Handle)
	if err != nil {
		return nil, err
	}
	return &transmitter{conn: conn}, nil
}

func (m *Manager) getConn(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	m.mu.Lock()
	if ce, ok := m.conns[addr]; ok {
		ce.lastUsed = time.Now()
		conn := ce.conn
		m.mu.Unlock()
		return conn, nil
	}
	m.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, m.dialTimeout)
	defer cancel()
	conn, err := grpc.DialContext(dialCtx, addr, m.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", addr, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ce, ok := m.conns[addr]; ok {
		// lost the race: keep the existing connection, close the new one.
		_ = conn.Close()
		ce.lastUsed = time.Now()
		return ce.conn, nil
	}
	m.conns[addr] = &connEntry{conn: conn, lastUsed: time.Now()}
	m.lgr.Debug("rpc: dialed new connection", logger.F("addr", addr))
	return conn, nil
}

func (m *Manager) evictLoop() {
	t := time.NewTicker(m.idleTTL)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	now := time.Now()
	var toClose []*grpc.ClientConn

	m.mu.Lock()
	for addr, ce := range m.conns {
		if now.Sub(ce.lastUsed) >= m.idleTTL {
			toClose = append(toClose, ce.conn)
			delete(m.conns, addr)
		}
	}
	m.mu.Unlock()

	for _, c := range toClose {
		_ = c.Close()
	}
}

// transmitter implements transport.Transmitter over a single pooled
// gRPC connection.
type transmitter struct {
	conn *grpc.ClientConn
}

func (t *transmitter) invoke(ctx context.Context, method string, req, resp interface{}) error {
	return t.conn.Invoke(ctx, "/"+serviceName+"/"+method, req, resp, grpc.CallContentSubtype(codecName))
}

func (t *transmitter) CheckLiving(ctx context.Context) bool {
	var resp checkLivingResponse
	if err := t.invoke(ctx, "CheckLiving", &empty{}, &resp); err != nil {
		return false
	}
	return resp.Alive
}

func (t *transmitter) YourPredecessor(ctx context.Context) (*ring.PeerAddress, error) {
	var resp peerResponse
	if err := t.invoke(ctx, "YourPredecessor", &empty{}, &resp); err != nil {
		return nil, err
	}
	return fromPeerMsg(resp.Peer), nil
}

func (t *transmitter) YourSuccessor(ctx context.Context) (*ring.PeerAddress, error) {
	var resp peerResponse
	if err := t.invoke(ctx, "YourSuccessor", &empty{}, &resp); err != nil {
		return nil, err
	}
	return fromPeerMsg(resp.Peer), nil
}

func (t *transmitter) AmIPredecessor(ctx context.Context, self ring.PeerAddress) error {
	req := &amIPredecessorRequest{Self: peerMsg{ID: []byte(self.ID), Handle: self.Handle}}
	return t.invoke(ctx, "AmIPredecessor", req, &empty{})
}

func (t *transmitter) FindNode(ctx context.Context, target ringid.ID) (*ring.PeerAddress, error) {
	req := &findNodeRequest{Target: []byte(target)}
	var resp peerResponse
	if err := t.invoke(ctx, "FindNode", req, &resp); err != nil {
		return nil, err
	}
	return fromPeerMsg(resp.Peer), nil
}

func (t *transmitter) SetChunk(ctx context.Context, c storage.Chunk) error {
	req := &setChunkRequest{Key: []byte(c.Key), Raw: c.RawKey, Value: c.Value}
	return t.invoke(ctx, "SetChunk", req, &empty{})
}

// leave announces self's departure. It is not part of
// transport.Transmitter (spec.md §4.4 fixes that contract); callers
// reach it through NotifyLeave.
func (t *transmitter) leave(ctx context.Context, self ring.PeerAddress) error {
	req := &leaveRequest{Self: peerMsg{ID: []byte(self.ID), Handle: self.Handle}}
	return t.invoke(ctx, "Leave", req, &empty{})
}

// NotifyLeave announces self's graceful departure to peer, best-effort:
// a dial or RPC failure is logged by the caller, never surfaced as a
// reason to abort shutdown. peer's RingServer.HandleLeave drops its
// predecessor pointer if it pointed at self.
func NotifyLeave(ctx context.Context, dial transport.Dialer, peer, self ring.PeerAddress) error {
	tr, err := dial.Dial(ctx, peer)
	if err != nil {
		return fmt.Errorf("rpc: dial %s for leave: %w", peer.Handle, err)
	}
	t, ok := tr.(*transmitter)
	if !ok {
		return fmt.Errorf("rpc: transmitter for %s does not support Leave", peer.Handle)
	}
	return t.leave(ctx, self)
}
