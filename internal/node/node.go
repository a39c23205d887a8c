// Package node wires a ChordState cell to a Stabilizer, a Dialer, and
// the RPC-facing interfaces (both the node-to-node Ring contract and
// the client-facing Put/Get/Delete/Lookup surface), and drives the
// periodic stabilization loop via a watcher.TickerHandle.
package node

import (
	"context"
	"fmt"
	"sync"

	"chordring/internal/chordstate"
	"chordring/internal/finder"
	"chordring/internal/logger"
	"chordring/internal/ring"
	"chordring/internal/ringid"
	"chordring/internal/stabilizer"
	"chordring/internal/storage"
	"chordring/internal/transport"
	"chordring/internal/watcher"
)

// Node is a single ring member: its current ChordState snapshot, the
// Stabilizer that advances it one tick at a time, and the collaborators
// every RPC handler and the stabilization loop share.
type Node struct {
	mu    sync.RWMutex
	state chordstate.State

	stab  *stabilizer.Stabilizer
	dial  transport.Dialer
	watch watcher.Watcher
	lgr   logger.Logger
	space ringid.Space
}

// New builds a Node alone on its own ring: SuccList=[self], no
// predecessor. Call Join afterward to enter an existing ring instead.
func New(self ring.PeerAddress, space ringid.Space, store storage.DataHolder, dial transport.Dialer, watch watcher.Watcher, succListSize int, timeouts stabilizer.Timeouts, lgr logger.Logger) *Node {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	return &Node{
		state: chordstate.New(self, store, nil),
		stab:  stabilizer.New(dial, watch, lgr.Named("stabilizer"), succListSize, timeouts),
		dial:  dial,
		watch: watch,
		lgr:   lgr,
		space: space,
	}
}

// SetHandle attaches the scheduler handle the stabilizer uses to stop
// its own ticking on bankruptcy. Must be called once, before the
// ticker's first tick fires.
func (n *Node) SetHandle(h watcher.StabilizerHandle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Handle = h
}

// Snapshot returns the current ChordState. Safe for concurrent use;
// the returned value is never mutated in place.
func (n *Node) Snapshot() chordstate.State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// Step advances the stabilization loop by one tick. Its signature
// matches what watcher.NewTickerHandle expects as a step function.
func (n *Node) Step(ctx context.Context, _ *watcher.TickerHandle) {
	cur := n.Snapshot()

	next, err := n.stab.Step(ctx, cur)
	if err != nil {
		n.lgr.Error("stabilization step failed", logger.F("err", err))
		return
	}

	n.mu.Lock()
	n.state = next
	n.mu.Unlock()
}

// Join attempts to enter an existing ring by asking each address in
// peers, in turn, for the successor of this node's own ID. The first
// address that answers wins; an empty peers list leaves the node alone
// on a freshly created ring.
func (n *Node) Join(ctx context.Context, peers []string) error {
	if len(peers) == 0 {
		return nil
	}

	self := n.Snapshot().Self

	var lastErr error
	for _, handle := range peers {
		tr, err := n.dial.Dial(ctx, ring.PeerAddress{Handle: handle})
		if err != nil {
			lastErr = fmt.Errorf("dial %s: %w", handle, err)
			continue
		}
		succ, err := tr.FindNode(ctx, self.ID)
		if err != nil {
			lastErr = fmt.Errorf("find node via %s: %w", handle, err)
			continue
		}
		if succ == nil {
			lastErr = fmt.Errorf("find node via %s: no successor returned", handle)
			continue
		}

		n.mu.Lock()
		n.state.SuccList = ring.NewNodeList(self, *succ)
		n.state.Pred = nil
		n.mu.Unlock()
		n.watch.Watch(*succ)

		n.lgr.Info("joined ring", logger.F("via", handle), logger.FPeer("successor", *succ))
		return nil
	}

	return fmt.Errorf("node: failed to join through any bootstrap peer: %w", lastErr)
}

// CheckLiving satisfies transport/rpc.RingServer: a reachable node is
// by definition living.
func (n *Node) CheckLiving(context.Context) (bool, error) { return true, nil }

// YourPredecessor satisfies transport/rpc.RingServer.
func (n *Node) YourPredecessor(context.Context) (*ring.PeerAddress, error) {
	return n.Snapshot().Pred, nil
}

// YourSuccessor satisfies transport/rpc.RingServer.
func (n *Node) YourSuccessor(context.Context) (*ring.PeerAddress, error) {
	succ := n.Snapshot().Successor()
	return &succ, nil
}

// AmIPredecessor satisfies transport/rpc.RingServer: the classic Chord
// notify rule, adopting candidate as predecessor if none is known yet
// or if candidate lies strictly between the current predecessor and
// self.
func (n *Node) AmIPredecessor(_ context.Context, candidate ring.PeerAddress) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state.Pred == nil || candidate.ID.BetweenExclusive(n.state.Pred.ID, n.state.Self.ID) {
		p := candidate
		n.state.Pred = &p
	}
	return nil
}

// HandleLeave satisfies transport/rpc.RingServer: departing announces a
// graceful exit. If departing was our predecessor, the pointer is
// cleared immediately and the watcher's interest in it is released. No
// stabilization step probes the predecessor's liveness.
func (n *Node) HandleLeave(_ context.Context, departing ring.PeerAddress) error {
	n.mu.Lock()
	wasPred := n.state.Pred != nil && n.state.Pred.ID.Equal(departing.ID)
	if wasPred {
		n.state.Pred = nil
	}
	n.mu.Unlock()

	if wasPred {
		n.watch.Unwatch(departing)
		n.lgr.Info("predecessor left gracefully", logger.FPeer("peer", departing))
	}
	return nil
}

// FindNode satisfies transport/rpc.RingServer, delegating the routing
// decision to finder.Resolve over a consistent state snapshot.
func (n *Node) FindNode(ctx context.Context, target ringid.ID) (*ring.PeerAddress, error) {
	return finder.Resolve(ctx, target, n.Snapshot(), n.dial)
}

// SetChunk satisfies transport/rpc.RingServer: an unconditional local
// write, used by the stabilizer's immigrateData step.
func (n *Node) SetChunk(_ context.Context, c storage.Chunk) error {
	return n.Snapshot().DataHolder.Put(c)
}

// Put satisfies transport/rpc.ClientAPIServer. Callers are expected to
// have already resolved key to this node via Lookup.
func (n *Node) Put(_ context.Context, key, value string) error {
	id := n.space.NewIDFromString(key)
	return n.Snapshot().DataHolder.Put(storage.Chunk{Key: id, RawKey: key, Value: value})
}

// Get satisfies transport/rpc.ClientAPIServer.
func (n *Node) Get(_ context.Context, key string) (string, error) {
	id := n.space.NewIDFromString(key)
	c, err := n.Snapshot().DataHolder.Get(id)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Delete satisfies transport/rpc.ClientAPIServer.
func (n *Node) Delete(_ context.Context, key string) error {
	id := n.space.NewIDFromString(key)
	return n.Snapshot().DataHolder.Delete(id)
}

// Lookup satisfies transport/rpc.ClientAPIServer: resolves key's
// custodian through the same routing decision node-to-node FindNode
// requests use.
func (n *Node) Lookup(ctx context.Context, key string) (ring.PeerAddress, error) {
	id := n.space.NewIDFromString(key)
	p, err := finder.Resolve(ctx, id, n.Snapshot(), n.dial)
	if err != nil {
		return ring.PeerAddress{}, err
	}
	return *p, nil
}

// ListLocal satisfies transport/rpc.ClientAPIServer: a diagnostic dump
// of every chunk this node currently holds.
func (n *Node) ListLocal(context.Context) ([]storage.Chunk, error) {
	return n.Snapshot().DataHolder.All(), nil
}
