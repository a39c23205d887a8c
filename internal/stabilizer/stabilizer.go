// Package stabilizer implements the periodic control loop that repairs
// a ring node's successor list and predecessor pointer as peers join,
// leave, or fail, and migrates locally held chunks to their rightful
// custodian after the ring changes. This is the core of the node:
// everything else exists to give Step something to act on.
package stabilizer

import (
	"context"
	"errors"
	"time"

	"chordring/internal/chordstate"
	"chordring/internal/finder"
	"chordring/internal/logger"
	"chordring/internal/ring"
	"chordring/internal/storage"
	"chordring/internal/transport"
	"chordring/internal/watcher"
)

// maxSuccessorUnfold bounds the number of yourSuccessor RPCs
// increaseSuccessor will issue in a single step (spec's N=4), so a
// pathological or misbehaving ring can never make a step run long.
const maxSuccessorUnfold = 4

// ErrSelfInvariantViolation is the sentinel SelfInvariantViolation error
// (spec.md §7): raised only when the state's Self identity is unset,
// which never happens to a ChordState built via chordstate.New. An
// empty SuccList is not an error: a NodeList never holds its owner, so
// the empty list is how the alone state [self] is represented. Callers
// can errors.Is against it to distinguish this programmer error from
// the recoverable conditions Step otherwise swallows internally.
var ErrSelfInvariantViolation = errors.New("stabilizer: self invariant violation: self identity is unset")

// Timeouts holds the per-RPC-class deadlines the stabilizer enforces.
// A timeout is observationally indistinguishable from a transport
// failure and is handled identically.
type Timeouts struct {
	Liveness   time.Duration
	Structural time.Duration
	FindNode   time.Duration
	SetChunk   time.Duration
}

// Stabilizer is the control-loop decision procedure. It holds no
// per-node state of its own: everything it needs to decide and act
// comes in through Step's chordstate.State argument, and every
// external effect goes through the injected Dialer and Watcher.
type Stabilizer struct {
	dial         transport.Dialer
	watch        watcher.Watcher
	lgr          logger.Logger
	succListSize int
	timeouts     Timeouts
}

// New builds a Stabilizer. succListSize bounds the successor list
// increaseSuccessor rebuilds on every live-successor step; 0 means
// unbounded. A nil logger falls back to a no-op logger.
func New(dial transport.Dialer, watch watcher.Watcher, lgr logger.Logger, succListSize int, timeouts Timeouts) *Stabilizer {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	return &Stabilizer{
		dial:         dial,
		watch:        watch,
		lgr:          lgr,
		succListSize: succListSize,
		timeouts:     timeouts,
	}
}

// Step executes one stabilization round and returns the resulting
// state. The caller must not invoke Step concurrently on the same
// state; internally it is a single linear sequence of blocking RPCs,
// matching the single-runner discipline the package expects of its
// scheduler (see internal/watcher.TickerHandle).
//
// Step never mutates s in place: it computes the next state in local
// variables and returns it, so a concurrent reader of the caller's
// state cell only ever observes a pre- or post-step value.
func (st *Stabilizer) Step(ctx context.Context, s chordstate.State) (chordstate.State, error) {
	if len(s.Self.ID) == 0 {
		return s, ErrSelfInvariantViolation
	}

	self := s.Self
	succ := s.SuccList.NearestSuccessor(self)

	if succ.Equal(self) {
		st.lgr.Debug("stabilize: alone")
		return s, nil
	}

	if !st.checkLiving(ctx, succ) {
		return st.handleDeadSuccessor(ctx, s, succ), nil
	}

	x, err := st.yourPredecessor(ctx, succ)
	if err != nil {
		st.lgr.Warn("stabilize: yourPredecessor failed, treating as absent",
			logger.FPeer("succ", succ), logger.F("err", err))
		x = nil
	}

	switch {
	case x == nil:
		// Case A: successor has no predecessor of its own yet.
		st.notify(ctx, succ, self)
		return s, nil

	case x.ID.BetweenExclusive(self.ID, succ.ID):
		// Case B: x is a better successor than succ. The open question
		// in spec.md §9 is retained as documented behavior: the
		// notification goes to the newly discovered x, not to the old
		// successor succ.
		st.lgr.Debug("stabilize: better predecessor found, narrowing",
			logger.FPeer("old_succ", succ), logger.FPeer("x", *x))
		st.notify(ctx, *x, self)
		s.SuccList = ring.NewNodeList(self, *x)
		st.watch.Watch(*x)
		return s, nil

	default:
		// Case C: our pointer is correct. Notify, then extend the
		// successor list and migrate data to its rightful custodians.
		st.notify(ctx, succ, self)
		s = st.increaseSuccessor(ctx, s, succ)
		s = st.immigrateData(ctx, s, succ)
		return s, nil
	}
}

func (st *Stabilizer) checkLiving(ctx context.Context, p ring.PeerAddress) bool {
	tr, err := st.dial.Dial(ctx, p)
	if err != nil {
		return false
	}
	liveCtx, cancel := context.WithTimeout(ctx, st.timeouts.Liveness)
	defer cancel()
	return tr.CheckLiving(liveCtx)
}

func (st *Stabilizer) yourPredecessor(ctx context.Context, p ring.PeerAddress) (*ring.PeerAddress, error) {
	tr, err := st.dial.Dial(ctx, p)
	if err != nil {
		return nil, err
	}
	predCtx, cancel := context.WithTimeout(ctx, st.timeouts.Structural)
	defer cancel()
	return tr.YourPredecessor(predCtx)
}

func (st *Stabilizer) notify(ctx context.Context, target, self ring.PeerAddress) {
	tr, err := st.dial.Dial(ctx, target)
	if err != nil {
		st.lgr.Warn("stabilize: failed to dial for notify",
			logger.FPeer("target", target), logger.F("err", err))
		return
	}
	if err := tr.AmIPredecessor(ctx, self); err != nil {
		st.lgr.Warn("stabilize: amIPredecessor failed",
			logger.FPeer("target", target), logger.F("err", err))
	}
}

// handleDeadSuccessor implements the "succ dead" half of the decision
// tree: recover from the successor list if there is a spare, otherwise
// fall back to rejoining through the predecessor, or go bankrupt.
func (st *Stabilizer) handleDeadSuccessor(ctx context.Context, s chordstate.State, dead ring.PeerAddress) chordstate.State {
	st.lgr.Warn("stabilize: successor unreachable", logger.FPeer("succ", dead))
	st.watch.Unwatch(dead)

	if s.SuccList.Len() > 1 {
		return st.recoverSuccList(ctx, s, dead)
	}

	if s.Pred == nil {
		return s
	}
	return st.joinOrBankrupt(ctx, s, *s.Pred)
}

// recoverSuccList implements spec.md §9's deliberate extension over the
// documented behavior: before rejoining through a promoted successor-
// list candidate, probe it for liveness, falling through the rest of
// the list if it is also dead before giving up on the successor list
// entirely and falling back to the predecessor.
func (st *Stabilizer) recoverSuccList(ctx context.Context, s chordstate.State, dead ring.PeerAddress) chordstate.State {
	self := s.Self
	remaining := s.SuccList.KillNearest(self)

	for {
		candidate := remaining.NearestSuccessor(self)
		if candidate.Equal(self) {
			break
		}
		if !st.checkLiving(ctx, candidate) {
			st.lgr.Warn("recoverSuccList: candidate also unreachable, trying next",
				logger.FPeer("candidate", candidate))
			st.watch.Unwatch(candidate)
			remaining = remaining.KillNearest(self)
			continue
		}

		s.SuccList = remaining
		joined, newSucc := st.joinNetwork(ctx, s, candidate)
		if newSucc == nil {
			st.lgr.Warn("recoverSuccList: join via candidate failed, retrying next tick",
				logger.FPeer("candidate", candidate))
			s.SuccList = remaining
			return s
		}
		return joined
	}

	// No live candidate remains in the successor list.
	s.SuccList = remaining
	if s.Pred == nil {
		return s
	}
	return st.joinOrBankrupt(ctx, s, *s.Pred)
}

// joinOrBankrupt attempts to rejoin the ring through peer; on failure
// it performs the bankrupt self-reset: stop the scheduler, and reset
// to a single-node ring so the node can be externally re-initialized.
func (st *Stabilizer) joinOrBankrupt(ctx context.Context, s chordstate.State, peer ring.PeerAddress) chordstate.State {
	joined, newSucc := st.joinNetwork(ctx, s, peer)
	if newSucc != nil {
		return joined
	}

	st.lgr.Warn("stabilize: bankrupt, could not re-establish a live successor",
		logger.FPeer("peer", peer))
	s.Handle.Stop()
	s.SuccList = ring.NewNodeList(s.Self)
	s.Pred = nil
	return s
}

// joinNetwork asks peer to find our rightful successor. On success it
// narrows succList to that single new successor and clears any stale
// predecessor pointer; the next tick extends the list back out via
// increaseSuccessor. It returns a nil *PeerAddress iff the join could
// not establish a live successor.
func (st *Stabilizer) joinNetwork(ctx context.Context, s chordstate.State, peer ring.PeerAddress) (chordstate.State, *ring.PeerAddress) {
	tr, err := st.dial.Dial(ctx, peer)
	if err != nil {
		st.lgr.Warn("joinNetwork: failed to dial peer", logger.FPeer("peer", peer), logger.F("err", err))
		return s, nil
	}

	findCtx, cancel := context.WithTimeout(ctx, st.timeouts.FindNode)
	newSucc, err := tr.FindNode(findCtx, s.Self.ID)
	cancel()
	if err != nil || newSucc == nil {
		st.lgr.Warn("joinNetwork: peer could not resolve our successor",
			logger.FPeer("peer", peer), logger.F("err", err))
		return s, nil
	}

	s.SuccList = ring.NewNodeList(s.Self, *newSucc)
	s.Pred = nil
	st.watch.Watch(*newSucc)
	return s, newSucc
}

// increaseSuccessor unfolds the successor list out from succ by
// repeatedly asking the last-discovered node for its own successor, up
// to maxSuccessorUnfold times. It stops early on any RPC failure, on
// an absent reply, or upon wrapping back around to self. succ is
// always present in the result (it is a live, just-confirmed
// successor), so the list is never left empty.
func (st *Stabilizer) increaseSuccessor(ctx context.Context, s chordstate.State, succ ring.PeerAddress) chordstate.State {
	self := s.Self
	collected := []ring.PeerAddress{succ}
	last := succ

	for i := 0; i < maxSuccessorUnfold; i++ {
		tr, err := st.dial.Dial(ctx, last)
		if err != nil {
			st.lgr.Warn("increaseSuccessor: failed to dial", logger.FPeer("peer", last), logger.F("err", err))
			break
		}
		succCtx, cancel := context.WithTimeout(ctx, st.timeouts.Structural)
		next, err := tr.YourSuccessor(succCtx)
		cancel()
		if err != nil || next == nil {
			break
		}
		if next.Equal(self) {
			break
		}
		collected = append(collected, *next)
		last = *next
	}

	newList := ring.NewNodeList(self, collected...)
	if st.succListSize > 0 {
		newList = newList.Truncate(st.succListSize)
	}
	for _, p := range newList.Peers() {
		st.watch.Watch(p)
	}

	s.SuccList = newList
	return s
}

// immigrateData moves every chunk this node no longer has the best
// claim to: chunks succ (or beyond) owns outright, and chunks for
// which some known successor or finger is a closer-preceding node than
// self. Recipients are resolved through the node's own lookup routing
// (finder.Resolve), which may itself hop across the ring. All
// migrations in a single call either succeed together or the store is
// left untouched for a retry on the next tick.
func (st *Stabilizer) immigrateData(ctx context.Context, s chordstate.State, succ ring.PeerAddress) chordstate.State {
	self := s.Self
	chunks := s.DataHolder.All()
	if len(chunks) == 0 {
		return s
	}

	amongst := ring.NewNodeList(self, append(s.SuccList.Peers(), s.FingerList.Peers()...)...)

	var toMove []storage.Chunk
	for _, c := range chunks {
		ownedBySuccessor := c.Key.Between(self.ID, succ.ID)
		nearest := ring.NearestNeighbor(c.Key, amongst, self)
		selfIsNotClosest := !c.Key.Between(self.ID, nearest.ID)
		if ownedBySuccessor || selfIsNotClosest {
			toMove = append(toMove, c)
		}
	}
	if len(toMove) == 0 {
		return s
	}

	recipients := make(map[string]ring.PeerAddress, len(toMove))
	for _, c := range toMove {
		findCtx, cancel := context.WithTimeout(ctx, st.timeouts.FindNode)
		recipient, err := finder.Resolve(findCtx, c.Key, s, st.dial)
		cancel()
		if err != nil || recipient == nil {
			st.lgr.Warn("immigrateData: could not resolve custodian, aborting migration",
				logger.F("key", c.RawKey), logger.F("err", err))
			return s
		}
		recipients[c.RawKey] = *recipient
	}

	for _, c := range toMove {
		recipient := recipients[c.RawKey]
		tr, err := st.dial.Dial(ctx, recipient)
		if err != nil {
			st.lgr.Warn("immigrateData: failed to dial custodian, aborting migration",
				logger.F("key", c.RawKey), logger.FPeer("recipient", recipient), logger.F("err", err))
			return s
		}
		setCtx, cancel := context.WithTimeout(ctx, st.timeouts.SetChunk)
		err = tr.SetChunk(setCtx, c)
		cancel()
		if err != nil {
			st.lgr.Warn("immigrateData: setChunk failed, aborting migration",
				logger.F("key", c.RawKey), logger.FPeer("recipient", recipient), logger.F("err", err))
			return s
		}
	}

	for _, c := range toMove {
		if err := s.DataHolder.Delete(c.Key); err != nil {
			st.lgr.Warn("immigrateData: failed to delete migrated chunk locally",
				logger.F("key", c.RawKey), logger.F("err", err))
		}
	}
	st.lgr.Info("immigrateData: migrated chunks", logger.F("count", len(toMove)))
	return s
}
