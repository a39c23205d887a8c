package finder

import (
	"context"

	"chordring/internal/chordstate"
	"chordring/internal/ring"
	"chordring/internal/ringid"
	"chordring/internal/transport"
)

// Resolve is the injected variant of Judge used by the live system: it
// answers locally, answers with the immediate successor, or forwards
// the FindNode RPC to the closest-preceding finger and returns whatever
// that hop resolves to. Each hop's Transmitter.FindNode call is itself
// blocking and already returns the final custodian, so routing is
// realized as a chain of blocking calls rather than message forwarding
// with a reply-to-original-sender redirect.
func Resolve(ctx context.Context, target ringid.ID, state chordstate.State, dial transport.Dialer) (*ring.PeerAddress, error) {
	self := state.Self
	successor := state.Successor()

	var result *ring.PeerAddress
	var resultErr error

	Judge(target, self, successor, Callbacks{
		OnSelfOwns: func() {
			result = &self
		},
		OnSuccessorOwns: func() {
			result = &successor
		},
		OnForward: func() {
			next := state.FingerList.ClosestPrecedingNode(target, self)
			if next.Equal(self) {
				// No finger strictly closer than self: the successor is
				// the best next hop we know of.
				result = &successor
				return
			}
			tr, err := dial.Dial(ctx, next)
			if err != nil {
				resultErr = err
				return
			}
			result, resultErr = tr.FindNode(ctx, target)
		},
	})

	return result, resultErr
}
