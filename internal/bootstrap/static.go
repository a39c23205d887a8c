package bootstrap

import (
	"context"

	"chordring/internal/ring"
)

// StaticBootstrap discovers peers from a fixed, operator-supplied list
// (ring.bootstrap.mode: static). It never registers or deregisters
// anything.
type StaticBootstrap struct {
	peers []string
}

// NewStaticBootstrap builds a StaticBootstrap over peers.
func NewStaticBootstrap(peers []string) *StaticBootstrap {
	return &StaticBootstrap{peers: peers}
}

func (s *StaticBootstrap) Discover(context.Context) ([]string, error) {
	return s.peers, nil
}

func (s *StaticBootstrap) Register(context.Context, ring.PeerAddress) error {
	return nil
}

func (s *StaticBootstrap) Deregister(context.Context, ring.PeerAddress) error {
	return nil
}
