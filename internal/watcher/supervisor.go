package watcher

import (
	"sync"

	"chordring/internal/logger"
	"chordring/internal/ring"
)

// InMemorySupervisor is the in-process Watcher implementation: it tracks
// the set of peers currently of interest and logs transitions, standing
// in for a process-wide supervision registry without reaching for an
// ambient singleton (the registry is always passed in as an interface).
type InMemorySupervisor struct {
	lgr logger.Logger

	mu      sync.Mutex
	watched map[string]ring.PeerAddress
}

// NewInMemorySupervisor builds an empty supervisor. A nil logger falls
// back to a no-op logger.
func NewInMemorySupervisor(lgr logger.Logger) *InMemorySupervisor {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	return &InMemorySupervisor{
		lgr:     lgr,
		watched: make(map[string]ring.PeerAddress),
	}
}

// Watch registers interest in p's liveness. No-op if p is already watched.
func (s *InMemorySupervisor) Watch(p ring.PeerAddress) {
	key := p.ID.ToHexString(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watched[key]; ok {
		return
	}
	s.watched[key] = p
	s.lgr.Debug("watch", logger.FPeer("peer", p))
}

// Unwatch deregisters interest in p's liveness. No-op if p is not watched.
func (s *InMemorySupervisor) Unwatch(p ring.PeerAddress) {
	key := p.ID.ToHexString(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watched[key]; !ok {
		return
	}
	delete(s.watched, key)
	s.lgr.Debug("unwatch", logger.FPeer("peer", p))
}

// Watched returns a snapshot of the currently watched peers, for tests
// and diagnostics.
func (s *InMemorySupervisor) Watched() []ring.PeerAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ring.PeerAddress, 0, len(s.watched))
	for _, p := range s.watched {
		out = append(out, p)
	}
	return out
}
