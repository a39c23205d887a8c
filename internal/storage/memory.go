package storage

import (
	"sort"
	"sync"

	"chordring/internal/logger"
	"chordring/internal/ringid"
)

// MemoryStore is an in-memory, concurrency-safe DataHolder. Suitable
// for unit tests and for nodes that do not require persistence across
// restarts.
type MemoryStore struct {
	lgr  logger.Logger
	mu   sync.RWMutex
	data map[string]Chunk // keyed by hex-encoded ringid.ID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(lgr logger.Logger) *MemoryStore {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	s := &MemoryStore{
		lgr:  lgr,
		data: make(map[string]Chunk),
	}
	s.lgr.Debug("initialized in-memory data holder")
	return s
}

func (s *MemoryStore) Put(chunk Chunk) error {
	key := chunk.Key.ToHexString(false)
	s.mu.Lock()
	_, existed := s.data[key]
	s.data[key] = chunk
	s.mu.Unlock()
	if existed {
		s.lgr.Debug("chunk updated", logger.F("key", key))
	} else {
		s.lgr.Debug("chunk inserted", logger.F("key", key))
	}
	return nil
}

func (s *MemoryStore) Get(key ringid.ID) (Chunk, error) {
	k := key.ToHexString(false)
	s.mu.RLock()
	c, ok := s.data[k]
	s.mu.RUnlock()
	if !ok {
		return Chunk{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) Delete(key ringid.ID) error {
	k := key.ToHexString(false)
	s.mu.Lock()
	_, ok := s.data[k]
	if ok {
		delete(s.data, k)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *MemoryStore) Between(from, to ringid.ID) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Chunk
	for _, c := range s.data {
		if c.Key.Between(from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) All() []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Chunk, 0, len(s.data))
	for _, c := range s.data {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.ToHexString(false) < out[j].Key.ToHexString(false)
	})
	return out
}
