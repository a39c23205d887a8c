package storage

import (
	"testing"

	"chordring/internal/logger"
	"chordring/internal/ringid"
)

func TestMemoryStorePutGetDelete(t *testing.T) {
	s := NewMemoryStore(&logger.NopLogger{})
	key := ringid.ID{0x10}

	if _, err := s.Get(key); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound before insert, got %v", err)
	}

	if err := s.Put(Chunk{Key: key, RawKey: "k", Value: "v1"}); err != nil {
		t.Fatalf("unexpected error on put: %v", err)
	}
	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("unexpected error on get: %v", err)
	}
	if got.Value != "v1" {
		t.Errorf("got value %q, want v1", got.Value)
	}

	if err := s.Delete(key); err != nil {
		t.Fatalf("unexpected error on delete: %v", err)
	}
	if _, err := s.Get(key); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreSetChunkIdempotent(t *testing.T) {
	s := NewMemoryStore(&logger.NopLogger{})
	key := ringid.ID{0x20}
	chunk := Chunk{Key: key, RawKey: "k", Value: "v"}

	if err := s.Put(chunk); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := s.Put(chunk); err != nil {
		t.Fatalf("second put: %v", err)
	}
	got, err := s.Get(key)
	if err != nil || got.Value != "v" {
		t.Errorf("expected idempotent put to leave value unchanged, got %+v err=%v", got, err)
	}
}

func TestMemoryStoreBetween(t *testing.T) {
	s := NewMemoryStore(&logger.NopLogger{})
	_ = s.Put(Chunk{Key: ringid.ID{0x10}, Value: "a"})
	_ = s.Put(Chunk{Key: ringid.ID{0x30}, Value: "b"})
	_ = s.Put(Chunk{Key: ringid.ID{0x50}, Value: "c"})

	got, err := s.Between(ringid.ID{0x00}, ringid.ID{0x30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks in (0x00,0x30], got %d", len(got))
	}
}
