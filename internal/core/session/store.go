package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"causebridge/internal/domain"
)

var ErrNotFound = errors.New("session: not found")

// Record is what a Store keeps per server-tracked session or denied token.
type Record struct {
	ID        string         `json:"id"`
	AuthID    uint           `json:"auth_id"`
	Role      domain.Role    `json:"role"`
	Carrier   domain.Carrier `json:"carrier"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Store keeps records until their ttl runs out. Get on a missing or expired
// key returns ErrNotFound.
type Store interface {
	Put(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Get(ctx context.Context, key string) (*Record, error)
	Delete(ctx context.Context, key string) error
}

type memEntry struct {
	rec     Record
	expires time.Time
}

type MemoryStore struct {
	mu   sync.Mutex
	m    map[string]memEntry
	now  func() time.Time
	puts int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: map[string]memEntry{}, now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, key string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.m[key] = memEntry{rec: rec, expires: now.Add(ttl)}
	// sweep every so often so abandoned sessions do not pile up
	if s.puts++; s.puts%256 == 0 {
		for k, e := range s.m {
			if !now.Before(e.expires) {
				delete(s.m, k)
			}
		}
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.now().Before(e.expires) {
		delete(s.m, key)
		return nil, ErrNotFound
	}
	rec := e.rec
	return &rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
