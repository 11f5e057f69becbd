package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrStorage wraps every failure of the durable backend.
var ErrStorage = errors.New("credential storage failure")

// ErrIncompletePair is returned when a pair with only one token is stored.
var ErrIncompletePair = errors.New("credential pair must carry both tokens")

const defaultKey = "session"

// Store is the single source of truth for the current credential pair. It caches the
// pair in memory and persists it through a [Backend] so it survives restarts.
//
// Store is safe for concurrent use. Set holds the write lock across the durable write
// and the cache update, so a concurrent Get never observes a half-written pair.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	key     string
	now     func() time.Time

	loaded bool
	cached *Pair
}

// StoreOption customizes a [Store].
type StoreOption func(*Store)

// WithKey sets the backend key the pair is stored under.
func WithKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock overrides the clock used to stamp saved records.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a [Store] over backend. A nil backend falls back to an in-memory one.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	s := &Store{
		backend: backend,
		key:     defaultKey,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the current pair, or nil when the client is anonymous.
// Absence is not an error.
func (s *Store) Get(ctx context.Context) (*Pair, error) {
	s.mu.RLock()
	if s.loaded {
		p := clonePair(s.cached)
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return clonePair(s.cached), nil
	}

	data, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: get: %w", ErrStorage, err)
	}
	if !found {
		s.loaded = true
		s.cached = nil
		return nil, nil
	}

	record, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if !record.Complete() {
		return nil, fmt.Errorf("%w: %w: stored pair incomplete", ErrStorage, ErrCorrupt)
	}

	s.loaded = true
	s.cached = &Pair{AccessToken: record.AccessToken, RefreshToken: record.RefreshToken}
	return clonePair(s.cached), nil
}

// Set durably persists p and then updates the cache.
func (s *Store) Set(ctx context.Context, p Pair) error {
	if !p.Complete() {
		return ErrIncompletePair
	}

	data, err := Encode(&Record{Pair: p, SavedAt: s.now().Unix()})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Set(ctx, s.key, data); err != nil {
		s.loaded = false
		s.cached = nil
		return fmt.Errorf("%w: set: %w", ErrStorage, err)
	}

	s.loaded = true
	s.cached = &p
	return nil
}

// Clear removes the pair from storage and memory. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Remove(ctx, s.key); err != nil {
		s.loaded = false
		s.cached = nil
		return fmt.Errorf("%w: remove: %w", ErrStorage, err)
	}

	s.loaded = true
	s.cached = nil
	return nil
}

func clonePair(p *Pair) *Pair {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
