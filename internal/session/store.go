package session

import (
	"context"
	"log"
	"sync"
	"time"

	"goclean/domain/core"
)

// Store maps opaque session identifiers to sessions. Distinct sessions are
// fully independent; the store lock only guards the map itself.
type Store struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session

	ttl time.Duration
}

// NewStore creates a session store. ttl of zero disables automatic eviction.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[core.SessionID]*Session),
		ttl:      ttl,
	}
}

// GetOrCreate returns the session for id, allocating an empty one on first
// reference. Idempotent: an existing session is returned unchanged.
func (st *Store) GetOrCreate(id core.SessionID) *Session {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s = newSession(id)
	st.sessions[id] = s
	log.Printf("[SessionStore] Created session %s", id)
	return s
}

// Get returns the session for id or ErrSessionNotFound if it was never
// created.
func (st *Store) Get(id core.SessionID) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return s, nil
}

// GetWithData returns the session for id, failing with ErrSessionNotFound
// when the session does not exist or has no dataset loaded. This is the
// entry point for every operation that requires data.
func (st *Store) GetWithData(id core.SessionID) (*Session, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	var hasData bool
	_ = s.Do(func() error {
		hasData = s.HasData()
		return nil
	})
	if !hasData {
		return nil, core.ErrSessionNotFound
	}
	return s, nil
}

// Remove deletes a session outright
func (st *Store) Remove(id core.SessionID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Count returns the number of live sessions
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// StartJanitor evicts sessions idle longer than the configured TTL. No-op
// when TTL is zero. Runs until ctx is cancelled.
func (st *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if st.ttl == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := st.evictExpired(); n > 0 {
					log.Printf("[SessionStore] Evicted %d expired session(s)", n)
				}
			}
		}
	}()
}

func (st *Store) evictExpired() int {
	cutoff := time.Now().Add(-st.ttl)
	st.mu.Lock()
	defer st.mu.Unlock()
	evicted := 0
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}
