// session/memory.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryStore keeps draft sessions in process memory, for a single
// instance (session_store "memory"). A restart drops every unsent draft;
// run the redis store when drafts must survive deploys or be shared by
// several instances.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionData
	clock    clockwork.Clock
	stopCh   chan struct{}
	cleanCh  chan struct{}
}

// MemoryStoreConfig configures the memory store.
type MemoryStoreConfig struct {
	// CleanupInterval is how often abandoned drafts past session_max_age
	// are swept. Default: 10 minutes.
	CleanupInterval time.Duration

	// Clock drives expiry and the sweeper; tests pass a fake one.
	// Default: the real clock.
	Clock clockwork.Clock
}

// NewMemoryStore returns a store with the default sweep interval.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithConfig(MemoryStoreConfig{})
}

// NewMemoryStoreWithConfig returns a store and starts its sweeper. Call
// Close to stop it.
func NewMemoryStoreWithConfig(cfg MemoryStoreConfig) *MemoryStore {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	s := &MemoryStore{
		sessions: make(map[string]*SessionData),
		clock:    cfg.Clock,
		stopCh:   make(chan struct{}),
		cleanCh:  make(chan struct{}),
	}

	go s.cleanup(cfg.CleanupInterval)

	return s
}

// Load returns a copy of the stored draft session. A session at or past
// ExpiresAt is ErrExpired even if the sweeper has not removed it yet.
func (s *MemoryStore) Load(ctx context.Context, id string) (*SessionData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}

	if !s.clock.Now().Before(data.ExpiresAt) {
		return nil, ErrExpired
	}

	return copySessionData(data), nil
}

// Save replaces the stored session with a copy of data, so later changes
// to the caller's payload are not seen until the next Save.
func (s *MemoryStore) Save(ctx context.Context, data *SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[data.ID] = copySessionData(data)
	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Close stops the sweeper and waits for it to exit.
func (s *MemoryStore) Close() error {
	close(s.stopCh)
	<-s.cleanCh
	return nil
}

// Size returns the number of stored sessions, expired ones included until
// the next sweep.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// cleanup runs the sweeper until Close.
func (s *MemoryStore) cleanup(interval time.Duration) {
	defer close(s.cleanCh)

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.Chan():
			s.removeExpired()
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for id, data := range s.sessions {
		if !now.Before(data.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}

func copySessionData(data *SessionData) *SessionData {
	out := *data
	if data.Payload != nil {
		out.Payload = append([]byte(nil), data.Payload...)
	}
	return &out
}
