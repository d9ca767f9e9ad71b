package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"docqa/internal/helper"
)

// Store keeps browser sessions in memory and expires idle ones.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*State
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*State),
		now:      time.Now,
	}
}

// Get returns the live session with id and marks it as used.
func (s *Store) Get(id string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(st, now) {
		return nil, false
	}
	st.lastUsed = now
	return st, true
}

// Create registers a new empty session.
func (s *Store) Create() (*State, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	st := NewState(id)

	s.mu.Lock()
	st.lastUsed = s.now()
	s.sessions[id] = st
	s.mu.Unlock()

	log.Debug().Str("session", id).Msg("Session created")
	return st, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expired(st *State, now time.Time) bool {
	return s.ttl > 0 && now.Sub(st.lastUsed) > s.ttl
}

// Sweep removes expired sessions and drops their indexes.
func (s *Store) Sweep() int {
	now := s.now()
	var expired []*State

	s.mu.Lock()
	for id, st := range s.sessions {
		if s.expired(st, now) {
			delete(s.sessions, id)
			expired = append(expired, st)
		}
	}
	s.mu.Unlock()

	// outside the store lock: Close waits for any in-flight action
	for _, st := range expired {
		st.Close()
	}
	if len(expired) > 0 {
		log.Info().Int("expired", len(expired)).Msg("Expired idle sessions")
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
