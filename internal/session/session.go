// Package session keeps per-conversation state: the datasets a user
// has uploaded, remembered preferences, and the chart produced by the
// most recent turn. Conversation transcripts live in a separate
// history repository so they can be backed by Redis.
package session

import (
	"sync"
	"time"

	"datachat_llm/internal/registry"
	"datachat_llm/pkg"
)

// Session is the working memory of one conversation.
type Session struct {
	mu sync.Mutex

	ID        string
	Registry  *registry.Registry
	prefs     map[string]string
	lastChart *pkg.ChartConfig

	CreatedAt time.Time
	UpdatedAt time.Time
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Registry:  registry.New(),
		prefs:     make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetPref remembers a user preference, e.g. which column to use as the
// x-axis for trend charts.
func (s *Session) SetPref(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[key] = value
}

func (s *Session) Pref(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs[key]
}

// SetLastChart stashes a chart for the response envelope. TakeLastChart
// retrieves and clears it, so a chart is delivered exactly once.
func (s *Session) SetLastChart(c *pkg.ChartConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastChart = c
}

func (s *Session) TakeLastChart() *pkg.ChartConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.lastChart
	s.lastChart = nil
	return c
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
}

// Store holds sessions in memory and expires the ones that have been
// idle longer than the configured TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// GetOrCreate returns the live session for an id, creating one when it
// does not exist or has expired. Accessing a session refreshes it.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if ok && !st.expired(s) {
		s.touch()
		return s
	}
	s = newSession(id)
	st.sessions[id] = s
	return s
}

// Get returns the session for an id, or nil when absent or expired.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok || st.expired(s) {
		return nil
	}
	return s
}

// Delete drops a session outright.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Sweep removes expired sessions and returns how many were dropped.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if st.expired(s) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *Store) expired(s *Session) bool {
	if st.ttl <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.UpdatedAt) > st.ttl
}
