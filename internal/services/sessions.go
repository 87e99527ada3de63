package services

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sales-insights/internal/errors"
	"sales-insights/internal/models"
)

const defaultSessionTTL = 2 * time.Hour

// Session owns one uploaded table and the narrative key supplied with it.
type Session struct {
	ID           string
	Filename     string
	Table        *models.Table
	NarrativeKey string
	CreatedAt    time.Time

	lastSeen atomic.Int64
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// Sessions is a uuid-keyed store of sessions. Tables are immutable, so only
// the map needs locking. Idle sessions are dropped by Sweep.
type Sessions struct {
	mu      sync.RWMutex
	items   map[string]*Session
	ttl     time.Duration
	created atomic.Int64
	now     func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sessions{
		items: make(map[string]*Session),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (ss *Sessions) Create(table *models.Table, filename, narrativeKey string) *Session {
	now := ss.now()
	s := &Session{
		ID:           uuid.NewString(),
		Filename:     filename,
		Table:        table,
		NarrativeKey: narrativeKey,
		CreatedAt:    now,
	}
	s.touch(now)

	ss.mu.Lock()
	ss.items[s.ID] = s
	ss.mu.Unlock()

	ss.created.Add(1)
	return s
}

// Get returns the session and marks it as used.
func (ss *Sessions) Get(id string) (*Session, error) {
	ss.mu.RLock()
	s, ok := ss.items[id]
	ss.mu.RUnlock()

	if !ok {
		return nil, errors.NoSession("no sales log loaded for this session, upload a CSV first")
	}
	s.touch(ss.now())
	return s, nil
}

func (ss *Sessions) Delete(id string) {
	ss.mu.Lock()
	delete(ss.items, id)
	ss.mu.Unlock()
}

func (ss *Sessions) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.items)
}

// Rows counts the rows held across all sessions.
func (ss *Sessions) Rows() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	n := 0
	for _, s := range ss.items {
		n += s.Table.Len()
	}
	return n
}

// Created reports how many sessions were ever created.
func (ss *Sessions) Created() int64 {
	return ss.created.Load()
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (ss *Sessions) Sweep(now time.Time) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for id, s := range ss.items {
		if now.Sub(s.LastSeen()) > ss.ttl {
			delete(ss.items, id)
			removed++
		}
	}
	return removed
}
