package session

import (
	"slices"
	"sync"
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
)

type entry struct {
	mode    domain.Mode
	history *Ring[domain.Turn]
}

// MemoryStore is a process-lifetime Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*entry
	bans     map[int64]time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*entry),
		bans:     make(map[int64]time.Time),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) entryLocked(userID int64) *entry {
	e, ok := s.sessions[userID]
	if !ok {
		e = &entry{history: NewRing[domain.Turn](domain.HistoryLimit)}
		s.sessions[userID] = e
	}
	return e
}

// Snapshot returns a copy of the user's session.
func (s *MemoryStore) Snapshot(userID int64) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(userID)
	return domain.Session{
		UserID:  userID,
		Mode:    e.mode,
		History: e.history.Items(),
	}
}

// Mode returns the user's current mode without creating a session.
func (s *MemoryStore) Mode(userID int64) domain.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.sessions[userID]; ok {
		return e.mode
	}
	return domain.Idle()
}

// SetMode replaces the user's mode.
func (s *MemoryStore) SetMode(userID int64, mode domain.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(userID)
	if e.mode.IsAIChat() && !mode.IsAIChat() {
		e.history.Reset()
	}
	e.mode = mode
}

// AppendHistory records a turn. Turns outside AI chat are dropped.
func (s *MemoryStore) AppendHistory(userID int64, speaker domain.Speaker, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(userID)
	if !e.mode.IsAIChat() {
		return
	}
	e.history.Push(domain.Turn{Speaker: speaker, Text: text})
}

// ClearSession resets the user's session.
func (s *MemoryStore) ClearSession(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[userID]; ok {
		e.mode = domain.Idle()
		e.history.Reset()
	}
}

// IsBanned reports whether an unexpired ban exists for the user.
func (s *MemoryStore) IsBanned(userID int64, now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	until, ok := s.bans[userID]
	return ok && now.Before(until)
}

// Ban blocks the user until the given time, replacing any existing ban.
func (s *MemoryStore) Ban(userID int64, until time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans[userID] = until
}

// Unban removes the user's ban.
func (s *MemoryStore) Unban(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bans[userID]; !ok {
		return false
	}
	delete(s.bans, userID)
	return true
}

// PurgeExpiredBans drops every ban whose expiry is not after now.
func (s *MemoryStore) PurgeExpiredBans(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, until := range s.bans {
		if !now.Before(until) {
			delete(s.bans, id)
			purged++
		}
	}
	return purged
}

// Bans lists current bans ordered by user id.
func (s *MemoryStore) Bans() []domain.Ban {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bans := make([]domain.Ban, 0, len(s.bans))
	for id, until := range s.bans {
		bans = append(bans, domain.Ban{UserID: id, ExpiresAt: until})
	}
	slices.SortFunc(bans, func(a, b domain.Ban) int {
		switch {
		case a.UserID < b.UserID:
			return -1
		case a.UserID > b.UserID:
			return 1
		}
		return 0
	})
	return bans
}

// Users lists every user with a session, ordered by id.
func (s *MemoryStore) Users() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Stats counts sessions per mode and active bans.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Sessions: len(s.sessions), Banned: len(s.bans)}
	for _, e := range s.sessions {
		switch {
		case e.mode.IsAIChat():
			st.AIChats++
		case e.mode.IsHandoff():
			st.Handoffs++
		default:
			if _, ok := e.mode.PendingAction(); ok {
				st.Pending++
			}
		}
	}
	return st
}
