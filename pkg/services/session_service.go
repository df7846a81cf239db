package services

import (
	"sync"
	"time"

	"superstore-dashboard-api/pkg/models"

	"github.com/google/uuid"
)

// Session holds one browser session's state: its current filter selection
// and its chat transcript. Sessions never see each other's state.
type Session struct {
	ID        string                 `json:"id"`
	Filters   models.FilterSelection `json:"filters"`
	History   []models.ChatMessage   `json:"history"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// snapshot returns a value copy safe to read after the lock is released.
func (s *Session) snapshot() Session {
	copied := *s
	if s.History != nil {
		copied.History = make([]models.ChatMessage, len(s.History))
		copy(copied.History, s.History)
	}
	return copied
}

// SessionService keeps session state in process-local memory. Nothing is
// persisted; a restart drops all sessions. The stored *Session values never
// leave the service: every accessor returns a snapshot, so callers can read
// fields without holding the lock.
type SessionService struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionService creates an empty in-memory session store.
func NewSessionService() *SessionService {
	return &SessionService{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns a snapshot of the session with the given ID, creating
// it first when the ID is empty or unknown.
func (s *SessionService) GetOrCreate(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(id).snapshot()
}

// getOrCreateLocked resolves or creates the stored session. Callers must hold
// the write lock and must not retain the pointer past the unlock.
func (s *SessionService) getOrCreateLocked(id string) *Session {
	if id != "" {
		if session, ok := s.sessions[id]; ok {
			return session
		}
	}
	if id == "" {
		id = uuid.New().String()
	}

	session := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.sessions[id] = session
	return session
}

// UpdateFilters replaces a session's filter selection. The selection is
// transient and rebuilt per interaction; only the latest one is kept.
func (s *SessionService) UpdateFilters(id string, filters models.FilterSelection) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreateLocked(id)
	session.Filters = filters
	session.UpdatedAt = time.Now()
	return session.snapshot()
}

// Filters returns the session's current filter selection. An unknown session
// yields the zero selection, which constrains nothing.
func (s *SessionService) Filters(id string) models.FilterSelection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if session, ok := s.sessions[id]; ok {
		return session.Filters
	}
	return models.FilterSelection{}
}

// AppendMessage adds one entry to a session's chat transcript.
func (s *SessionService) AppendMessage(id, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreateLocked(id)
	session.History = append(session.History, models.ChatMessage{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	session.UpdatedAt = time.Now()
}

// History returns a copy of the session's chat transcript.
func (s *SessionService) History(id string) []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil
	}
	history := make([]models.ChatMessage, len(session.History))
	copy(history, session.History)
	return history
}
