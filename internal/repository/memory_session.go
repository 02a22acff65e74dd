package repository

import (
	"context"
	"sync"
	"time"

	"practice-service/internal/apperr"
	"practice-service/internal/models"
)

// MemorySessionStore is the single-instance fallback used when redis is
// not configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*memorySession
}

type memorySession struct {
	session   models.PracticeSession
	expiresAt time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*memorySession),
	}
}

func (s *MemorySessionStore) Create(_ context.Context, session *models.PracticeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()
	cp := *session
	cp.QuestionIDs = append([]string(nil), session.QuestionIDs...)
	s.sessions[session.ID] = &memorySession{session: cp, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*models.PracticeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	cp := entry.session
	cp.QuestionIDs = append([]string(nil), entry.session.QuestionIDs...)
	return &cp, nil
}

func (s *MemorySessionStore) ClaimAnswer(_ context.Context, id string, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.lookup(id)
	if err != nil {
		return false, err
	}
	if entry.session.Cursor != index {
		return false, nil
	}
	entry.session.Cursor++
	return true, nil
}

func (s *MemorySessionStore) ReleaseAnswer(_ context.Context, id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.lookup(id)
	if err != nil {
		return err
	}
	if entry.session.Cursor == index+1 {
		entry.session.Cursor = index
	}
	return nil
}

func (s *MemorySessionStore) lookup(id string) (*memorySession, error) {
	entry, ok := s.sessions[id]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, apperr.NotFound("session %q not found", id)
	}
	return entry, nil
}

func (s *MemorySessionStore) evictExpired() {
	now := s.now()
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
