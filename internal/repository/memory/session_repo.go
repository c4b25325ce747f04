package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cirqle-backend/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// sessionRepo keeps sessions in process memory. Sessions are ephemeral by
// design: a restart starts everyone over at the auth screen.
type sessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewSessionRepository() domain.SessionRepository {
	return &sessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *sessionRepo) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return fmt.Errorf("failed to create session %s: %w", session.ID, ErrSessionExists)
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(r.sessions, id)
	return session, nil
}

// Expired reads TouchedAt under each session's own lock, so it must not be
// called while holding any session lock.
func (r *sessionRepo) Expired(ctx context.Context, cutoff time.Time) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*domain.Session
	for id, session := range r.sessions {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		session.Lock()
		stale := session.TouchedAt.Before(cutoff)
		session.Unlock()
		if stale {
			delete(r.sessions, id)
			expired = append(expired, session)
		}
	}
	return expired, nil
}

func (r *sessionRepo) Drain(ctx context.Context) []*domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*domain.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		all = append(all, session)
	}
	r.sessions = make(map[string]*domain.Session)
	return all
}

func (r *sessionRepo) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
