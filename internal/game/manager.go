package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/golazo/once-server-go/internal/formation"
	"github.com/golazo/once-server-go/internal/roles"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns the active sessions. In-progress sessions live only in
// memory; a session is discarded when the player restarts or leaves.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	directory  PlayerDirectory
	clubs      ClubSource
	formations formation.Source
	sink       ResultSink
	normalizer *roles.Normalizer
	logger     *zap.Logger

	// Seed produces the seed for each new session's RNG. Overridable in
	// tests to make club and formation selection deterministic.
	Seed func() int64
}

// NewManager creates a session manager.
func NewManager(directory PlayerDirectory, clubs ClubSource, formations formation.Source,
	sink ResultSink, normalizer *roles.Normalizer, logger *zap.Logger) *Manager {

	return &Manager{
		sessions:   make(map[string]*Session),
		directory:  directory,
		clubs:      clubs,
		formations: formations,
		sink:       sink,
		normalizer: normalizer,
		logger:     logger,
		Seed:       func() int64 { return time.Now().UnixNano() },
	}
}

// CreateSession starts a new game session for user (empty for anonymous):
// queries the club list, picks a formation at random, initializes the 11
// empty slots, and chooses the first prompt club.
func (m *Manager) CreateSession(ctx context.Context, user string) (*Session, error) {
	allClubs, err := m.clubs.ListClubs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	if len(allClubs) == 0 {
		return nil, fmt.Errorf("no clubs available")
	}

	rng := rand.New(rand.NewSource(m.Seed()))
	layout := formation.Pick(ctx, m.formations, rng, m.logger)

	session := newSession(uuid.New().String(), user, layout, allClubs, rng,
		m.normalizer, m.directory, m.sink, m.logger)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("user", user),
		zap.String("formation", layout.Name),
		zap.String("first_club", session.ActiveClub()),
	)

	return session, nil
}

// GetSession retrieves a session by ID.
func (m *Manager) GetSession(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

// RemoveSession discards a session. Any lookup in flight is invalidated so
// it cannot mutate state after removal.
func (m *Manager) RemoveSession(sessionID string) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok {
		session.Reset()
		m.logger.Info("session removed", zap.String("session_id", sessionID))
	}
}

// SessionCount returns the number of live sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll discards every session, invalidating in-flight lookups.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Reset()
	}
	m.logger.Info("all sessions closed", zap.Int("count", len(sessions)))
}
