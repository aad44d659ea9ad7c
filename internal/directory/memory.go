package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/golazo/once-server-go/internal/formation"
	"github.com/golazo/once-server-go/internal/game"
	"github.com/golazo/once-server-go/internal/normalize"
	"go.uber.org/zap"
)

// Memory implements the collaborator interfaces over in-process maps,
// preloaded with the built-in Argentine dataset. It backs the server when
// no database is configured, and the tests.
type Memory struct {
	mu      sync.RWMutex
	players map[string]game.Player // keyed by folded name
	clubs   []string
	layouts []formation.Layout
	users   map[string]string // folded username -> bcrypt hash
	results map[string][]game.Result
	logger  *zap.Logger
}

// NewMemory returns a store preloaded with the seed dataset.
func NewMemory(logger *zap.Logger) *Memory {
	m := &Memory{
		players: make(map[string]game.Player),
		users:   make(map[string]string),
		results: make(map[string][]game.Result),
		logger:  logger,
	}

	for _, p := range seedPlayers() {
		m.players[normalize.Fold(p.Name)] = p
	}
	m.clubs = seedClubs()
	m.layouts = seedLayouts()

	logger.Info("in-memory directory initialized",
		zap.Int("players", len(m.players)),
		zap.Int("clubs", len(m.clubs)),
		zap.Int("formations", len(m.layouts)),
	)
	return m
}

// AddPlayer registers or replaces a player record.
func (m *Memory) AddPlayer(p game.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[normalize.Fold(p.Name)] = p
}

// AddUser registers a username with a bcrypt password hash.
func (m *Memory) AddUser(username, passwordHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[normalize.Fold(username)] = passwordHash
}

// Lookup resolves a name using the app-wide folded matching policy.
func (m *Memory) Lookup(_ context.Context, name string) (game.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.players[normalize.Fold(name)]
	if !ok {
		return game.Player{}, game.ErrPlayerNotFound
	}
	return p, nil
}

// ListClubs returns the club names, sorted.
func (m *Memory) ListClubs(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clubs := append([]string(nil), m.clubs...)
	sort.Strings(clubs)
	return clubs, nil
}

// ListFormations returns the available layouts.
func (m *Memory) ListFormations(context.Context) ([]formation.Layout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]formation.Layout(nil), m.layouts...), nil
}

// SaveResult records a completed-session result per user.
func (m *Memory) SaveResult(_ context.Context, user string, result game.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[user] = append(m.results[user], result)
	return nil
}

// Results returns the recorded results for a user.
func (m *Memory) Results(user string) []game.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]game.Result(nil), m.results[user]...)
}

// PasswordHash returns the stored bcrypt hash for a username.
func (m *Memory) PasswordHash(_ context.Context, username string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hash, ok := m.users[normalize.Fold(username)]
	if !ok {
		return "", ErrUserNotFound
	}
	return hash, nil
}
