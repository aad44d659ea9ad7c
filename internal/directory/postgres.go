// Package directory provides the engine's external collaborators: player
// lookup, club and formation sources, credential storage, and the result
// sink. Two implementations exist, one over Postgres and one in-memory
// backed by the built-in seed dataset.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golazo/once-server-go/internal/config"
	"github.com/golazo/once-server-go/internal/formation"
	"github.com/golazo/once-server-go/internal/game"
	"github.com/golazo/once-server-go/internal/normalize"
	"github.com/golazo/once-server-go/internal/roles"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrUserNotFound is returned by credential lookups for unknown usernames.
var ErrUserNotFound = errors.New("user not found")

// CredentialStore resolves a username to its bcrypt password hash.
type CredentialStore interface {
	PasswordHash(ctx context.Context, username string) (string, error)
}

// Postgres implements every collaborator interface over a pgx pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres connects a pool and verifies the connection.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool initialized",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
	)

	return &Postgres{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Lookup resolves a submitted name against the players table. Matching is
// on the folded form of the stored name, so case and diacritics in the
// submission do not matter.
func (p *Postgres) Lookup(ctx context.Context, name string) (game.Player, error) {
	const q = `SELECT name, club, position FROM players WHERE folded_name = $1`

	var player game.Player
	err := p.pool.QueryRow(ctx, q, normalize.Fold(name)).Scan(&player.Name, &player.Club, &player.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Player{}, game.ErrPlayerNotFound
	}
	if err != nil {
		return game.Player{}, fmt.Errorf("query player: %w", err)
	}
	return player, nil
}

// ListClubs returns every club name.
func (p *Postgres) ListClubs(ctx context.Context) ([]string, error) {
	const q = `SELECT name FROM clubs ORDER BY name`

	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query clubs: %w", err)
	}
	defer rows.Close()

	var clubs []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan club: %w", err)
		}
		clubs = append(clubs, name)
	}
	return clubs, rows.Err()
}

// ListFormations loads layouts with their ordered slots. Malformed rows
// yield malformed layouts; validation is the caller's concern.
func (p *Postgres) ListFormations(ctx context.Context) ([]formation.Layout, error) {
	const q = `
		SELECT f.name, s.slot_id, s.role
		FROM formations f
		JOIN formation_slots s ON s.formation_id = f.id
		ORDER BY f.name, s.slot_id`

	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query formations: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]*formation.Layout)
	var order []string
	for rows.Next() {
		var (
			name, roleCode string
			slotID         int
		)
		if err := rows.Scan(&name, &slotID, &roleCode); err != nil {
			return nil, fmt.Errorf("scan formation slot: %w", err)
		}

		layout, ok := byName[name]
		if !ok {
			layout = &formation.Layout{Name: name}
			byName[name] = layout
			order = append(order, name)
		}

		role, parseErr := roles.Parse(roleCode)
		if parseErr != nil {
			// Leave the role invalid; Layout.Validate rejects it later.
			p.logger.Warn("formation slot with unknown role code",
				zap.String("formation", name),
				zap.String("role", roleCode),
			)
			role = roles.Role(-1)
		}
		layout.Slots = append(layout.Slots, formation.Slot{ID: slotID, Role: role})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	layouts := make([]formation.Layout, 0, len(order))
	for _, name := range order {
		layouts = append(layouts, *byName[name])
	}
	return layouts, nil
}

// SaveResult inserts one completed-session record with the roster as JSON.
func (p *Postgres) SaveResult(ctx context.Context, user string, result game.Result) error {
	roster, err := json.Marshal(result.Roster)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}

	const q = `
		INSERT INTO results (username, completed_at, elapsed_seconds, formation, roster)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := p.pool.Exec(ctx, q, user, result.Timestamp, result.ElapsedSeconds, result.Formation, roster); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// PasswordHash returns the stored bcrypt hash for a username.
func (p *Postgres) PasswordHash(ctx context.Context, username string) (string, error) {
	const q = `SELECT password_hash FROM users WHERE username = $1`

	var hash string
	err := p.pool.QueryRow(ctx, q, normalize.Fold(username)).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query user: %w", err)
	}
	return hash, nil
}
