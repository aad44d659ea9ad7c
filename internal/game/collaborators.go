package game

import (
	"context"
	"errors"
	"time"
)

// Player is a resolved directory record: the canonical name, the club the
// player belongs to, and the raw position label as stored.
type Player struct {
	Name     string
	Club     string
	Position string
}

// ErrPlayerNotFound is returned by PlayerDirectory implementations when no
// player matches the submitted name.
var ErrPlayerNotFound = errors.New("player not found")

// PlayerDirectory resolves a submitted name to a player record. The lookup
// is the engine's sole blocking step; implementations should honor ctx.
type PlayerDirectory interface {
	Lookup(ctx context.Context, name string) (Player, error)
}

// ClubSource lists the clubs available for prompting.
type ClubSource interface {
	ListClubs(ctx context.Context) ([]string, error)
}

// RosterEntry is one line of the final roster snapshot, in slot order.
type RosterEntry struct {
	SlotID int    `json:"slotId"`
	Role   string `json:"role"`
	Player string `json:"player"`
	Club   string `json:"club"`
}

// Result is the record emitted once when a session completes.
type Result struct {
	Timestamp      time.Time     `json:"timestamp"`
	ElapsedSeconds float64       `json:"elapsedSeconds"`
	Formation      string        `json:"formation"`
	Roster         []RosterEntry `json:"roster"`
}

// ResultSink persists completed-session results. Emission is
// fire-and-forget: a sink failure is logged and never affects game state.
type ResultSink interface {
	SaveResult(ctx context.Context, user string, result Result) error
}
