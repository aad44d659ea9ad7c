// Package formation defines 11-slot tactical layouts and the selection of a
// layout for a new session, with a built-in default when the configured
// source is unavailable or returns malformed data.
package formation

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/golazo/once-server-go/internal/roles"
	"go.uber.org/zap"
)

// SlotCount is the fixed roster size.
const SlotCount = 11

// Slot is one position definition within a layout. IDs are unique within a
// layout and stable for the life of a session.
type Slot struct {
	ID   int
	Role roles.Role
}

// Layout is an ordered definition of exactly 11 slots.
type Layout struct {
	Name  string
	Slots []Slot
}

// Validate enforces the layout invariants: exactly 11 slots, unique IDs,
// every role canonical, exactly one goalkeeper.
func (l Layout) Validate() error {
	if len(l.Slots) != SlotCount {
		return fmt.Errorf("layout %q has %d slots, want %d", l.Name, len(l.Slots), SlotCount)
	}

	seen := make(map[int]bool, SlotCount)
	keepers := 0
	for _, slot := range l.Slots {
		if seen[slot.ID] {
			return fmt.Errorf("layout %q has duplicate slot id %d", l.Name, slot.ID)
		}
		seen[slot.ID] = true

		if !slot.Role.Valid() {
			return fmt.Errorf("layout %q slot %d has invalid role", l.Name, slot.ID)
		}
		if slot.Role == roles.RoleGoalkeeper {
			keepers++
		}
	}

	if keepers != 1 {
		return fmt.Errorf("layout %q has %d goalkeepers, want 1", l.Name, keepers)
	}

	return nil
}

// Default returns the built-in 4-4-2 layout used whenever the formation
// source fails or returns nothing usable.
func Default() Layout {
	return Layout{
		Name: "4-4-2",
		Slots: []Slot{
			{ID: 0, Role: roles.RoleGoalkeeper},
			{ID: 1, Role: roles.RoleLeftBack},
			{ID: 2, Role: roles.RoleCenterBack},
			{ID: 3, Role: roles.RoleCenterBack},
			{ID: 4, Role: roles.RoleRightBack},
			{ID: 5, Role: roles.RoleDefensiveMid},
			{ID: 6, Role: roles.RoleCenterMid},
			{ID: 7, Role: roles.RoleLeftMid},
			{ID: 8, Role: roles.RoleRightMid},
			{ID: 9, Role: roles.RoleAttackingMid},
			{ID: 10, Role: roles.RoleStriker},
		},
	}
}

// Source supplies the available layouts. Implementations live in the
// directory package; tests supply stubs.
type Source interface {
	ListFormations(ctx context.Context) ([]Layout, error)
}

// Pick selects one valid layout uniformly at random from the source.
// A source error, an empty list, or a list with no valid layout all degrade
// to the built-in default; the failure is logged and never surfaced to the
// player.
func Pick(ctx context.Context, src Source, rng *rand.Rand, logger *zap.Logger) Layout {
	layouts, err := src.ListFormations(ctx)
	if err != nil {
		logger.Warn("formation source failed, using default layout",
			zap.Error(err),
			zap.String("default", Default().Name),
		)
		return Default()
	}

	var valid []Layout
	for _, l := range layouts {
		if vErr := l.Validate(); vErr != nil {
			logger.Warn("skipping malformed formation layout", zap.Error(vErr))
			continue
		}
		valid = append(valid, l)
	}

	if len(valid) == 0 {
		logger.Warn("no valid formation layouts available, using default layout",
			zap.String("default", Default().Name),
		)
		return Default()
	}

	return valid[rng.Intn(len(valid))]
}
