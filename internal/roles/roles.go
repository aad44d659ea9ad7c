// Package roles defines the closed vocabulary of playing positions used to
// key formation slots, and the mapping from free-form position labels to
// that vocabulary.
package roles

import "fmt"

// Role is one canonical playing-position category.
type Role int

const (
	RoleGoalkeeper Role = iota
	RoleLeftBack
	RoleCenterBack
	RoleRightBack
	RoleDefensiveMid
	RoleCenterMid
	RoleAttackingMid
	RoleLeftMid
	RoleRightMid
	RoleLeftWing
	RoleStriker
	RoleRightWing
)

// DefaultRole is the fallback for position labels not present in the
// mapping table. Center mid is the most permissive outfield slot in the
// built-in layouts.
const DefaultRole = RoleCenterMid

var roleNames = map[Role]string{
	RoleGoalkeeper:   "GK",
	RoleLeftBack:     "LB",
	RoleCenterBack:   "CB",
	RoleRightBack:    "RB",
	RoleDefensiveMid: "CDM",
	RoleCenterMid:    "CM",
	RoleAttackingMid: "CAM",
	RoleLeftMid:      "LM",
	RoleRightMid:     "RM",
	RoleLeftWing:     "LW",
	RoleStriker:      "ST",
	RoleRightWing:    "RW",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ROLE_%d", int(r))
}

// Valid reports whether r belongs to the canonical vocabulary.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// All returns the full canonical vocabulary in declaration order.
func All() []Role {
	return []Role{
		RoleGoalkeeper,
		RoleLeftBack,
		RoleCenterBack,
		RoleRightBack,
		RoleDefensiveMid,
		RoleCenterMid,
		RoleAttackingMid,
		RoleLeftMid,
		RoleRightMid,
		RoleLeftWing,
		RoleStriker,
		RoleRightWing,
	}
}

// Parse resolves a canonical short code ("GK", "CDM", ...) to its Role.
func Parse(code string) (Role, error) {
	for role, name := range roleNames {
		if name == code {
			return role, nil
		}
	}
	return 0, fmt.Errorf("unknown role code: %q", code)
}
