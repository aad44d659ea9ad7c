package roles

import (
	"fmt"

	"github.com/golazo/once-server-go/internal/normalize"
	"go.uber.org/zap"
)

// MappingTable maps folded position labels to the set of canonical roles
// they can occupy. A general label like "defensor" fans out to several
// codes; a specific label like "lateral izquierdo" maps to exactly one.
type MappingTable map[string][]Role

// DefaultTable covers the Spanish labels stored in the player directory
// plus the English equivalents and the canonical short codes themselves.
func DefaultTable() MappingTable {
	return MappingTable{
		// Goalkeepers.
		"arquero":    {RoleGoalkeeper},
		"golero":     {RoleGoalkeeper},
		"portero":    {RoleGoalkeeper},
		"goalkeeper": {RoleGoalkeeper},
		"gk":         {RoleGoalkeeper},

		// Specific defenders.
		"lateral izquierdo": {RoleLeftBack},
		"left back":         {RoleLeftBack},
		"lb":                {RoleLeftBack},
		"defensor central":  {RoleCenterBack},
		"central":           {RoleCenterBack},
		"zaguero":           {RoleCenterBack},
		"center back":       {RoleCenterBack},
		"cb":                {RoleCenterBack},
		"lateral derecho":   {RoleRightBack},
		"right back":        {RoleRightBack},
		"rb":                {RoleRightBack},

		// General defenders.
		"defensor": {RoleLeftBack, RoleCenterBack, RoleRightBack},
		"defensa":  {RoleLeftBack, RoleCenterBack, RoleRightBack},
		"defender": {RoleLeftBack, RoleCenterBack, RoleRightBack},
		"lateral":  {RoleLeftBack, RoleRightBack},

		// Specific midfielders.
		"volante de contencion": {RoleDefensiveMid},
		"mediocentro defensivo": {RoleDefensiveMid},
		"defensive mid":         {RoleDefensiveMid},
		"cdm":                   {RoleDefensiveMid},
		"mediocampista central": {RoleCenterMid},
		"center mid":            {RoleCenterMid},
		"cm":                    {RoleCenterMid},
		"enganche":              {RoleAttackingMid},
		"mediapunta":            {RoleAttackingMid},
		"attacking mid":         {RoleAttackingMid},
		"cam":                   {RoleAttackingMid},
		"volante izquierdo":     {RoleLeftMid},
		"left mid":              {RoleLeftMid},
		"lm":                    {RoleLeftMid},
		"volante derecho":       {RoleRightMid},
		"right mid":             {RoleRightMid},
		"rm":                    {RoleRightMid},

		// General midfielders.
		"volante":       {RoleDefensiveMid, RoleCenterMid, RoleAttackingMid, RoleLeftMid, RoleRightMid},
		"mediocampista": {RoleDefensiveMid, RoleCenterMid, RoleAttackingMid, RoleLeftMid, RoleRightMid},
		"midfielder":    {RoleDefensiveMid, RoleCenterMid, RoleAttackingMid, RoleLeftMid, RoleRightMid},

		// Specific forwards.
		"extremo izquierdo": {RoleLeftWing},
		"left wing":         {RoleLeftWing},
		"lw":                {RoleLeftWing},
		"delantero centro":  {RoleStriker},
		"punta":             {RoleStriker},
		"striker":           {RoleStriker},
		"st":                {RoleStriker},
		"extremo derecho":   {RoleRightWing},
		"right wing":        {RoleRightWing},
		"rw":                {RoleRightWing},

		// General forwards.
		"delantero": {RoleLeftWing, RoleStriker, RoleRightWing},
		"atacante":  {RoleLeftWing, RoleStriker, RoleRightWing},
		"forward":   {RoleLeftWing, RoleStriker, RoleRightWing},
		"extremo":   {RoleLeftWing, RoleRightWing},
	}
}

// Validate checks the table against a formation vocabulary: every value set
// must be non-empty and every code it contains must appear in vocabulary.
// Run once at startup; a bad table is a deployment error, not a game error.
func (t MappingTable) Validate(vocabulary []Role) error {
	allowed := make(map[Role]bool, len(vocabulary))
	for _, r := range vocabulary {
		allowed[r] = true
	}

	for label, set := range t {
		if len(set) == 0 {
			return fmt.Errorf("label %q maps to an empty role set", label)
		}
		for _, r := range set {
			if !allowed[r] {
				return fmt.Errorf("label %q maps to role %s outside the formation vocabulary", label, r)
			}
		}
	}

	if !allowed[DefaultRole] {
		return fmt.Errorf("default role %s not in the formation vocabulary", DefaultRole)
	}

	return nil
}

// Normalizer resolves raw position labels to role sets.
type Normalizer struct {
	table  MappingTable
	logger *zap.Logger
}

// NewNormalizer validates the table against the canonical vocabulary and
// returns a ready normalizer.
func NewNormalizer(table MappingTable, logger *zap.Logger) (*Normalizer, error) {
	if err := table.Validate(All()); err != nil {
		return nil, fmt.Errorf("invalid role mapping table: %w", err)
	}
	return &Normalizer{table: table, logger: logger}, nil
}

// Normalize returns the role set for a raw label. Unknown labels fall back
// to DefaultRole; they never abort a session.
func (n *Normalizer) Normalize(rawLabel string) []Role {
	key := normalize.Fold(rawLabel)
	if set, ok := n.table[key]; ok {
		out := make([]Role, len(set))
		copy(out, set)
		return out
	}

	n.logger.Warn("unknown position label, using default role",
		zap.String("label", rawLabel),
		zap.String("default", DefaultRole.String()),
	)
	return []Role{DefaultRole}
}
