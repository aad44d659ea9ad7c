// Package club chooses the next club to prompt the player for.
package club

import "math/rand"

// Selector picks prompt clubs uniformly at random, preferring clubs not yet
// used in the roster. The RNG is injected so tests can fix the seed and
// assert exact sequences.
type Selector struct {
	rng *rand.Rand
}

// New returns a selector seeded with the given value.
func New(seed int64) *Selector {
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// NewFromRand returns a selector that shares an existing RNG.
func NewFromRand(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// PickNext chooses the next prompt club. The candidate pool is all−used,
// minus the club currently being prompted; if that pool is empty (more
// slots than clubs remain), the pool widens to every club except the
// current one. Uniqueness of the final roster is still enforced at
// assignment time, not here.
func (s *Selector) PickNext(all, used []string, excluding string) string {
	if len(all) == 0 {
		return ""
	}

	usedSet := make(map[string]bool, len(used))
	for _, c := range used {
		usedSet[c] = true
	}

	pool := make([]string, 0, len(all))
	for _, c := range all {
		if !usedSet[c] && c != excluding {
			pool = append(pool, c)
		}
	}

	if len(pool) == 0 {
		// Exhaustion fallback: every club already used.
		for _, c := range all {
			if c != excluding {
				pool = append(pool, c)
			}
		}
	}
	if len(pool) == 0 {
		return excluding
	}

	return pool[s.rng.Intn(len(pool))]
}
