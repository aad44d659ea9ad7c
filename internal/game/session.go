package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/golazo/once-server-go/internal/club"
	"github.com/golazo/once-server-go/internal/formation"
	"github.com/golazo/once-server-go/internal/roles"
	"go.uber.org/zap"
)

// State represents the session state machine.
type State int

const (
	StateAwaitingInput State = iota
	StateAwaitingDisambiguation
	StateCompleted
)

var stateNames = map[State]string{
	StateAwaitingInput:          "AWAITING_INPUT",
	StateAwaitingDisambiguation: "AWAITING_DISAMBIGUATION",
	StateCompleted:              "COMPLETED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE_%d", int(s))
}

const emitTimeout = 5 * time.Second

type slotState struct {
	def    formation.Slot
	filled bool
	player string
	club   string
}

// Session owns the 11 slots, the used-club set, timing, and the state
// machine that sequences submissions. All methods are safe for concurrent
// use; Submit additionally enforces a single-flight guard so overlapping
// lookups cannot double-fill a slot.
type Session struct {
	ID   string
	User string // empty for anonymous play; anonymous sessions skip result emission

	mu         sync.Mutex
	state      State
	layout     formation.Layout
	slots      []slotState
	usedClubs  map[string]bool
	activeClub string
	allClubs   []string

	startTime time.Time
	endTime   time.Time

	// Disambiguation hold: the verified candidate and the slot IDs offered.
	pendingPlayer  Player
	pendingOptions []int

	// Single-flight guard. generation invalidates lookups that were in
	// flight when the session was reset.
	inFlight   bool
	generation uint64

	selector   *club.Selector
	normalizer *roles.Normalizer
	directory  PlayerDirectory
	sink       ResultSink
	logger     *zap.Logger
}

func newSession(id, user string, layout formation.Layout, allClubs []string, rng *rand.Rand,
	normalizer *roles.Normalizer, directory PlayerDirectory, sink ResultSink, logger *zap.Logger) *Session {

	s := &Session{
		ID:         id,
		User:       user,
		layout:     layout,
		allClubs:   allClubs,
		usedClubs:  make(map[string]bool),
		selector:   club.NewFromRand(rng),
		normalizer: normalizer,
		directory:  directory,
		sink:       sink,
		logger:     logger,
	}
	s.slots = make([]slotState, len(layout.Slots))
	for i, def := range layout.Slots {
		s.slots[i] = slotState{def: def}
	}
	s.startTime = time.Now()
	s.activeClub = s.selector.PickNext(allClubs, nil, "")
	return s
}

// Submit resolves candidateName against the player directory and runs the
// assignment algorithm. Game outcomes come back as an Outcome; the error
// return is reserved for infrastructure failures (lookup transport, ctx
// cancellation), which leave the session unchanged and retryable.
func (s *Session) Submit(ctx context.Context, candidateName string) (Outcome, error) {
	s.mu.Lock()
	switch {
	case s.state == StateCompleted:
		s.mu.Unlock()
		return Outcome{Kind: OutcomeAlreadyComplete}, nil
	case s.state == StateAwaitingDisambiguation:
		// A held candidate is an in-flight submission awaiting Resolve.
		s.mu.Unlock()
		return Outcome{Kind: OutcomeSubmissionInProgress}, nil
	case s.inFlight:
		s.mu.Unlock()
		return Outcome{Kind: OutcomeSubmissionInProgress}, nil
	}
	s.inFlight = true
	gen := s.generation
	s.mu.Unlock()

	// Sole asynchronous boundary. Everything after runs under the lock.
	candidate, lookupErr := s.directory.Lookup(ctx, candidateName)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		// Session was reset while the lookup was pending; the guard was
		// already released by Reset. Discard without mutating.
		return Outcome{Kind: OutcomeDiscarded}, nil
	}
	s.inFlight = false

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrPlayerNotFound) {
			return Outcome{Kind: OutcomePlayerNotFound}, nil
		}
		return Outcome{}, fmt.Errorf("player directory lookup: %w", lookupErr)
	}

	if s.state == StateCompleted {
		return Outcome{Kind: OutcomeAlreadyComplete}, nil
	}

	if candidate.Club != s.activeClub {
		return Outcome{Kind: OutcomeWrongClub, Player: candidate.Name, Club: candidate.Club}, nil
	}

	if s.usedClubs[candidate.Club] {
		return Outcome{Kind: OutcomeClubAlreadyUsed, Club: candidate.Club}, nil
	}

	candidateRoles := s.normalizer.Normalize(candidate.Position)
	roleSet := make(map[roles.Role]bool, len(candidateRoles))
	for _, r := range candidateRoles {
		roleSet[r] = true
	}

	var eligible []int
	for i, slot := range s.slots {
		if !slot.filled && roleSet[slot.def.Role] {
			eligible = append(eligible, i)
		}
	}

	switch len(eligible) {
	case 0:
		return Outcome{Kind: OutcomeNoSlotAvailable}, nil
	case 1:
		return s.assignLocked(eligible[0], candidate), nil
	default:
		options := make([]int, len(eligible))
		for i, idx := range eligible {
			options[i] = s.slots[idx].def.ID
		}
		s.pendingPlayer = candidate
		s.pendingOptions = options
		s.state = StateAwaitingDisambiguation
		return Outcome{Kind: OutcomeAmbiguous, Player: candidate.Name, Options: options}, nil
	}
}

// Resolve finalizes a pending disambiguation by slot ID. The ID must be one
// of the options offered by the most recent AmbiguousChoice; anything else
// is InvalidChoice and leaves state unchanged.
func (s *Session) Resolve(slotID int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCompleted {
		return Outcome{Kind: OutcomeAlreadyComplete}, nil
	}
	if s.state != StateAwaitingDisambiguation {
		return Outcome{Kind: OutcomeInvalidChoice}, nil
	}

	offered := false
	for _, id := range s.pendingOptions {
		if id == slotID {
			offered = true
			break
		}
	}
	if !offered {
		return Outcome{Kind: OutcomeInvalidChoice, Options: s.pendingOptions}, nil
	}

	for i, slot := range s.slots {
		if slot.def.ID == slotID {
			return s.assignLocked(i, s.pendingPlayer), nil
		}
	}
	// Offered IDs always come from the layout, so this is unreachable.
	return Outcome{Kind: OutcomeInvalidChoice}, nil
}

// CancelDisambiguation abandons a held candidate and returns to
// AwaitingInput, re-prompting the same active club. Slots are untouched.
func (s *Session) CancelDisambiguation() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCompleted {
		return Outcome{Kind: OutcomeAlreadyComplete}
	}

	s.pendingPlayer = Player{}
	s.pendingOptions = nil
	s.state = StateAwaitingInput
	return Outcome{Kind: OutcomeCancelled, NextClub: s.activeClub}
}

// Reset restarts the session in place: slots emptied, clocks restarted, a
// fresh first club chosen. Any lookup in flight at reset time is discarded
// when it lands.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.inFlight = false
	s.state = StateAwaitingInput
	s.pendingPlayer = Player{}
	s.pendingOptions = nil
	s.usedClubs = make(map[string]bool)
	for i := range s.slots {
		s.slots[i].filled = false
		s.slots[i].player = ""
		s.slots[i].club = ""
	}
	s.startTime = time.Now()
	s.endTime = time.Time{}
	s.activeClub = s.selector.PickNext(s.allClubs, nil, "")
}

// assignLocked marks the chosen slot filled, records the club, clears any
// pending disambiguation, and either completes the session or advances to
// the next prompt club. Caller holds s.mu.
func (s *Session) assignLocked(slotIdx int, candidate Player) Outcome {
	slot := &s.slots[slotIdx]
	slot.filled = true
	slot.player = candidate.Name
	slot.club = candidate.Club

	s.usedClubs[candidate.Club] = true
	s.pendingPlayer = Player{}
	s.pendingOptions = nil

	for _, st := range s.slots {
		if !st.filled {
			s.state = StateAwaitingInput
			s.activeClub = s.selector.PickNext(s.allClubs, s.usedClubsLocked(), s.activeClub)
			return Outcome{
				Kind:     OutcomeAssigned,
				SlotID:   slot.def.ID,
				Player:   candidate.Name,
				Club:     candidate.Club,
				NextClub: s.activeClub,
			}
		}
	}

	s.state = StateCompleted
	s.endTime = time.Now()
	elapsed := s.endTime.Sub(s.startTime).Seconds()

	result := s.buildResultLocked(elapsed)
	if s.User == "" {
		s.logger.Debug("anonymous session completed, skipping result emission",
			zap.String("session_id", s.ID),
		)
	} else {
		go s.emitResult(result)
	}

	s.logger.Info("session completed",
		zap.String("session_id", s.ID),
		zap.Float64("elapsed_seconds", elapsed),
	)

	return Outcome{
		Kind:           OutcomeCompleted,
		SlotID:         slot.def.ID,
		Player:         candidate.Name,
		Club:           candidate.Club,
		ElapsedSeconds: elapsed,
	}
}

func (s *Session) usedClubsLocked() []string {
	used := make([]string, 0, len(s.usedClubs))
	for c := range s.usedClubs {
		used = append(used, c)
	}
	return used
}

func (s *Session) buildResultLocked(elapsed float64) Result {
	roster := make([]RosterEntry, 0, len(s.slots))
	for _, slot := range s.slots {
		roster = append(roster, RosterEntry{
			SlotID: slot.def.ID,
			Role:   slot.def.Role.String(),
			Player: slot.player,
			Club:   slot.club,
		})
	}
	return Result{
		Timestamp:      s.endTime,
		ElapsedSeconds: elapsed,
		Formation:      s.layout.Name,
		Roster:         roster,
	}
}

// emitResult is fire-and-forget: one attempt, no retry, failure logged.
func (s *Session) emitResult(result Result) {
	ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
	defer cancel()

	if err := s.sink.SaveResult(ctx, s.User, result); err != nil {
		s.logger.Warn("failed to persist session result",
			zap.String("session_id", s.ID),
			zap.String("user", s.User),
			zap.Error(err),
		)
	}
}

// SlotView is a read-only view of one slot.
type SlotView struct {
	ID     int    `json:"id"`
	Role   string `json:"role"`
	Filled bool   `json:"filled"`
	Player string `json:"player,omitempty"`
	Club   string `json:"club,omitempty"`
}

// Snapshot is a consistent read-only view of the session for external use.
type Snapshot struct {
	ID             string     `json:"id"`
	User           string     `json:"user,omitempty"`
	State          string     `json:"state"`
	Formation      string     `json:"formation"`
	ActiveClub     string     `json:"activeClub"`
	Slots          []SlotView `json:"slots"`
	UsedClubs      []string   `json:"usedClubs"`
	PendingOptions []int      `json:"pendingOptions,omitempty"`
	FilledCount    int        `json:"filledCount"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make([]SlotView, 0, len(s.slots))
	filled := 0
	for _, slot := range s.slots {
		if slot.filled {
			filled++
		}
		slots = append(slots, SlotView{
			ID:     slot.def.ID,
			Role:   slot.def.Role.String(),
			Filled: slot.filled,
			Player: slot.player,
			Club:   slot.club,
		})
	}

	used := s.usedClubsLocked()
	sort.Strings(used)

	snap := Snapshot{
		ID:             s.ID,
		User:           s.User,
		State:          s.state.String(),
		Formation:      s.layout.Name,
		ActiveClub:     s.activeClub,
		Slots:          slots,
		UsedClubs:      used,
		FilledCount:    filled,
		StartTime:      s.startTime,
		PendingOptions: append([]int(nil), s.pendingOptions...),
	}
	if !s.endTime.IsZero() {
		end := s.endTime
		snap.EndTime = &end
	}
	return snap
}

// CurrentState returns the current state machine state.
func (s *Session) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ActiveClub returns the club currently being prompted.
func (s *Session) ActiveClub() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeClub
}
