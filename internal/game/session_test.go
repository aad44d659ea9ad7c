package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/golazo/once-server-go/internal/formation"
	"github.com/golazo/once-server-go/internal/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testClubs = []string{"River Plate", "Boca Juniors", "Independiente", "Racing Club", "San Lorenzo", "Huracán",
	"Vélez Sarsfield", "Estudiantes", "Gimnasia", "Newell's", "Rosario Central", "Lanús"}

type stubDirectory struct {
	players map[string]Player
	err     error
}

func (d *stubDirectory) Lookup(_ context.Context, name string) (Player, error) {
	if d.err != nil {
		return Player{}, d.err
	}
	p, ok := d.players[name]
	if !ok {
		return Player{}, ErrPlayerNotFound
	}
	return p, nil
}

// blockingDirectory parks lookups until released, to exercise the
// single-flight guard.
type blockingDirectory struct {
	entered chan struct{}
	release chan struct{}
	player  Player
}

func (d *blockingDirectory) Lookup(ctx context.Context, _ string) (Player, error) {
	d.entered <- struct{}{}
	select {
	case <-d.release:
		return d.player, nil
	case <-ctx.Done():
		return Player{}, ctx.Err()
	}
}

type recordingSink struct {
	mu      sync.Mutex
	users   []string
	results []Result
	saved   chan struct{}
	err     error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{saved: make(chan struct{}, 8)}
}

func (s *recordingSink) SaveResult(_ context.Context, user string, result Result) error {
	s.mu.Lock()
	s.users = append(s.users, user)
	s.results = append(s.results, result)
	s.mu.Unlock()
	s.saved <- struct{}{}
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func newTestSession(t *testing.T, user string, directory PlayerDirectory, sink ResultSink) *Session {
	t.Helper()
	normalizer, err := roles.NewNormalizer(roles.DefaultTable(), zap.NewNop())
	require.NoError(t, err)
	if sink == nil {
		sink = newRecordingSink()
	}
	return newSession("test-session", user, formation.Default(), testClubs,
		rand.New(rand.NewSource(1)), normalizer, directory, sink, zap.NewNop())
}

// forceActiveClub pins the prompt club so submissions can be scripted.
func forceActiveClub(s *Session, clubName string) {
	s.mu.Lock()
	s.activeClub = clubName
	s.mu.Unlock()
}

func slotByID(t *testing.T, s *Session, id int) SlotView {
	t.Helper()
	for _, slot := range s.Snapshot().Slots {
		if slot.ID == id {
			return slot
		}
	}
	t.Fatalf("slot %d not found", id)
	return SlotView{}
}

func TestSubmitAutoFillsSingleEligibleSlot(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{
		"X": {Name: "X", Club: "River Plate", Position: "lateral izquierdo"},
	}}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "River Plate")

	out, err := s.Submit(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, out.Kind)
	assert.Equal(t, 1, out.SlotID) // the left-back slot in the default layout
	assert.NotEmpty(t, out.NextClub)
	assert.NotEqual(t, "River Plate", out.NextClub)

	lb := slotByID(t, s, 1)
	assert.True(t, lb.Filled)
	assert.Equal(t, "X", lb.Player)
	assert.Equal(t, "River Plate", lb.Club)
	assert.Contains(t, s.Snapshot().UsedClubs, "River Plate")
}

func TestSubmitAmbiguousThenResolve(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{
		"Y": {Name: "Y", Club: "Boca Juniors", Position: "defensor"},
	}}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "Boca Juniors")

	out, err := s.Submit(context.Background(), "Y")
	require.NoError(t, err)
	require.Equal(t, OutcomeAmbiguous, out.Kind)
	// defensor fans out to LB, CB, CB, RB — all four defensive slots empty.
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, out.Options)
	assert.Equal(t, StateAwaitingDisambiguation, s.CurrentState())

	// No mutation while pending.
	for _, id := range out.Options {
		assert.False(t, slotByID(t, s, id).Filled)
	}
	assert.Empty(t, s.Snapshot().UsedClubs)

	resolved, err := s.Resolve(4)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, resolved.Kind)
	assert.Equal(t, 4, resolved.SlotID)

	assert.True(t, slotByID(t, s, 4).Filled)
	assert.False(t, slotByID(t, s, 1).Filled)
	assert.Equal(t, StateAwaitingInput, s.CurrentState())
}

func TestResolveRejectsUnofferedSlot(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{
		"Y": {Name: "Y", Club: "Boca Juniors", Position: "defensor"},
	}}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "Boca Juniors")

	out, err := s.Submit(context.Background(), "Y")
	require.NoError(t, err)
	require.Equal(t, OutcomeAmbiguous, out.Kind)

	before := s.Snapshot()
	resolved, err := s.Resolve(10) // striker slot, never offered
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidChoice, resolved.Kind)

	after := s.Snapshot()
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Slots, after.Slots)
	assert.Equal(t, StateAwaitingDisambiguation, s.CurrentState())

	// The original offer is still resolvable.
	resolved, err = s.Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, resolved.Kind)
}

func TestResolveWithoutPendingDisambiguation(t *testing.T) {
	s := newTestSession(t, "", &stubDirectory{}, nil)

	out, err := s.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidChoice, out.Kind)
}

func TestCancelDisambiguationKeepsActiveClub(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{
		"Y": {Name: "Y", Club: "Boca Juniors", Position: "defensor"},
	}}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "Boca Juniors")

	out, err := s.Submit(context.Background(), "Y")
	require.NoError(t, err)
	require.Equal(t, OutcomeAmbiguous, out.Kind)

	cancelled := s.CancelDisambiguation()
	assert.Equal(t, OutcomeCancelled, cancelled.Kind)
	assert.Equal(t, "Boca Juniors", cancelled.NextClub)
	assert.Equal(t, StateAwaitingInput, s.CurrentState())
	assert.Equal(t, "Boca Juniors", s.ActiveClub())

	snap := s.Snapshot()
	assert.Zero(t, snap.FilledCount)
	assert.Empty(t, snap.UsedClubs)
}

func TestSubmitWrongClubSurfacesRealClub(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{
		"Z": {Name: "Z", Club: "Racing Club", Position: "arquero"},
	}}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "River Plate")

	out, err := s.Submit(context.Background(), "Z")
	require.NoError(t, err)
	assert.Equal(t, OutcomeWrongClub, out.Kind)
	assert.Equal(t, "Racing Club", out.Club)
	assert.Zero(t, s.Snapshot().FilledCount)
}

func TestSubmitClubAlreadyUsed(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{
		"A": {Name: "A", Club: "River Plate", Position: "arquero"},
		"B": {Name: "B", Club: "River Plate", Position: "delantero centro"},
	}}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "River Plate")

	out, err := s.Submit(context.Background(), "A")
	require.NoError(t, err)
	require.Equal(t, OutcomeAssigned, out.Kind)

	// River comes up again via the exhaustion fallback; the assignment
	// path still rejects it.
	forceActiveClub(s, "River Plate")
	before := s.Snapshot()

	out, err = s.Submit(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, OutcomeClubAlreadyUsed, out.Kind)
	assert.Equal(t, before.Slots, s.Snapshot().Slots)
}

func TestSubmitNoSlotAvailable(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{
		"GK1": {Name: "GK1", Club: "River Plate", Position: "arquero"},
		"GK2": {Name: "GK2", Club: "Boca Juniors", Position: "arquero"},
	}}
	s := newTestSession(t, "", dir, nil)

	forceActiveClub(s, "River Plate")
	out, err := s.Submit(context.Background(), "GK1")
	require.NoError(t, err)
	require.Equal(t, OutcomeAssigned, out.Kind)

	forceActiveClub(s, "Boca Juniors")
	out, err = s.Submit(context.Background(), "GK2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoSlotAvailable, out.Kind)
	assert.Equal(t, 1, s.Snapshot().FilledCount)
}

func TestSubmitPlayerNotFound(t *testing.T) {
	s := newTestSession(t, "", &stubDirectory{players: map[string]Player{}}, nil)

	out, err := s.Submit(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, OutcomePlayerNotFound, out.Kind)
}

func TestSubmitLookupInfrastructureFailure(t *testing.T) {
	dir := &stubDirectory{err: errors.New("connection refused")}
	s := newTestSession(t, "", dir, nil)

	_, err := s.Submit(context.Background(), "anyone")
	require.Error(t, err)

	// The guard must be released so the player can retry.
	dir.err = nil
	dir.players = map[string]Player{"X": {Name: "X", Club: s.ActiveClub(), Position: "arquero"}}
	out, err := s.Submit(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, out.Kind)
}

// completeSession drives a session to completion with one player per club,
// one per position. Returns the per-slot assignments.
func completeSession(t *testing.T, s *Session, dir *stubDirectory) []Outcome {
	t.Helper()

	positions := []string{"arquero", "lateral izquierdo", "defensor central", "defensor central",
		"lateral derecho", "volante de contencion", "mediocampista central", "volante izquierdo",
		"volante derecho", "enganche", "delantero centro"}

	// Two players sharing a position label need distinct eligible slots;
	// the second CB resolves the ambiguity explicitly.
	outcomes := make([]Outcome, 0, len(positions))
	for i, pos := range positions {
		name := testClubs[i] + " player"
		dir.players[name] = Player{Name: name, Club: testClubs[i], Position: pos}
		forceActiveClub(s, testClubs[i])

		out, err := s.Submit(context.Background(), name)
		require.NoError(t, err)

		if out.Kind == OutcomeAmbiguous {
			out, err = s.Resolve(out.Options[0])
			require.NoError(t, err)
		}
		require.Contains(t, []OutcomeKind{OutcomeAssigned, OutcomeCompleted}, out.Kind,
			"submission %d (%s) got %s", i, pos, out.Kind)
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func TestCompletionEmitsResultOnce(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{}}
	sink := newRecordingSink()
	s := newTestSession(t, "lionel", dir, sink)

	outcomes := completeSession(t, s, dir)

	last := outcomes[len(outcomes)-1]
	assert.Equal(t, OutcomeCompleted, last.Kind)
	assert.GreaterOrEqual(t, last.ElapsedSeconds, 0.0)
	assert.Equal(t, StateCompleted, s.CurrentState())

	select {
	case <-sink.saved:
	case <-time.After(2 * time.Second):
		t.Fatal("result was never emitted")
	}

	require.Equal(t, 1, sink.count())
	result := sink.results[0]
	assert.Equal(t, "lionel", sink.users[0])
	assert.Len(t, result.Roster, 11)
	assert.False(t, result.Timestamp.IsZero())
	assert.GreaterOrEqual(t, result.ElapsedSeconds, 0.0)

	// Uniqueness invariant: 11 distinct slots, 11 distinct clubs.
	slotIDs := make(map[int]bool)
	rosterClubs := make(map[string]bool)
	for _, entry := range result.Roster {
		assert.NotEmpty(t, entry.Player)
		assert.NotEmpty(t, entry.Role)
		slotIDs[entry.SlotID] = true
		rosterClubs[entry.Club] = true
	}
	assert.Len(t, slotIDs, 11)
	assert.Len(t, rosterClubs, 11)
}

func TestAnonymousSessionSkipsEmission(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{}}
	sink := newRecordingSink()
	s := newTestSession(t, "", dir, sink)

	completeSession(t, s, dir)
	assert.Equal(t, StateCompleted, s.CurrentState())

	select {
	case <-sink.saved:
		t.Fatal("anonymous session must not emit a result")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCompletedSessionIsIdempotent(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{}}
	s := newTestSession(t, "", dir, nil)

	completeSession(t, s, dir)
	before := s.Snapshot()

	for i := 0; i < 3; i++ {
		out, err := s.Submit(context.Background(), "River Plate player")
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyComplete, out.Kind)

		out, err = s.Resolve(0)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyComplete, out.Kind)

		cancelled := s.CancelDisambiguation()
		assert.Equal(t, OutcomeAlreadyComplete, cancelled.Kind)
	}

	after := s.Snapshot()
	assert.Equal(t, before.Slots, after.Slots)
	assert.Equal(t, before.UsedClubs, after.UsedClubs)
}

func TestConcurrentSubmitRejectedWhileLookupInFlight(t *testing.T) {
	dir := &blockingDirectory{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		player:  Player{Name: "X", Club: "River Plate", Position: "arquero"},
	}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "River Plate")

	type submitResult struct {
		out Outcome
		err error
	}
	first := make(chan submitResult, 1)
	go func() {
		out, err := s.Submit(context.Background(), "X")
		first <- submitResult{out, err}
	}()

	<-dir.entered // first lookup is now parked

	out, err := s.Submit(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmissionInProgress, out.Kind)

	close(dir.release)
	res := <-first
	require.NoError(t, res.err)
	assert.Equal(t, OutcomeAssigned, res.out.Kind)
}

func TestSubmitDuringDisambiguationRejected(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{
		"Y": {Name: "Y", Club: "Boca Juniors", Position: "defensor"},
	}}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "Boca Juniors")

	out, err := s.Submit(context.Background(), "Y")
	require.NoError(t, err)
	require.Equal(t, OutcomeAmbiguous, out.Kind)

	out, err = s.Submit(context.Background(), "Y")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmissionInProgress, out.Kind)
}

func TestResetDiscardsInFlightLookup(t *testing.T) {
	dir := &blockingDirectory{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		player:  Player{Name: "X", Club: "River Plate", Position: "arquero"},
	}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "River Plate")

	done := make(chan Outcome, 1)
	go func() {
		out, _ := s.Submit(context.Background(), "X")
		done <- out
	}()

	<-dir.entered
	s.Reset()
	close(dir.release)

	out := <-done
	assert.Equal(t, OutcomeDiscarded, out.Kind)

	snap := s.Snapshot()
	assert.Zero(t, snap.FilledCount)
	assert.Empty(t, snap.UsedClubs)
	assert.Equal(t, StateAwaitingInput, s.CurrentState())
}

func TestResetClearsStateAndRestartsClock(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{
		"X": {Name: "X", Club: "River Plate", Position: "arquero"},
	}}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "River Plate")

	out, err := s.Submit(context.Background(), "X")
	require.NoError(t, err)
	require.Equal(t, OutcomeAssigned, out.Kind)

	s.Reset()

	snap := s.Snapshot()
	assert.Zero(t, snap.FilledCount)
	assert.Empty(t, snap.UsedClubs)
	assert.NotEmpty(t, snap.ActiveClub)
	assert.Nil(t, snap.EndTime)
}

func TestUnknownPositionLabelFallsBackToDefaultRole(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{
		"X": {Name: "X", Club: "River Plate", Position: "libero"},
	}}
	s := newTestSession(t, "", dir, nil)
	forceActiveClub(s, "River Plate")

	out, err := s.Submit(context.Background(), "X")
	require.NoError(t, err)
	// The default role is CM; the default layout has exactly one CM slot.
	assert.Equal(t, OutcomeAssigned, out.Kind)
	assert.Equal(t, roles.RoleCenterMid.String(), slotByID(t, s, out.SlotID).Role)
}

func TestRoleMatchedSlotInvariant(t *testing.T) {
	dir := &stubDirectory{players: map[string]Player{}}
	s := newTestSession(t, "", dir, nil)

	completeSession(t, s, dir)

	normalizer, err := roles.NewNormalizer(roles.DefaultTable(), zap.NewNop())
	require.NoError(t, err)

	for _, slot := range s.Snapshot().Slots {
		require.True(t, slot.Filled)
		p := dir.players[slot.Player]
		set := normalizer.Normalize(p.Position)
		slotRole, parseErr := roles.Parse(slot.Role)
		require.NoError(t, parseErr)
		assert.Contains(t, set, slotRole,
			"slot %d (%s) filled by %q whose roles are %v", slot.ID, slot.Role, slot.Player, set)
	}
}
