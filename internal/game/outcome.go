package game

import "fmt"

// OutcomeKind classifies the result of a Submit, Resolve, or
// CancelDisambiguation call. Game outcomes are values, not errors; the Go
// error return of those methods is reserved for infrastructure failures.
type OutcomeKind int

const (
	// OutcomeAssigned: the candidate was placed into exactly one slot and
	// the session moved on to the next prompt club.
	OutcomeAssigned OutcomeKind = iota
	// OutcomeCompleted: the candidate filled the final empty slot.
	OutcomeCompleted
	// OutcomeAmbiguous: more than one empty slot fits the candidate; the
	// session is awaiting an explicit choice among Options.
	OutcomeAmbiguous
	// OutcomeCancelled: a pending disambiguation was abandoned.
	OutcomeCancelled

	OutcomePlayerNotFound
	OutcomeWrongClub
	OutcomeClubAlreadyUsed
	OutcomeNoSlotAvailable
	OutcomeInvalidChoice
	OutcomeSubmissionInProgress
	OutcomeAlreadyComplete

	// OutcomeDiscarded: the session was reset while the directory lookup
	// was in flight; the result was thrown away without mutating state.
	OutcomeDiscarded
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeAssigned:             "ASSIGNED",
	OutcomeCompleted:            "COMPLETED",
	OutcomeAmbiguous:            "AMBIGUOUS_CHOICE",
	OutcomeCancelled:            "CANCELLED",
	OutcomePlayerNotFound:       "PLAYER_NOT_FOUND",
	OutcomeWrongClub:            "WRONG_CLUB",
	OutcomeClubAlreadyUsed:      "CLUB_ALREADY_USED",
	OutcomeNoSlotAvailable:      "NO_SLOT_AVAILABLE",
	OutcomeInvalidChoice:        "INVALID_CHOICE",
	OutcomeSubmissionInProgress: "SUBMISSION_IN_PROGRESS",
	OutcomeAlreadyComplete:      "ALREADY_COMPLETE",
	OutcomeDiscarded:            "DISCARDED",
}

func (k OutcomeKind) String() string {
	if name, ok := outcomeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OUTCOME_%d", int(k))
}

// Outcome is the typed result of an engine operation. Only the fields
// relevant to Kind are populated.
type Outcome struct {
	Kind OutcomeKind

	// SlotID is the slot that was filled (Assigned, Completed).
	SlotID int
	// Player is the canonical name of the assigned player.
	Player string
	// Club is the assigned player's club, or the candidate's real club on
	// WrongClub, surfaced as a hint.
	Club string
	// Options lists the eligible slot IDs offered for disambiguation.
	Options []int
	// NextClub is the new active prompt club after an assignment.
	NextClub string
	// ElapsedSeconds is set on Completed.
	ElapsedSeconds float64
}
