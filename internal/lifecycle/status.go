package lifecycle

import (
	"fmt"

	"github.com/HendryAvila/stitch/internal/stitch"
)

// --- State machine for stitch lifecycle ---
//
// open is the only non-terminal status and may only move forward.
// Terminal statuses may move between each other to correct mistakes.
// Nothing ever moves back to open.

// transitions maps each status to the statuses it may move to.
var transitions = map[stitch.Status][]stitch.Status{
	stitch.StatusOpen:       {stitch.StatusClosed, stitch.StatusSuperseded, stitch.StatusAbandoned},
	stitch.StatusClosed:     {stitch.StatusSuperseded, stitch.StatusAbandoned},
	stitch.StatusSuperseded: {stitch.StatusClosed, stitch.StatusAbandoned},
	stitch.StatusAbandoned:  {stitch.StatusClosed, stitch.StatusSuperseded},
}

// AllowedTransitions returns the statuses reachable from from.
func AllowedTransitions(from stitch.Status) []stitch.Status {
	return append([]stitch.Status(nil), transitions[from]...)
}

// CanTransition reports whether from → to appears in the transition table.
func CanTransition(from, to stitch.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// checkFinish validates a finish of a document currently in from to the
// status to. Re-finishing with the status already applied is accepted
// (only the timestamp changes); the returned note says so.
func checkFinish(id string, from, to stitch.Status) (note string, err error) {
	if !to.IsTerminal() {
		return "", fmt.Errorf("%w: cannot finish %q as %q", ErrInvalidStatus, id, to)
	}
	if from == to {
		return fmt.Sprintf("stitch %s is already %s; only its timestamp is refreshed", id, to), nil
	}
	if !CanTransition(from, to) {
		return "", fmt.Errorf("%w: %q cannot move from %s to %s", ErrInvalidStatus, id, from, to)
	}
	return "", nil
}
