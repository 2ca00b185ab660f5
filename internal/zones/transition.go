package zones

import "time"

// Step is the outcome of one reconciliation decision: the state the zone
// should be in, whether that is a change, and whether the zone's
// last-online stamp should be refreshed. The scheduler applies the side
// effects; this file performs no I/O.
type Step struct {
	Next        State
	Changed     bool
	TouchOnline bool
}

// Commands returns the control-channel command set realizing the step's
// state for z. The set is idempotent: applying it twice leaves the
// in-game zone exactly as applying it once.
func (s Step) Commands(z *Zone) []string {
	return stateCommands(z, s.Next)
}

// Transition computes the next lifecycle state from the current state,
// whether any owning-team member is online, and how long the zone has
// been in its current state.
//
//	pending → active   team confirmed online
//	active  → offline  team fully offline
//	offline → active   any member back before the grace window closes
//	offline → expired  grace window elapsed, team still offline
//
// Expired is terminal here; physical removal belongs to the cleanup
// loop. A pending zone waits indefinitely for its first confirmed
// presence rather than promoting on a timer, so a claim placed while
// its owner is disconnecting never activates unattended.
func Transition(current State, teamOnline bool, sinceChange, grace time.Duration) Step {
	switch current {
	case StatePending:
		if teamOnline {
			return Step{Next: StateActive, Changed: true, TouchOnline: true}
		}
		return Step{Next: StatePending}

	case StateActive:
		if !teamOnline {
			return Step{Next: StateOffline, Changed: true}
		}
		return Step{Next: StateActive, TouchOnline: true}

	case StateOffline:
		if teamOnline {
			return Step{Next: StateActive, Changed: true, TouchOnline: true}
		}
		if sinceChange >= grace {
			return Step{Next: StateExpired, Changed: true}
		}
		return Step{Next: StateOffline}

	case StateExpired:
		return Step{Next: StateExpired}
	}

	// Unknown states are left untouched; storage reconciliation will
	// surface them.
	return Step{Next: current}
}
