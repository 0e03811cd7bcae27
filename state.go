// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

// A State identifies where a Request is in its lifecycle. State is
// per-request, not per-attempt: a request that retries five times
// passes through Resumed once, not five times.
type State int

const (
	// Initialized is the starting state of every request. No transport
	// task exists yet.
	Initialized State = iota
	// Resumed indicates the request is actively executing, or will
	// execute as soon as a transport attempt can be created.
	Resumed
	// Suspended indicates the request, and its current transport task
	// if any, are paused.
	Suspended
	// Cancelled is absorbing: once cancelled, a request never moves to
	// any other state, although its serializer pipeline and cleanup
	// handlers still run to completion.
	Cancelled
	// Finished indicates all transport attempts and response
	// serializers have completed. Appending a new response serializer
	// to a finished request re-opens it (moves it back to Resumed).
	Finished
)

var stateNames = []string{
	"Initialized",
	"Resumed",
	"Suspended",
	"Cancelled",
	"Finished",
}

// String returns the name of the state.
func (s State) String() string {
	if 0 <= int(s) && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// canTransition reports whether a request in state s may move to state
// to. Illegal transitions are silent no-ops at the call sites, never
// panics: Resume on a resumed request, or Cancel on a cancelled one,
// simply does nothing.
//
// The Finished to Resumed re-open transition is excluded here; it is
// permitted only on the serializer-append path, which performs it
// explicitly.
func (s State) canTransition(to State) bool {
	switch s {
	case Initialized:
		return to == Resumed || to == Suspended || to == Cancelled || to == Finished
	case Resumed:
		return to == Suspended || to == Cancelled || to == Finished
	case Suspended:
		return to == Resumed || to == Cancelled || to == Finished
	case Cancelled, Finished:
		return false
	default:
		return false
	}
}
