// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

// An Event identifies the event type when installing or running an
// EventMonitor. Install event monitors in a Session to observe the
// lifecycle of every request it issues.
type Event int

const (
	// RequestCreated identifies the event that occurs when the
	// request's factory produces the initial descriptor, on the first
	// attempt only.
	RequestCreated Event = iota
	// RequestResumed identifies the event that occurs after a request
	// legally transitions to Resumed, before the transport attempt
	// starts or resumes.
	RequestResumed
	// RequestAdapted identifies the event that occurs after the
	// adapter chain produced the final descriptor for an attempt.
	//
	// RequestAdapted does not fire for attempts made without an
	// interceptor, nor when adaptation fails; an adaptation failure
	// surfaces through AttemptEnded on the failed attempt.
	RequestAdapted
	// AttemptStarted identifies the event that occurs after a
	// transport task has been created and resumed for an attempt.
	AttemptStarted
	// ResponseReceived identifies the event that occurs when response
	// headers arrive for the current attempt, before the body is
	// streamed.
	ResponseReceived
	// AttemptEnded identifies the event that occurs after a transport
	// attempt concludes and the validator chain has run, regardless of
	// outcome, and before the retry pipeline is consulted.
	AttemptEnded
	// RequestRetried identifies the event that occurs when the retry
	// pipeline decides to re-attempt, before the retry wait period.
	RequestRetried
	// RequestSuspended identifies the event that occurs after a
	// request legally transitions to Suspended.
	RequestSuspended
	// RequestCancelled identifies the event that occurs after a
	// request legally transitions to Cancelled. The request still runs
	// its serializer pipeline and cleanup handlers afterward.
	RequestCancelled
	// RequestFinished identifies the event that occurs after the
	// serializer pipeline completes and cleanup handlers have fired.
	RequestFinished
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of event types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"RequestCreated",
	"RequestResumed",
	"RequestAdapted",
	"AttemptStarted",
	"ResponseReceived",
	"AttemptEnded",
	"RequestRetried",
	"RequestSuspended",
	"RequestCancelled",
	"RequestFinished",
}

// Events returns a slice containing all events which can occur during
// a request lifecycle, in declaration order.
func Events() []Event {
	return []Event{
		RequestCreated,
		RequestResumed,
		RequestAdapted,
		AttemptStarted,
		ResponseReceived,
		AttemptEnded,
		RequestRetried,
		RequestSuspended,
		RequestCancelled,
		RequestFinished,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
