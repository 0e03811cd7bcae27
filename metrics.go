// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import "time"

// Metrics is the timing and size record for one transport attempt.
// A request accumulates one Metrics value per attempt, index-aligned
// with its transport tasks: Metrics for attempt n describes task n.
type Metrics struct {
	// Attempt is the zero-based attempt number: zero for the initial
	// attempt, one for the first retry, and so on.
	Attempt int

	// Start and End bound the attempt, from the moment the transport
	// executor began work until it reported completion.
	Start time.Time
	End   time.Time

	// RequestBodyBytes is the size of the request body sent, and
	// ResponseBodyBytes the number of response body bytes received,
	// during this attempt.
	RequestBodyBytes  int64
	ResponseBodyBytes int64
}

// Duration returns the wall-clock duration of the attempt.
func (m Metrics) Duration() time.Duration {
	return m.End.Sub(m.Start)
}

// now is swapped out by tests that assert on timing.
var now = time.Now
