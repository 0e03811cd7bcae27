// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout provides per-attempt timeout policies for the flight
// request engine. A policy decides the context deadline set on each
// transport attempt, including retries.
package timeout

import "time"

// A Policy decides how long each transport attempt within a request
// may run before it is timed out.
//
// Implementations of Policy must be safe for concurrent use by
// multiple goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the next transport attempt.
	//
	// Parameter timeouts is the count of attempts within the request
	// that have already timed out, and lastTimedOut reports whether the
	// immediately preceding attempt ended in a timeout (false before
	// the first attempt).
	Timeout(timeouts int, lastTimedOut bool) time.Duration
}

// DefaultPolicy is the default timeout policy. It sets a fixed timeout
// of 5 seconds on each attempt.
var DefaultPolicy Policy = Fixed(5 * time.Second)

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value for every
// attempt timeout.
//
// Use Fixed to create the typical timeout behavior supported by most
// retrying HTTP client software.
func Fixed(d time.Duration) Policy {
	return policy([]time.Duration{d})
}

// Adaptive constructs a timeout policy that varies the next timeout
// value if the previous attempt timed out.
//
// Use Adaptive if the remote service often exhibits one-off slow
// response times that can be cured by quickly timing out and retrying,
// but you also need to protect your application (and the remote
// service) from retry storms when the service goes through a burst of
// slowness where most response times are slower than your usual quick
// timeout.
//
// Parameter usual is the timeout returned for an initial attempt and
// for any retry whose immediately preceding attempt did not time out.
//
// Parameter after contains timeout values returned when the previous
// attempt timed out: after[0] following the request's first timeout,
// after[1] following the second, and so on, with the last element
// repeating once exhausted.
//
// Consider the following timeout policy:
//
//	p := timeout.Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
//
// The policy p uses 200 milliseconds as the usual timeout. If the
// preceding attempt timed out and it was the first timeout of the
// request, p uses 1 second; on later timeouts, 10 seconds.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	p := make([]time.Duration, 1, 1+len(after))
	p[0] = usual
	return policy(append(p, after...))
}

type policy []time.Duration

func (p policy) Timeout(timeouts int, lastTimedOut bool) time.Duration {
	if !lastTimedOut {
		return p[0]
	}

	i := timeouts
	if i > len(p)-1 {
		i = len(p) - 1
	}

	return p[i]
}
