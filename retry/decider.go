// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"time"

	"github.com/flightlib/flight"
	"github.com/flightlib/flight/transient"
)

// A Decider decides if a failed attempt should be retried, given the
// request and the error that failed it.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors Times, StatusCode, Before, and
// Idempotent, and the built-in decider TransientErr; or implement your
// own. Use DeciderFunc to convert an ordinary function into a Decider
// and to compose deciders logically with DeciderFunc.And and
// DeciderFunc.Or.
type Decider interface {
	Decide(r *flight.Request, err error) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface,
// and also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(r *flight.Request, err error) bool

// DefaultTimes is the number of times DefaultPolicy will retry.
const DefaultTimes = 5

// DefaultDecider is a general-purpose retry decider suitable for
// common use cases. It allows up to DefaultTimes retries, in the case
// of a transient error (TransientErr) or when a valid HTTP response
// was received carrying one of the status codes 429 (Too Many
// Requests), 502 (Bad Gateway), 503 (Service Unavailable), or 504
// (Gateway Timeout).
var DefaultDecider = Times(DefaultTimes).And(StatusCode(429, 502, 503, 504).Or(TransientErr))

// TransientErr is a decider that indicates a retry if the error that
// failed the attempt is transient according to transient.Categorize.
//
// TransientErr only looks at the error, so it returns false when the
// attempt failed on a valid HTTP response, for example a validation
// failure. Compose it with a StatusCode decider for more complex
// behavior.
var TransientErr DeciderFunc = transientErr

// Decide returns true if a retry should be done, and false otherwise.
func (f DeciderFunc) Decide(r *flight.Request, err error) bool {
	return f(r, err)
}

// And composes two retry deciders into a new decider which returns
// true if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(r *flight.Request, err error) bool {
		return f(r, err) && g(r, err)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(r *flight.Request, err error) bool {
		return f(r, err) || g(r, err)
	}
}

// Times constructs a retry decider which allows up to n retries. The
// returned decider returns true while the request's retry count is
// less than n, and false otherwise.
func Times(n int) DeciderFunc {
	return func(r *flight.Request, _ error) bool {
		return r.RetryCount() < n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the request's first transport
// attempt began.
func Before(d time.Duration) DeciderFunc {
	return func(r *flight.Request, _ error) bool {
		ms := r.AllMetrics()
		if len(ms) == 0 {
			return true
		}
		return time.Since(ms[0].Start) < d
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the most recent attempt received a
// valid HTTP response and its status code is contained in ss, the
// decider returns true. Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(r *flight.Request, _ error) bool {
		resp := r.LastResponse()
		if resp == nil {
			return false
		}
		for _, s := range ss2 {
			if resp.StatusCode == s {
				return true
			}
		}
		return false
	}
}

// Idempotent is a decider that indicates a retry only when the
// request's method is idempotent per RFC 9110: GET, HEAD, OPTIONS,
// TRACE, PUT, or DELETE.
var Idempotent DeciderFunc = idempotent

func idempotent(r *flight.Request, _ error) bool {
	d := r.LastDescriptor()
	if d == nil {
		return false
	}
	switch d.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions,
		http.MethodTrace, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

func transientErr(_ *flight.Request, err error) bool {
	return transient.Categorize(err) != transient.Not
}
