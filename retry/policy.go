// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/flightlib/flight"
)

// A Policy composes a Decider and a Waiter into a flight.Retrier:
// when the decider approves a retry, the request is re-attempted after
// the waiter's delay; otherwise the decision passes to the next
// retrier in the chain.
//
// Implementations of Policy's components must be safe for concurrent
// use by multiple goroutines.
type Policy interface {
	Decider
	Waiter
	flight.Retrier
}

// DefaultPolicy is a general-purpose retry policy suitable for common
// use cases. It is a composition of DefaultDecider for retry decisions
// and DefaultWaiter for wait time calculations.
var DefaultPolicy Policy = policy{DefaultDecider, DefaultWaiter}

// Never is a policy that never retries. It is useful when composing an
// interceptor that should adapt requests but leave every failure
// standing.
var Never Policy = policy{Times(0), DefaultWaiter}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(r *flight.Request, err error) bool {
	return p.decider.Decide(r, err)
}

func (p policy) Wait(r *flight.Request) time.Duration {
	return p.waiter.Wait(r)
}

// Retry implements flight.Retrier.
func (p policy) Retry(r *flight.Request, _ *flight.Session, err error, completion func(flight.RetryDecision)) {
	if !p.decider.Decide(r, err) {
		completion(flight.DoNotRetry())
		return
	}
	completion(flight.RetryWithDelay(p.waiter.Wait(r)))
}
