// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/flightlib/flight"
)

// A Waiter specifies how long to wait before retrying a failed
// attempt.
//
// Implementations of Waiter must be safe for concurrent use by
// multiple goroutines.
//
// A policy's Waiter is not consulted when its Decider declined the
// retry.
type Waiter interface {
	Wait(r *flight.Request) time.Duration
}

// DefaultWaiter is the default retry wait policy. It uses a jittered
// exponential backoff formula with a base wait of 50 milliseconds and
// a maximum wait of 1 second.
var DefaultWaiter = NewExpWaiter(50*time.Millisecond, 1*time.Second, time.Now())

// NewFixedWaiter constructs a Waiter that always returns the given
// duration.
//
// Use NewFixedWaiter to obtain a constant retry backoff.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *flight.Request) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter constructs a Waiter implementing an exponential backoff
// formula with optional jitter.
//
// The formula implemented is the "Full Jitter" approach described in:
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter.
//
// Parameters base and max control the exponential calculation of the
// ceiling:
//
//	ceil := max(base * 2**retryCount, max)
//
// Base and max must be positive values, and max must be at least equal
// to base.
//
// Parameter jitter is used to generate a random number between 0 and
// ceil. To make a waiter that does not jitter and simply returns ceil
// on each retry, pass nil for jitter. Otherwise you may specify either
// a random number generator seed value (as a time.Time, int, or int64)
// or a random number generator (as a rand.Source or *rand.Rand).
func NewExpWaiter(base, max time.Duration, jitter interface{}) Waiter {
	if base < 1 {
		panic("flight/retry: base must be positive")
	}
	if max < base {
		panic("flight/retry: max must be at least base")
	}
	r := jitterToRand(jitter)
	return &jitterExpWaiter{
		base: base,
		max:  max,
		rand: r,
	}
}

type jitterExpWaiter struct {
	base time.Duration
	max  time.Duration
	rand *rand.Rand
	lock sync.Mutex
}

func (w *jitterExpWaiter) Wait(r *flight.Request) time.Duration {
	exp := int64(1) << r.RetryCount()
	if exp < 1 {
		exp = 1<<63 - 1
	}

	ceil := int64(w.base) * exp
	if ceil < int64(w.base) || int64(w.max) < ceil {
		ceil = int64(w.max)
	}

	duration := ceil
	if ceil > 0 {
		w.lock.Lock()
		defer w.lock.Unlock()
		if w.rand != nil {
			duration = w.rand.Int63n(ceil)
		}
	}

	return time.Duration(duration)
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("flight/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("flight/retry: invalid jitter type")
	}
	return rand.New(s)
}
