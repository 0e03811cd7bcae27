// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"time"

	"github.com/flightlib/flight/descriptor"
)

// An Adapter may rewrite an outgoing descriptor before it is handed to
// the transport executor, for example to attach a freshly fetched
// authorization token.
//
// Adapt is asynchronous: the adapter calls completion exactly once,
// from any goroutine, when it has produced the adapted descriptor or
// an error. The request does not block a thread while waiting.
//
// Implementations must be safe for concurrent invocation from many
// requests' coordination contexts simultaneously.
type Adapter interface {
	Adapt(d *descriptor.Descriptor, s *Session, completion func(*descriptor.Descriptor, error))
}

// The AdapterFunc type is an adapter to allow the use of ordinary
// functions as Adapters.
type AdapterFunc func(d *descriptor.Descriptor, s *Session, completion func(*descriptor.Descriptor, error))

// Adapt calls f(d, s, completion).
func (f AdapterFunc) Adapt(d *descriptor.Descriptor, s *Session, completion func(*descriptor.Descriptor, error)) {
	f(d, s, completion)
}

// A Retrier decides, after a failed attempt, whether and when the
// request should be re-attempted.
//
// Retry is asynchronous: the retrier calls completion exactly once
// with its decision. Implementations must be safe for concurrent
// invocation from many requests simultaneously.
type Retrier interface {
	Retry(r *Request, s *Session, err error, completion func(RetryDecision))
}

// The RetrierFunc type is an adapter to allow the use of ordinary
// functions as Retriers.
type RetrierFunc func(r *Request, s *Session, err error, completion func(RetryDecision))

// Retry calls f(r, s, err, completion).
func (f RetrierFunc) Retry(r *Request, s *Session, err error, completion func(RetryDecision)) {
	f(r, s, err, completion)
}

// An Interceptor combines request adaptation and retry policy. Attach
// one to a Session to apply it to every request, or to an individual
// Request to fully override the session's interceptor for that request
// (the two are never merged).
type Interceptor interface {
	Adapter
	Retrier
}

// A RetryDecision is the outcome of one retrier's Retry call.
//
// The zero value is DoNotRetry: this retrier has no objection to the
// failure standing, and the next retrier in the chain is consulted.
type RetryDecision struct {
	retry bool
	delay time.Duration
	err   error
}

// Retry decides the failed attempt should be re-attempted immediately.
func Retry() RetryDecision {
	return RetryDecision{retry: true}
}

// RetryWithDelay decides the failed attempt should be re-attempted
// after waiting d.
func RetryWithDelay(d time.Duration) RetryDecision {
	return RetryDecision{retry: true, delay: d}
}

// DoNotRetry passes the decision to the next retrier in the chain; if
// every retrier passes, the failure stands.
func DoNotRetry() RetryDecision {
	return RetryDecision{}
}

// DoNotRetryWithError short-circuits the retrier chain immediately and
// replaces the request's terminal error with err.
func DoNotRetryWithError(err error) RetryDecision {
	return RetryDecision{err: err}
}

// ShouldRetry reports whether the decision calls for another attempt.
func (d RetryDecision) ShouldRetry() bool { return d.retry }

// Delay returns the wait period before the next attempt, zero for an
// immediate retry.
func (d RetryDecision) Delay() time.Duration { return d.delay }

// ReplacementError returns the error that supersedes the request's
// recorded error, or nil.
func (d RetryDecision) ReplacementError() error { return d.err }

// decisive reports whether this decision ends the chain walk.
func (d RetryDecision) decisive() bool { return d.retry || d.err != nil }

// NewInterceptor composes adapter and retrier chains into a single
// Interceptor.
//
// Adapters run strictly in the given order, each receiving the
// descriptor produced by the previous one; the first failure
// short-circuits the whole chain. Retriers run strictly in the given
// order until the first decisive answer: the first retrier returning
// anything other than DoNotRetry determines the outcome and later
// retriers are not consulted.
//
// Interceptors passed in interceptors contribute both an adapter and a
// retrier, appended after the explicit adapters and retriers.
func NewInterceptor(adapters []Adapter, retriers []Retrier, interceptors ...Interceptor) Interceptor {
	c := &chainInterceptor{
		adapters: append([]Adapter(nil), adapters...),
		retriers: append([]Retrier(nil), retriers...),
	}
	for _, i := range interceptors {
		c.adapters = append(c.adapters, i)
		c.retriers = append(c.retriers, i)
	}
	return c
}

type chainInterceptor struct {
	adapters []Adapter
	retriers []Retrier
}

func (c *chainInterceptor) Adapt(d *descriptor.Descriptor, s *Session, completion func(*descriptor.Descriptor, error)) {
	c.adaptFrom(0, d, s, completion)
}

func (c *chainInterceptor) adaptFrom(i int, d *descriptor.Descriptor, s *Session, completion func(*descriptor.Descriptor, error)) {
	if i >= len(c.adapters) {
		completion(d, nil)
		return
	}
	c.adapters[i].Adapt(d, s, func(d2 *descriptor.Descriptor, err error) {
		if err != nil {
			completion(nil, err)
			return
		}
		c.adaptFrom(i+1, d2, s, completion)
	})
}

func (c *chainInterceptor) Retry(r *Request, s *Session, err error, completion func(RetryDecision)) {
	c.retryFrom(0, r, s, err, completion)
}

func (c *chainInterceptor) retryFrom(i int, r *Request, s *Session, err error, completion func(RetryDecision)) {
	if i >= len(c.retriers) {
		completion(DoNotRetry())
		return
	}
	c.retriers[i].Retry(r, s, err, func(d RetryDecision) {
		if d.decisive() {
			completion(d)
			return
		}
		c.retryFrom(i+1, r, s, err, completion)
	})
}

// PassthroughAdapter is an Adapter that returns the descriptor
// unchanged. Use it when composing an Interceptor that only needs a
// retrier.
var PassthroughAdapter Adapter = AdapterFunc(func(d *descriptor.Descriptor, _ *Session, completion func(*descriptor.Descriptor, error)) {
	completion(d, nil)
})
