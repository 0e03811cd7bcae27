// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides composable retry policies for the flight
// request engine.
//
// A policy is built from a Decider, which decides whether a failed
// attempt should be retried, and a Waiter, which decides how long to
// wait before the next attempt. NewPolicy composes the two into a
// flight.Retrier ready to hang off a session or request interceptor:
//
//	s := flight.NewSession()
//	s.Interceptor = flight.NewInterceptor(nil, []flight.Retrier{
//		retry.DefaultPolicy,
//	})
package retry
