// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies transport-level errors by their
// prospects of success on retry. The flight retry policy uses this
// classification to decide whether a failed attempt is worth repeating.
package transient

import (
	"errors"
	"syscall"
)

// A Category is the transience category of a particular error, as
// reported by Categorize.
//
// The category Not means a retry after encountering this error is very
// unlikely to succeed. Every other category means a retry has some
// prospect of success.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout. The server may be going
	// through a temporary period of slowness, or the client may
	// succeed on a future attempt by waiting longer.
	//
	// Categorize returns Timeout if the error or any of its wrapped
	// causes has a Timeout() method that reports true.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (POSIX ECONNREFUSED).
	//
	// Refusal can be a permanent condition, but it also happens while
	// a service on the remote host is starting or restarting and not
	// yet listening on its port, so it is classified as transient.
	ConnRefused
	// ConnReset indicates the remote host sent an RST on a previously
	// active TCP connection (POSIX ECONNRESET).
	//
	// Resets are common when a service is torn down mid-response or
	// when a load balancer recycles backends, and tend to indicate a
	// high probability of success on retry.
	ConnReset
)

// Categorize returns the transience category of the given error. A nil
// error, and an error with no prospect of success on retry, both
// produce Not.
//
// Categorize examines wrapped causes within err, not just err itself.
// It never consults a Temporary() method, as the semantics of
// Temporary() are not well defined.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		}
	}

	return Not
}

// Retryable reports whether err belongs to any transient category.
func Retryable(err error) bool {
	return Categorize(err) != Not
}
