// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flightlib/flight/transient"
)

// ErrExplicitlyCancelled is recorded on a request when Cancel is
// called before any other error was recorded. It is never retried.
var ErrExplicitlyCancelled = errors.New("flight: request explicitly cancelled")

// An InvalidRequestError indicates the descriptor factory failed
// before any network activity. It is always terminal and never
// consults the retry pipeline.
type InvalidRequestError struct {
	Cause error
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("flight: invalid request: %v", e.Cause)
}

func (e *InvalidRequestError) Unwrap() error { return e.Cause }

// An AdaptationError indicates an adapter in the interceptor chain
// rejected the outgoing descriptor. The attempt fails without reaching
// the transport executor, but the retry pipeline is still consulted.
type AdaptationError struct {
	Cause error
}

func (e *AdaptationError) Error() string {
	return fmt.Sprintf("flight: request adaptation failed: %v", e.Cause)
}

func (e *AdaptationError) Unwrap() error { return e.Cause }

// A TransportError indicates the transport executor reported a
// network-level failure: timeout, connectivity, TLS. It is eligible
// for retry; use the transient package to classify the cause.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("flight: transport failed: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Timeout reports whether the underlying transport failure was a
// timeout.
func (e *TransportError) Timeout() bool {
	return transient.Categorize(e.Cause) == transient.Timeout
}

// A ValidationReason identifies which check a ValidationError came
// from.
type ValidationReason int

const (
	// UnacceptableStatusCode indicates the response status code fell
	// outside the accepted range.
	UnacceptableStatusCode ValidationReason = iota
	// UnacceptableContentType indicates the response content type is
	// not compatible with the request's declared accept types.
	UnacceptableContentType
	// CustomValidation indicates a caller-supplied validator rejected
	// the response.
	CustomValidation
)

// A ValidationError indicates a validator rejected an otherwise
// successful response.
type ValidationError struct {
	Reason ValidationReason

	// StatusCode is the offending status code when Reason is
	// UnacceptableStatusCode, and AcceptedCodes the explicitly
	// accepted codes when a finite set was supplied.
	StatusCode    int
	AcceptedCodes []int

	// ContentType is the offending response content type, and Accepted
	// the request's declared accept types, when Reason is
	// UnacceptableContentType.
	ContentType string
	Accepted    []string

	// Cause is the caller-supplied validator error when Reason is
	// CustomValidation.
	Cause error
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case UnacceptableStatusCode:
		return fmt.Sprintf("flight: response validation failed: unacceptable status code %d", e.StatusCode)
	case UnacceptableContentType:
		return fmt.Sprintf("flight: response validation failed: content type %q does not match accepted types [%s]",
			e.ContentType, strings.Join(e.Accepted, ", "))
	default:
		return fmt.Sprintf("flight: response validation failed: %v", e.Cause)
	}
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// A SerializationError indicates a specific response serializer's
// decode step failed. Other serializers attached to the same request
// are unaffected unless a retry is triggered.
type SerializationError struct {
	Cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("flight: response serialization failed: %v", e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

// A TrustError indicates the server trust evaluator rejected the
// connection. It is an early, non-retryable failure path.
type TrustError struct {
	Host  string
	Cause error
}

func (e *TrustError) Error() string {
	return fmt.Sprintf("flight: server trust evaluation failed for host %q: %v", e.Host, e.Cause)
}

func (e *TrustError) Unwrap() error { return e.Cause }

// IsCancellation reports whether err records an explicit cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrExplicitlyCancelled)
}

// isEngineError reports whether err already carries one of the engine
// error kinds, in which case it is recorded on requests verbatim
// rather than wrapped a second time.
func isEngineError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrExplicitlyCancelled) {
		return true
	}
	var (
		invalid   *InvalidRequestError
		adapt     *AdaptationError
		transport *TransportError
		validate  *ValidationError
		serialize *SerializationError
		tr        *TrustError
	)
	return errors.As(err, &invalid) ||
		errors.As(err, &adapt) ||
		errors.As(err, &transport) ||
		errors.As(err, &validate) ||
		errors.As(err, &serialize) ||
		errors.As(err, &tr)
}

// isTerminal reports whether err must never be retried regardless of
// policy: invalid descriptors, explicit cancellation, and trust
// failures all bypass the retry pipeline.
func isTerminal(err error) bool {
	if errors.Is(err, ErrExplicitlyCancelled) {
		return true
	}
	var (
		invalid *InvalidRequestError
		tr      *TrustError
	)
	return errors.As(err, &invalid) || errors.As(err, &tr)
}
