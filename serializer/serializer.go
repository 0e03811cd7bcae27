// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package serializer converts accumulated response bytes into typed
// values. Serializers are registered on a request and run strictly in
// registration order once all transport attempts have concluded; each
// serializer independently declares when an empty body is acceptable.
package serializer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flightlib/flight/descriptor"
)

// ErrEmptyBody is returned by the built-in serializers when the
// response body is empty and neither the request method nor the
// response status code permits an empty body.
var ErrEmptyBody = errors.New("flight/serializer: empty response body not allowed")

// A Serializer converts the state accumulated for one request into a
// value of type T.
//
// Serialize receives the final request descriptor (nil if descriptor
// construction failed), the last HTTP response (nil if no attempt got
// that far), the accumulated response body, and the request's terminal
// error. By convention a non-nil err is returned unchanged, so that
// completion handlers observe the request error rather than a
// downstream decoding artifact.
//
// Implementations of Serializer must be safe for concurrent use by
// multiple goroutines: one instance may be registered on many
// requests.
type Serializer[T any] interface {
	Serialize(d *descriptor.Descriptor, resp *http.Response, data []byte, err error) (T, error)
}

// Func is an adapter to allow the use of ordinary functions as
// serializers.
type Func[T any] func(d *descriptor.Descriptor, resp *http.Response, data []byte, err error) (T, error)

// Serialize calls f.
func (f Func[T]) Serialize(d *descriptor.Descriptor, resp *http.Response, data []byte, err error) (T, error) {
	return f(d, resp, data, err)
}

// Config declares when a serializer accepts an empty response body.
// An empty body is valid only if the request method is in
// EmptyRequestMethods or the response status code is in
// EmptyResponseCodes; otherwise decoding an empty body is an error,
// never silently treated as success.
type Config struct {
	// EmptyRequestMethods is the set of HTTP methods for which an
	// empty response body is acceptable regardless of status code.
	EmptyRequestMethods map[string]bool

	// EmptyResponseCodes is the set of response status codes for which
	// an empty response body is acceptable regardless of method.
	EmptyResponseCodes map[int]bool
}

// DefaultConfig returns the standard empty-body policy: HEAD requests,
// and 204 (No Content) and 205 (Reset Content) responses, may have
// empty bodies.
func DefaultConfig() Config {
	return Config{
		EmptyRequestMethods: map[string]bool{http.MethodHead: true},
		EmptyResponseCodes:  map[int]bool{204: true, 205: true},
	}
}

// AllowsEmpty reports whether the policy permits an empty body for the
// given descriptor and response, either of which may be nil.
func (c Config) AllowsEmpty(d *descriptor.Descriptor, resp *http.Response) bool {
	if d != nil && c.EmptyRequestMethods[d.Method] {
		return true
	}
	return resp != nil && c.EmptyResponseCodes[resp.StatusCode]
}

// A DataSerializer yields the raw response bytes.
type DataSerializer struct {
	Config
}

// Data returns a DataSerializer with the default empty-body policy.
func Data() *DataSerializer {
	return &DataSerializer{Config: DefaultConfig()}
}

// Serialize returns the accumulated bytes, or a zero-length slice when
// the empty-body policy permits an empty response.
func (s *DataSerializer) Serialize(d *descriptor.Descriptor, resp *http.Response, data []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		if !s.AllowsEmpty(d, resp) {
			return nil, ErrEmptyBody
		}
		return []byte{}, nil
	}
	return data, nil
}

// A StringSerializer decodes the response bytes as a UTF-8 string.
type StringSerializer struct {
	Config
}

// String returns a StringSerializer with the default empty-body
// policy.
func String() *StringSerializer {
	return &StringSerializer{Config: DefaultConfig()}
}

// Serialize returns the accumulated bytes as a string, or the empty
// string when the empty-body policy permits an empty response.
func (s *StringSerializer) Serialize(d *descriptor.Descriptor, resp *http.Response, data []byte, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if len(data) == 0 && !s.AllowsEmpty(d, resp) {
		return "", ErrEmptyBody
	}
	return string(data), nil
}

// A DecodeSerializer decodes the response bytes into a value of type T
// via a pluggable decode function, with an optional preprocessing step
// applied to the raw bytes first.
//
// When the body is empty and the empty-body policy permits it, the
// zero value of T is the designated empty sentinel: Decode is not
// invoked at all.
type DecodeSerializer[T any] struct {
	Config

	// Preprocess, if non-nil, transforms the raw bytes before Decode
	// runs, for example to strip a defensive JSON prefix or unwrap an
	// envelope.
	Preprocess func([]byte) ([]byte, error)

	// Decode converts the (preprocessed) bytes into a T.
	Decode func([]byte) (T, error)
}

// JSON returns a DecodeSerializer that unmarshals the response body
// into a T with encoding/json, using the default empty-body policy.
func JSON[T any]() *DecodeSerializer[T] {
	return &DecodeSerializer[T]{
		Config: DefaultConfig(),
		Decode: func(data []byte) (T, error) {
			var v T
			err := json.Unmarshal(data, &v)
			return v, err
		},
	}
}

// Serialize decodes the accumulated bytes into a T.
func (s *DecodeSerializer[T]) Serialize(d *descriptor.Descriptor, resp *http.Response, data []byte, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if s.Preprocess != nil {
		data, err = s.Preprocess(data)
		if err != nil {
			return zero, err
		}
	}
	if len(data) == 0 {
		if !s.AllowsEmpty(d, resp) {
			return zero, ErrEmptyBody
		}
		return zero, nil
	}
	return s.Decode(data)
}
