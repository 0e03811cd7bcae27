// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"net/http"
	"time"

	"github.com/flightlib/flight/descriptor"
	"github.com/flightlib/flight/serializer"
)

// A DataResponse is the typed outcome delivered to one response
// completion. Each completion attached to a request receives its own
// DataResponse: a serializer failing for one completion does not
// disturb the values delivered to the others.
type DataResponse[T any] struct {
	// Descriptors holds every adapted descriptor the request sent, one
	// per attempt.
	Descriptors []*descriptor.Descriptor
	// Response is the final response received, nil when the request
	// failed before response headers arrived.
	Response *http.Response
	// Data is the raw response body.
	Data []byte
	// Metrics holds the timing record of every attempt.
	Metrics []Metrics
	// SerializationDuration is the time the serializer spent producing
	// Value.
	SerializationDuration time.Duration
	// Value is the serialized result, the zero value of T on failure.
	Value T
	// Err is the request error or the serializer's own failure, nil on
	// success.
	Err error
}

// Response attaches a typed response serializer to r. The serializer
// runs after the request finishes, on the serialization pass; its
// result is dispatched to completion on q (nil means Sync). It
// returns r for chaining.
//
// A serializer failure on an otherwise successful request consults the
// request's retry pipeline before the result is delivered.
func Response[T any](r *DataRequest, s serializer.Serializer[T], q Queue, completion func(DataResponse[T])) *DataRequest {
	if q == nil {
		q = Sync
	}
	req := &r.Request
	req.appendSerializer(func() {
		start := now()
		value, serr := s.Serialize(req.LastDescriptor(), req.LastResponse(), r.Data(), req.Error())
		elapsed := now().Sub(start)

		if serr != nil && req.Error() == nil && !isEngineError(serr) {
			serr = &SerializationError{Cause: serr}
		}
		resp := DataResponse[T]{
			Descriptors:           req.Descriptors(),
			Response:              req.LastResponse(),
			Data:                  r.Data(),
			Metrics:               req.AllMetrics(),
			SerializationDuration: elapsed,
			Value:                 value,
			Err:                   serr,
		}
		req.serializerDidComplete(serr, func() {
			q.Dispatch(func() { completion(resp) })
		})
	})
	return r
}

// ResponseData delivers the raw response body.
func ResponseData(r *DataRequest, q Queue, completion func(DataResponse[[]byte])) *DataRequest {
	return Response(r, serializer.Data(), q, completion)
}

// ResponseString delivers the response body decoded as a string.
func ResponseString(r *DataRequest, q Queue, completion func(DataResponse[string])) *DataRequest {
	return Response(r, serializer.String(), q, completion)
}

// ResponseJSON delivers the response body decoded from JSON into T.
func ResponseJSON[T any](r *DataRequest, q Queue, completion func(DataResponse[T])) *DataRequest {
	return Response(r, serializer.JSON[T](), q, completion)
}

// A DownloadResponse is the outcome delivered to a download
// completion.
type DownloadResponse struct {
	// Descriptors holds every adapted descriptor the request sent.
	Descriptors []*descriptor.Descriptor
	// Response is the final response received, nil when the request
	// failed before response headers arrived.
	Response *http.Response
	// FilePath is the final location of the downloaded file, empty on
	// failure.
	FilePath string
	// Metrics holds the timing record of every attempt.
	Metrics []Metrics
	// Err is the request error, nil on success.
	Err error
}

// ResponseFile attaches a completion to a download, delivered on q
// (nil means Sync) after the file has reached its destination.
func ResponseFile(r *DownloadRequest, q Queue, completion func(DownloadResponse)) *DownloadRequest {
	if q == nil {
		q = Sync
	}
	req := &r.Request
	req.appendSerializer(func() {
		resp := DownloadResponse{
			Descriptors: req.Descriptors(),
			Response:    req.LastResponse(),
			FilePath:    r.FilePath(),
			Metrics:     req.AllMetrics(),
			Err:         req.Error(),
		}
		req.serializerDidComplete(nil, func() {
			q.Dispatch(func() { completion(resp) })
		})
	})
	return r
}
