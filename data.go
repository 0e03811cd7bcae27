// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"net/http"
	"sync"

	"github.com/flightlib/flight/descriptor"
)

// A DataRequest accumulates its response body in memory. It is the
// variant behind Session.Request and the HTTP verb conveniences.
type DataRequest struct {
	Request

	dataMu sync.Mutex
	data   []byte
}

func newDataRequest(s *Session, factory descriptor.Factory, opts []RequestOption) *DataRequest {
	r := &DataRequest{}
	initRequest(&r.Request, s, factory, opts)
	r.hooks = r
	return r
}

// Data returns the response body accumulated so far.
func (r *DataRequest) Data() []byte {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	return append([]byte(nil), r.data...)
}

func (r *DataRequest) didReceiveData(chunk []byte) {
	r.dataMu.Lock()
	r.data = append(r.data, chunk...)
	r.dataMu.Unlock()
}

func (r *DataRequest) resetAttemptState() {
	r.dataMu.Lock()
	r.data = nil
	r.dataMu.Unlock()
}

func (r *DataRequest) attemptDidComplete(*http.Response, error) error { return nil }

func (r *DataRequest) validationBody() []byte {
	r.dataMu.Lock()
	defer r.dataMu.Unlock()
	return r.data
}

// Chainable wrappers preserving the concrete type.

// Resume starts or restarts the request.
func (r *DataRequest) Resume() *DataRequest { r.Request.Resume(); return r }

// Suspend pauses the request.
func (r *DataRequest) Suspend() *DataRequest { r.Request.Suspend(); return r }

// Cancel aborts the request.
func (r *DataRequest) Cancel() *DataRequest { r.Request.Cancel(); return r }

// Authenticate attaches HTTP basic credentials.
func (r *DataRequest) Authenticate(username, password string) *DataRequest {
	r.Request.Authenticate(username, password)
	return r
}

// Validate appends response validators; see Request.Validate.
func (r *DataRequest) Validate(validations ...Validation) *DataRequest {
	r.Request.Validate(validations...)
	return r
}

// Redirect installs the request's redirect handler.
func (r *DataRequest) Redirect(h RedirectHandler) *DataRequest {
	r.Request.Redirect(h)
	return r
}

// CachedResponse installs the request's cached-response handler.
func (r *DataRequest) CachedResponse(h CachedResponseHandler) *DataRequest {
	r.Request.CachedResponse(h)
	return r
}

// OnUploadProgress registers an upload progress handler.
func (r *DataRequest) OnUploadProgress(q Queue, f func(completed, total int64)) *DataRequest {
	r.Request.OnUploadProgress(q, f)
	return r
}

// OnDownloadProgress registers a download progress handler.
func (r *DataRequest) OnDownloadProgress(q Queue, f func(completed, total int64)) *DataRequest {
	r.Request.OnDownloadProgress(q, f)
	return r
}
