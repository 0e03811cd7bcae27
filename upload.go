// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"io"
	"os"

	"github.com/flightlib/flight/descriptor"
)

// An Uploadable supplies the request body for an UploadRequest. The
// payload is produced once per attempt, so retries of a file upload
// re-read the file rather than replaying a stale buffer.
type Uploadable interface {
	Payload() ([]byte, error)
}

type bytesUploadable []byte

func (u bytesUploadable) Payload() ([]byte, error) {
	return []byte(u), nil
}

// UploadBytes uploads an in-memory payload.
func UploadBytes(b []byte) Uploadable { return bytesUploadable(b) }

type fileUploadable string

func (u fileUploadable) Payload() ([]byte, error) {
	return os.ReadFile(string(u))
}

// UploadFile uploads the contents of the file at path, read fresh on
// every attempt.
func UploadFile(path string) Uploadable { return fileUploadable(path) }

type readerUploadable struct {
	r io.Reader
}

func (u readerUploadable) Payload() ([]byte, error) {
	return io.ReadAll(u.r)
}

// UploadReader uploads everything read from r. The reader is drained
// on the first attempt only, so retries replay the captured payload;
// prefer UploadFile or UploadBytes when retries must see fresh data.
func UploadReader(r io.Reader) Uploadable {
	return &replayUploadable{inner: readerUploadable{r: r}}
}

// replayUploadable caches the first successful payload so a one-shot
// reader can survive retries.
type replayUploadable struct {
	inner    Uploadable
	captured []byte
	read     bool
}

func (u *replayUploadable) Payload() ([]byte, error) {
	if u.read {
		return u.captured, nil
	}
	b, err := u.inner.Payload()
	if err != nil {
		return nil, err
	}
	u.captured = b
	u.read = true
	return b, nil
}

// An UploadRequest sends a caller-supplied body and accumulates the
// response in memory like a DataRequest.
type UploadRequest struct {
	DataRequest

	uploadable Uploadable
}

func newUploadRequest(s *Session, u Uploadable, factory descriptor.Factory, opts []RequestOption) *UploadRequest {
	r := &UploadRequest{uploadable: u}
	wrapped := func() (*descriptor.Descriptor, error) {
		d, err := factory()
		if err != nil {
			return nil, err
		}
		body, err := u.Payload()
		if err != nil {
			return nil, err
		}
		d.Body = body
		return d, nil
	}
	initRequest(&r.Request, s, wrapped, opts)
	r.hooks = r
	return r
}

// Chainable wrappers preserving the concrete type.

// Resume starts or restarts the upload.
func (r *UploadRequest) Resume() *UploadRequest { r.Request.Resume(); return r }

// Suspend pauses the upload.
func (r *UploadRequest) Suspend() *UploadRequest { r.Request.Suspend(); return r }

// Cancel aborts the upload.
func (r *UploadRequest) Cancel() *UploadRequest { r.Request.Cancel(); return r }

// Authenticate attaches HTTP basic credentials.
func (r *UploadRequest) Authenticate(username, password string) *UploadRequest {
	r.Request.Authenticate(username, password)
	return r
}

// Validate appends response validators; see Request.Validate.
func (r *UploadRequest) Validate(validations ...Validation) *UploadRequest {
	r.Request.Validate(validations...)
	return r
}

// Redirect installs the request's redirect handler.
func (r *UploadRequest) Redirect(h RedirectHandler) *UploadRequest {
	r.Request.Redirect(h)
	return r
}

// OnUploadProgress registers an upload progress handler.
func (r *UploadRequest) OnUploadProgress(q Queue, f func(completed, total int64)) *UploadRequest {
	r.Request.OnUploadProgress(q, f)
	return r
}
