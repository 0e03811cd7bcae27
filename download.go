// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/flightlib/flight/descriptor"
)

// A Destination decides the final path of a downloaded file, given the
// temporary file the body was streamed into and the final response.
// Returning an error fails the request.
type Destination func(tempPath string, resp *http.Response) (string, error)

// SuggestedDestination stores downloads under dir, named after the
// last path element of the request URL, or the server's suggested
// filename from Content-Disposition when present.
func SuggestedDestination(dir string) Destination {
	return func(tempPath string, resp *http.Response) (string, error) {
		name := "download"
		if resp != nil {
			if cd := resp.Header.Get("Content-Disposition"); cd != "" {
				if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
					name = filepath.Base(params["filename"])
				}
			}
			if name == "download" && resp.Request != nil && resp.Request.URL != nil {
				if base := filepath.Base(resp.Request.URL.Path); base != "." && base != "/" {
					name = base
				}
			}
		}
		return filepath.Join(dir, name), nil
	}
}

// A DownloadRequest streams its response body to a temporary file and
// moves it to the caller's destination when the final attempt
// succeeds. The body is never held in memory.
type DownloadRequest struct {
	Request

	destination Destination

	fileMu   sync.Mutex
	tempFile *os.File
	fileErr  error
	filePath string
}

func newDownloadRequest(s *Session, factory descriptor.Factory, dest Destination, opts []RequestOption) *DownloadRequest {
	r := &DownloadRequest{destination: dest}
	initRequest(&r.Request, s, factory, opts)
	r.hooks = r
	return r
}

// FilePath returns the final path of the downloaded file, empty until
// the download has completed successfully.
func (r *DownloadRequest) FilePath() string {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()
	return r.filePath
}

func (r *DownloadRequest) didReceiveData(chunk []byte) {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()
	if r.fileErr != nil {
		return
	}
	if r.tempFile == nil {
		f, err := os.CreateTemp("", "flight-download-*")
		if err != nil {
			r.fileErr = err
			return
		}
		r.tempFile = f
	}
	if _, err := r.tempFile.Write(chunk); err != nil {
		r.fileErr = err
		r.discardTempLocked()
	}
}

func (r *DownloadRequest) resetAttemptState() {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()
	r.discardTempLocked()
	r.fileErr = nil
	r.filePath = ""
}

func (r *DownloadRequest) discardTempLocked() {
	if r.tempFile == nil {
		return
	}
	name := r.tempFile.Name()
	r.tempFile.Close()
	os.Remove(name)
	r.tempFile = nil
}

// attemptDidComplete moves the streamed body to its destination on a
// successful final attempt and discards the temporary file otherwise.
func (r *DownloadRequest) attemptDidComplete(resp *http.Response, taskErr error) error {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	if taskErr != nil {
		r.discardTempLocked()
		return nil
	}
	if r.fileErr != nil {
		r.discardTempLocked()
		return &TransportError{Cause: r.fileErr}
	}
	if r.tempFile == nil {
		// Empty body; nothing was streamed.
		f, err := os.CreateTemp("", "flight-download-*")
		if err != nil {
			return &TransportError{Cause: err}
		}
		r.tempFile = f
	}
	temp := r.tempFile.Name()
	if err := r.tempFile.Close(); err != nil {
		r.tempFile = nil
		return &TransportError{Cause: err}
	}
	r.tempFile = nil

	dest := temp
	if r.destination != nil {
		d, err := r.destination(temp, resp)
		if err != nil {
			os.Remove(temp)
			return &SerializationError{Cause: err}
		}
		if err := os.MkdirAll(filepath.Dir(d), 0o755); err != nil {
			os.Remove(temp)
			return &TransportError{Cause: err}
		}
		if err := os.Rename(temp, d); err != nil {
			os.Remove(temp)
			return &TransportError{Cause: err}
		}
		dest = d
	}
	r.filePath = dest
	return nil
}

func (r *DownloadRequest) validationBody() []byte { return nil }

// CancelWithResumeData aborts the download and hands whatever resume
// token the transport can produce to completion, which may receive
// nil. The bundled HTTP executor cannot produce resume data; the hook
// exists for executors that can.
func (r *DownloadRequest) CancelWithResumeData(completion func([]byte)) *DownloadRequest {
	r.mu.Lock()
	if !r.state.canTransition(Cancelled) {
		r.mu.Unlock()
		if completion != nil {
			completion(nil)
		}
		return r
	}
	r.state = Cancelled
	if r.err == nil {
		r.err = ErrExplicitlyCancelled
	}
	task := r.currentTaskLocked()
	r.mu.Unlock()

	r.session.monitor(RequestCancelled, &r.Request)
	if task != nil {
		task.Resume()
		task.CancelWithResumeData(completion)
	} else {
		if completion != nil {
			completion(nil)
		}
		r.finish(nil)
	}
	return r
}

// Chainable wrappers preserving the concrete type.

// Resume starts or restarts the download.
func (r *DownloadRequest) Resume() *DownloadRequest { r.Request.Resume(); return r }

// Suspend pauses the download.
func (r *DownloadRequest) Suspend() *DownloadRequest { r.Request.Suspend(); return r }

// Cancel aborts the download and discards the temporary file.
func (r *DownloadRequest) Cancel() *DownloadRequest { r.Request.Cancel(); return r }

// Authenticate attaches HTTP basic credentials.
func (r *DownloadRequest) Authenticate(username, password string) *DownloadRequest {
	r.Request.Authenticate(username, password)
	return r
}

// Validate appends response validators; see Request.Validate.
func (r *DownloadRequest) Validate(validations ...Validation) *DownloadRequest {
	r.Request.Validate(validations...)
	return r
}

// Redirect installs the request's redirect handler.
func (r *DownloadRequest) Redirect(h RedirectHandler) *DownloadRequest {
	r.Request.Redirect(h)
	return r
}

// OnDownloadProgress registers a download progress handler.
func (r *DownloadRequest) OnDownloadProgress(q Queue, f func(completed, total int64)) *DownloadRequest {
	r.Request.OnDownloadProgress(q, f)
	return r
}
