// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/flightlib/flight/descriptor"
	"github.com/flightlib/flight/timeout"
	"github.com/flightlib/flight/transport"
	"github.com/flightlib/flight/trust"
)

// A Session creates and coordinates requests. It owns the transport
// executor, the default interceptor and timeout policy, the event
// monitors, and the registry mapping in-flight transport tasks back to
// their requests.
//
// The zero value is a working session backed by a pooled TLS 1.2+
// http.Client; requests created on it must be resumed explicitly. Use
// NewSession for sessions that start requests as soon as a response
// handler is attached.
//
// Session fields must be set before the first request is created and
// not mutated afterwards.
type Session struct {
	// Executor turns descriptors into transport tasks. nil means the
	// built-in HTTPExecutor over a transport.New client.
	Executor TransportExecutor

	// Interceptor is the session-wide adapt/retry pipeline. A request
	// created with WithInterceptor fully overrides it.
	Interceptor Interceptor

	// Monitors receive every lifecycle event of every request created
	// by this session.
	Monitors *MonitorGroup

	// TimeoutPolicy decides each transport attempt's deadline. nil
	// means timeout.DefaultPolicy.
	TimeoutPolicy timeout.Policy

	// Redirect is the session default redirect handler, consulted
	// before each redirect hop of requests that have no handler of
	// their own.
	Redirect RedirectHandler

	// CachedResponse is the session default cached-response handler
	// for requests that have no handler of their own. It is only
	// consulted when Cache is non-nil.
	CachedResponse CachedResponseHandler

	// Cache stores successfully completed responses. nil disables
	// response caching entirely.
	Cache ResponseCache

	// Trust pins server certificates per host. Only consulted by the
	// built-in executor.
	Trust *trust.Manager

	// StartRequestsImmediately makes attaching the first response
	// handler resume the request, so callers never call Resume
	// explicitly.
	StartRequestsImmediately bool

	execOnce sync.Once
	exec     TransportExecutor

	regMu sync.Mutex
	reg   map[TaskHandle]*Request
}

// NewSession returns a session that starts requests immediately when a
// response handler is attached.
func NewSession() *Session {
	return &Session{StartRequestsImmediately: true}
}

var (
	defaultSessionOnce sync.Once
	defaultSession     *Session
)

// DefaultSession returns the shared session used by the package-level
// convenience functions.
func DefaultSession() *Session {
	defaultSessionOnce.Do(func() {
		defaultSession = NewSession()
	})
	return defaultSession
}

// Request creates a data request from a descriptor factory. The
// factory runs once per attempt, so adapters and retries always work
// from a fresh descriptor.
func (s *Session) Request(factory descriptor.Factory, opts ...RequestOption) *DataRequest {
	return newDataRequest(s, factory, opts)
}

// Get creates a GET data request for url.
func (s *Session) Get(url string, opts ...RequestOption) *DataRequest {
	return s.Request(func() (*descriptor.Descriptor, error) {
		return descriptor.New(http.MethodGet, url, nil)
	}, opts...)
}

// Post creates a POST data request for url carrying body with the
// given content type.
func (s *Session) Post(url, contentType string, body []byte, opts ...RequestOption) *DataRequest {
	return s.Request(func() (*descriptor.Descriptor, error) {
		d, err := descriptor.New(http.MethodPost, url, body)
		if err != nil {
			return nil, err
		}
		d.Header.Set("Content-Type", contentType)
		return d, nil
	}, opts...)
}

// PostForm creates a POST data request for u submitting form as
// application/x-www-form-urlencoded.
func (s *Session) PostForm(u string, form url.Values, opts ...RequestOption) *DataRequest {
	return s.Post(u, "application/x-www-form-urlencoded", []byte(form.Encode()), opts...)
}

// Download creates a download request. The response body streams to a
// temporary file and moves to the path chosen by dest on success.
func (s *Session) Download(factory descriptor.Factory, dest Destination, opts ...RequestOption) *DownloadRequest {
	return newDownloadRequest(s, factory, dest, opts)
}

// Upload creates an upload request sending u's payload as the body of
// method method to url.
func (s *Session) Upload(u Uploadable, method, url string, opts ...RequestOption) *UploadRequest {
	factory := func() (*descriptor.Descriptor, error) {
		return descriptor.New(method, url, nil)
	}
	return newUploadRequest(s, u, factory, opts)
}

// UploadWith creates an upload request from an explicit descriptor
// factory instead of a method and URL.
func (s *Session) UploadWith(u Uploadable, factory descriptor.Factory, opts ...RequestOption) *UploadRequest {
	return newUploadRequest(s, u, factory, opts)
}

func (s *Session) startImmediately() bool { return s.StartRequestsImmediately }

// monitor fans one lifecycle event out to the session's monitor group.
func (s *Session) monitor(evt Event, r *Request) {
	if s.Monitors != nil {
		s.Monitors.run(evt, r)
	}
}

func (s *Session) timeoutPolicy() timeout.Policy {
	if s.TimeoutPolicy != nil {
		return s.TimeoutPolicy
	}
	return timeout.DefaultPolicy
}

// executor resolves the transport executor, building the default one
// on first use.
func (s *Session) executor() TransportExecutor {
	if s.Executor != nil {
		return s.Executor
	}
	s.execOnce.Do(func() {
		client, err := transport.New(transport.DefaultConfig())
		if err != nil {
			client = http.DefaultClient
		}
		s.exec = &HTTPExecutor{Doer: client, Trust: s.Trust}
	})
	return s.exec
}

// createTask asks the executor for a transport task wired to the
// session's task registry, so every transport callback finds its way
// back to the owning request.
func (s *Session) createTask(r *Request, ctx context.Context, d *descriptor.Descriptor) TaskHandle {
	cb := TaskCallbacks{
		OnSendProgress: func(task TaskHandle, sent, total int64) {
			if req := s.requestFor(task); req != nil {
				req.taskDidSendBodyData(sent, total)
			}
		},
		OnRedirect: func(task TaskHandle, d *descriptor.Descriptor, via *http.Response) *descriptor.Descriptor {
			if req := s.requestFor(task); req != nil {
				return req.taskDidRedirect(d, via)
			}
			return d
		},
		OnResponse: func(task TaskHandle, resp *http.Response) Disposition {
			if req := s.requestFor(task); req != nil {
				return req.taskDidReceiveResponse(resp)
			}
			return DispositionCancel
		},
		OnData: func(task TaskHandle, chunk []byte) {
			if req := s.requestFor(task); req != nil {
				req.taskDidReceiveData(chunk)
			}
		},
		OnMetrics: func(task TaskHandle, m Metrics) {
			if req := s.requestFor(task); req != nil {
				req.taskDidCollectMetrics(task, m)
			}
		},
		OnComplete: func(task TaskHandle, err error) {
			if req := s.requestFor(task); req != nil {
				req.taskDidComplete(err)
			}
		},
	}
	task := s.executor().CreateTask(ctx, d, cb)
	s.register(task, r)
	return task
}

func (s *Session) register(task TaskHandle, r *Request) {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	if s.reg == nil {
		s.reg = make(map[TaskHandle]*Request)
	}
	s.reg[task] = r
}

// release drops one task from the registry, silencing its callbacks.
func (s *Session) release(task TaskHandle) {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	delete(s.reg, task)
}

// unregister drops every task owned by r.
func (s *Session) unregister(r *Request) {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	for task, owner := range s.reg {
		if owner == r {
			delete(s.reg, task)
		}
	}
}

func (s *Session) requestFor(task TaskHandle) *Request {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	return s.reg[task]
}

// ActiveRequests returns the requests with at least one registered
// transport task.
func (s *Session) ActiveRequests() []*Request {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	seen := make(map[*Request]bool, len(s.reg))
	var out []*Request
	for _, r := range s.reg {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// CancelAll cancels every request with a registered transport task.
func (s *Session) CancelAll() {
	for _, r := range s.ActiveRequests() {
		r.Cancel()
	}
}
