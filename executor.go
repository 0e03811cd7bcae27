// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/flightlib/flight/descriptor"
	"github.com/flightlib/flight/trust"
)

// Disposition is a callback's verdict on whether a task should
// continue.
type Disposition int

const (
	// DispositionAllow lets the task proceed.
	DispositionAllow Disposition = iota
	// DispositionCancel aborts the task. The task still reports
	// completion through OnComplete.
	DispositionCancel
)

// TaskCallbacks carries the callbacks a transport executor invokes as
// a task progresses. Every callback identifies its task so a single
// receiver can serve many concurrent tasks. Nil callbacks are skipped.
//
// The executor must invoke OnComplete exactly once per task, last,
// regardless of how the task ends.
type TaskCallbacks struct {
	// OnSendProgress reports cumulative request body bytes sent.
	OnSendProgress func(task TaskHandle, sent, total int64)
	// OnRedirect is consulted before following a redirect. Returning
	// a non-nil descriptor follows the rewritten target; returning nil
	// stops and delivers the redirect response itself.
	OnRedirect func(task TaskHandle, d *descriptor.Descriptor, via *http.Response) *descriptor.Descriptor
	// OnResponse is consulted when response headers arrive.
	OnResponse func(task TaskHandle, resp *http.Response) Disposition
	// OnData delivers a chunk of response body. The slice is only
	// valid for the duration of the call.
	OnData func(task TaskHandle, chunk []byte)
	// OnMetrics delivers the attempt's timing and size record, after
	// the attempt's network activity ends and before OnComplete.
	OnMetrics func(task TaskHandle, m Metrics)
	// OnComplete reports the task's end with its terminal error, nil
	// on success.
	OnComplete func(task TaskHandle, err error)
}

// A TaskHandle controls one transport attempt. Handles are created
// suspended; the caller resumes them to start network activity.
type TaskHandle interface {
	// Resume starts or continues the task. Resuming a completed task
	// has no effect.
	Resume()
	// Suspend pauses the task if the executor supports pausing;
	// otherwise it is a no-op.
	Suspend()
	// Cancel aborts the task. OnComplete is still invoked.
	Cancel()
	// CancelWithResumeData aborts the task and passes whatever
	// opaque resume token the executor can produce to f, which may
	// receive nil when no resumption is possible.
	CancelWithResumeData(f func([]byte))
	// Completed reports whether OnComplete has been invoked.
	Completed() bool
}

// A TransportExecutor turns descriptors into transport tasks. It is
// the seam between the request lifecycle and the wire: tests and
// alternative transports implement it in place of HTTPExecutor.
type TransportExecutor interface {
	CreateTask(ctx context.Context, d *descriptor.Descriptor, cb TaskCallbacks) TaskHandle
}

// HTTPDoer is the interface of the stdlib *http.Client consumed by
// HTTPExecutor.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// executorChunkSize is the read granularity for response bodies.
const executorChunkSize = 32 * 1024

// HTTPExecutor is the default TransportExecutor, running each task as
// one net/http round trip on its own goroutine.
//
// Transport notes. Suspend is a no-op once a round trip is in flight;
// net/http cannot pause a transfer. CancelWithResumeData always
// produces nil resume data. Redirect interception through OnRedirect
// is honored only when Doer is a *http.Client, by running the task on
// a shallow copy of the client with its own CheckRedirect; other Doer
// implementations follow their own redirect policy.
type HTTPExecutor struct {
	// Doer performs round trips. nil means http.DefaultClient.
	Doer HTTPDoer
	// Trust evaluates server certificates per host after the
	// connection is established. nil skips evaluation.
	Trust *trust.Manager
	// ChunkSize overrides the response body read granularity. Zero
	// means 32 KiB.
	ChunkSize int
}

// CreateTask implements TransportExecutor.
func (e *HTTPExecutor) CreateTask(ctx context.Context, d *descriptor.Descriptor, cb TaskCallbacks) TaskHandle {
	ctx, cancel := context.WithCancel(ctx)
	t := &httpTask{
		exec:   e,
		desc:   d,
		cb:     cb,
		ctx:    ctx,
		cancel: cancel,
	}
	return t
}

type httpTask struct {
	exec   *HTTPExecutor
	desc   *descriptor.Descriptor
	cb     TaskCallbacks
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	started   bool
	completed bool
}

func (t *httpTask) Resume() {
	t.mu.Lock()
	if t.started || t.completed {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()
	go t.run()
}

func (t *httpTask) Suspend() {}

func (t *httpTask) Cancel() {
	t.mu.Lock()
	started, completed := t.started, t.completed
	t.mu.Unlock()
	if completed {
		return
	}
	t.cancel()
	if !started {
		// The run goroutine will never exist, so completion must be
		// synthesized here.
		t.complete(Metrics{}, context.Canceled)
	}
}

func (t *httpTask) CancelWithResumeData(f func([]byte)) {
	t.Cancel()
	if f != nil {
		f(nil)
	}
}

func (t *httpTask) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// complete delivers metrics and invokes OnComplete, at most once.
func (t *httpTask) complete(m Metrics, err error) {
	t.mu.Lock()
	if t.completed {
		t.mu.Unlock()
		return
	}
	t.completed = true
	t.mu.Unlock()
	if t.cb.OnMetrics != nil {
		t.cb.OnMetrics(t, m)
	}
	if t.cb.OnComplete != nil {
		t.cb.OnComplete(t, err)
	}
}

func (t *httpTask) run() {
	var m Metrics
	m.Start = now()
	defer func() { t.cancel() }()

	req := t.desc.ToRequest(t.ctx)
	if len(t.desc.Body) > 0 {
		total := int64(len(t.desc.Body))
		m.RequestBodyBytes = total
		body := &progressReader{
			r:     bytes.NewReader(t.desc.Body),
			total: total,
			report: func(sent, total int64) {
				if t.cb.OnSendProgress != nil {
					t.cb.OnSendProgress(t, sent, total)
				}
			},
		}
		req.Body = io.NopCloser(body)
		req.GetBody = nil
	}

	resp, err := t.doer().Do(req)
	if err != nil {
		m.End = now()
		t.complete(m, err)
		return
	}
	defer resp.Body.Close()

	if t.exec.Trust != nil && resp.TLS != nil {
		host := req.URL.Hostname()
		if terr := t.exec.Trust.Evaluate(host, resp.TLS); terr != nil {
			m.End = now()
			t.complete(m, &TrustError{Host: host, Cause: terr})
			return
		}
	}

	if t.cb.OnResponse != nil {
		if t.cb.OnResponse(t, resp) == DispositionCancel {
			m.End = now()
			t.complete(m, context.Canceled)
			return
		}
	}

	chunk := make([]byte, t.chunkSize())
	for {
		n, rerr := resp.Body.Read(chunk)
		if n > 0 {
			m.ResponseBodyBytes += int64(n)
			if t.cb.OnData != nil {
				t.cb.OnData(t, chunk[:n])
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			m.End = now()
			t.complete(m, rerr)
			return
		}
	}
	m.End = now()
	t.complete(m, nil)
}

// doer resolves the round tripper for this task, wrapping redirect
// interception around a *http.Client when requested.
func (t *httpTask) doer() HTTPDoer {
	d := t.exec.Doer
	if d == nil {
		d = http.DefaultClient
	}
	client, ok := d.(*http.Client)
	if !ok || t.cb.OnRedirect == nil {
		return d
	}
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		next := descriptor.FromRequest(req)
		rewritten := t.cb.OnRedirect(t, next, req.Response)
		if rewritten == nil {
			return http.ErrUseLastResponse
		}
		if rewritten != next {
			req.Method = rewritten.Method
			req.URL = rewritten.URL
			req.Header = rewritten.Header
			req.Host = rewritten.Host
		}
		return nil
	}
	return &c
}

func (t *httpTask) chunkSize() int {
	if t.exec.ChunkSize > 0 {
		return t.exec.ChunkSize
	}
	return executorChunkSize
}

// progressReader reports cumulative bytes read from the wrapped
// reader.
type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.report != nil {
			p.report(p.sent, p.total)
		}
	}
	return n, err
}
