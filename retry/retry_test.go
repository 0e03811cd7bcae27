// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlib/flight"
	"github.com/flightlib/flight/descriptor"
)

// stubExecutor fails every attempt with err when err is non-nil, and
// otherwise answers every attempt with the scripted status code.
type stubExecutor struct {
	status int
	err    error
	tasks  int
}

func (e *stubExecutor) CreateTask(_ context.Context, _ *descriptor.Descriptor, cb flight.TaskCallbacks) flight.TaskHandle {
	e.tasks++
	return &stubTask{exec: e, cb: cb}
}

type stubTask struct {
	exec      *stubExecutor
	cb        flight.TaskCallbacks
	completed bool
}

func (t *stubTask) Resume() {
	if t.completed {
		return
	}
	t.completed = true
	if t.exec.err != nil {
		t.cb.OnMetrics(t, flight.Metrics{Start: time.Now(), End: time.Now()})
		t.cb.OnComplete(t, t.exec.err)
		return
	}
	resp := &http.Response{StatusCode: t.exec.status, Header: make(http.Header)}
	if t.cb.OnResponse != nil {
		t.cb.OnResponse(t, resp)
	}
	t.cb.OnMetrics(t, flight.Metrics{Start: time.Now(), End: time.Now()})
	t.cb.OnComplete(t, nil)
}

func (t *stubTask) Suspend() {}

func (t *stubTask) Cancel() { t.completed = true }

func (t *stubTask) CancelWithResumeData(f func([]byte)) {
	t.Cancel()
	if f != nil {
		f(nil)
	}
}
func (t *stubTask) Completed() bool { return t.completed }

// finishedRequest runs one request to completion against the stub and
// returns it.
func finishedRequest(t *testing.T, method string, exec *stubExecutor) *flight.Request {
	t.Helper()
	s := &flight.Session{Executor: exec}
	r := flight.ResponseData(s.Request(func() (*descriptor.Descriptor, error) {
		return descriptor.New(method, "http://example.com/x", nil)
	}), nil, func(flight.DataResponse[[]byte]) {})
	r.Resume()
	done := make(chan struct{})
	r.Cleanup(func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("request never finished")
	}
	return &r.Request
}

func TestTimes(t *testing.T) {
	r := finishedRequest(t, "GET", &stubExecutor{status: 200})
	assert.True(t, Times(1).Decide(r, nil))
	assert.False(t, Times(0).Decide(r, nil))
}

func TestStatusCode(t *testing.T) {
	r := finishedRequest(t, "GET", &stubExecutor{status: 503})
	assert.True(t, StatusCode(429, 503).Decide(r, nil))
	assert.False(t, StatusCode(404).Decide(r, nil))

	noResp := finishedRequest(t, "GET", &stubExecutor{err: errors.New("reset")})
	assert.False(t, StatusCode(503).Decide(noResp, nil))
}

func TestTransientErr(t *testing.T) {
	assert.True(t, TransientErr.Decide(nil, context.DeadlineExceeded))
	assert.False(t, TransientErr.Decide(nil, errors.New("validation failed")))
	assert.False(t, TransientErr.Decide(nil, nil))
}

func TestIdempotent(t *testing.T) {
	get := finishedRequest(t, "GET", &stubExecutor{status: 200})
	assert.True(t, Idempotent.Decide(get, nil))

	post := finishedRequest(t, "POST", &stubExecutor{status: 200})
	assert.False(t, Idempotent.Decide(post, nil))
}

func TestBefore(t *testing.T) {
	r := finishedRequest(t, "GET", &stubExecutor{status: 200})
	assert.True(t, Before(time.Hour).Decide(r, nil))
	assert.False(t, Before(-time.Second).Decide(r, nil))
}

func TestDeciderComposition(t *testing.T) {
	r := finishedRequest(t, "GET", &stubExecutor{status: 503})
	yes := DeciderFunc(func(*flight.Request, error) bool { return true })
	no := DeciderFunc(func(*flight.Request, error) bool { return false })

	assert.True(t, yes.And(yes).Decide(r, nil))
	assert.False(t, yes.And(no).Decide(r, nil))
	assert.True(t, no.Or(yes).Decide(r, nil))
	assert.False(t, no.Or(no).Decide(r, nil))

	// And short-circuits.
	called := false
	spy := DeciderFunc(func(*flight.Request, error) bool { called = true; return true })
	no.And(spy).Decide(r, nil)
	assert.False(t, called)
}

func TestNewFixedWaiter(t *testing.T) {
	w := NewFixedWaiter(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, w.Wait(nil))
}

func TestNewExpWaiter(t *testing.T) {
	t.Run("bad arguments panic", func(t *testing.T) {
		assert.Panics(t, func() { NewExpWaiter(0, time.Second, nil) })
		assert.Panics(t, func() { NewExpWaiter(time.Second, time.Millisecond, nil) })
		assert.Panics(t, func() { NewExpWaiter(time.Second, time.Second, "bad jitter") })
	})
	t.Run("no jitter returns ceiling", func(t *testing.T) {
		r := finishedRequest(t, "GET", &stubExecutor{status: 200})
		w := NewExpWaiter(50*time.Millisecond, time.Second, nil)
		assert.Equal(t, 50*time.Millisecond, w.Wait(r), "first retry waits the base")
	})
	t.Run("jitter stays under ceiling", func(t *testing.T) {
		r := finishedRequest(t, "GET", &stubExecutor{status: 200})
		w := NewExpWaiter(50*time.Millisecond, time.Second, rand.NewSource(1))
		for i := 0; i < 100; i++ {
			d := w.Wait(r)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.Less(t, d, 50*time.Millisecond)
		}
	})
}

func TestPolicy(t *testing.T) {
	t.Run("retries up to the limit", func(t *testing.T) {
		exec := &stubExecutor{err: context.DeadlineExceeded}
		s := &flight.Session{Executor: exec}
		s.Interceptor = flight.NewInterceptor(nil, []flight.Retrier{
			NewPolicy(Times(2).And(TransientErr), NewFixedWaiter(0)),
		})

		var got flight.DataResponse[[]byte]
		done := make(chan struct{})
		r := flight.ResponseData(s.Request(func() (*descriptor.Descriptor, error) {
			return descriptor.New("GET", "http://example.com/x", nil)
		}), nil, func(resp flight.DataResponse[[]byte]) {
			got = resp
			close(done)
		})
		r.Resume()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("request never finished")
		}

		assert.Equal(t, 2, r.RetryCount())
		assert.Equal(t, 3, exec.tasks, "two retries means three attempts")
		var terr *flight.TransportError
		require.ErrorAs(t, got.Err, &terr)
	})
	t.Run("never", func(t *testing.T) {
		exec := &stubExecutor{err: context.DeadlineExceeded}
		s := &flight.Session{Executor: exec}
		s.Interceptor = flight.NewInterceptor(nil, []flight.Retrier{Never})

		r := flight.ResponseData(s.Request(func() (*descriptor.Descriptor, error) {
			return descriptor.New("GET", "http://example.com/x", nil)
		}), nil, func(flight.DataResponse[[]byte]) {})
		r.Resume()
		assert.Equal(t, 0, r.RetryCount())
		assert.Equal(t, 1, exec.tasks)
	})
	t.Run("default policy components", func(t *testing.T) {
		r := finishedRequest(t, "GET", &stubExecutor{status: 503})
		assert.True(t, DefaultPolicy.Decide(r, nil))
		assert.False(t, Never.Decide(r, nil))
	})
}
