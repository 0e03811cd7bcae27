// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlib/flight/descriptor"
	"github.com/flightlib/flight/timeout"
	"github.com/flightlib/flight/transient"
)

// awaitData resumes r and blocks until its data completion delivers.
func awaitData(t *testing.T, r *DataRequest) DataResponse[[]byte] {
	t.Helper()
	done := make(chan DataResponse[[]byte], 1)
	ResponseData(r, Async, func(resp DataResponse[[]byte]) { done <- resp })
	r.Resume()
	select {
	case resp := <-done:
		return resp
	case <-time.After(10 * time.Second):
		t.Fatal("request never delivered a response")
		panic("unreachable")
	}
}

func mustDescriptor(t *testing.T, method, url string) *descriptor.Descriptor {
	t.Helper()
	d, err := descriptor.New(method, url, nil)
	require.NoError(t, err)
	return d
}

func TestHTTPExecutor(t *testing.T) {
	t.Run("round trip", testHTTPExecutorRoundTrip)
	t.Run("chunked body", testHTTPExecutorChunks)
	t.Run("upload progress", testHTTPExecutorUpload)
	t.Run("attempt timeout", testHTTPExecutorTimeout)
	t.Run("redirect stop", testHTTPExecutorRedirectStop)
	t.Run("cancel before resume", testHTTPExecutorCancelUnstarted)
}

func testHTTPExecutorRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "over the wire")
	}))
	defer server.Close()

	s := &Session{Executor: &HTTPExecutor{Doer: server.Client()}}
	r := s.Get(server.URL).Validate()
	resp := awaitData(t, r)

	require.NoError(t, resp.Err)
	assert.Equal(t, []byte("over the wire"), resp.Value)
	require.NotNil(t, resp.Response)
	assert.Equal(t, 200, resp.Response.StatusCode)
	require.Len(t, resp.Metrics, 1)
	assert.Equal(t, int64(len("over the wire")), resp.Metrics[0].ResponseBodyBytes)
	assert.False(t, resp.Metrics[0].Start.IsZero())
	assert.True(t, resp.Metrics[0].End.After(resp.Metrics[0].Start) || resp.Metrics[0].End.Equal(resp.Metrics[0].Start))
}

func testHTTPExecutorChunks(t *testing.T) {
	body := make([]byte, 10_000)
	for i := range body {
		body[i] = byte(i % 251)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	s := &Session{Executor: &HTTPExecutor{Doer: server.Client(), ChunkSize: 1024}}
	var mu sync.Mutex
	var updates []int64
	r := s.Get(server.URL).OnDownloadProgress(nil, func(completed, _ int64) {
		mu.Lock()
		updates = append(updates, completed)
		mu.Unlock()
	})
	resp := awaitData(t, r)

	require.NoError(t, resp.Err)
	assert.Equal(t, body, resp.Value)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, updates)
	for i := 1; i < len(updates); i++ {
		assert.GreaterOrEqual(t, updates[i], updates[i-1])
	}
	assert.Equal(t, int64(len(body)), updates[len(updates)-1])
}

func testHTTPExecutorUpload(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(204)
	}))
	defer server.Close()

	payload := []byte("request body payload")
	s := &Session{Executor: &HTTPExecutor{Doer: server.Client()}}
	var mu sync.Mutex
	var sent []int64
	u := s.Upload(UploadBytes(payload), "POST", server.URL).
		OnUploadProgress(nil, func(completed, total int64) {
			mu.Lock()
			sent = append(sent, completed)
			mu.Unlock()
			assert.Equal(t, int64(len(payload)), total)
		})
	resp := awaitData(t, &u.DataRequest)

	require.NoError(t, resp.Err)
	assert.Equal(t, payload, received)
	require.Len(t, resp.Metrics, 1)
	assert.Equal(t, int64(len(payload)), resp.Metrics[0].RequestBodyBytes)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, sent)
	assert.Equal(t, int64(len(payload)), sent[len(sent)-1])
}

func testHTTPExecutorTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	s := &Session{
		Executor:      &HTTPExecutor{Doer: server.Client()},
		TimeoutPolicy: timeout.Fixed(50 * time.Millisecond),
	}
	resp := awaitData(t, s.Get(server.URL))

	var terr *TransportError
	require.ErrorAs(t, resp.Err, &terr)
	assert.True(t, terr.Timeout())
	assert.Equal(t, transient.Timeout, transient.Categorize(resp.Err))
}

func testHTTPExecutorRedirectStop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/from", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/to", http.StatusFound)
	})
	mux.HandleFunc("/to", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "followed")
	})
	mux.HandleFunc("/rewritten", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "rewritten")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	t.Run("default follows", func(t *testing.T) {
		s := &Session{Executor: &HTTPExecutor{Doer: server.Client()}}
		resp := awaitData(t, s.Get(server.URL+"/from"))
		require.NoError(t, resp.Err)
		assert.Equal(t, []byte("followed"), resp.Value)
	})
	t.Run("handler stops", func(t *testing.T) {
		s := &Session{Executor: &HTTPExecutor{Doer: server.Client()}}
		s.Redirect = func(_ *descriptor.Descriptor, _ *http.Response) *descriptor.Descriptor {
			return nil
		}
		resp := awaitData(t, s.Get(server.URL+"/from"))
		require.NoError(t, resp.Err)
		require.NotNil(t, resp.Response)
		assert.Equal(t, http.StatusFound, resp.Response.StatusCode)
	})
	t.Run("request handler rewrites target", func(t *testing.T) {
		s := &Session{Executor: &HTTPExecutor{Doer: server.Client()}}
		s.Redirect = func(_ *descriptor.Descriptor, _ *http.Response) *descriptor.Descriptor {
			t.Error("session default consulted despite a request handler")
			return nil
		}
		r := s.Get(server.URL + "/from").Redirect(
			func(d *descriptor.Descriptor, _ *http.Response) *descriptor.Descriptor {
				rewritten := d.Clone()
				rewritten.URL.Path = "/rewritten"
				return rewritten
			})
		resp := awaitData(t, r)
		require.NoError(t, resp.Err)
		assert.Equal(t, []byte("rewritten"), resp.Value)
	})
}

func testHTTPExecutorCancelUnstarted(t *testing.T) {
	exec := &HTTPExecutor{}
	done := make(chan error, 1)
	task := exec.CreateTask(context.Background(), mustDescriptor(t, "GET", "http://example.invalid/"), TaskCallbacks{
		OnComplete: func(_ TaskHandle, err error) { done <- err },
	})
	task.Cancel()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("cancelled task never reported completion")
	}
	assert.True(t, task.Completed())
}
