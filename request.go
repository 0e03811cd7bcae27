// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flightlib/flight/descriptor"
	"github.com/flightlib/flight/progress"
	"github.com/flightlib/flight/transient"
)

// requestHooks is the seam between the shared Request lifecycle and a
// concrete variant (data, download, upload). Every hook is invoked
// from the request's coordination context.
type requestHooks interface {
	// didReceiveData consumes one chunk of response body.
	didReceiveData(chunk []byte)
	// resetAttemptState discards per-attempt accumulation before a
	// retry.
	resetAttemptState()
	// attemptDidComplete finalizes the variant's output after the
	// transport task ends; a non-nil return fails the attempt.
	attemptDidComplete(resp *http.Response, taskErr error) error
	// validationBody returns the response body validators and
	// serializers inspect, nil when the variant keeps no body in
	// memory.
	validationBody() []byte
}

// A Request is one logical HTTP interaction from descriptor creation
// through adaptation, transport attempts, retries, validation, and
// response serialization.
//
// Requests are created by a Session, never directly. All exported
// methods are safe for concurrent use; mutating methods return the
// receiver so calls chain.
type Request struct {
	id      uuid.UUID
	session *Session
	factory descriptor.Factory
	hooks   requestHooks

	// interceptor, when non-nil, fully replaces the session's
	// interceptor for this request. The two are never merged.
	interceptor Interceptor

	mu    sync.Mutex
	state State

	// Append-only attempt records: requests holds every adapted
	// descriptor handed to the transport, tasks every transport task,
	// metrics one entry per completed attempt. Indexes align.
	requests []*descriptor.Descriptor
	tasks    []TaskHandle
	metrics  []Metrics

	retryCount      int
	attemptTimeouts int
	lastWasTimeout  bool

	err      error
	response *http.Response

	username, password string
	hasCredential      bool

	upload   progress.Progress
	download progress.Progress

	uploadHandlers   []progressHandler
	downloadHandlers []progressHandler

	// At most one of each; a second install panics. Request-level
	// handlers fully override the session defaults.
	redirectHandler RedirectHandler
	cachedHandler   CachedResponseHandler

	validations []Validation

	// serializers are opaque closures appended by the typed response
	// glue. serializerIdx is the cursor of the running round;
	// finishing guards against concurrent rounds.
	serializers   []func()
	serializerIdx int
	finishing     bool

	finished bool
	cleanups []func()

	retryTimer *time.Timer
}

type progressHandler struct {
	queue Queue
	fn    func(completed, total int64)
}

// A RedirectHandler decides how one redirect hop is followed, given
// the descriptor the server proposes and the redirect response that
// proposed it. Returning nil stops following and delivers the redirect
// response itself; returning a rewritten descriptor follows that
// instead.
type RedirectHandler func(d *descriptor.Descriptor, via *http.Response) *descriptor.Descriptor

// A RequestOption configures a Request at creation.
type RequestOption func(*Request)

// WithInterceptor attaches a request-level interceptor. It fully
// overrides the session's interceptor for this request.
func WithInterceptor(i Interceptor) RequestOption {
	return func(r *Request) { r.interceptor = i }
}

// initRequest prepares the shared lifecycle state of a freshly
// allocated variant.
func initRequest(r *Request, s *Session, factory descriptor.Factory, opts []RequestOption) {
	r.id = uuid.New()
	r.session = s
	r.factory = factory
	r.state = Initialized
	for _, opt := range opts {
		opt(r)
	}
}

// ID returns the request's unique identifier.
func (r *Request) ID() uuid.UUID { return r.id }

// State returns the request's current lifecycle state.
func (r *Request) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Error returns the request's recorded error, nil while no failure has
// been recorded. Once set, only an interceptor's replacement error
// overwrites it.
func (r *Request) Error() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// RetryCount returns the number of retries performed so far. The
// initial attempt is not a retry.
func (r *Request) RetryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryCount
}

// Attempt returns the zero-based index of the latest transport
// attempt, or -1 before the first attempt starts.
func (r *Request) Attempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks) - 1
}

// Descriptors returns all adapted descriptors handed to the transport
// so far, one per attempt, oldest first.
func (r *Request) Descriptors() []*descriptor.Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*descriptor.Descriptor(nil), r.requests...)
}

// LastDescriptor returns the most recent adapted descriptor, nil
// before the first attempt.
func (r *Request) LastDescriptor() *descriptor.Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return nil
	}
	return r.requests[len(r.requests)-1]
}

// LastResponse returns the most recent response received, nil if no
// attempt has produced response headers yet.
func (r *Request) LastResponse() *http.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.response
}

// AllMetrics returns the metrics of every completed attempt, oldest
// first.
func (r *Request) AllMetrics() []Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Metrics(nil), r.metrics...)
}

// UploadProgress returns the live upload progress counter for the
// current attempt.
func (r *Request) UploadProgress() *progress.Progress { return &r.upload }

// DownloadProgress returns the live download progress counter for the
// current attempt.
func (r *Request) DownloadProgress() *progress.Progress { return &r.download }

// Authenticate attaches HTTP basic credentials, applied to every
// descriptor before adaptation.
func (r *Request) Authenticate(username, password string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.username, r.password = username, password
	r.hasCredential = true
	return r
}

// Resume starts or restarts the request. Resuming an already resumed,
// cancelled, or finished request is a no-op.
func (r *Request) Resume() *Request {
	r.mu.Lock()
	if !r.state.canTransition(Resumed) {
		r.mu.Unlock()
		return r
	}
	r.state = Resumed
	task := r.currentTaskLocked()
	r.mu.Unlock()

	r.session.monitor(RequestResumed, r)
	if task != nil {
		task.Resume()
	} else {
		r.performAttempt()
	}
	return r
}

// Suspend pauses the request and its in-flight transport task, if the
// executor supports pausing.
func (r *Request) Suspend() *Request {
	r.mu.Lock()
	if !r.state.canTransition(Suspended) {
		r.mu.Unlock()
		return r
	}
	r.state = Suspended
	task := r.currentTaskLocked()
	timer := r.retryTimer
	r.retryTimer = nil
	r.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	r.session.monitor(RequestSuspended, r)
	if task != nil {
		task.Suspend()
	}
	return r
}

// Cancel aborts the request. Cancellation still runs the serializer
// pipeline and cleanup handlers to completion, so every registered
// completion observes exactly one result.
func (r *Request) Cancel() *Request {
	r.mu.Lock()
	if !r.state.canTransition(Cancelled) {
		r.mu.Unlock()
		return r
	}
	r.state = Cancelled
	if r.err == nil {
		r.err = ErrExplicitlyCancelled
	}
	task := r.currentTaskLocked()
	timer := r.retryTimer
	r.retryTimer = nil
	r.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	r.session.monitor(RequestCancelled, r)
	if task != nil {
		// Resume momentarily so the executor reports metrics for the
		// aborted attempt; a cancelled task still completes.
		task.Resume()
		task.Cancel()
	} else {
		r.finish(nil)
	}
	return r
}

// Validate appends a response validator. With no arguments the default
// validators are installed: status in [200, 300) and content type
// compatible with the request's Accept header. Every validator runs on
// the final response; the first failure becomes the request error, but
// later validators still run.
func (r *Request) Validate(validations ...Validation) *Request {
	if len(validations) == 0 {
		validations = []Validation{ValidateStatus(), ValidateContentType()}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations = append(r.validations, validations...)
	return r
}

// OnUploadProgress registers f, dispatched on q, for cumulative upload
// progress updates. A nil q means Sync.
func (r *Request) OnUploadProgress(q Queue, f func(completed, total int64)) *Request {
	if q == nil {
		q = Sync
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploadHandlers = append(r.uploadHandlers, progressHandler{queue: q, fn: f})
	return r
}

// OnDownloadProgress registers f, dispatched on q, for cumulative
// download progress updates. A nil q means Sync.
func (r *Request) OnDownloadProgress(q Queue, f func(completed, total int64)) *Request {
	if q == nil {
		q = Sync
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloadHandlers = append(r.downloadHandlers, progressHandler{queue: q, fn: f})
	return r
}

// Cleanup registers f to run after the request fully finishes, that
// is after the serializer pipeline of the final state has drained. If
// the request has already finished, f runs immediately.
func (r *Request) Cleanup(f func()) *Request {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		f()
		return r
	}
	r.cleanups = append(r.cleanups, f)
	r.mu.Unlock()
	return r
}

// Redirect installs the request's redirect handler, overriding the
// session default. A request may have at most one; installing a
// second panics.
func (r *Request) Redirect(h RedirectHandler) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.redirectHandler != nil {
		panic("flight: redirect handler already installed on this request")
	}
	r.redirectHandler = h
	return r
}

// CachedResponse installs the request's cached-response handler,
// overriding the session default. A request may have at most one;
// installing a second panics.
func (r *Request) CachedResponse(h CachedResponseHandler) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cachedHandler != nil {
		panic("flight: cached-response handler already installed on this request")
	}
	r.cachedHandler = h
	return r
}

// currentTaskLocked returns the latest transport task if it has not
// completed, else nil. Caller holds r.mu.
func (r *Request) currentTaskLocked() TaskHandle {
	if len(r.tasks) == 0 {
		return nil
	}
	t := r.tasks[len(r.tasks)-1]
	if t.Completed() {
		return nil
	}
	return t
}

func (r *Request) effectiveInterceptor() Interceptor {
	if r.interceptor != nil {
		return r.interceptor
	}
	return r.session.Interceptor
}

// performAttempt creates the next descriptor and drives it through
// adaptation to a transport task. It no-ops unless the request is
// still Resumed.
func (r *Request) performAttempt() {
	r.mu.Lock()
	if r.state != Resumed {
		r.mu.Unlock()
		return
	}
	first := len(r.requests) == 0 && r.retryCount == 0
	r.mu.Unlock()

	d, err := r.factory()
	if err != nil {
		r.failAttempt(&InvalidRequestError{Cause: err})
		return
	}
	if first {
		r.session.monitor(RequestCreated, r)
	}
	r.mu.Lock()
	if r.hasCredential {
		d.SetBasicAuth(r.username, r.password)
	}
	ic := r.effectiveInterceptor()
	r.mu.Unlock()

	if ic == nil {
		r.didAdapt(d, nil, nil)
		return
	}
	ic.Adapt(d, r.session, func(adapted *descriptor.Descriptor, aerr error) {
		r.didAdapt(d, adapted, aerr)
	})
}

func (r *Request) didAdapt(original, adapted *descriptor.Descriptor, err error) {
	if err != nil {
		if !isEngineError(err) {
			err = &AdaptationError{Cause: err}
		}
		r.failAttempt(err)
		return
	}
	final := adapted
	wasAdapted := adapted != nil
	if final == nil {
		final = original
	}
	r.mu.Lock()
	if r.state != Resumed {
		r.mu.Unlock()
		return
	}
	r.requests = append(r.requests, final)
	r.mu.Unlock()

	if wasAdapted {
		r.session.monitor(RequestAdapted, r)
	}
	r.startTask(final)
}

// startTask hands the adapted descriptor to the transport executor
// under the session's timeout policy and resumes the resulting task.
func (r *Request) startTask(d *descriptor.Descriptor) {
	r.mu.Lock()
	timeouts, last := r.attemptTimeouts, r.lastWasTimeout
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.session.timeoutPolicy().Timeout(timeouts, last))
	task := r.session.createTask(r, ctx, d)

	r.mu.Lock()
	if r.state != Resumed {
		r.mu.Unlock()
		r.session.release(task)
		cancel()
		task.Cancel()
		return
	}
	r.tasks = append(r.tasks, task)
	r.cleanups = append(r.cleanups, cancel)
	r.mu.Unlock()

	r.session.monitor(AttemptStarted, r)
	task.Resume()
}

// failAttempt fails the current attempt without transport involvement.
func (r *Request) failAttempt(err error) {
	r.retryOrFinish(err)
}

// Transport callback entry points, routed here by the session's task
// registry.

func (r *Request) taskDidSendBodyData(sent, total int64) {
	r.upload.Set(sent, total)
	r.mu.Lock()
	handlers := append([]progressHandler(nil), r.uploadHandlers...)
	r.mu.Unlock()
	for _, h := range handlers {
		h := h
		h.queue.Dispatch(func() { h.fn(sent, total) })
	}
}

func (r *Request) taskDidReceiveResponse(resp *http.Response) Disposition {
	r.mu.Lock()
	r.response = resp
	cancelled := r.state == Cancelled
	r.mu.Unlock()

	r.session.monitor(ResponseReceived, r)
	if cancelled {
		return DispositionCancel
	}
	return DispositionAllow
}

func (r *Request) taskDidReceiveData(chunk []byte) {
	r.hooks.didReceiveData(chunk)

	r.mu.Lock()
	total := progress.UnknownTotal
	if r.response != nil && r.response.ContentLength >= 0 {
		total = r.response.ContentLength
	}
	handlers := append([]progressHandler(nil), r.downloadHandlers...)
	r.mu.Unlock()

	r.download.Set(r.download.Completed()+int64(len(chunk)), total)
	completed, t := r.download.Snapshot()
	for _, h := range handlers {
		h := h
		h.queue.Dispatch(func() { h.fn(completed, t) })
	}
}

func (r *Request) taskDidRedirect(d *descriptor.Descriptor, via *http.Response) *descriptor.Descriptor {
	r.mu.Lock()
	h := r.redirectHandler
	r.mu.Unlock()
	if h == nil {
		h = r.session.Redirect
	}
	if h != nil {
		return h(d, via)
	}
	return d
}

// taskDidCollectMetrics appends one attempt's metrics record,
// index-aligned with the task that produced it.
func (r *Request) taskDidCollectMetrics(task TaskHandle, m Metrics) {
	r.mu.Lock()
	m.Attempt = r.taskIndexLocked(task)
	r.metrics = append(r.metrics, m)
	r.mu.Unlock()
}

func (r *Request) taskDidComplete(taskErr error) {
	r.mu.Lock()
	resp := r.response
	cancelled := r.state == Cancelled
	recorded := r.err
	r.mu.Unlock()

	err := taskErr
	switch {
	case cancelled && (err == nil || errors.Is(err, context.Canceled)):
		// A cancelled request never completes successfully, even when
		// the transport raced it to a clean finish.
		err = recorded
	case err == nil:
	case isEngineError(err):
	default:
		err = &TransportError{Cause: err}
	}

	r.mu.Lock()
	if transient.Categorize(taskErr) == transient.Timeout {
		r.attemptTimeouts++
		r.lastWasTimeout = true
	} else {
		r.lastWasTimeout = false
	}
	r.mu.Unlock()

	r.session.monitor(AttemptEnded, r)

	if ferr := r.hooks.attemptDidComplete(resp, err); ferr != nil && err == nil {
		err = ferr
	}
	if err == nil {
		r.storeCachedResponse(resp)
		err = r.runValidations(resp)
	}
	if err == nil {
		r.finish(nil)
		return
	}
	r.retryOrFinish(err)
}

// storeCachedResponse offers a successfully completed response to the
// session's cache, filtered through the cached-response handler.
func (r *Request) storeCachedResponse(resp *http.Response) {
	cache := r.session.Cache
	if cache == nil || resp == nil {
		return
	}
	d := r.LastDescriptor()
	if d == nil || d.URL == nil {
		return
	}
	r.mu.Lock()
	h := r.cachedHandler
	r.mu.Unlock()
	if h == nil {
		h = r.session.CachedResponse
	}

	body := append([]byte(nil), r.hooks.validationBody()...)
	c := &CachedResponse{Response: resp, Body: body}
	if h != nil {
		c = h(d, resp, body)
	}
	if c != nil {
		cache.Store(d.URL.String(), c)
	}
}

func (r *Request) taskIndexLocked(task TaskHandle) int {
	for i, t := range r.tasks {
		if t == task {
			return i
		}
	}
	return len(r.tasks) - 1
}

// runValidations runs every registered validator against the final
// response. All validators run; the first failure wins.
func (r *Request) runValidations(resp *http.Response) error {
	if resp == nil {
		return nil
	}
	r.mu.Lock()
	validations := append([]Validation(nil), r.validations...)
	d := r.requests[len(r.requests)-1]
	r.mu.Unlock()

	body := r.hooks.validationBody()
	var first error
	for _, v := range validations {
		if err := wrapValidation(v(d, resp, body)); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// retryOrFinish consults the retry pipeline for a failed attempt.
// Terminal errors and cancelled requests go straight to finish.
func (r *Request) retryOrFinish(err error) {
	r.mu.Lock()
	cancelled := r.state == Cancelled
	r.mu.Unlock()

	ic := r.effectiveInterceptor()
	if cancelled || ic == nil || isTerminal(err) {
		r.finish(err)
		return
	}
	ic.Retry(r, r.session, err, func(d RetryDecision) {
		switch {
		case d.ReplacementError() != nil:
			r.mu.Lock()
			r.err = d.ReplacementError()
			r.mu.Unlock()
			r.finish(nil)
		case d.ShouldRetry():
			r.doRetry(d.Delay())
		default:
			r.finish(err)
		}
	})
}

// doRetry resets per-attempt state and schedules the next attempt.
func (r *Request) doRetry(delay time.Duration) {
	r.mu.Lock()
	if r.state != Resumed {
		r.mu.Unlock()
		return
	}
	r.retryCount++
	r.err = nil
	r.response = nil
	r.mu.Unlock()

	r.upload.Reset()
	r.download.Reset()
	r.hooks.resetAttemptState()
	r.session.monitor(RequestRetried, r)

	if delay <= 0 {
		r.performAttempt()
		return
	}
	timer := time.AfterFunc(delay, func() {
		r.mu.Lock()
		r.retryTimer = nil
		r.mu.Unlock()
		r.performAttempt()
	})
	r.mu.Lock()
	r.retryTimer = timer
	r.mu.Unlock()
}

// finish records err if no error is recorded yet and starts the
// serializer round. Repeated finish calls while a round is running,
// or stragglers arriving after the round already completed, are
// absorbed.
func (r *Request) finish(err error) {
	r.mu.Lock()
	if err != nil && r.err == nil {
		r.err = err
	}
	if r.finishing || r.finished {
		r.mu.Unlock()
		return
	}
	r.finishing = true
	r.mu.Unlock()
	r.processNextSerializer()
}

// processNextSerializer runs the serializer at the cursor, or
// completes the round when the pipeline has drained.
func (r *Request) processNextSerializer() {
	r.mu.Lock()
	if r.serializerIdx < len(r.serializers) {
		f := r.serializers[r.serializerIdx]
		r.mu.Unlock()
		f()
		return
	}

	// Round complete.
	r.serializers = nil
	r.serializerIdx = 0
	r.finishing = false
	if r.state.canTransition(Finished) {
		r.state = Finished
	}
	r.finished = true
	cleanups := r.cleanups
	r.cleanups = nil
	r.mu.Unlock()

	r.session.monitor(RequestFinished, r)
	for _, f := range cleanups {
		f()
	}
	r.session.unregister(r)
}

// advanceSerializer moves the cursor past the serializer that just
// delivered and continues the round.
func (r *Request) advanceSerializer() {
	r.mu.Lock()
	r.serializerIdx++
	r.mu.Unlock()
	r.processNextSerializer()
}

// serializerDidComplete routes one serializer's outcome. deliver
// dispatches the typed result to the caller's completion. A
// serialization failure on an otherwise successful request consults
// the retry pipeline; if a retry is granted the result is withheld,
// the attempt re-runs, and the same serializer executes again against
// the new outcome.
func (r *Request) serializerDidComplete(serr error, deliver func()) {
	r.mu.Lock()
	settled := r.err != nil || r.state == Cancelled
	r.mu.Unlock()

	ic := r.effectiveInterceptor()
	if serr == nil || settled || ic == nil || isTerminal(serr) {
		deliver()
		r.advanceSerializer()
		return
	}
	ic.Retry(r, r.session, serr, func(d RetryDecision) {
		if d.ShouldRetry() {
			r.mu.Lock()
			r.finishing = false
			r.mu.Unlock()
			r.doRetry(d.Delay())
			return
		}
		deliver()
		r.advanceSerializer()
	})
}

// appendSerializer installs a response serializer closure. Appending
// to a finished request re-opens it: if the request still holds an
// outcome the new serializer runs against it immediately, otherwise a
// fresh transport attempt is made. Appending the first serializer to
// an initialized request auto-resumes it when the session is
// configured to start requests immediately.
func (r *Request) appendSerializer(f func()) {
	r.mu.Lock()
	r.serializers = append(r.serializers, f)

	switch {
	case r.finished:
		r.finished = false
		if r.response != nil || r.err != nil {
			// Re-open so a serializer failure can still be granted a
			// retry; the round moves the state back to Finished when
			// it drains.
			if r.state == Finished {
				r.state = Resumed
			}
			r.finishing = true
			r.mu.Unlock()
			r.processNextSerializer()
			return
		}
		r.state = Resumed
		r.mu.Unlock()
		r.session.monitor(RequestResumed, r)
		r.performAttempt()
		return
	case r.finishing:
		// A round is draining; the new serializer is picked up by the
		// cursor before the round completes.
		r.mu.Unlock()
		return
	case r.state == Initialized && r.session.startImmediately():
		r.mu.Unlock()
		r.Resume()
		return
	}
	r.mu.Unlock()
}
