// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import "log/slog"

// An EventMonitor observes the occurrence of lifecycle events on
// requests issued by a Session.
//
// Monitors run on engine goroutines and must be safe for concurrent
// use: events for different requests may arrive simultaneously.
// Events for one request arrive in lifecycle order.
type EventMonitor interface {
	Handle(evt Event, r *Request)
}

// The MonitorFunc type is an adapter to allow the use of ordinary
// functions as event monitors.
type MonitorFunc func(evt Event, r *Request)

// Handle calls f(evt, r).
func (f MonitorFunc) Handle(evt Event, r *Request) {
	f(evt, r)
}

// A MonitorGroup is a group of event monitor chains which can be
// installed in a Session.
type MonitorGroup struct {
	monitors [][]EventMonitor
}

// PushBack adds an event monitor to the back of the monitor chain for
// a specific event type.
func (g *MonitorGroup) PushBack(evt Event, m EventMonitor) {
	if m == nil {
		panic("flight: nil event monitor")
	}

	if g.monitors == nil {
		g.monitors = make([][]EventMonitor, numEvents)
	}

	g.monitors[evt] = append(g.monitors[evt], m)
}

// PushBackAll adds an event monitor to the back of every event's
// monitor chain, so it observes the complete lifecycle.
func (g *MonitorGroup) PushBackAll(m EventMonitor) {
	for _, evt := range Events() {
		g.PushBack(evt, m)
	}
}

func (g *MonitorGroup) run(evt Event, r *Request) {
	i := int(evt)
	if i < len(g.monitors) {
		for _, m := range g.monitors[i] {
			m.Handle(evt, r)
		}
	}
}

// Standard field keys used by LoggingMonitor.
const (
	logRequestIDKey = "request_id"
	logEventKey     = "event"
	logStateKey     = "state"
	logAttemptKey   = "attempt"
	logRetriesKey   = "retries"
	logStatusKey    = "status"
	logErrorKey     = "error"
)

// A LoggingMonitor logs every event it observes with log/slog.
// Lifecycle milestones (created, retried, cancelled, finished) log at
// Info; per-attempt mechanics log at Debug.
type LoggingMonitor struct {
	// Logger is the destination logger. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Handle logs the event with the request's identity and current
// lifecycle coordinates.
func (m *LoggingMonitor) Handle(evt Event, r *Request) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		logRequestIDKey, r.ID().String(),
		logEventKey, evt.Name(),
		logStateKey, r.State().String(),
		logAttemptKey, r.Attempt(),
		logRetriesKey, r.RetryCount(),
	}
	if resp := r.LastResponse(); resp != nil {
		attrs = append(attrs, logStatusKey, resp.StatusCode)
	}
	if err := r.Error(); err != nil {
		attrs = append(attrs, logErrorKey, err.Error())
	}

	switch evt {
	case RequestCreated, RequestRetried, RequestCancelled, RequestFinished:
		logger.Info("request lifecycle", attrs...)
	default:
		logger.Debug("request lifecycle", attrs...)
	}
}
