// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package telemetry provides an OpenTelemetry event monitor for the
// flight request engine. One span covers each request from resume to
// finish, with span events for attempts, retries, and responses, plus
// request counters and a latency histogram.
package telemetry

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/flightlib/flight"
)

const instrumentationName = "github.com/flightlib/flight/telemetry"

var (
	attrRequestID  = attribute.Key("http.request.id")
	attrMethod     = attribute.Key("http.request.method")
	attrURL        = attribute.Key("url.full")
	attrStatusCode = attribute.Key("http.response.status_code")
	attrRetryCount = attribute.Key("http.request.retry_count")
	attrState      = attribute.Key("flight.request.state")
)

// Config drives how the monitor is initialized.
type Config struct {
	// TracerProvider supplies spans. nil means a fresh SDK provider
	// with default options.
	TracerProvider trace.TracerProvider
	// MeterProvider supplies instruments. nil means a fresh SDK
	// provider with default options.
	MeterProvider metric.MeterProvider
}

// Monitor is a flight.EventMonitor recording one span per request and
// counters per lifecycle milestone. Register it on a session's monitor
// group for all events:
//
//	s := flight.NewSession()
//	s.Monitors = &flight.MonitorGroup{}
//	s.Monitors.PushBackAll(mon)
type Monitor struct {
	tracer trace.Tracer

	requests metric.Int64Counter
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	latency  metric.Float64Histogram

	mu    sync.Mutex
	spans map[uuid.UUID]trace.Span
}

// NewMonitor builds a fully wired monitor.
func NewMonitor(cfg Config) (*Monitor, error) {
	tp := cfg.TracerProvider
	if tp == nil {
		tp = sdktrace.NewTracerProvider()
	}
	mp := cfg.MeterProvider
	if mp == nil {
		mp = sdkmetric.NewMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	requests, err := meter.Int64Counter("http.client.requests.total",
		metric.WithDescription("Total number of finished requests."))
	if err != nil {
		return nil, err
	}
	attempts, err := meter.Int64Counter("http.client.attempts.total",
		metric.WithDescription("Total number of transport attempts."))
	if err != nil {
		return nil, err
	}
	retries, err := meter.Int64Counter("http.client.retries.total",
		metric.WithDescription("Total number of retried attempts."))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("http.client.request.duration.ms",
		metric.WithDescription("End-to-end request duration across all attempts in milliseconds."),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &Monitor{
		tracer:   tp.Tracer(instrumentationName),
		requests: requests,
		attempts: attempts,
		retries:  retries,
		latency:  latency,
		spans:    make(map[uuid.UUID]trace.Span),
	}, nil
}

// Handle implements flight.EventMonitor.
func (m *Monitor) Handle(evt flight.Event, r *flight.Request) {
	if m == nil {
		return
	}
	switch evt {
	case flight.RequestResumed:
		m.spanFor(r)
	case flight.AttemptStarted:
		m.attempts.Add(context.Background(), 1, metric.WithAttributes(m.requestAttrs(r)...))
		m.spanFor(r).AddEvent(evt.Name(), trace.WithAttributes(
			attrRetryCount.Int(r.RetryCount()),
		))
	case flight.RequestRetried:
		m.retries.Add(context.Background(), 1, metric.WithAttributes(m.requestAttrs(r)...))
		m.spanFor(r).AddEvent(evt.Name(), trace.WithAttributes(
			attrRetryCount.Int(r.RetryCount()),
		))
	case flight.ResponseReceived:
		attrs := []attribute.KeyValue{}
		if resp := r.LastResponse(); resp != nil {
			attrs = append(attrs, attrStatusCode.Int(resp.StatusCode))
		}
		m.spanFor(r).AddEvent(evt.Name(), trace.WithAttributes(attrs...))
	case flight.RequestFinished:
		m.finish(r)
	default:
		m.spanFor(r).AddEvent(evt.Name())
	}
}

// spanFor returns the request's span, starting it on first sight.
func (m *Monitor) spanFor(r *flight.Request) trace.Span {
	m.mu.Lock()
	defer m.mu.Unlock()
	if span, ok := m.spans[r.ID()]; ok {
		return span
	}
	_, span := m.tracer.Start(context.Background(), "flight.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(m.requestAttrs(r)...))
	m.spans[r.ID()] = span
	return span
}

func (m *Monitor) finish(r *flight.Request) {
	m.mu.Lock()
	span, ok := m.spans[r.ID()]
	delete(m.spans, r.ID())
	m.mu.Unlock()
	if !ok {
		span = m.spanForFinished(r)
	}

	attrs := m.requestAttrs(r)
	attrs = append(attrs, attrState.String(r.State().String()), attrRetryCount.Int(r.RetryCount()))
	if resp := r.LastResponse(); resp != nil {
		attrs = append(attrs, attrStatusCode.Int(resp.StatusCode))
	}
	span.SetAttributes(attrs...)

	if err := r.Error(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	m.requests.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	if ms := r.AllMetrics(); len(ms) > 0 {
		d := ms[len(ms)-1].End.Sub(ms[0].Start)
		if d > 0 {
			m.latency.Record(context.Background(), float64(d.Milliseconds()), metric.WithAttributes(attrs...))
		}
	}
}

// spanForFinished covers a request that finished without ever being
// resumed, for example one cancelled while still initialized.
func (m *Monitor) spanForFinished(r *flight.Request) trace.Span {
	_, span := m.tracer.Start(context.Background(), "flight.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(m.requestAttrs(r)...))
	return span
}

func (m *Monitor) requestAttrs(r *flight.Request) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attrRequestID.String(r.ID().String())}
	if d := r.LastDescriptor(); d != nil {
		attrs = append(attrs, attrMethod.String(d.Method))
		if d.URL != nil {
			attrs = append(attrs, attrURL.String(d.URL.String()))
		}
	}
	return attrs
}
