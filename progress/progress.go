// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package progress provides monotonic transfer progress counters for
// the flight request engine.
package progress

import "sync"

// UnknownTotal is the sentinel total unit count used when the expected
// transfer size is not known, for example when a response carries no
// Content-Length header.
const UnknownTotal int64 = -1

// Progress tracks the completed and total unit counts of one transfer
// direction (upload or download) for a single transport attempt.
//
// Completed counts are monotonically non-decreasing between resets:
// Set ignores updates that would move the completed count backward, so
// observers may skip intermediate updates but never see progress go
// down. Reset starts a new attempt at zero.
//
// Progress is safe for concurrent use by multiple goroutines.
type Progress struct {
	mu        sync.Mutex
	completed int64
	total     int64
}

// Set records the cumulative completed unit count and the expected
// total. Both values come straight from transport counters rather than
// incremental deltas, so repeated or reordered callbacks cannot cause
// drift. A completed value lower than the current one is ignored.
func (p *Progress) Set(completed, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if completed > p.completed {
		p.completed = completed
	}
	p.total = total
}

// Reset returns the counters to zero for a fresh transport attempt.
func (p *Progress) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = 0
	p.total = 0
}

// Snapshot returns the current completed and total unit counts.
func (p *Progress) Snapshot() (completed, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed, p.total
}

// Completed returns the current completed unit count.
func (p *Progress) Completed() int64 {
	c, _ := p.Snapshot()
	return c
}

// Total returns the expected total unit count, or UnknownTotal.
func (p *Progress) Total() int64 {
	_, t := p.Snapshot()
	return t
}

// Fraction returns completed/total in [0, 1], or 0 when the total is
// unknown or zero.
func (p *Progress) Fraction() float64 {
	c, t := p.Snapshot()
	if t <= 0 {
		return 0
	}
	f := float64(c) / float64(t)
	if f > 1 {
		return 1
	}
	return f
}
