// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import "sync"

// A Queue is the execution context on which a registered callback
// (progress handler, serializer completion) is invoked. The engine
// never runs callbacks inside its own locks or inside transport
// callbacks; it hands them to the callback's Queue instead.
type Queue interface {
	Dispatch(f func())
}

// The QueueFunc type is an adapter to allow the use of ordinary
// functions as queues.
type QueueFunc func(f func())

// Dispatch calls q(f).
func (q QueueFunc) Dispatch(f func()) {
	q(f)
}

// Sync runs callbacks inline on the engine goroutine that produced the
// result. It is the default queue when nil is passed at registration,
// and preserves the engine's invocation order exactly.
var Sync Queue = QueueFunc(func(f func()) { f() })

// Async runs each callback on its own goroutine. Ordering between
// callbacks is not preserved.
var Async Queue = QueueFunc(func(f func()) { go f() })

// A SerialQueue runs callbacks one at a time, in dispatch order, on a
// background goroutine. The zero value is ready to use.
type SerialQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

// NewSerialQueue returns a new SerialQueue.
func NewSerialQueue() *SerialQueue {
	return &SerialQueue{}
}

// Dispatch enqueues f. The call never blocks; a drain goroutine is
// started on demand and exits when the queue empties.
func (q *SerialQueue) Dispatch(f func()) {
	q.mu.Lock()
	q.pending = append(q.pending, f)
	start := !q.running
	if start {
		q.running = true
	}
	q.mu.Unlock()
	if start {
		go q.drain()
	}
}

func (q *SerialQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		f := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()
		f()
	}
}
