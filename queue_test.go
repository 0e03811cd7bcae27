// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncQueue(t *testing.T) {
	ran := false
	Sync.Dispatch(func() { ran = true })
	assert.True(t, ran, "Sync must run inline")
}

func TestAsyncQueue(t *testing.T) {
	done := make(chan struct{})
	Async.Dispatch(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async dispatch never ran")
	}
}

func TestSerialQueue(t *testing.T) {
	q := NewSerialQueue()
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	const n = 100
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		q.Dispatch(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < n; i++ {
		assert.Equal(t, i, order[i], "serial queue must preserve dispatch order")
	}
}
