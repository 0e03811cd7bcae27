// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	evts := Events()
	require.Len(t, evts, numEvents)
	for i, evt := range evts {
		assert.Equal(t, Event(i), evt)
	}
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "RequestCreated", RequestCreated.Name())
	assert.Equal(t, "AttemptStarted", AttemptStarted.Name())
	assert.Equal(t, "RequestFinished", RequestFinished.Name())
	for _, evt := range Events() {
		assert.NotEmpty(t, evt.Name())
		assert.Equal(t, evt.Name(), evt.String())
	}
}

func TestMonitorGroupPushBack(t *testing.T) {
	t.Run("nil monitor panics", func(t *testing.T) {
		g := &MonitorGroup{}
		assert.Panics(t, func() { g.PushBack(RequestCreated, nil) })
	})
	t.Run("ordering", func(t *testing.T) {
		var order []int
		g := &MonitorGroup{}
		g.PushBack(RequestFinished, MonitorFunc(func(Event, *Request) { order = append(order, 1) }))
		g.PushBack(RequestFinished, MonitorFunc(func(Event, *Request) { order = append(order, 2) }))
		g.run(RequestFinished, nil)
		assert.Equal(t, []int{1, 2}, order)
	})
	t.Run("push back all", func(t *testing.T) {
		n := 0
		g := &MonitorGroup{}
		g.PushBackAll(MonitorFunc(func(Event, *Request) { n++ }))
		for _, evt := range Events() {
			g.run(evt, nil)
		}
		assert.Equal(t, numEvents, n)
	})
}
