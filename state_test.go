// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "Initialized", Initialized.String())
	assert.Equal(t, "Resumed", Resumed.String())
	assert.Equal(t, "Suspended", Suspended.String())
	assert.Equal(t, "Cancelled", Cancelled.String())
	assert.Equal(t, "Finished", Finished.String())
	assert.Equal(t, "Unknown", State(99).String())
	assert.Equal(t, "Unknown", State(-1).String())
}

func TestStateCanTransition(t *testing.T) {
	all := []State{Initialized, Resumed, Suspended, Cancelled, Finished}
	legal := map[State][]State{
		Initialized: {Resumed, Suspended, Cancelled, Finished},
		Resumed:     {Suspended, Cancelled, Finished},
		Suspended:   {Resumed, Cancelled, Finished},
		Cancelled:   {},
		Finished:    {},
	}
	for from, tos := range legal {
		allowed := make(map[State]bool, len(tos))
		for _, to := range tos {
			allowed[to] = true
		}
		for _, to := range all {
			assert.Equal(t, allowed[to], from.canTransition(to),
				"transition %s -> %s", from, to)
		}
	}
}
