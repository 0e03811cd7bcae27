// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlib/flight/descriptor"
)

func TestCURLDescription(t *testing.T) {
	t.Run("nil descriptor", func(t *testing.T) {
		assert.Equal(t, "curl", CURLDescription(nil))
	})
	t.Run("full request", func(t *testing.T) {
		d, err := descriptor.New("POST", "http://example.com/things", []byte(`{"a":1}`))
		require.NoError(t, err)
		d.Header.Set("Content-Type", "application/json")
		d.Header.Set("Authorization", "Bearer secret")

		out := CURLDescription(d)
		assert.Contains(t, out, "curl -X POST")
		assert.Contains(t, out, "Content-Type: application/json")
		assert.Contains(t, out, `{\"a\":1}`)
		assert.Contains(t, out, "http://example.com/things")
		assert.NotContains(t, out, "secret", "authorization values must be redacted")
		assert.Contains(t, out, "<redacted>")
	})
}
