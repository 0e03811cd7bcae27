// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package serializer

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlib/flight/descriptor"
)

func TestConfigAllowsEmpty(t *testing.T) {
	c := DefaultConfig()
	head, err := descriptor.New("HEAD", "http://example.com", nil)
	require.NoError(t, err)
	get, err := descriptor.New("GET", "http://example.com", nil)
	require.NoError(t, err)

	assert.True(t, c.AllowsEmpty(head, nil))
	assert.True(t, c.AllowsEmpty(get, &http.Response{StatusCode: 204}))
	assert.True(t, c.AllowsEmpty(nil, &http.Response{StatusCode: 205}))
	assert.False(t, c.AllowsEmpty(get, &http.Response{StatusCode: 200}))
	assert.False(t, c.AllowsEmpty(nil, nil))
	assert.False(t, c.AllowsEmpty(get, nil))
}

func TestDataSerializer(t *testing.T) {
	get, _ := descriptor.New("GET", "http://example.com", nil)
	resp200 := &http.Response{StatusCode: 200}
	resp204 := &http.Response{StatusCode: 204}

	t.Run("passes through data", func(t *testing.T) {
		b, err := Data().Serialize(get, resp200, []byte("xyzzy"), nil)
		assert.NoError(t, err)
		assert.Equal(t, []byte("xyzzy"), b)
	})
	t.Run("passes through error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Data().Serialize(get, resp200, []byte("xyzzy"), boom)
		assert.Same(t, boom, err)
	})
	t.Run("empty allowed", func(t *testing.T) {
		b, err := Data().Serialize(get, resp204, nil, nil)
		assert.NoError(t, err)
		assert.NotNil(t, b)
		assert.Len(t, b, 0)
	})
	t.Run("empty not allowed", func(t *testing.T) {
		_, err := Data().Serialize(get, resp200, nil, nil)
		assert.ErrorIs(t, err, ErrEmptyBody)
	})
}

func TestStringSerializer(t *testing.T) {
	get, _ := descriptor.New("GET", "http://example.com", nil)
	resp200 := &http.Response{StatusCode: 200}

	s, err := String().Serialize(get, resp200, []byte("ham and eggs"), nil)
	assert.NoError(t, err)
	assert.Equal(t, "ham and eggs", s)

	_, err = String().Serialize(get, resp200, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyBody)

	s, err = String().Serialize(get, &http.Response{StatusCode: 205}, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, "", s)
}

type testPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONSerializer(t *testing.T) {
	get, _ := descriptor.New("GET", "http://example.com", nil)
	resp200 := &http.Response{StatusCode: 200}
	resp204 := &http.Response{StatusCode: 204}

	t.Run("decodes", func(t *testing.T) {
		v, err := JSON[testPayload]().Serialize(get, resp200, []byte(`{"name":"x","count":3}`), nil)
		assert.NoError(t, err)
		assert.Equal(t, testPayload{Name: "x", Count: 3}, v)
	})
	t.Run("decode failure", func(t *testing.T) {
		_, err := JSON[testPayload]().Serialize(get, resp200, []byte(`{`), nil)
		assert.Error(t, err)
	})
	t.Run("empty body with 204 yields zero value", func(t *testing.T) {
		v, err := JSON[testPayload]().Serialize(get, resp204, nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, testPayload{}, v)
	})
	t.Run("empty body without 204 in empty codes fails", func(t *testing.T) {
		s := JSON[testPayload]()
		s.EmptyResponseCodes = map[int]bool{205: true}
		_, err := s.Serialize(get, resp204, nil, nil)
		assert.ErrorIs(t, err, ErrEmptyBody)
	})
	t.Run("preprocess", func(t *testing.T) {
		s := JSON[testPayload]()
		s.Preprocess = func(b []byte) ([]byte, error) {
			return b[len(")]}',\n"):], nil
		}
		v, err := s.Serialize(get, resp200, []byte(")]}',\n{\"name\":\"y\"}"), nil)
		assert.NoError(t, err)
		assert.Equal(t, "y", v.Name)
	})
	t.Run("preprocess error", func(t *testing.T) {
		s := JSON[testPayload]()
		boom := errors.New("preprocess boom")
		s.Preprocess = func([]byte) ([]byte, error) { return nil, boom }
		_, err := s.Serialize(get, resp200, []byte("{}"), nil)
		assert.Same(t, boom, err)
	})
}
