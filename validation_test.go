// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlib/flight/descriptor"
)

func respWith(status int, contentType string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
	}
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	return resp
}

func TestValidateStatus(t *testing.T) {
	t.Run("default range", func(t *testing.T) {
		v := ValidateStatus()
		assert.NoError(t, v(nil, respWith(200, ""), nil))
		assert.NoError(t, v(nil, respWith(204, ""), nil))
		assert.NoError(t, v(nil, respWith(299, ""), nil))
		assert.Error(t, v(nil, respWith(300, ""), nil))
		assert.Error(t, v(nil, respWith(404, ""), nil))
		assert.Error(t, v(nil, respWith(199, ""), nil))
	})
	t.Run("explicit codes", func(t *testing.T) {
		v := ValidateStatus(404, 200)
		assert.NoError(t, v(nil, respWith(404, ""), nil))
		assert.NoError(t, v(nil, respWith(200, ""), nil))
		err := v(nil, respWith(500, ""), nil)
		require.Error(t, err)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, UnacceptableStatusCode, verr.Reason)
		assert.Equal(t, 500, verr.StatusCode)
		assert.Equal(t, []int{404, 200}, verr.AcceptedCodes)
	})
}

func TestValidateContentType(t *testing.T) {
	jsonDesc, err := descriptor.New("GET", "http://example.com", nil)
	require.NoError(t, err)
	jsonDesc.Header.Set("Accept", "application/json")

	t.Run("explicit types", func(t *testing.T) {
		v := ValidateContentType("application/json")
		assert.NoError(t, v(nil, respWith(200, "application/json"), []byte("{}")))
		assert.NoError(t, v(nil, respWith(200, "application/json; charset=utf-8"), []byte("{}")))
		assert.Error(t, v(nil, respWith(200, "text/html"), []byte("<p>")))
	})
	t.Run("subtype wildcard", func(t *testing.T) {
		v := ValidateContentType("image/*")
		assert.NoError(t, v(nil, respWith(200, "image/png"), []byte{1}))
		assert.Error(t, v(nil, respWith(200, "text/plain"), []byte{1}))
	})
	t.Run("full wildcard matches anything", func(t *testing.T) {
		v := ValidateContentType("*/*")
		assert.NoError(t, v(nil, respWith(200, "application/octet-stream"), []byte{1}))
		assert.NoError(t, v(nil, respWith(200, ""), []byte{1}))
	})
	t.Run("accept header drives default", func(t *testing.T) {
		v := ValidateContentType()
		assert.NoError(t, v(jsonDesc, respWith(200, "application/json"), []byte("{}")))
		err := v(jsonDesc, respWith(200, "text/html"), []byte("<p>"))
		require.Error(t, err)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, UnacceptableContentType, verr.Reason)
		assert.Equal(t, "text/html", verr.ContentType)
	})
	t.Run("no accept header accepts anything", func(t *testing.T) {
		bare, err := descriptor.New("GET", "http://example.com", nil)
		require.NoError(t, err)
		v := ValidateContentType()
		assert.NoError(t, v(bare, respWith(200, "application/x-whatever"), []byte{1}))
	})
	t.Run("empty body on empty code passes", func(t *testing.T) {
		v := ValidateContentType("application/json")
		assert.NoError(t, v(nil, respWith(204, ""), nil))
		assert.NoError(t, v(nil, respWith(205, ""), nil))
	})
	t.Run("missing content type", func(t *testing.T) {
		strict := ValidateContentType("application/json")
		assert.Error(t, strict(nil, respWith(200, ""), []byte("{}")))
		loose := ValidateContentType("*/*")
		assert.NoError(t, loose(nil, respWith(200, ""), []byte("{}")))
	})
}

func TestWrapValidation(t *testing.T) {
	assert.NoError(t, wrapValidation(nil))

	custom := errors.New("body checksum mismatch")
	err := wrapValidation(custom)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CustomValidation, verr.Reason)
	assert.ErrorIs(t, err, custom)

	already := &ValidationError{Reason: UnacceptableStatusCode, StatusCode: 418}
	assert.Same(t, error(already), wrapValidation(already))
}
