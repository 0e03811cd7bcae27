// Copyright 2026 The flight Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flight

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadables(t *testing.T) {
	t.Run("bytes", func(t *testing.T) {
		b, err := UploadBytes([]byte("payload")).Payload()
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), b)
	})
	t.Run("file rereads per attempt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "body.txt")
		require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
		u := UploadFile(path)

		b, err := u.Payload()
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), b)

		require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
		b, err = u.Payload()
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), b)
	})
	t.Run("file missing", func(t *testing.T) {
		_, err := UploadFile(filepath.Join(t.TempDir(), "absent")).Payload()
		assert.Error(t, err)
	})
	t.Run("reader replays", func(t *testing.T) {
		u := UploadReader(strings.NewReader("one shot"))
		b, err := u.Payload()
		require.NoError(t, err)
		assert.Equal(t, []byte("one shot"), b)

		b, err = u.Payload()
		require.NoError(t, err)
		assert.Equal(t, []byte("one shot"), b, "retries must see the captured payload")
	})
}

func TestUploadRequest(t *testing.T) {
	t.Run("sends payload and reports progress", func(t *testing.T) {
		exec := &fakeExecutor{outcomes: []fakeOutcome{{status: 201, body: []byte(`{"ok":true}`)}}}
		s := newTestSession(exec, nil)

		var sent []int64
		var got DataResponse[[]byte]
		r := s.Upload(UploadBytes([]byte("0123456789")), "POST", "http://example.com/upload").
			OnUploadProgress(nil, func(completed, total int64) {
				sent = append(sent, completed)
				assert.Equal(t, int64(10), total)
			})
		ResponseData(&r.DataRequest, nil, func(resp DataResponse[[]byte]) { got = resp })
		r.Resume()

		require.NoError(t, got.Err)
		require.NotNil(t, r.LastDescriptor())
		assert.Equal(t, []byte("0123456789"), r.LastDescriptor().Body)
		require.NotEmpty(t, sent)
		assert.Equal(t, int64(10), sent[len(sent)-1])
		assert.Equal(t, int64(10), r.UploadProgress().Completed())
		assert.Equal(t, Finished, r.State())
	})
	t.Run("payload error is terminal", func(t *testing.T) {
		exec := &fakeExecutor{}
		s := newTestSession(exec, nil)
		boom := errors.New("unreadable body")

		var got DataResponse[[]byte]
		r := s.UploadWith(uploadableFunc(func() ([]byte, error) { return nil, boom }),
			getFactory("http://example.com/upload"))
		ResponseData(&r.DataRequest, nil, func(resp DataResponse[[]byte]) { got = resp })
		r.Resume()

		var invalid *InvalidRequestError
		require.ErrorAs(t, got.Err, &invalid)
		assert.ErrorIs(t, got.Err, boom)
		assert.Equal(t, 0, exec.taskCount())
	})
}

type uploadableFunc func() ([]byte, error)

func (f uploadableFunc) Payload() ([]byte, error) { return f() }
