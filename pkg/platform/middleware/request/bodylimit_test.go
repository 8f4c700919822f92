package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyLimitPassesBodiesUpToTheCap(t *testing.T) {
	for _, size := range []int{0, 64, 100} {
		var got []byte
		handler := BodyLimit(100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error
			got, err = io.ReadAll(r.Body)
			require.NoError(t, err)
		}))

		req := httptest.NewRequest(http.MethodPost, "/issuers", strings.NewReader(strings.Repeat("x", size)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, got, size)
	}
}

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	called := false
	handler := BodyLimit(100)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/certificates", strings.NewReader(strings.Repeat("x", 101)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "request body too large", body["error_description"])
}

func TestBodyLimitCutsOffUndeclaredBodies(t *testing.T) {
	var readErr error
	handler := BodyLimit(100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/certificates", strings.NewReader(strings.Repeat("x", 200)))
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var tooLarge *http.MaxBytesError
	require.Error(t, readErr)
	assert.True(t, errors.As(readErr, &tooLarge))
}
