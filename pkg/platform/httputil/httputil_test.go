package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/requestcontext"
)

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
		body   string
	}{
		{dErrors.CodeUnauthorized, http.StatusForbidden, "unauthorized"},
		{dErrors.CodeUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{dErrors.CodeNotFound, http.StatusNotFound, "not_found"},
		{dErrors.CodeDuplicateContent, http.StatusConflict, "duplicate_content"},
		{dErrors.CodeAlreadyRevoked, http.StatusConflict, "already_revoked"},
		{dErrors.CodeBadRequest, http.StatusBadRequest, "bad_request"},
		{dErrors.CodeInvalidInput, http.StatusBadRequest, "invalid_argument"},
		{dErrors.CodeValidation, http.StatusBadRequest, "invalid_argument"},
		{dErrors.CodeInvariantViolation, http.StatusBadRequest, "invalid_argument"},
		{dErrors.CodeTimeout, http.StatusGatewayTimeout, "registry_timeout"},
		{dErrors.CodeUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tc.code, "boom"))

			assert.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.body, body["error"])
			assert.Equal(t, "boom", body["error_description"])
		})
	}
}

func TestWriteError_UnknownErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRequireCaller(t *testing.T) {
	_, err := RequireCaller(context.Background(), nil, "req")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))

	addr := domain.MustParseAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
	got, err := RequireCaller(requestcontext.WithCaller(context.Background(), addr), nil, "req")
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}
