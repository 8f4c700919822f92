package caller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"certledger/pkg/domain"
	"certledger/pkg/requestcontext"
)

var registrar = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")

type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(tokenString string) (domain.Address, error) {
	args := m.Called(tokenString)
	return args.Get(0).(domain.Address), args.Error(1)
}

// mockHandler captures whether it was called and the context it saw.
type mockHandler struct {
	called  bool
	context context.Context
}

func (m *mockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.called = true
	m.context = r.Context()
	w.WriteHeader(http.StatusOK)
}

type CallerMiddlewareTestSuite struct {
	suite.Suite
	validator   *MockTokenValidator
	nextHandler *mockHandler
	middleware  func(http.Handler) http.Handler
}

func TestCallerMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(CallerMiddlewareTestSuite))
}

func (s *CallerMiddlewareTestSuite) SetupTest() {
	s.validator = new(MockTokenValidator)
	s.nextHandler = &mockHandler{}
	s.middleware = RequireCaller(s.validator, slog.Default())
}

func (s *CallerMiddlewareTestSuite) TearDownTest() {
	s.validator.AssertExpectations(s.T())
}

func (s *CallerMiddlewareTestSuite) makeRequest(authHeader string) *httptest.ResponseRecorder {
	handler := s.middleware(s.nextHandler)
	req := httptest.NewRequest(http.MethodPost, "/certificates", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func (s *CallerMiddlewareTestSuite) TestValidToken() {
	s.validator.On("ValidateToken", "valid-token").Return(registrar, nil)

	w := s.makeRequest("Bearer valid-token")

	require.True(s.T(), s.nextHandler.called, "next handler should be called")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), registrar, requestcontext.Caller(s.nextHandler.context))
}

func (s *CallerMiddlewareTestSuite) TestMissingHeader() {
	w := s.makeRequest("")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.JSONEq(s.T(),
		`{"error":"unauthenticated","error_description":"Missing or invalid Authorization header"}`,
		w.Body.String(),
	)
}

func (s *CallerMiddlewareTestSuite) TestWrongScheme() {
	w := s.makeRequest("Basic dXNlcjpwYXNz")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *CallerMiddlewareTestSuite) TestInvalidToken() {
	s.validator.On("ValidateToken", "bad-token").Return(domain.ZeroAddress, errors.New("signature invalid"))

	w := s.makeRequest("Bearer bad-token")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.JSONEq(s.T(),
		`{"error":"unauthenticated","error_description":"Invalid or expired token"}`,
		w.Body.String(),
	)
}

func (s *CallerMiddlewareTestSuite) TestZeroAddressIsRejected() {
	s.validator.On("ValidateToken", "zero").Return(domain.ZeroAddress, nil)

	w := s.makeRequest("Bearer zero")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}
