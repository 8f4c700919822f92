package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"certledger/internal/callertoken"
	"certledger/pkg/domain"
)

// TestContext holds state between test steps
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	server *httptest.Server
	tokens *callertoken.Service
	actors map[string]domain.Address
}

// NewTestContext creates a new test context with a fixed cast of identities.
func NewTestContext() *TestContext {
	return &TestContext{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		actors: map[string]domain.Address{
			"owner":    domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
			"issuer":   domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"),
			"issuer2":  domain.MustParseAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"),
			"holder":   domain.MustParseAddress("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"),
			"holder2":  domain.MustParseAddress("0x00000000000000000000000000000000000000b2"),
			"stranger": domain.MustParseAddress("0x00000000000000000000000000000000000000c3"),
		},
	}
}

// Start boots a fresh registry owned by the named actor.
func (tc *TestContext) Start(owner string) error {
	addr, err := tc.Actor(owner)
	if err != nil {
		return err
	}
	srv, tokens, err := startServer(addr)
	if err != nil {
		return err
	}
	tc.server, tc.tokens, tc.BaseURL = srv, tokens, srv.URL
	return nil
}

// Close stops the scenario's server.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
}

func (tc *TestContext) Actor(name string) (domain.Address, error) {
	addr, ok := tc.actors[name]
	if !ok {
		return domain.ZeroAddress, fmt.Errorf("unknown actor %q", name)
	}
	return addr, nil
}

// AuthHeaders returns the bearer header for the named actor.
func (tc *TestContext) AuthHeaders(actor string) (map[string]string, error) {
	addr, err := tc.Actor(actor)
	if err != nil {
		return nil, err
	}
	token, err := tc.tokens.Issue(context.Background(), addr)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// POST makes a POST request and stores the response
func (tc *TestContext) POST(path string, body interface{}, headers map[string]string) error {
	return tc.send(http.MethodPost, path, body, headers)
}

// DELETE makes a DELETE request and stores the response
func (tc *TestContext) DELETE(path string, headers map[string]string) error {
	return tc.send(http.MethodDelete, path, nil, headers)
}

// GET makes a GET request and stores the response
func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.send(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) send(method, path string, body interface{}, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

// GetResponseField extracts a field from the JSON response
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response", field)
	}

	return value, nil
}

// ResponseContains checks if the response body contains a field or text
func (tc *TestContext) ResponseContains(text string) bool {
	return strings.Contains(string(tc.LastResponseBody), text)
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}
