package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"certledger/internal/platform/config"
	"certledger/internal/platform/metrics"
	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/circuit"
	"certledger/pkg/requestcontext"
)

const (
	pinataBackend     = "pinata"
	pinJSONPath       = "/pinning/pinJSONToIPFS"
	maxDocumentBytes  = 1 << 20
	defaultPinTimeout = 15 * time.Second
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PinningClient pins documents through the Pinata API and reads them back
// through an IPFS gateway. IPFS CIDs depend only on content, which keeps Put
// deterministic.
type PinningClient struct {
	apiURL     string
	gatewayURL string
	jwt        string
	apiKey     string
	apiSecret  string
	client     HTTPDoer
	timeout    time.Duration
	breaker    *circuit.Breaker
	metrics    *metrics.Metrics
}

type PinningOption func(*PinningClient)

func WithHTTPClient(c HTTPDoer) PinningOption {
	return func(p *PinningClient) { p.client = c }
}

func WithBreaker(b *circuit.Breaker) PinningOption {
	return func(p *PinningClient) { p.breaker = b }
}

func WithMetrics(m *metrics.Metrics) PinningOption {
	return func(p *PinningClient) { p.metrics = m }
}

func NewPinningClient(cfg config.MetadataConfig, opts ...PinningOption) *PinningClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPinTimeout
	}
	p := &PinningClient{
		apiURL:     strings.TrimRight(cfg.PinataAPIURL, "/"),
		gatewayURL: strings.TrimRight(cfg.PinataGateway, "/"),
		jwt:        cfg.PinataJWT,
		apiKey:     cfg.PinataAPIKey,
		apiSecret:  cfg.PinataAPISecret,
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: timeout}
	}
	if p.breaker == nil {
		p.breaker = circuit.New(pinataBackend)
	}
	return p
}

type pinRequest struct {
	PinataContent  json.RawMessage `json:"pinataContent"`
	PinataMetadata pinMetadata     `json:"pinataMetadata"`
	PinataOptions  pinOptions      `json:"pinataOptions"`
}

type pinMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues"`
}

type pinOptions struct {
	CIDVersion int `json:"cidVersion"`
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (p *PinningClient) Put(ctx context.Context, m *Metadata) (domain.ContentHash, error) {
	body, err := Canonical(m)
	if err != nil {
		return "", err
	}
	var doc Metadata
	_ = json.Unmarshal(body, &doc)

	payload, err := json.Marshal(pinRequest{
		PinataContent: body,
		PinataMetadata: pinMetadata{
			Name: fmt.Sprintf("cert-%s-%d", doc.StudentName, requestcontext.Now(ctx).UnixMilli()),
			KeyValues: map[string]string{
				"studentName": doc.StudentName,
				"courseName":  doc.CourseName,
			},
		},
		PinataOptions: pinOptions{CIDVersion: 1},
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode pin request")
	}

	var out pinResponse
	err = p.call(ctx, "put", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+pinJSONPath, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		p.authorize(req)
		return req, nil
	}, func(respBody []byte) error {
		if err := json.Unmarshal(respBody, &out); err != nil || out.IpfsHash == "" {
			return dErrors.New(dErrors.CodeInternal, "pinning service returned no content hash")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return domain.ParseContentHash(out.IpfsHash)
}

func (p *PinningClient) Get(ctx context.Context, hash domain.ContentHash) (*Metadata, error) {
	if hash.IsNil() || strings.ContainsAny(hash.String(), "/?#") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid content hash")
	}
	var m Metadata
	err := p.call(ctx, "get", func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, p.gatewayURL+"/"+hash.String(), nil)
	}, func(respBody []byte) error {
		if err := json.Unmarshal(respBody, &m); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "content is not a metadata document")
		}
		return nil
	})
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, notFound(hash)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *PinningClient) authorize(req *http.Request) {
	if p.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+p.jwt)
		return
	}
	req.Header.Set("pinata_api_key", p.apiKey)
	req.Header.Set("pinata_secret_api_key", p.apiSecret)
}

// call runs one request through the breaker and classifies the outcome.
func (p *PinningClient) call(ctx context.Context, op string, build func(context.Context) (*http.Request, error), decode func([]byte) error) error {
	if !p.breaker.Allow() {
		p.observe(op, "breaker_open", time.Now())
		return dErrors.New(dErrors.CodeUnavailable, "metadata store unavailable")
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := build(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.recordFailure()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.observe(op, "timeout", start)
			return dErrors.Wrap(err, dErrors.CodeTimeout, "metadata store timed out")
		}
		p.observe(op, "unavailable", start)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "metadata store unavailable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		p.recordFailure()
		p.observe(op, "unavailable", start)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read metadata store response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		p.recordSuccess()
	case resp.StatusCode == http.StatusNotFound:
		// a missing document says nothing about the health of the service
		p.recordSuccess()
		p.observe(op, "not_found", start)
		return dErrors.New(dErrors.CodeNotFound, "metadata not found")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		p.observe(op, "rejected", start)
		return dErrors.New(dErrors.CodeInternal, "pinning credentials rejected")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		p.recordFailure()
		p.observe(op, "unavailable", start)
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("metadata store unavailable: %s", errorDetails(resp.Status, respBody)))
	default:
		p.observe(op, "rejected", start)
		return dErrors.New(dErrors.CodeInternal, fmt.Sprintf("metadata store rejected request: %s", errorDetails(resp.Status, respBody)))
	}

	if err := decode(respBody); err != nil {
		p.observe(op, "bad_response", start)
		return err
	}
	p.observe(op, "ok", start)
	return nil
}

// errorDetails pulls error.details (or a plain error string) out of a Pinata error body.
func errorDetails(status string, body []byte) string {
	var structured struct {
		Error struct {
			Reason  string `json:"reason"`
			Details string `json:"details"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &structured) == nil && structured.Error.Details != "" {
		return structured.Error.Details
	}
	var plain struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &plain) == nil && plain.Error != "" {
		return plain.Error
	}
	return status
}

func (p *PinningClient) recordFailure() {
	if change := p.breaker.RecordFailure(); change.Opened && p.metrics != nil {
		p.metrics.SetBreakerOpen(p.breaker.Name(), true)
	}
}

func (p *PinningClient) recordSuccess() {
	if change := p.breaker.RecordSuccess(); change.Closed && p.metrics != nil {
		p.metrics.SetBreakerOpen(p.breaker.Name(), false)
	}
}

func (p *PinningClient) observe(op, outcome string, start time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.ObserveRequest(pinataBackend, op, outcome, time.Since(start).Seconds())
}
