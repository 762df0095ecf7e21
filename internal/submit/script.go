package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/applyform/internal/application"
)

// PayloadField is the multipart field that carries the JSON draft.
const PayloadField = "data"

// Config configures a ScriptSubmitter.
type Config struct {
	// Endpoint is the collection URL. Empty makes every Submit fail with
	// ErrEndpointNotConfigured.
	Endpoint string

	// HTTPClient is the client to use.
	// If nil, a client with Timeout is created.
	HTTPClient *http.Client

	// Timeout bounds one attempt.
	// Default: 30 seconds
	Timeout time.Duration

	// Headers are added to every request.
	Headers map[string]string

	// UserAgent is the User-Agent header value.
	// Default: "applyform/1.0"
	UserAgent string

	// OnAttempt is called after each attempt, for logging and metrics.
	OnAttempt func(Attempt)
}

// ScriptSubmitter posts the draft as multipart/form-data with a single
// field, "data", holding the JSON-encoded draft.
type ScriptSubmitter struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	headers    map[string]string
	userAgent  string
	onAttempt  func(Attempt)
	now        func() time.Time
}

// NewScriptSubmitter creates a ScriptSubmitter.
func NewScriptSubmitter(cfg Config) *ScriptSubmitter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "applyform/1.0"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	return &ScriptSubmitter{
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		httpClient: httpClient,
		timeout:    cfg.Timeout,
		headers:    cfg.Headers,
		userAgent:  cfg.UserAgent,
		onAttempt:  cfg.OnAttempt,
		now:        time.Now,
	}
}

// Endpoint returns the configured URL.
func (s *ScriptSubmitter) Endpoint() string {
	return s.endpoint
}

// Submit makes exactly one POST. It never retries.
func (s *ScriptSubmitter) Submit(ctx context.Context, d application.Draft) error {
	start := s.now()
	attempt := Attempt{
		ID:       newAttemptID(),
		Endpoint: endpointHost(s.endpoint),
		Started:  start,
	}

	attempt.StatusCode, attempt.Err = s.post(ctx, d)
	attempt.Duration = s.now().Sub(start)

	if s.onAttempt != nil {
		s.onAttempt(attempt)
	}
	return attempt.Err
}

func (s *ScriptSubmitter) post(ctx context.Context, d application.Draft) (int, error) {
	if s.endpoint == "" {
		return 0, ErrEndpointNotConfigured
	}

	body, contentType, err := EncodePayload(d)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("submit: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", s.userAgent)
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("submit: request failed: %w", err)
	}
	defer resp.Body.Close()

	// The response is opaque; drain it so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}

// EncodePayload builds the multipart body and its Content-Type.
func EncodePayload(d application.Draft) (io.Reader, string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, "", fmt.Errorf("submit: failed to marshal draft: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField(PayloadField, string(data)); err != nil {
		return nil, "", fmt.Errorf("submit: failed to write form field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("submit: failed to close multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// endpointHost keeps the host only; script URLs carry deployment IDs in the
// path that do not belong in logs or metric labels.
func endpointHost(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}
