package tools

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// MaxResponseSize caps tool response bodies (10 MB). Script results can
// carry base64 PNG payloads, which are large but bounded.
const MaxResponseSize = 10 * 1024 * 1024

// RemoteConfig configures the HTTP client shared by the remote tools.
type RemoteConfig struct {
	// Timeout bounds each tool request end to end.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification for this
	// client only. The execution endpoints run with self-signed
	// certificates; the skip must not leak to the rest of the process.
	InsecureSkipVerify bool
}

// Remote is the HTTP client used by the weather, script, and query tools.
// It holds its own transport so TLS settings stay scoped to tool traffic.
type Remote struct {
	client *http.Client
	logger *slog.Logger
}

// NewRemote creates a Remote client.
func NewRemote(cfg RemoteConfig, logger *slog.Logger) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, // #nosec G402 -- scoped to the self-signed tool endpoints
		},
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Remote{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// Client exposes the underlying HTTP client.
func (r *Remote) Client() *http.Client {
	return r.client
}

// GetJSON issues a GET request and decodes the JSON response body.
func (r *Remote) GetJSON(ctx context.Context, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error! Status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}

// PostJSON POSTs a JSON payload and returns the response as a string. A
// JSON string response is returned as-is; any other JSON value is
// re-serialized, matching what the model expects from the executors.
func (r *Remote) PostJSON(ctx context.Context, url string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP error! Status: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if s, ok := decoded.(string); ok {
		return s, nil
	}

	reencoded, err := json.Marshal(decoded)
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(reencoded), nil
}
