// Package fetch performs the single bounded HTTP request of a poll cycle.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// MaxBodyBytes caps the response body read from the status endpoint.
const MaxBodyBytes = 64 << 10

// Kind classifies a TransportError for logging.
type Kind string

const (
	KindConnect Kind = "connect" // dial, TLS, timeout or request failure
	KindStatus  Kind = "status"  // server answered with a non-2xx code
	KindRead    Kind = "read"    // body could not be read
)

// TransportError describes a failed fetch. The poll loop treats every kind
// the same way; Kind and StatusCode exist for diagnostics.
type TransportError struct {
	Kind       Kind
	StatusCode int // set for KindStatus
	Err        error
}

func (e *TransportError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the failure was caused by a timeout.
func (e *TransportError) IsTimeout() bool {
	var ne net.Error
	if errors.As(e.Err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// HTTPFetcher fetches the status document over HTTP.
type HTTPFetcher struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

// NewHTTPFetcher creates a fetcher for endpoint. The timeout bounds
// connection establishment on its own and the whole request end to end.
func NewHTTPFetcher(endpoint string, timeout time.Duration, userAgent string) *HTTPFetcher {
	dialer := &net.Dialer{Timeout: timeout}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          1,
		IdleConnTimeout:       30 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		endpoint:  endpoint,
		userAgent: userAgent,
	}
}

// Endpoint returns the URL being polled.
func (f *HTTPFetcher) Endpoint() string {
	return f.endpoint
}

// Fetch performs exactly one GET request and returns the body.
// Any failure is returned as a *TransportError.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, &TransportError{Kind: KindConnect, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{Kind: KindConnect, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodyBytes))
		return nil, &TransportError{Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, &TransportError{Kind: KindRead, Err: err}
	}
	return body, nil
}

// CloseIdleConnections releases pooled connections.
func (f *HTTPFetcher) CloseIdleConnections() {
	f.client.CloseIdleConnections()
}
