// Package relay fetches external content through third-party CORS relay
// services, falling back through a prioritized chain when a relay fails.
package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vantage-os/vantage-cli/internal/resilience"
)

// Fetcher is the read-only fetch surface consumed by scanners and the PDF
// extractor.
type Fetcher interface {
	// Fetch retrieves the target URL as text.
	Fetch(ctx context.Context, targetURL string) (string, error)
	// FetchBytes retrieves the target URL as raw bytes.
	FetchBytes(ctx context.Context, targetURL string) ([]byte, error)
	// Post sends a body to the target URL and returns the response text.
	Post(ctx context.Context, targetURL, contentType, body string) (string, error)
}

// Relay is one concrete relay service.
type Relay interface {
	Fetcher
	Name() string
}

// NetworkError reports that a fetch failed after the whole relay chain was
// exhausted. Status carries the last relay's HTTP status when one was seen.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("relay: fetch %s failed (last status %d): %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("relay: fetch %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// statusErr builds the inner error for an unexpected relay status, marking
// retryable codes as transient so callers that retry classify them.
func statusErr(name string, code int) error {
	err := eris.Errorf("%s: unexpected status %d", name, code)
	if resilience.IsTransientHTTPStatus(code) {
		return resilience.NewTransientError(err, code)
	}
	return err
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
