package relay

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// CORSProxy relays through a corsproxy-style service that returns the
// fetched page verbatim: GET {base}?{encoded-target}.
type CORSProxy struct {
	baseURL string
	http    *http.Client
}

// NewCORSProxy creates a CORSProxy relay against the given endpoint,
// e.g. "https://corsproxy.io/".
func NewCORSProxy(baseURL string, timeout time.Duration) *CORSProxy {
	return &CORSProxy{baseURL: baseURL, http: newHTTPClient(timeout)}
}

func (c *CORSProxy) Name() string { return "corsproxy" }

func (c *CORSProxy) proxied(targetURL string) string {
	base := c.baseURL
	if !strings.HasSuffix(base, "?") {
		base += "?"
	}
	return base + url.QueryEscape(targetURL)
}

func (c *CORSProxy) do(req *http.Request, targetURL string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "corsproxy: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "corsproxy: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{URL: targetURL, Status: resp.StatusCode,
			Err: statusErr("corsproxy", resp.StatusCode)}
	}
	return body, nil
}

// Fetch retrieves the target URL as text.
func (c *CORSProxy) Fetch(ctx context.Context, targetURL string) (string, error) {
	b, err := c.FetchBytes(ctx, targetURL)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FetchBytes retrieves the target URL as raw bytes.
func (c *CORSProxy) FetchBytes(ctx context.Context, targetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.proxied(targetURL), nil)
	if err != nil {
		return nil, eris.Wrap(err, "corsproxy: create request")
	}
	return c.do(req, targetURL)
}

// Post relays a POST with the given body to the target URL.
func (c *CORSProxy) Post(ctx context.Context, targetURL, contentType, body string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxied(targetURL), strings.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "corsproxy: create request")
	}
	req.Header.Set("Content-Type", contentType)

	b, err := c.do(req, targetURL)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
