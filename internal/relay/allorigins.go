package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// AllOrigins relays through an allorigins-style service whose GET endpoint
// wraps the fetched page in a JSON envelope {contents, status}.
type AllOrigins struct {
	baseURL string
	http    *http.Client
}

// NewAllOrigins creates an AllOrigins relay against the given endpoint,
// e.g. "https://api.allorigins.win/get".
func NewAllOrigins(baseURL string, timeout time.Duration) *AllOrigins {
	return &AllOrigins{baseURL: baseURL, http: newHTTPClient(timeout)}
}

func (a *AllOrigins) Name() string { return "allorigins" }

type allOriginsEnvelope struct {
	Contents string `json:"contents"`
	Status   struct {
		HTTPCode int `json:"http_code"`
	} `json:"status"`
}

func (a *AllOrigins) fetchEnvelope(ctx context.Context, targetURL string) (*allOriginsEnvelope, error) {
	reqURL := a.baseURL + "?url=" + url.QueryEscape(targetURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "allorigins: create request")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "allorigins: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "allorigins: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{URL: targetURL, Status: resp.StatusCode,
			Err: statusErr("allorigins", resp.StatusCode)}
	}

	var env allOriginsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "allorigins: unmarshal envelope")
	}
	return &env, nil
}

// Fetch retrieves the target URL and unwraps the JSON envelope.
func (a *AllOrigins) Fetch(ctx context.Context, targetURL string) (string, error) {
	env, err := a.fetchEnvelope(ctx, targetURL)
	if err != nil {
		return "", err
	}
	return env.Contents, nil
}

// FetchBytes retrieves the target URL as bytes. Binary payloads come back
// from the envelope as a base64 data URI; anything else is returned as the
// raw contents string.
func (a *AllOrigins) FetchBytes(ctx context.Context, targetURL string) ([]byte, error) {
	env, err := a.fetchEnvelope(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	if idx := strings.Index(env.Contents, ";base64,"); strings.HasPrefix(env.Contents, "data:") && idx > 0 {
		decoded, err := base64.StdEncoding.DecodeString(env.Contents[idx+len(";base64,"):])
		if err != nil {
			return nil, eris.Wrap(err, "allorigins: decode base64 contents")
		}
		return decoded, nil
	}
	return []byte(env.Contents), nil
}

// Post is unsupported by envelope relays; the chain moves on to a raw
// relay.
func (a *AllOrigins) Post(ctx context.Context, targetURL, contentType, body string) (string, error) {
	return "", eris.New("allorigins: POST not supported")
}
