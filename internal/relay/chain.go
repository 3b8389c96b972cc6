package relay

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vantage-os/vantage-cli/internal/config"
)

// Chain tries relays in priority order, returning the first success. Each
// relay gets exactly one attempt per fetch; there is no retry beyond the
// fallback hop and no caching.
type Chain struct {
	relays  []Relay
	limiter *rate.Limiter
}

// NewChain creates a Chain over the given relays in priority order.
func NewChain(relays ...Relay) *Chain {
	return &Chain{relays: relays}
}

// WithLimiter gates every outbound fetch through the given rate limiter,
// keeping the chain polite toward the public relay services.
func (c *Chain) WithLimiter(l *rate.Limiter) *Chain {
	c.limiter = l
	return c
}

// Build constructs the relay chain described by cfg.
func Build(cfg config.RelayConfig) (*Chain, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second

	var relays []Relay
	for _, name := range cfg.Order {
		switch name {
		case "allorigins":
			relays = append(relays, NewAllOrigins(cfg.AllOriginsURL, timeout))
		case "corsproxy":
			relays = append(relays, NewCORSProxy(cfg.CORSProxyURL, timeout))
		default:
			return nil, eris.Errorf("relay: unknown relay %q in order", name)
		}
	}
	if len(relays) == 0 {
		return nil, eris.New("relay: empty relay order")
	}

	chain := NewChain(relays...)
	if cfg.RatePerSec > 0 {
		chain.WithLimiter(rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1))
	}
	return chain, nil
}

func (c *Chain) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// through runs fn against each relay in order until one succeeds. All
// failures collapse into a NetworkError carrying the last relay's status.
func (c *Chain) through(ctx context.Context, targetURL string, fn func(Relay) error) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "relay: rate limit wait")
	}

	var lastErr error
	for _, r := range c.relays {
		err := fn(r)
		if err == nil {
			return nil
		}
		zap.L().Debug("relay: relay failed, trying next",
			zap.String("relay", r.Name()),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	var ne *NetworkError
	if errors.As(lastErr, &ne) {
		return &NetworkError{URL: targetURL, Status: ne.Status, Err: lastErr}
	}
	return &NetworkError{URL: targetURL, Err: lastErr}
}

// Fetch retrieves the target URL as text through the first relay that
// answers.
func (c *Chain) Fetch(ctx context.Context, targetURL string) (string, error) {
	var out string
	err := c.through(ctx, targetURL, func(r Relay) error {
		s, err := r.Fetch(ctx, targetURL)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// FetchBytes retrieves the target URL as bytes through the first relay
// that answers.
func (c *Chain) FetchBytes(ctx context.Context, targetURL string) ([]byte, error) {
	var out []byte
	err := c.through(ctx, targetURL, func(r Relay) error {
		b, err := r.FetchBytes(ctx, targetURL)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// Post relays a POST through the first relay that supports and answers it.
func (c *Chain) Post(ctx context.Context, targetURL, contentType, body string) (string, error) {
	var out string
	err := c.through(ctx, targetURL, func(r Relay) error {
		s, err := r.Post(ctx, targetURL, contentType, body)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}
