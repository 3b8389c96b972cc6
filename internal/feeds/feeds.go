// Package feeds monitors news and RSS sources through a feed-to-JSON
// conversion API.
package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vantage-os/vantage-cli/internal/config"
	"github.com/vantage-os/vantage-cli/internal/model"
	"github.com/vantage-os/vantage-cli/internal/relay"
)

// Monitor fetches configured feeds through the conversion API.
type Monitor struct {
	fetcher relay.Fetcher
	cfg     config.FeedsConfig
}

// New creates a Monitor.
func New(fetcher relay.Fetcher, cfg config.FeedsConfig) *Monitor {
	return &Monitor{fetcher: fetcher, cfg: cfg}
}

type feedResponse struct {
	Status string `json:"status"`
	Items  []struct {
		Title       string `json:"title"`
		PubDate     string `json:"pubDate"`
		Link        string `json:"link"`
		Description string `json:"description"`
	} `json:"items"`
}

// FetchAll pulls every configured source concurrently. A failing source
// logs and contributes nothing; items keep source order.
func (m *Monitor) FetchAll(ctx context.Context) []model.FeedItem {
	results := make([][]model.FeedItem, len(m.cfg.Sources))

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	for i, src := range m.cfg.Sources {
		i, src := i, src
		g.Go(func() error {
			items, err := m.fetchSource(gCtx, src)
			if err != nil {
				zap.L().Warn("feeds: source failed",
					zap.String("source", src.Name),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			results[i] = items
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var all []model.FeedItem
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all
}

func (m *Monitor) fetchSource(ctx context.Context, src config.FeedSource) ([]model.FeedItem, error) {
	apiURL := fmt.Sprintf("%s?rss_url=%s", m.cfg.APIURL, url.QueryEscape(src.URL))
	body, err := m.fetcher.Fetch(ctx, apiURL)
	if err != nil {
		return nil, eris.Wrapf(err, "feeds: fetch %s", src.Name)
	}

	var resp feedResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, eris.Wrapf(err, "feeds: decode %s", src.Name)
	}
	if resp.Status != "ok" {
		return nil, eris.Errorf("feeds: %s returned status %q", src.Name, resp.Status)
	}

	items := make([]model.FeedItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		items = append(items, model.FeedItem{
			ID:       it.Link,
			Title:    it.Title,
			Source:   src.Name,
			Category: src.Category,
			Date:     it.PubDate,
			Summary:  it.Description,
		})
	}
	return items, nil
}
