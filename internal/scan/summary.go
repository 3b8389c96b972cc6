package scan

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/vantage-os/vantage-cli/internal/config"
	"github.com/vantage-os/vantage-cli/internal/model"
	"github.com/vantage-os/vantage-cli/internal/relay"
)

// SummaryScanner scrapes the bill's public summary page for PDF links.
// Only links pointing at the configured trusted hosts are kept.
type SummaryScanner struct {
	fetcher relay.Fetcher
	cfg     config.LegisConfig
}

// NewSummaryScanner creates a SummaryScanner.
func NewSummaryScanner(fetcher relay.Fetcher, cfg config.LegisConfig) *SummaryScanner {
	return &SummaryScanner{fetcher: fetcher, cfg: cfg}
}

func (s *SummaryScanner) Name() string { return "summary" }

// Scan fetches the summary page and walks its parse tree for anchors whose
// href ends in .pdf. Relative hrefs resolve against the page URL; the same
// href never yields two candidates.
func (s *SummaryScanner) Scan(ctx context.Context, bill model.Bill) ([]model.Document, error) {
	number := billNumber(bill.ID)
	if number == "" {
		return nil, eris.Errorf("scan: bill id %q has no number", bill.ID)
	}

	pageURL := strings.NewReplacer(
		"{biennium}", s.cfg.Biennium,
		"{bill}", number,
	).Replace(s.cfg.SummaryURL)

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, eris.Wrap(err, "scan: parse summary url")
	}

	body, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, eris.Wrap(err, "scan: fetch summary page")
	}

	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "scan: parse summary html")
	}

	seen := map[string]bool{}
	var docs []model.Document
	for _, a := range collectAnchors(root) {
		href, ok := s.resolvePDF(base, a.href)
		if !ok || seen[href] {
			continue
		}
		seen[href] = true

		title := strings.TrimSpace(a.text)
		if len(title) <= 5 {
			title = filenameStem(href)
		}
		docs = append(docs, model.Document{
			ID:    "sum-" + filenameStem(href),
			Title: title,
			Type:  Classify(href, a.text, filenameStem(href)+".pdf"),
			URL:   href,
		})
	}
	return docs, nil
}

type anchor struct {
	href string
	text string
}

// collectAnchors walks the parse tree depth-first gathering every <a href>
// with its visible text.
func collectAnchors(n *html.Node) []anchor {
	var out []anchor
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" {
					out = append(out, anchor{href: attr.Val, text: nodeText(n)})
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// resolvePDF resolves href against the page URL and accepts it only when
// it targets a .pdf on a trusted host.
func (s *SummaryScanner) resolvePDF(base *url.URL, href string) (string, bool) {
	u, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	if !strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return "", false
	}

	host := strings.ToLower(u.Host)
	for _, trusted := range s.cfg.TrustedHosts {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return u.String(), true
		}
	}
	return "", false
}
