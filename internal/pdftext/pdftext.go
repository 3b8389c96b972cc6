// Package pdftext extracts plain text from remote PDF documents.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantage-os/vantage-cli/internal/relay"
)

// DefaultPageCap bounds how many pages are read per document so a single
// large PDF cannot blow up the assembled LLM context.
const DefaultPageCap = 10

// ExtractionError reports that a document's text could not be extracted.
// Callers must treat it as "no text available", never as an empty document.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("pdftext: extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor fetches PDFs through the relay chain and extracts page text.
type Extractor struct {
	fetcher relay.Fetcher
	pageCap int
}

// NewExtractor creates an Extractor. pageCap <= 0 selects DefaultPageCap.
func NewExtractor(fetcher relay.Fetcher, pageCap int) *Extractor {
	if pageCap <= 0 {
		pageCap = DefaultPageCap
	}
	return &Extractor{fetcher: fetcher, pageCap: pageCap}
}

// Extract downloads the PDF at url and returns its text for pages
// 1..min(total, pageCap), each page prefixed with a "[Page N]" marker so
// downstream consumers can cite page numbers. Any failure returns an
// ExtractionError and no partial text.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	raw, err := e.fetcher.FetchBytes(ctx, url)
	if err != nil {
		return "", &ExtractionError{URL: url, Err: eris.Wrap(err, "fetch pdf")}
	}

	text, pages, err := extract(raw, e.pageCap)
	if err != nil {
		return "", &ExtractionError{URL: url, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{URL: url, Err: eris.New("no text content")}
	}

	zap.L().Debug("pdftext: extracted document",
		zap.String("url", url),
		zap.Int("pages", pages),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

func extract(raw []byte, pageCap int) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", 0, eris.Wrap(err, "open pdf")
	}

	total := reader.NumPage()
	limit := total
	if limit > pageCap {
		limit = pageCap
	}

	var out strings.Builder
	read := 0
	for i := 1; i <= limit; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, eris.Wrapf(err, "page %d", i)
		}
		fmt.Fprintf(&out, "\n[Page %d]\n%s", i, pageText)
		read++
	}

	return out.String(), read, nil
}
