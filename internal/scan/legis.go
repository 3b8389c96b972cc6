package scan

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantage-os/vantage-cli/internal/config"
	"github.com/vantage-os/vantage-cli/internal/model"
	"github.com/vantage-os/vantage-cli/internal/pdftext"
	"github.com/vantage-os/vantage-cli/internal/relay"
)

// LegisScanner discovers official bill documents through the legislature's
// XML web service. Document URLs ending in .pdf are extracted immediately
// so the candidate arrives ready for the context assembler.
type LegisScanner struct {
	fetcher   relay.Fetcher
	extractor *pdftext.Extractor
	cfg       config.LegisConfig
}

// NewLegisScanner creates a LegisScanner.
func NewLegisScanner(fetcher relay.Fetcher, extractor *pdftext.Extractor, cfg config.LegisConfig) *LegisScanner {
	return &LegisScanner{fetcher: fetcher, extractor: extractor, cfg: cfg}
}

func (l *LegisScanner) Name() string { return "legis" }

// billNumber extracts the numeric part of a bill id like "HB 2200" or
// "2SSB 5100". Empty when the id carries no digits.
func billNumber(billID string) string {
	var b strings.Builder
	for _, r := range billID {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// legisDocTypes maps the service's document URL element names to document
// types.
var legisDocTypes = map[string]model.DocType{
	"OriginalTextUrl": model.DocOriginalBill,
	"BillReportUrl":   model.DocBillReport,
	"FiscalNoteUrl":   model.DocFiscalNote,
	"AmendmentUrl":    model.DocAmendment,
}

// Scan queries GetLegislation for the bill's biennium and number, walks
// the XML for document URL elements, and pre-extracts any PDF targets.
func (l *LegisScanner) Scan(ctx context.Context, bill model.Bill) ([]model.Document, error) {
	number := billNumber(bill.ID)
	if number == "" {
		return nil, eris.Errorf("scan: bill id %q has no number", bill.ID)
	}

	url := fmt.Sprintf("%s/LegislationService.asmx/GetLegislation?biennium=%s&billNumber=%s",
		strings.TrimRight(l.cfg.BaseURL, "/"), l.cfg.Biennium, number)
	body, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, eris.Wrap(err, "scan: fetch legislation")
	}

	links, err := parseDocURLs(body)
	if err != nil {
		return nil, eris.Wrap(err, "scan: parse legislation xml")
	}

	var docs []model.Document
	for _, link := range links {
		doc := model.Document{
			ID:    fmt.Sprintf("leg-%s-%s", number, docSlug(link.docType)),
			Title: fmt.Sprintf("%s - %s", bill.ID, link.docType),
			Type:  link.docType,
			URL:   link.url,
		}
		if strings.HasSuffix(strings.ToLower(link.url), ".pdf") && l.extractor != nil {
			text, err := l.extractor.Extract(ctx, link.url)
			if err != nil {
				zap.L().Warn("scan: legis document extraction failed",
					zap.String("bill", bill.ID),
					zap.String("url", link.url),
					zap.Error(err),
				)
			} else {
				doc.Content = text
				doc.Imported = true
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

type docLink struct {
	docType model.DocType
	url     string
}

func docSlug(t model.DocType) string {
	return strings.ReplaceAll(strings.ToLower(string(t)), " ", "-")
}

// parseDocURLs token-walks the service XML, capturing the character data
// of every element named in legisDocTypes. Duplicate elements keep the
// first non-empty URL.
func parseDocURLs(body string) ([]docLink, error) {
	dec := xml.NewDecoder(strings.NewReader(body))

	seen := map[string]bool{}
	var links []docLink
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, ok := legisDocTypes[t.Name.Local]; ok {
				current = t.Name.Local
			}
		case xml.CharData:
			if current == "" {
				continue
			}
			url := strings.TrimSpace(string(t))
			if url != "" && !seen[current] {
				seen[current] = true
				links = append(links, docLink{docType: legisDocTypes[current], url: url})
			}
		case xml.EndElement:
			if t.Name.Local == current {
				current = ""
			}
		}
	}
	return links, nil
}
