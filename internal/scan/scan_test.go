package scan

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-os/vantage-cli/internal/model"
)

// stubFetcher serves canned responses keyed by target URL.
type stubFetcher struct {
	text  map[string]string
	bytes map[string][]byte
	posts map[string]string
	err   error

	lastPostBody        string
	lastPostContentType string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if body, ok := s.text[url]; ok {
		return body, nil
	}
	return "", eris.Errorf("no stub for %s", url)
}

func (s *stubFetcher) FetchBytes(_ context.Context, url string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	if body, ok := s.bytes[url]; ok {
		return body, nil
	}
	if body, ok := s.text[url]; ok {
		return []byte(body), nil
	}
	return nil, eris.Errorf("no stub for %s", url)
}

func (s *stubFetcher) Post(_ context.Context, url, contentType, body string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.lastPostBody = body
	s.lastPostContentType = contentType
	if resp, ok := s.posts[url]; ok {
		return resp, nil
	}
	return "", eris.Errorf("no stub for %s", url)
}

type fixedScanner struct {
	name string
	docs []model.Document
	err  error
}

func (f fixedScanner) Name() string { return f.name }

func (f fixedScanner) Scan(context.Context, model.Bill) ([]model.Document, error) {
	return f.docs, f.err
}

func TestRunAll_FailingScannerDoesNotEmptySiblings(t *testing.T) {
	scanners := []Scanner{
		fixedScanner{name: "a", docs: []model.Document{{ID: "d1", URL: "http://x/1"}}},
		fixedScanner{name: "b", err: eris.New("boom")},
		fixedScanner{name: "c", docs: []model.Document{{ID: "d2", URL: "http://x/2"}}},
	}

	docs := RunAll(context.Background(), model.Bill{ID: "HB 1000"}, scanners)

	require.Len(t, docs, 2)
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, "d2", docs[1].ID)
}

func TestRunAll_JoinsInScannerOrder(t *testing.T) {
	scanners := []Scanner{
		fixedScanner{name: "slow", docs: []model.Document{{ID: "first"}}},
		fixedScanner{name: "fast", docs: []model.Document{{ID: "second"}}},
	}

	docs := RunAll(context.Background(), model.Bill{ID: "HB 1000"}, scanners)

	require.Len(t, docs, 2)
	assert.Equal(t, "first", docs[0].ID)
	assert.Equal(t, "second", docs[1].ID)
}

func TestClassify_Precedence(t *testing.T) {
	cases := []struct {
		href, text, filename string
		want                 model.DocType
	}{
		{"https://host/Amendments/2200-S.pdf", "", "", model.DocAmendment},
		{"https://host/Reports/HB2200.pdf", "", "", model.DocBillReport},
		{"https://host/fiscal/2200.pdf", "", "", model.DocFiscalNote},
		{"https://host/Bills/2200.pdf", "", "", model.DocOriginalBill},
		{"https://host/misc/x.pdf", "Bill Analysis 2025", "", model.DocBillAnalysis},
		{"", "", "Fiscal Note HB2200.pdf", model.DocFiscalNote},
		{"https://host/misc/x.pdf", "text", "x.pdf", model.DocGeneric},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.href, tc.text, tc.filename), "href=%s text=%s file=%s", tc.href, tc.text, tc.filename)
	}
}

func TestClassify_PathBeatsAnchorText(t *testing.T) {
	got := Classify("https://host/Amendments/2200.pdf", "Bill Analysis", "fiscal.pdf")
	assert.Equal(t, model.DocAmendment, got)
}

func TestFilenameStem(t *testing.T) {
	assert.Equal(t, "Fiscal Note 2200", filenameStem("https://host/docs/Fiscal%20Note%202200.pdf"))
	assert.Equal(t, "plain", filenameStem("plain.pdf"))
	assert.Equal(t, "noext", filenameStem("https://host/noext"))
}
