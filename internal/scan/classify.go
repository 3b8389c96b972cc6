package scan

import (
	"strings"

	"github.com/vantage-os/vantage-cli/internal/model"
)

// Classify derives a document type from its URL, anchor text and filename.
// Precedence is fixed so it cannot drift between scanners: URL path
// keyword, then anchor text mentioning an analysis, then a fiscal-sounding
// filename, then the generic Document type. Scanners that only know a
// filename pass empty href and linkText.
func Classify(href, linkText, filename string) model.DocType {
	path := strings.ToLower(href)
	switch {
	case strings.Contains(path, "/amendments/"):
		return model.DocAmendment
	case strings.Contains(path, "/reports/"):
		return model.DocBillReport
	case strings.Contains(path, "fiscal"):
		return model.DocFiscalNote
	case strings.Contains(path, "/bills/"):
		return model.DocOriginalBill
	}

	if strings.Contains(strings.ToLower(linkText), "analysis") {
		return model.DocBillAnalysis
	}

	if strings.Contains(strings.ToLower(filename), "fiscal") {
		return model.DocFiscalNote
	}

	return model.DocGeneric
}

// filenameStem returns the last path segment without its extension, with
// URL-encoded spaces restored.
func filenameStem(u string) string {
	s := u
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "."); idx > 0 {
		s = s[:idx]
	}
	s = strings.ReplaceAll(s, "%20", " ")
	return s
}
