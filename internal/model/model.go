// Package model defines the core entities of the legislative pipeline.
package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DocType classifies a discovered document. The set is open: scanners may
// only emit values from this list, but stored records round-trip whatever
// string they carry.
type DocType string

const (
	DocOriginalBill DocType = "Original Bill"
	DocAmendment    DocType = "Amendment"
	DocBillReport   DocType = "Bill Report"
	DocFiscalNote   DocType = "Fiscal Note"
	DocBillAnalysis DocType = "Bill Analysis"
	DocGeneric      DocType = "Document"
	DocOther        DocType = "Other"
	DocUnknown      DocType = "Unknown Doc"
)

// Document is one source document associated with a bill.
type Document struct {
	// ID is unique within the owning bill's document list: a remote file
	// id, a canonicalized URL, or "man-<uuid>" for manual entries.
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Type        DocType   `json:"type"`
	URL         string    `json:"url,omitempty"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	Content     string    `json:"content"`
	Imported    bool      `json:"imported"`
	Date        time.Time `json:"date"`
}

// Key returns the identity used for merge deduplication: the ID when
// present, otherwise the URL.
func (d Document) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.URL
}

// Validate normalizes a scanner-produced candidate before it may enter a
// registry. Candidates need an identity (id or URL) and always carry a
// document type.
func (d *Document) Validate() error {
	d.ID = strings.TrimSpace(d.ID)
	d.URL = strings.TrimSpace(d.URL)
	if d.ID == "" && d.URL == "" {
		return eris.New("model: document candidate has neither id nor url")
	}
	if d.Type == "" {
		d.Type = DocUnknown
	}
	if d.Title == "" {
		d.Title = "Untitled"
	}
	if d.Date.IsZero() {
		d.Date = time.Now().UTC()
	}
	return nil
}

// Bill is a tracked legislative proposal. The spreadsheet sync is the
// system of record for its metadata; the store only enriches documents,
// summary and folder link. Bills are never hard-deleted by the pipeline.
type Bill struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Sponsor   string     `json:"sponsor"`
	Committee string     `json:"committee"`
	Year      string     `json:"year"`
	Status    string     `json:"status"`
	Summary   string     `json:"summary"`
	Role      string     `json:"role,omitempty"`
	FolderURL string     `json:"folderUrl,omitempty"`
	Documents []Document `json:"documents"`
}

// ChatRole identifies the author of a chat turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one message in a bill-analysis session. The sequence is
// append-only and scoped to the session; it is not persisted.
type ChatTurn struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// FeedItem is one entry from a monitored news/RSS feed.
type FeedItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Source   string `json:"source"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Summary  string `json:"summary"`
}

// AgendaItem is one bill on a committee meeting agenda.
type AgendaItem struct {
	BillID      string `json:"billId"`
	Description string `json:"description"`
}

// Meeting is an upcoming committee meeting with its agenda.
type Meeting struct {
	AgendaID  string       `json:"agendaId"`
	Committee string       `json:"committee"`
	Agency    string       `json:"agency"`
	Date      time.Time    `json:"date"`
	Items     []AgendaItem `json:"items"`
}
