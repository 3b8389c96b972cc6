package scan

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/vantage-os/vantage-cli/internal/config"
	"github.com/vantage-os/vantage-cli/internal/model"
	"github.com/vantage-os/vantage-cli/internal/relay"
)

// Drive lookup status messages shown to the operator verbatim.
const (
	driveStatusDenied   = "Access denied by Drive. Click to open folder manually."
	driveStatusEmpty    = "Folder found, but no files inside."
	driveStatusNotFound = "Folder not found in Drive."
)

// DriveScanner lists a bill's cloud folder through the bridge script. The
// script only accepts text/plain posts; anything else triggers a CORS
// preflight it cannot answer.
type DriveScanner struct {
	fetcher relay.Fetcher
	cfg     config.DriveConfig
}

// NewDriveScanner creates a DriveScanner.
func NewDriveScanner(fetcher relay.Fetcher, cfg config.DriveConfig) *DriveScanner {
	return &DriveScanner{fetcher: fetcher, cfg: cfg}
}

func (d *DriveScanner) Name() string { return "drive" }

// DriveResult is the outcome of a folder lookup. Status is empty on
// success with files; otherwise it carries the operator-facing message.
type DriveResult struct {
	Documents []model.Document
	FolderURL string
	Status    string
}

type driveRequest struct {
	Action string `json:"action"`
	BillID string `json:"billId"`
	Secret string `json:"secret"`
}

type driveFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type driveResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	FolderURL string      `json:"folderUrl"`
	Files     []driveFile `json:"files"`
}

// Lookup asks the bridge script for the bill's folder contents. Transport
// errors propagate; a script-side denial or miss comes back as a Status
// message with no error, so callers can still open the folder by hand.
func (d *DriveScanner) Lookup(ctx context.Context, billID string) (*DriveResult, error) {
	payload, err := json.Marshal(driveRequest{
		Action: "get_bill_files",
		BillID: billID,
		Secret: d.cfg.Secret,
	})
	if err != nil {
		return nil, err
	}

	body, err := d.fetcher.Post(ctx, d.cfg.ScriptURL, "text/plain;charset=utf-8", string(payload))
	if err != nil {
		return nil, err
	}

	var resp driveResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		// The script serves an HTML login page instead of JSON when the
		// caller lacks access.
		zap.L().Warn("scan: drive returned non-JSON response",
			zap.String("bill", billID),
		)
		return &DriveResult{Status: driveStatusDenied}, nil
	}

	if resp.Status != "success" {
		msg := resp.Message
		if msg == "" {
			msg = driveStatusNotFound
		}
		return &DriveResult{Status: msg}, nil
	}
	if len(resp.Files) == 0 {
		return &DriveResult{FolderURL: resp.FolderURL, Status: driveStatusEmpty}, nil
	}

	result := &DriveResult{FolderURL: resp.FolderURL}
	for _, f := range resp.Files {
		result.Documents = append(result.Documents, model.Document{
			ID:          f.ID,
			Title:       f.Name,
			Type:        driveDocType(f.Name),
			URL:         f.URL,
			DownloadURL: "https://drive.google.com/uc?export=download&id=" + f.ID,
			Imported:    false,
		})
	}
	return result, nil
}

// driveDocType types a folder file by name alone; the listing carries no
// URL path to classify on.
func driveDocType(name string) model.DocType {
	if strings.Contains(strings.ToLower(name), "fiscal") {
		return model.DocFiscalNote
	}
	return model.DocGeneric
}

// Scan adapts Lookup to the batch interface. Lookups that end in a status
// message contribute no candidates.
func (d *DriveScanner) Scan(ctx context.Context, bill model.Bill) ([]model.Document, error) {
	res, err := d.Lookup(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	if res.Status != "" {
		zap.L().Info("scan: drive lookup yielded no files",
			zap.String("bill", bill.ID),
			zap.String("status", res.Status),
		)
	}
	return res.Documents, nil
}
