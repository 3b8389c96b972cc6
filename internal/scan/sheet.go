package scan

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/vantage-os/vantage-cli/internal/config"
	"github.com/vantage-os/vantage-cli/internal/csvline"
	"github.com/vantage-os/vantage-cli/internal/model"
	"github.com/vantage-os/vantage-cli/internal/relay"
)

// minSheetColumns is the smallest row that still carries a usable bill
// (id through year).
const minSheetColumns = 5

// SheetScanner reads the master spreadsheet export. It is the system of
// record for bill metadata; every other source only enriches.
type SheetScanner struct {
	fetcher relay.Fetcher
	cfg     config.SheetConfig
}

// NewSheetScanner creates a SheetScanner.
func NewSheetScanner(fetcher relay.Fetcher, cfg config.SheetConfig) *SheetScanner {
	return &SheetScanner{fetcher: fetcher, cfg: cfg}
}

// SyncBills fetches the export and parses it into bill records. The header
// row is discarded; rows with fewer than five columns or an empty id are
// dropped. The seventh column becomes the folder link only when it
// contains the configured storage domain.
func (s *SheetScanner) SyncBills(ctx context.Context) ([]model.Bill, error) {
	rows, err := s.fetchRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		rows = rows[1:] // header
	}

	var bills []model.Bill
	for _, cols := range rows {
		b, ok := s.parseRow(cols)
		if !ok {
			continue
		}
		bills = append(bills, b)
	}

	zap.L().Info("scan: sheet sync complete",
		zap.Int("rows", len(rows)),
		zap.Int("bills", len(bills)),
	)
	return bills, nil
}

func (s *SheetScanner) fetchRows(ctx context.Context) ([][]string, error) {
	if s.cfg.Format == "xlsx" {
		raw, err := s.fetcher.FetchBytes(ctx, s.cfg.ExportURL)
		if err != nil {
			return nil, eris.Wrap(err, "scan: fetch sheet xlsx")
		}
		return parseXLSX(raw)
	}

	text, err := s.fetcher.Fetch(ctx, s.cfg.ExportURL)
	if err != nil {
		return nil, eris.Wrap(err, "scan: fetch sheet csv")
	}

	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, csvline.Parse(strings.TrimRight(line, "\r")))
	}
	return rows, nil
}

func parseXLSX(raw []byte) ([][]string, error) {
	f, err := xlsx.OpenBinary(raw)
	if err != nil {
		return nil, eris.Wrap(err, "scan: open sheet xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("scan: sheet xlsx has no worksheets")
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		var cells []string
		for _, c := range row.Cells {
			cells = append(cells, strings.TrimSpace(c.String()))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func col(cols []string, i int, fallback string) string {
	if i < len(cols) && cols[i] != "" {
		return cols[i]
	}
	return fallback
}

func (s *SheetScanner) parseRow(cols []string) (model.Bill, bool) {
	if len(cols) < minSheetColumns {
		return model.Bill{}, false
	}
	id := strings.TrimSpace(cols[0])
	if id == "" {
		return model.Bill{}, false
	}

	b := model.Bill{
		ID:        id,
		Title:     col(cols, 1, "No Title"),
		Sponsor:   col(cols, 2, "Unknown"),
		Committee: col(cols, 3, "Unknown"),
		Year:      col(cols, 4, "2025"),
		Status:    col(cols, 5, "Unknown"),
		Documents: []model.Document{},
	}
	b.Summary = b.Title

	if link := col(cols, 6, ""); link != "" && strings.Contains(link, s.cfg.StorageDomain) {
		b.FolderURL = link
	}
	if s.cfg.SponsorName != "" && strings.Contains(b.Sponsor, s.cfg.SponsorName) {
		b.Role = "Sponsor"
	} else {
		b.Role = "Watching"
	}

	return b, true
}
