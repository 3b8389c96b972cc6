package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-os/vantage-cli/internal/config"
)

const sheetURL = "https://sheets.example/export?format=csv"

func sheetScanner(csv string) *SheetScanner {
	return NewSheetScanner(
		&stubFetcher{text: map[string]string{sheetURL: csv}},
		config.SheetConfig{
			ExportURL:     sheetURL,
			Format:        "csv",
			StorageDomain: "drive.google.com",
			SponsorName:   "Rep. Doe",
		},
	)
}

func TestSyncBills_ParsesRowsAndSkipsHeader(t *testing.T) {
	csv := "Bill,Title,Sponsor,Committee,Year,Status,Drive\n" +
		"HB 2200,\"Energy, \"\"Clean\"\" Act\",Rep. Doe,Environment,2025,In Committee,https://drive.google.com/drive/folders/xyz\n" +
		"SB 5100,Budget,Sen. Roe,Ways & Means,2025,Passed,\n"

	bills, err := sheetScanner(csv).SyncBills(context.Background())

	require.NoError(t, err)
	require.Len(t, bills, 2)

	b := bills[0]
	assert.Equal(t, "HB 2200", b.ID)
	assert.Equal(t, `Energy, "Clean" Act`, b.Title)
	assert.Equal(t, "Rep. Doe", b.Sponsor)
	assert.Equal(t, "Environment", b.Committee)
	assert.Equal(t, "2025", b.Year)
	assert.Equal(t, "In Committee", b.Status)
	assert.Equal(t, "https://drive.google.com/drive/folders/xyz", b.FolderURL)
	assert.Equal(t, "Sponsor", b.Role)
	assert.Equal(t, b.Title, b.Summary)

	assert.Equal(t, "Watching", bills[1].Role)
	assert.Empty(t, bills[1].FolderURL)
}

func TestSyncBills_DropsShortAndEmptyIDRows(t *testing.T) {
	csv := "Bill,Title,Sponsor,Committee,Year\n" +
		"HB 1,Title,S,C,2025\n" +
		",No id here,S,C,2025\n" +
		"only,three,cols\n"

	bills, err := sheetScanner(csv).SyncBills(context.Background())

	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "HB 1", bills[0].ID)
}

func TestSyncBills_IgnoresFolderLinkOffStorageDomain(t *testing.T) {
	csv := "h\nHB 2,T,S,C,2025,Active,https://example.com/folder\n"

	bills, err := sheetScanner(csv).SyncBills(context.Background())

	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Empty(t, bills[0].FolderURL)
}

func TestSyncBills_DefaultsMissingTrailingColumns(t *testing.T) {
	csv := "h\nHB 3,Some Title,Sponsor X,Judiciary,2024\n"

	bills, err := sheetScanner(csv).SyncBills(context.Background())

	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "Unknown", bills[0].Status)
	assert.Equal(t, "2024", bills[0].Year)
}
