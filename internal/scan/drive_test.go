package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-os/vantage-cli/internal/config"
	"github.com/vantage-os/vantage-cli/internal/model"
)

const scriptURL = "https://script.example/exec"

func driveScanner(response string) (*DriveScanner, *stubFetcher) {
	f := &stubFetcher{posts: map[string]string{scriptURL: response}}
	return NewDriveScanner(f, config.DriveConfig{ScriptURL: scriptURL, Secret: "s3cret"}), f
}

func TestDriveLookup_MapsFiles(t *testing.T) {
	d, f := driveScanner(`{"status":"success","folderUrl":"https://drive.google.com/drive/folders/xyz",` +
		`"files":[{"id":"abc","name":"Fiscal Note HB2200.pdf","url":"https://drive.google.com/file/d/abc"},` +
		`{"id":"def","name":"Testimony.pdf","url":"https://drive.google.com/file/d/def"}]}`)

	res, err := d.Lookup(context.Background(), "HB 2200")

	require.NoError(t, err)
	assert.Empty(t, res.Status)
	assert.Equal(t, "https://drive.google.com/drive/folders/xyz", res.FolderURL)
	require.Len(t, res.Documents, 2)

	fiscal := res.Documents[0]
	assert.Equal(t, "abc", fiscal.ID)
	assert.Equal(t, model.DocFiscalNote, fiscal.Type)
	assert.Equal(t, "https://drive.google.com/uc?export=download&id=abc", fiscal.DownloadURL)
	assert.False(t, fiscal.Imported)

	assert.Equal(t, model.DocGeneric, res.Documents[1].Type)

	assert.Equal(t, "text/plain;charset=utf-8", f.lastPostContentType)
	assert.Contains(t, f.lastPostBody, `"action":"get_bill_files"`)
	assert.Contains(t, f.lastPostBody, `"billId":"HB 2200"`)
	assert.Contains(t, f.lastPostBody, `"secret":"s3cret"`)
}

func TestDriveLookup_NonJSONMeansAccessDenied(t *testing.T) {
	d, _ := driveScanner(`<html><body>Sign in</body></html>`)

	res, err := d.Lookup(context.Background(), "HB 2200")

	require.NoError(t, err)
	assert.Equal(t, driveStatusDenied, res.Status)
	assert.Empty(t, res.Documents)
}

func TestDriveLookup_EmptyFolder(t *testing.T) {
	d, _ := driveScanner(`{"status":"success","files":[]}`)

	res, err := d.Lookup(context.Background(), "HB 2200")

	require.NoError(t, err)
	assert.Equal(t, driveStatusEmpty, res.Status)
}

func TestDriveLookup_FolderMissingUsesScriptMessage(t *testing.T) {
	d, _ := driveScanner(`{"status":"error","message":"No folder named HB 9999"}`)

	res, err := d.Lookup(context.Background(), "HB 9999")

	require.NoError(t, err)
	assert.Equal(t, "No folder named HB 9999", res.Status)

	d2, _ := driveScanner(`{"status":"error"}`)
	res2, err := d2.Lookup(context.Background(), "HB 9999")
	require.NoError(t, err)
	assert.Equal(t, driveStatusNotFound, res2.Status)
}

func TestDriveScan_StatusOutcomeYieldsNoCandidates(t *testing.T) {
	d, _ := driveScanner(`{"status":"error"}`)

	docs, err := d.Scan(context.Background(), model.Bill{ID: "HB 1"})

	require.NoError(t, err)
	assert.Empty(t, docs)
}
