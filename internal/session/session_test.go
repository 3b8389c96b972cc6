package session

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-os/vantage-cli/internal/assemble"
	"github.com/vantage-os/vantage-cli/internal/assistant"
	"github.com/vantage-os/vantage-cli/internal/model"
	"github.com/vantage-os/vantage-cli/internal/scan"
	"github.com/vantage-os/vantage-cli/internal/store"
)

type stubSheet struct {
	bills []model.Bill
	err   error
}

func (s *stubSheet) SyncBills(context.Context) ([]model.Bill, error) {
	return s.bills, s.err
}

type stubGenerator struct {
	answer     string
	err        error
	lastPrompt string
	lastRole   assistant.Role
}

func (s *stubGenerator) Generate(_ context.Context, prompt string, role assistant.Role) (string, error) {
	s.lastPrompt = prompt
	s.lastRole = role
	return s.answer, s.err
}

type stubFetcher struct {
	text map[string]string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	if body, ok := s.text[url]; ok {
		return body, nil
	}
	return "", eris.Errorf("no stub for %s", url)
}

func (s *stubFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	body, err := s.Fetch(ctx, url)
	return []byte(body), err
}

func (s *stubFetcher) Post(context.Context, string, string, string) (string, error) {
	return "", eris.New("unused")
}

type fixedScanner struct {
	docs []model.Document
}

func (f fixedScanner) Name() string { return "fixed" }

func (f fixedScanner) Scan(context.Context, model.Bill) ([]model.Document, error) {
	return f.docs, nil
}

func newTestManager(t *testing.T, deps Deps) *Manager {
	t.Helper()
	if deps.Store == nil {
		s, err := store.NewSQLite(":memory:")
		require.NoError(t, err)
		require.NoError(t, s.Migrate(context.Background()))
		t.Cleanup(func() { s.Close() })
		deps.Store = s
	}
	if deps.Assembler == nil {
		deps.Assembler = assemble.New(0, 0, 0)
	}
	if deps.AutosaveQuiet == 0 {
		deps.AutosaveQuiet = 10 * time.Millisecond
	}
	m := NewManager(deps)
	t.Cleanup(m.Close)
	return m
}

func seedBill(t *testing.T, m *Manager, bill model.Bill) {
	t.Helper()
	require.NoError(t, m.deps.Store.UpsertBill(context.Background(), bill))
}

func TestDeriveBills_SheetWinsStoredEnriches(t *testing.T) {
	sheet := []model.Bill{
		{ID: "HB 1", Title: "New Title", Status: "Passed", Summary: "New Title"},
		{ID: "HB 2", Title: "Fresh", Summary: "Fresh", FolderURL: "https://drive.google.com/f"},
	}
	stored := []model.Bill{
		{ID: "HB 1", Title: "Stale Title", Status: "In Committee",
			Summary: "Edited summary", FolderURL: "https://drive.google.com/old",
			Documents: []model.Document{{ID: "d1", Title: "Doc", Type: model.DocGeneric}}},
		{ID: "HB 9", Title: "Dropped from sheet"},
	}

	out := DeriveBills(sheet, stored)

	require.Len(t, out, 2)
	assert.Equal(t, "New Title", out[0].Title)
	assert.Equal(t, "Passed", out[0].Status)
	assert.Equal(t, "Edited summary", out[0].Summary)
	assert.Equal(t, "https://drive.google.com/old", out[0].FolderURL)
	require.Len(t, out[0].Documents, 1)

	assert.Equal(t, "https://drive.google.com/f", out[1].FolderURL)
	assert.NotNil(t, out[1].Documents)
}

func TestSyncBills_PersistsDerivedBills(t *testing.T) {
	m := newTestManager(t, Deps{
		Sheet: &stubSheet{bills: []model.Bill{
			{ID: "HB 1", Title: "One", Summary: "One"},
		}},
	})

	bills, err := m.SyncBills(context.Background())
	require.NoError(t, err)
	require.Len(t, bills, 1)

	got, err := m.deps.Store.GetBill(context.Background(), "HB 1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "One", got.Title)
}

func TestOpen_MissingBill(t *testing.T) {
	m := newTestManager(t, Deps{Sheet: &stubSheet{}})

	_, err := m.Open(context.Background(), "HB 404")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestScan_MergesAndPersists(t *testing.T) {
	m := newTestManager(t, Deps{
		Sheet: &stubSheet{},
		Scanners: []scan.Scanner{fixedScanner{docs: []model.Document{
			{ID: "d1", Title: "Report", Type: model.DocBillReport, URL: "http://x/r.pdf"},
		}}},
	})
	seedBill(t, m, model.Bill{ID: "HB 1", Title: "One"})

	ws, err := m.Open(context.Background(), "HB 1")
	require.NoError(t, err)

	inserted, err := ws.Scan()
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Rescanning an identical batch inserts nothing.
	inserted, err = ws.Scan()
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	m.saver.Flush()
	got, err := m.deps.Store.GetBill(context.Background(), "HB 1")
	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "d1", got.Documents[0].ID)
}

func TestScan_ClosedWorkspaceRefuses(t *testing.T) {
	m := newTestManager(t, Deps{Sheet: &stubSheet{}})
	seedBill(t, m, model.Bill{ID: "HB 1"})

	ws, err := m.Open(context.Background(), "HB 1")
	require.NoError(t, err)
	ws.Close()

	_, err = ws.Scan()
	require.Error(t, err)
}

func TestImportDocument_HTMLSource(t *testing.T) {
	m := newTestManager(t, Deps{
		Sheet:   &stubSheet{},
		Fetcher: &stubFetcher{text: map[string]string{"http://x/bill.htm": "SECTION 1. Text of the act."}},
	})
	seedBill(t, m, model.Bill{ID: "HB 1", Documents: []model.Document{
		{ID: "d1", Title: "Bill", Type: model.DocOriginalBill, URL: "http://x/bill.htm"},
	}})

	ws, err := m.Open(context.Background(), "HB 1")
	require.NoError(t, err)

	require.NoError(t, ws.ImportDocument("d1"))

	doc, ok := ws.reg.Get("d1")
	require.True(t, ok)
	assert.True(t, doc.Imported)
	assert.Equal(t, "SECTION 1. Text of the act.", doc.Content)
}

func TestImportDocument_FailureLeavesDocUntouched(t *testing.T) {
	m := newTestManager(t, Deps{
		Sheet:   &stubSheet{},
		Fetcher: &stubFetcher{},
	})
	seedBill(t, m, model.Bill{ID: "HB 1", Documents: []model.Document{
		{ID: "d1", Title: "Bill", Type: model.DocOriginalBill, URL: "http://gone/bill.htm"},
	}})

	ws, err := m.Open(context.Background(), "HB 1")
	require.NoError(t, err)

	require.Error(t, ws.ImportDocument("d1"))

	doc, _ := ws.reg.Get("d1")
	assert.False(t, doc.Imported)
	assert.Empty(t, doc.Content)
}

func TestAsk_AssemblesContextAndRecordsChat(t *testing.T) {
	gen := &stubGenerator{answer: "The fiscal note projects $2M."}
	m := newTestManager(t, Deps{Sheet: &stubSheet{}, Generator: gen})
	seedBill(t, m, model.Bill{ID: "HB 1", Title: "One", Summary: "A bill", Documents: []model.Document{
		{ID: "d1", Title: "Fiscal Note", Type: model.DocFiscalNote, Imported: true,
			Content: "The projected cost is two million dollars over the biennium."},
	}})

	ws, err := m.Open(context.Background(), "HB 1")
	require.NoError(t, err)
	ws.ToggleSelect("d1")

	answer, err := ws.Ask("What does it cost?", assistant.RolePolicy)
	require.NoError(t, err)
	assert.Equal(t, "The fiscal note projects $2M.", answer)

	assert.Contains(t, gen.lastPrompt, "Active Bill: HB 1 - One")
	assert.Contains(t, gen.lastPrompt, "projected cost is two million")
	assert.Contains(t, gen.lastPrompt, "QUESTION: What does it cost?")
	assert.Equal(t, assistant.RolePolicy, gen.lastRole)

	chat := ws.Chat()
	require.Len(t, chat, 2)
	assert.Equal(t, model.RoleUser, chat[0].Role)
	assert.Equal(t, model.RoleAssistant, chat[1].Role)
}

func TestAsk_GenerationFailureRecordsNothing(t *testing.T) {
	gen := &stubGenerator{err: eris.New("unavailable")}
	m := newTestManager(t, Deps{Sheet: &stubSheet{}, Generator: gen})
	seedBill(t, m, model.Bill{ID: "HB 1"})

	ws, err := m.Open(context.Background(), "HB 1")
	require.NoError(t, err)

	_, err = ws.Ask("question", assistant.RoleGeneral)
	require.Error(t, err)
	assert.Empty(t, ws.Chat())
}

func TestAddManualDocumentAndSummaryPersist(t *testing.T) {
	m := newTestManager(t, Deps{Sheet: &stubSheet{}})
	seedBill(t, m, model.Bill{ID: "HB 1", Summary: "old"})

	ws, err := m.Open(context.Background(), "HB 1")
	require.NoError(t, err)

	doc := ws.AddManualDocument("Floor Notes", "pasted text", "")
	ws.SetSummary("new summary")

	m.saver.Flush()
	got, err := m.deps.Store.GetBill(context.Background(), "HB 1")
	require.NoError(t, err)
	assert.Equal(t, "new summary", got.Summary)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, doc.ID, got.Documents[0].ID)
	assert.True(t, got.Documents[0].Imported)
}

func TestOpen_ReplacesExistingWorkspace(t *testing.T) {
	m := newTestManager(t, Deps{Sheet: &stubSheet{}})
	seedBill(t, m, model.Bill{ID: "HB 1"})

	first, err := m.Open(context.Background(), "HB 1")
	require.NoError(t, err)
	second, err := m.Open(context.Background(), "HB 1")
	require.NoError(t, err)

	// The first workspace died when the second opened.
	_, err = first.Scan()
	require.Error(t, err)
	_, err = second.Scan()
	require.NoError(t, err)
}
