// Package session coordinates per-bill workspaces: document discovery,
// imports, summary edits and the analysis chat all happen inside a
// workspace whose lifetime bounds its in-flight work.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantage-os/vantage-cli/internal/assemble"
	"github.com/vantage-os/vantage-cli/internal/assistant"
	"github.com/vantage-os/vantage-cli/internal/autosave"
	"github.com/vantage-os/vantage-cli/internal/model"
	"github.com/vantage-os/vantage-cli/internal/pdftext"
	"github.com/vantage-os/vantage-cli/internal/registry"
	"github.com/vantage-os/vantage-cli/internal/relay"
	"github.com/vantage-os/vantage-cli/internal/scan"
	"github.com/vantage-os/vantage-cli/internal/store"
)

// Generator produces assistant replies; *assistant.Gateway satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, role assistant.Role) (string, error)
}

// BillSyncer pulls the authoritative bill list; *scan.SheetScanner
// satisfies it.
type BillSyncer interface {
	SyncBills(ctx context.Context) ([]model.Bill, error)
}

// Deps collects the collaborators a Manager needs.
type Deps struct {
	Store     store.Store
	Sheet     BillSyncer
	Scanners  []scan.Scanner
	Extractor *pdftext.Extractor
	Fetcher   relay.Fetcher
	Generator Generator
	Assembler *assemble.Assembler

	// AutosaveQuiet is the debounce window for workspace persistence.
	AutosaveQuiet time.Duration
}

// Manager owns the open workspaces and the shared autosave debouncer.
type Manager struct {
	deps  Deps
	saver *autosave.Debouncer

	mu   sync.Mutex
	open map[string]*Workspace
}

// NewManager creates a Manager.
func NewManager(deps Deps) *Manager {
	m := &Manager{
		deps: deps,
		open: map[string]*Workspace{},
	}
	m.saver = autosave.New(deps.AutosaveQuiet, func(ctx context.Context, _ string, value any) error {
		bill, ok := value.(model.Bill)
		if !ok {
			return eris.New("session: autosave value is not a bill")
		}
		return deps.Store.UpsertBill(ctx, bill)
	})
	return m
}

// SyncBills refreshes the bill list from the sheet, merges in stored
// enrichment, persists the result, and returns it.
func (m *Manager) SyncBills(ctx context.Context) ([]model.Bill, error) {
	sheetBills, err := m.deps.Sheet.SyncBills(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "session: sheet sync")
	}

	stored, err := m.deps.Store.ListBills(ctx, store.BillFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "session: list stored bills")
	}

	derived := DeriveBills(sheetBills, stored)
	for _, b := range derived {
		if err := m.deps.Store.UpsertBill(ctx, b); err != nil {
			return nil, eris.Wrapf(err, "session: persist bill %s", b.ID)
		}
	}
	return derived, nil
}

// DeriveBills merges the sheet's bills with stored state. The sheet wins
// every metadata field; the store contributes documents, a non-empty
// summary, and the folder link when the sheet has none. Bills absent from
// the sheet are dropped.
func DeriveBills(sheetBills, stored []model.Bill) []model.Bill {
	byID := make(map[string]model.Bill, len(stored))
	for _, b := range stored {
		byID[b.ID] = b
	}

	out := make([]model.Bill, 0, len(sheetBills))
	for _, sb := range sheetBills {
		if prev, ok := byID[sb.ID]; ok {
			sb.Documents = prev.Documents
			if prev.Summary != "" {
				sb.Summary = prev.Summary
			}
			if sb.FolderURL == "" {
				sb.FolderURL = prev.FolderURL
			}
		}
		if sb.Documents == nil {
			sb.Documents = []model.Document{}
		}
		out = append(out, sb)
	}
	return out
}

// Open loads the bill and returns a live workspace for it. An already-open
// workspace for the same bill is closed first; its in-flight scans die
// with it.
func (m *Manager) Open(ctx context.Context, billID string) (*Workspace, error) {
	bill, err := m.deps.Store.GetBill(ctx, billID)
	if err != nil {
		return nil, eris.Wrapf(err, "session: load bill %s", billID)
	}
	if bill == nil {
		return nil, eris.Wrapf(store.ErrNotFound, "session: %s", billID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.open[billID]; ok {
		prev.close()
	}

	wsCtx, cancel := context.WithCancel(context.Background())
	ws := &Workspace{
		manager: m,
		bill:    *bill,
		reg:     registry.New(bill.Documents),
		ctx:     wsCtx,
		cancel:  cancel,
	}
	m.open[billID] = ws
	return ws, nil
}

// Get returns the open workspace for the bill, if any.
func (m *Manager) Get(billID string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.open[billID]
	return ws, ok
}

// Close shuts down every open workspace and flushes pending saves.
func (m *Manager) Close() {
	m.mu.Lock()
	for id, ws := range m.open {
		ws.close()
		delete(m.open, id)
	}
	m.mu.Unlock()

	m.saver.Close()
}

// Workspace is one bill's active session. Mutations route through the
// registry and are autosaved; the workspace context bounds scans, imports
// and chat so a closed workspace can no longer mutate anything.
type Workspace struct {
	manager *Manager

	mu     sync.Mutex
	bill   model.Bill
	chat   []model.ChatTurn
	closed bool

	reg    *registry.Registry
	ctx    context.Context
	cancel context.CancelFunc
}

// Bill returns the bill with the registry's current document list.
func (w *Workspace) Bill() model.Bill {
	w.mu.Lock()
	b := w.bill
	w.mu.Unlock()
	b.Documents = w.reg.Documents()
	return b
}

// Chat returns the session's chat log.
func (w *Workspace) Chat() []model.ChatTurn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.ChatTurn(nil), w.chat...)
}

// Scan fans out over the configured scanners and merges candidates into
// the registry. Returns the number of new documents.
func (w *Workspace) Scan() (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "session: workspace closed")
	}

	candidates := scan.RunAll(w.ctx, w.Bill(), w.manager.deps.Scanners)

	// A close racing the scan must not land results.
	if err := w.ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "session: workspace closed")
	}

	inserted := w.reg.MergeInsert(candidates)
	if inserted > 0 {
		w.save()
	}
	zap.L().Info("session: scan merged",
		zap.String("bill", w.bill.ID),
		zap.Int("candidates", len(candidates)),
		zap.Int("inserted", inserted),
	)
	return inserted, nil
}

// ImportDocument pulls the document's text into the registry. PDF targets
// go through the extractor; anything else is fetched as text. Failure
// leaves the document untouched.
func (w *Workspace) ImportDocument(docID string) error {
	if err := w.ctx.Err(); err != nil {
		return eris.Wrap(err, "session: workspace closed")
	}

	doc, ok := w.reg.Get(docID)
	if !ok {
		return eris.Errorf("session: document %s not found", docID)
	}

	text, err := w.fetchText(doc)
	if err != nil {
		return err
	}
	if err := w.ctx.Err(); err != nil {
		return eris.Wrap(err, "session: workspace closed")
	}

	w.reg.MarkImported(docID, text)
	w.save()
	return nil
}

func (w *Workspace) fetchText(doc model.Document) (string, error) {
	deps := w.manager.deps
	switch {
	case doc.DownloadURL != "":
		return deps.Extractor.Extract(w.ctx, doc.DownloadURL)
	case strings.HasSuffix(strings.ToLower(doc.URL), ".pdf"):
		return deps.Extractor.Extract(w.ctx, doc.URL)
	case doc.URL != "":
		text, err := deps.Fetcher.Fetch(w.ctx, doc.URL)
		if err != nil {
			return "", eris.Wrapf(err, "session: fetch %s", doc.URL)
		}
		return text, nil
	default:
		return "", eris.Errorf("session: document %s has no source url", doc.ID)
	}
}

// AddManualDocument registers operator-pasted text as an imported document
// and returns it.
func (w *Workspace) AddManualDocument(title, content string, docType model.DocType) model.Document {
	doc := scan.NewManualDocument(title, content, docType)
	w.reg.MergeInsert([]model.Document{doc})
	w.save()
	return doc
}

// ToggleSelect flips a document in or out of the chat context selection.
func (w *Workspace) ToggleSelect(docID string) {
	w.reg.ToggleSelect(docID)
}

// SetSummary replaces the bill summary.
func (w *Workspace) SetSummary(text string) {
	w.mu.Lock()
	w.bill.Summary = text
	w.mu.Unlock()
	w.save()
}

// Ask sends the question with the assembled bill context and appends both
// turns to the chat log. A failed generation appends nothing.
func (w *Workspace) Ask(question string, role assistant.Role) (string, error) {
	if err := w.ctx.Err(); err != nil {
		return "", eris.Wrap(err, "session: workspace closed")
	}

	bill := w.Bill()
	var selected []model.Document
	ids := w.reg.Selected()
	for _, d := range bill.Documents {
		if _, ok := ids[d.ID]; ok {
			selected = append(selected, d)
		}
	}

	prompt := w.manager.deps.Assembler.Build(bill, selected) +
		"\nQUESTION: " + question

	answer, err := w.manager.deps.Generator.Generate(w.ctx, prompt, role)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	w.chat = append(w.chat,
		model.ChatTurn{Role: model.RoleUser, Text: question},
		model.ChatTurn{Role: model.RoleAssistant, Text: answer},
	)
	w.mu.Unlock()
	return answer, nil
}

// save schedules a debounced persist of the workspace snapshot.
func (w *Workspace) save() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	bill := w.Bill()
	w.manager.saver.Save(bill.ID, bill)
}

// Close cancels the workspace and removes it from the manager.
func (w *Workspace) Close() {
	w.manager.mu.Lock()
	if current, ok := w.manager.open[w.bill.ID]; ok && current == w {
		delete(w.manager.open, w.bill.ID)
	}
	w.manager.mu.Unlock()

	w.close()
}

// close cancels in-flight work. Caller manages the manager map.
func (w *Workspace) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cancel()
}
