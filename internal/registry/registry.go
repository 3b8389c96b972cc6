// Package registry maintains the per-bill deduplicated document set.
package registry

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vantage-os/vantage-cli/internal/model"
)

// ImportedSentinel replaces extracted text that came back blank, so an
// imported document is never indistinguishable from an unimported one.
const ImportedSentinel = "Text extracted."

// Registry holds one bill's ordered, deduplicated document list plus the
// session-scoped selection set. All operations are safe for concurrent use;
// merge decisions are made under the lock at insert time, so a scan landing
// after a manual add cannot duplicate a key.
type Registry struct {
	mu       sync.Mutex
	docs     []model.Document
	selected map[string]struct{}
}

// New creates a Registry seeded with the given documents. Seed duplicates
// are dropped the same way scan candidates are.
func New(seed []model.Document) *Registry {
	r := &Registry{selected: make(map[string]struct{})}
	r.MergeInsert(seed)
	return r
}

// keyIndex returns the position of the document matching the candidate's
// id or URL, or -1. A URL match counts even when the ids differ: sources
// mint their own id schemes, so the same file found twice still shares
// only its URL. Caller holds the lock.
func (r *Registry) keyIndex(c model.Document) int {
	for i, d := range r.docs {
		if c.ID != "" && d.ID == c.ID {
			return i
		}
		if c.URL != "" && d.URL == c.URL {
			return i
		}
	}
	return -1
}

// MergeInsert appends each candidate whose identity is not already present,
// in discovery order, and returns the number inserted. Existing documents
// are never modified; re-running an identical batch inserts zero.
func (r *Registry) MergeInsert(candidates []model.Document) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			zap.L().Warn("registry: dropping malformed candidate",
				zap.String("title", c.Title),
				zap.Error(err),
			)
			continue
		}
		if r.keyIndex(c) >= 0 {
			continue
		}
		r.docs = append(r.docs, c)
		inserted++
	}
	return inserted
}

// MarkImported stores extracted text on the identified document and flips
// its imported flag. Absent ids are a no-op. The flag is monotonic: an
// already-imported document keeps its content and flag even when called
// again with blank text.
func (r *Registry) MarkImported(id, extractedText string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.docs {
		if r.docs[i].ID != id {
			continue
		}
		text := extractedText
		if strings.TrimSpace(text) == "" {
			if r.docs[i].Imported {
				return
			}
			text = ImportedSentinel
		}
		r.docs[i].Content = text
		r.docs[i].Imported = true
		return
	}
}

// ToggleSelect flips the document's membership in the session selection
// set. Selection is UI state and is never persisted.
func (r *Registry) ToggleSelect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.selected[id]; ok {
		delete(r.selected, id)
	} else {
		r.selected[id] = struct{}{}
	}
}

// Selected returns the ids currently selected.
func (r *Registry) Selected() map[string]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]struct{}, len(r.selected))
	for id := range r.selected {
		out[id] = struct{}{}
	}
	return out
}

// Documents returns a snapshot of the document list in insertion order.
func (r *Registry) Documents() []model.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Document, len(r.docs))
	copy(out, r.docs)
	return out
}

// Get returns the document with the given id.
func (r *Registry) Get(id string) (model.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.docs {
		if d.ID == id {
			return d, true
		}
	}
	return model.Document{}, false
}
