// Package assemble builds size-bounded prompt context from a bill and its
// selected documents.
package assemble

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vantage-os/vantage-cli/internal/model"
)

const (
	// DefaultPerDocCap caps the characters taken from one document.
	DefaultPerDocCap = 3000
	// DefaultTotalCap caps the whole assembled context.
	DefaultTotalCap = 24000
	// DefaultMinContent is the shortest content treated as usable text;
	// anything shorter gets the not-imported placeholder.
	DefaultMinContent = 50

	// missingNote tells an instruction-following model what to do when a
	// document's text was never extracted, instead of letting it invent
	// content.
	missingNote = "(Content not imported. Link: %s)\nIf this document matters to the answer, ask the user to paste its text manually; do not guess its contents.\n"

	omittedNote = "[Further documents omitted to stay within the context limit.]\n"
)

// Assembler produces deterministic, bounded text blocks for the LLM
// gateway.
type Assembler struct {
	perDocCap  int
	totalCap   int
	minContent int
}

// New creates an Assembler; non-positive bounds select the defaults.
func New(perDocCap, totalCap, minContent int) *Assembler {
	if perDocCap <= 0 {
		perDocCap = DefaultPerDocCap
	}
	if totalCap <= 0 {
		totalCap = DefaultTotalCap
	}
	if minContent <= 0 {
		minContent = DefaultMinContent
	}
	return &Assembler{perDocCap: perDocCap, totalCap: totalCap, minContent: minContent}
}

// section renders one document block.
func (a *Assembler) section(d model.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s ---\n", d.Title)

	if len(d.Content) > a.minContent {
		content := d.Content
		if len(content) > a.perDocCap {
			// Back the cut up to a rune boundary so the cap never emits a
			// split multi-byte character.
			cut := a.perDocCap
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut] + "..."
		}
		b.WriteString(content)
		b.WriteString("\n\n")
		return b.String()
	}

	link := d.URL
	if link == "" {
		link = "none"
	}
	fmt.Fprintf(&b, missingNote, link)
	return b.String()
}

// Build assembles the context block: bill header, summary, then one
// labeled section per selected document in selection order. Output length
// never exceeds the total cap plus the fixed header overhead; documents
// that would cross the cap are dropped whole, with a note, so output stays
// deterministic for identical inputs.
func (a *Assembler) Build(bill model.Bill, selected []model.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active Bill: %s - %s\n", bill.ID, bill.Title)
	fmt.Fprintf(&b, "Current Summary: %s\n\n", bill.Summary)

	if len(selected) == 0 {
		return b.String()
	}

	b.WriteString("SELECTED DOCUMENTS:\n")
	used := 0
	for _, d := range selected {
		s := a.section(d)
		if used+len(s) > a.totalCap {
			b.WriteString(omittedNote)
			break
		}
		b.WriteString(s)
		used += len(s)
	}
	return b.String()
}
