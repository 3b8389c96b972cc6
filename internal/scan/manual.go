package scan

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vantage-os/vantage-cli/internal/model"
)

// NewManualDocument builds a document from operator-pasted text. It is
// born imported since the content is already in hand.
func NewManualDocument(title, content string, docType model.DocType) model.Document {
	if strings.TrimSpace(title) == "" {
		title = "Pasted Document"
	}
	if docType == "" {
		docType = model.DocGeneric
	}
	return model.Document{
		ID:       "man-" + uuid.NewString(),
		Title:    title,
		Type:     docType,
		Content:  content,
		Imported: true,
		Date:     time.Now().UTC(),
	}
}
