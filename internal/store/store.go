// Package store persists bill workspaces. The sheet stays the system of
// record for metadata; the store carries what the sheet cannot hold:
// imported document text, summaries, and chat history.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/vantage-os/vantage-cli/internal/model"
)

// ErrNotFound reports a missing bill row. GetBill returns (nil, nil) for a
// miss; mutations against a missing row wrap this sentinel.
var ErrNotFound = eris.New("bill not found")

// BillFilter specifies criteria for listing bills.
type BillFilter struct {
	Status    string `json:"status,omitempty"`
	Committee string `json:"committee,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for bill workspaces.
type Store interface {
	// UpsertBill inserts or fully replaces the bill row. Merge policy
	// between sheet and stored state is the caller's job; the store only
	// persists what it is handed.
	UpsertBill(ctx context.Context, bill model.Bill) error
	GetBill(ctx context.Context, billID string) (*model.Bill, error)
	ListBills(ctx context.Context, filter BillFilter) ([]model.Bill, error)
	DeleteBill(ctx context.Context, billID string) error

	// Subscribe registers a listener notified with the bill id after
	// every successful upsert. Unsubscribe with the returned func.
	Subscribe(fn func(billID string)) (unsubscribe func())

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
