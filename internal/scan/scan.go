// Package scan discovers candidate documents for a bill across external
// systems. Each scanner is one strategy; a batch run isolates failures so
// one broken source never empties the whole result.
package scan

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vantage-os/vantage-cli/internal/model"
)

// Scanner queries one external system for a bill's candidate documents.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, bill model.Bill) ([]model.Document, error)
}

// RunAll fans out over the scanners, waits for all of them, and joins the
// candidate batches in scanner order. A failing scanner contributes an
// empty batch; its error is logged, never propagated to siblings.
func RunAll(ctx context.Context, bill model.Bill, scanners []Scanner) []model.Document {
	results := make([][]model.Document, len(scanners))

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	for i, s := range scanners {
		i, s := i, s
		g.Go(func() error {
			docs, err := s.Scan(gCtx, bill)
			if err != nil {
				zap.L().Warn("scan: scanner failed",
					zap.String("scanner", s.Name()),
					zap.String("bill", bill.ID),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			results[i] = docs
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var joined []model.Document
	for _, batch := range results {
		joined = append(joined, batch...)
	}
	return joined
}
