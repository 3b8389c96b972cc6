// Package autosave coalesces rapid edits into single writes. A key's write
// fires only after its quiet window passes with no further edits.
package autosave

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultQuiet is the quiet window applied when none is configured.
const DefaultQuiet = time.Second

// WriteFunc persists the latest value for a key.
type WriteFunc func(ctx context.Context, key string, value any) error

// Debouncer holds one pending write per key. Each edit replaces the
// pending value and restarts that key's timer; intermediate values are
// never written.
type Debouncer struct {
	mu      sync.Mutex
	quiet   time.Duration
	write   WriteFunc
	pending map[string]*entry
	closed  bool
}

type entry struct {
	timer *time.Timer
	value any
}

// New creates a Debouncer. quiet <= 0 selects DefaultQuiet.
func New(quiet time.Duration, write WriteFunc) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Debouncer{
		quiet:   quiet,
		write:   write,
		pending: map[string]*entry{},
	}
}

// Save records the latest value for key and (re)starts its quiet timer.
func (d *Debouncer) Save(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	if e, ok := d.pending[key]; ok {
		e.value = value
		e.timer.Reset(d.quiet)
		return
	}

	e := &entry{value: value}
	e.timer = time.AfterFunc(d.quiet, func() { d.fire(key) })
	d.pending[key] = e
}

func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	e, ok := d.pending[key]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	value := e.value
	d.mu.Unlock()

	if err := d.write(context.Background(), key, value); err != nil {
		zap.L().Error("autosave: write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Flush writes every pending value immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for key, e := range d.pending {
		e.timer.Stop()
		keys = append(keys, key)
	}
	d.mu.Unlock()

	for _, key := range keys {
		d.fire(key)
	}
}

// Close flushes pending writes and rejects further saves.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.Flush()
}
