package store

import "sync"

// hub fans out change notifications to subscribers. Callbacks run on the
// mutating goroutine and must not block.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func(billID string)
}

func newHub() *hub {
	return &hub{subs: map[int]func(string){}}
}

func (h *hub) subscribe(fn func(billID string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

func (h *hub) notify(billID string) {
	h.mu.Lock()
	fns := make([]func(string), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(billID)
	}
}
