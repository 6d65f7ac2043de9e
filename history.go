package inkwell

import (
	"image"
	"sync"
	"time"
)

const defaultHistoryCap = 50

// HistoryEntry records one committed transform. Before and After hold the
// pixels of the region the commit changed, positioned by their bounds: undo
// writes Before back and redo writes After. Pixels outside that region are
// never touched, so later edits elsewhere on the layer survive.
type HistoryEntry struct {
	Target    Target
	Params    Params
	Mode      TransformMode
	Timestamp time.Time
	Before    image.Image
	After     image.Image
}

// History is a bounded linear undo list. Recording after an undo discards
// the entries past the current index; exceeding capacity evicts the oldest.
type History struct {
	mu       sync.Mutex
	entries  []HistoryEntry
	index    int
	capacity int
}

// NewHistory creates a history holding at most capacity entries.
// A capacity <= 0 uses the default of 50.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultHistoryCap
	}
	return &History{index: -1, capacity: capacity}
}

// Record appends e as the next entry to be undone.
func (h *History) Record(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], e)
	if over := len(h.entries) - h.capacity; over > 0 {
		n := copy(h.entries, h.entries[over:])
		clear(h.entries[n:])
		h.entries = h.entries[:n]
	}
	h.index = len(h.entries) - 1
}

// Undo returns the entry at the current index and steps back. It returns
// false, leaving state unchanged, when nothing is left to undo.
func (h *History) Undo() (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		return HistoryEntry{}, false
	}
	e := h.entries[h.index]
	h.index--
	return e, true
}

// Redo steps forward and returns that entry. It returns false, leaving state
// unchanged, when already at the newest entry.
func (h *History) Redo() (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.entries)-1 {
		return HistoryEntry{}, false
	}
	h.index++
	return h.entries[h.index], true
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index >= 0
}

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.entries)-1
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Index returns the current index; -1 means everything is undone.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// Entries returns a copy of the stored entries, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clear removes every entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.entries)
	h.entries = h.entries[:0]
	h.index = -1
}
