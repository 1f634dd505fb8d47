package frontend

import (
	"sync"

	"github.com/serroba/lleria/internal/shortener"
)

// Entry is one line of the displayed history.
type Entry struct {
	OriginalURL string
	ShortLink   string
}

func (e Entry) String() string {
	return e.OriginalURL + " → " + e.ShortLink
}

// History is the display-only list of shortened links, most recent first.
// It is never written back to the store.
type History struct {
	baseURL string

	mu      sync.Mutex
	entries []Entry
}

// NewHistory creates an empty history rendering links under baseURL.
func NewHistory(baseURL string) *History {
	return &History{baseURL: baseURL}
}

// Add puts the entry at the top, moving it there if it is already listed.
func (h *History) Add(originalURL, shortLink string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry := Entry{OriginalURL: originalURL, ShortLink: shortLink}

	for i, existing := range h.entries {
		if existing == entry {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)

			break
		}
	}

	h.entries = append([]Entry{entry}, h.entries...)
}

// AddRecord adds a stored record.
func (h *History) AddRecord(shortURL *shortener.ShortURL) {
	h.Add(shortURL.OriginalURL, shortURL.Link(h.baseURL))
}

// Load replaces the history with records listed newest first.
func (h *History) Load(records []*shortener.ShortURL) {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()

	for i := len(records) - 1; i >= 0; i-- {
		h.AddRecord(records[i])
	}
}

// Entries returns a copy of the history, most recent first.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, len(h.entries))
	copy(out, h.entries)

	return out
}
