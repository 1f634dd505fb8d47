package shortener

import (
	"strings"
	"time"
)

// Code represents a short URL code.
type Code string

// ShortURL is the persisted mapping between a short code and a normalized URL.
// Records are immutable once saved.
type ShortURL struct {
	Code        Code
	OriginalURL string
	CreatedAt   time.Time
}

// Link renders the public short link under baseURL.
func (s *ShortURL) Link(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + string(s.Code)
}
