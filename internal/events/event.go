package events

import (
	"time"

	"github.com/serroba/lleria/internal/shortener"
)

// TopicShortURLCreated carries ShortURLCreated events.
const TopicShortURLCreated = "shorturl.created"

// ShortURLCreated is emitted after a new short URL is stored.
type ShortURLCreated struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewShortURLCreated builds the event for a stored record.
func NewShortURLCreated(shortURL *shortener.ShortURL) *ShortURLCreated {
	return &ShortURLCreated{
		Code:        string(shortURL.Code),
		OriginalURL: shortURL.OriginalURL,
		CreatedAt:   shortURL.CreatedAt,
	}
}
