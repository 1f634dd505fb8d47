package shortener

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a Repository when no record matches the lookup.
	ErrNotFound = errors.New("url not found")
	// ErrDuplicateCode is returned by Save when the short code is already taken.
	ErrDuplicateCode = errors.New("short code already exists")
	// ErrDuplicateURL is returned by Save when the original URL already has a record.
	ErrDuplicateURL = errors.New("original url already exists")
	// ErrUnavailable marks failures caused by the backend being unreachable.
	ErrUnavailable = errors.New("store unavailable")
)

// Repository defines the persistence operations the engine relies on.
type Repository interface {
	Save(ctx context.Context, shortURL *ShortURL) error
	GetByCode(ctx context.Context, code Code) (*ShortURL, error)
	GetByOriginalURL(ctx context.Context, originalURL string) (*ShortURL, error)

	// List returns every record ordered by creation time, newest first.
	List(ctx context.Context) ([]*ShortURL, error)
}

// Connection exposes the lifecycle of the backend connection.
type Connection interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
}

// Store is a Repository with a managed connection.
type Store interface {
	Repository
	Connection
}
