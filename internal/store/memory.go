package store

import (
	"context"
	"sync"

	"github.com/serroba/lleria/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Store.
type MemoryStore struct {
	mu        sync.RWMutex
	connected bool
	byCode    map[shortener.Code]*shortener.ShortURL
	byURL     map[string]shortener.Code // originalURL -> code
	order     []shortener.Code          // insertion order
}

// NewMemoryStore creates a new in-memory URL store. The store starts connected.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		connected: true,
		byCode:    make(map[shortener.Code]*shortener.ShortURL),
		byURL:     make(map[string]shortener.Code),
	}
}

func (m *MemoryStore) Connect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = true

	return nil
}

// Disconnect marks the store unreachable; records are kept.
func (m *MemoryStore) Disconnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = false

	return nil
}

func (m *MemoryStore) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.connected
}

func (m *MemoryStore) Save(_ context.Context, shortURL *shortener.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return shortener.ErrUnavailable
	}

	if _, ok := m.byCode[shortURL.Code]; ok {
		return shortener.ErrDuplicateCode
	}

	if _, ok := m.byURL[shortURL.OriginalURL]; ok {
		return shortener.ErrDuplicateURL
	}

	stored := *shortURL
	m.byCode[shortURL.Code] = &stored
	m.byURL[shortURL.OriginalURL] = shortURL.Code
	m.order = append(m.order, shortURL.Code)

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, shortener.ErrUnavailable
	}

	shortURL, ok := m.byCode[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	found := *shortURL

	return &found, nil
}

func (m *MemoryStore) GetByOriginalURL(_ context.Context, originalURL string) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, shortener.ErrUnavailable
	}

	code, ok := m.byURL[originalURL]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	found := *m.byCode[code]

	return &found, nil
}

func (m *MemoryStore) List(_ context.Context) ([]*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, shortener.ErrUnavailable
	}

	urls := make([]*shortener.ShortURL, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		found := *m.byCode[m.order[i]]
		urls = append(urls, &found)
	}

	return urls, nil
}

// Compile-time check.
var _ shortener.Store = (*MemoryStore)(nil)
