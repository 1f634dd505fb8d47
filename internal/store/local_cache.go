package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/serroba/lleria/internal/shortener"
)

// notFound marks a cached negative lookup.
type notFound struct{}

// LocalCacheRepository wraps a Store with an in-process cache for GetByCode.
// Misses are cached for a short negativeTTL; Invalidate evicts them early.
type LocalCacheRepository struct {
	shortener.Store

	cache       *ristretto.Cache
	ttl         time.Duration
	negativeTTL time.Duration
}

// NewLocalCacheRepository creates a cache holding at most maxItems records.
func NewLocalCacheRepository(
	store shortener.Store, maxItems int64, ttl, negativeTTL time.Duration,
) (*LocalCacheRepository, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems, // cost 1 per entry
		BufferItems: 64,

		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	return &LocalCacheRepository{
		Store:       store,
		cache:       cache,
		ttl:         ttl,
		negativeTTL: negativeTTL,
	}, nil
}

func (l *LocalCacheRepository) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	if err := l.Store.Save(ctx, shortURL); err != nil {
		return err
	}

	l.cache.Del(string(shortURL.Code))

	return nil
}

func (l *LocalCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	if v, ok := l.cache.Get(string(code)); ok {
		switch cached := v.(type) {
		case notFound:
			return nil, shortener.ErrNotFound
		case shortener.ShortURL:
			return &cached, nil
		}
	}

	url, err := l.Store.GetByCode(ctx, code)
	if errors.Is(err, shortener.ErrNotFound) {
		l.cache.SetWithTTL(string(code), notFound{}, 1, l.negativeTTL)

		return nil, err
	}

	if err != nil {
		return nil, err
	}

	l.cache.SetWithTTL(string(code), *url, 1, l.ttl)

	return url, nil
}

// Invalidate drops any cached entry for code.
func (l *LocalCacheRepository) Invalidate(code shortener.Code) {
	l.cache.Del(string(code))
}

// Wait blocks until buffered cache writes have been applied.
func (l *LocalCacheRepository) Wait() {
	l.cache.Wait()
}

// Shutdown releases the cache.
func (l *LocalCacheRepository) Shutdown() error {
	l.cache.Close()

	return nil
}

// Compile-time check.
var _ shortener.Store = (*LocalCacheRepository)(nil)
