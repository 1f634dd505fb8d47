package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/lleria/internal/shortener"
)

// RedisCacheRepository wraps a Store with Redis caching for reads.
type RedisCacheRepository struct {
	shortener.Store

	client *redis.Client
	prefix string
	urlKey string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached store decorator.
func NewRedisCacheRepository(
	store shortener.Store, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		Store:  store,
		client: client,
		prefix: "url:",
		urlKey: "url_codes",
		ttl:    ttl,
	}
}

// Save stores a short URL in the underlying store and updates the cache.
func (r *RedisCacheRepository) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	if err := r.Store.Save(ctx, shortURL); err != nil {
		return err
	}

	// Write-through
	r.cacheURL(ctx, shortURL)

	return nil
}

// GetByCode retrieves a short URL by its code, checking cache first.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	if url, err := r.getFromCache(ctx, code); err == nil {
		return url, nil
	}

	url, err := r.Store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheURL(ctx, url)

	return url, nil
}

// GetByOriginalURL retrieves a short URL by its original URL, checking the url index first.
func (r *RedisCacheRepository) GetByOriginalURL(
	ctx context.Context, originalURL string,
) (*shortener.ShortURL, error) {
	code, err := r.client.HGet(ctx, r.urlKey, originalURL).Result()
	if err == nil {
		if url, err := r.getFromCache(ctx, shortener.Code(code)); err == nil {
			return url, nil
		}
	}

	url, err := r.Store.GetByOriginalURL(ctx, originalURL)
	if err != nil {
		return nil, err
	}

	r.cacheURL(ctx, url)

	return url, nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	var createdAt time.Time

	if ts, ok := result["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos).UTC()
		}
	}

	return &shortener.ShortURL{
		Code:        shortener.Code(result["short_code"]),
		OriginalURL: result["original_url"],
		CreatedAt:   createdAt,
	}, nil
}

func (r *RedisCacheRepository) cacheURL(ctx context.Context, url *shortener.ShortURL) {
	pipe := r.client.Pipeline()
	key := r.prefix + string(url.Code)

	pipe.HSet(ctx, key, map[string]interface{}{
		"short_code":   string(url.Code),
		"original_url": url.OriginalURL,
		"created_at":   url.CreatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	pipe.HSet(ctx, r.urlKey, url.OriginalURL, string(url.Code))

	_, _ = pipe.Exec(ctx)
}

// Compile-time check.
var _ shortener.Store = (*RedisCacheRepository)(nil)
