package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/lleria/internal/shortener"
)

const uniqueViolation = "23505"

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS short_urls (
		short_code   TEXT        NOT NULL,
		original_url TEXT        NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT short_urls_short_code_key UNIQUE (short_code),
		CONSTRAINT short_urls_original_url_key UNIQUE (original_url)
	);
	CREATE INDEX IF NOT EXISTS short_urls_created_at_idx ON short_urls (created_at DESC);
`

// PostgresStore is a PostgreSQL implementation of shortener.Store.
type PostgresStore struct {
	dsn string

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed URL store. No connection is made until Connect.
func NewPostgresStore(dsn string) *PostgresStore {
	return &PostgresStore{dsn: dsn}
}

// NewPostgresStoreWithPool creates a store over an existing pool and treats it as connected.
func NewPostgresStoreWithPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Connect opens the pool, checks it with a ping and applies the schema.
func (p *PostgresStore) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := p.pool
	if pool == nil {
		var err error

		pool, err = pgxpool.New(ctx, p.dsn)
		if err != nil {
			return errors.Join(shortener.ErrUnavailable, fmt.Errorf("create pool: %w", err))
		}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		p.pool = nil

		return errors.Join(shortener.ErrUnavailable, fmt.Errorf("ping: %w", err))
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		p.pool = nil

		return fmt.Errorf("apply schema: %w", classifyPgError(err))
	}

	p.pool = pool

	return nil
}

func (p *PostgresStore) Disconnect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}

	return nil
}

func (p *PostgresStore) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.pool != nil
}

// Ping checks the database is reachable.
func (p *PostgresStore) Ping(ctx context.Context) error {
	pool, err := p.connection()
	if err != nil {
		return err
	}

	return classifyPgError(pool.Ping(ctx))
}

func (p *PostgresStore) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	pool, err := p.connection()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO short_urls (short_code, original_url, created_at)
		VALUES ($1, $2, $3)
	`

	_, err = pool.Exec(ctx, query,
		string(shortURL.Code),
		shortURL.OriginalURL,
		shortURL.CreatedAt,
	)

	return classifyPgError(err)
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	query := `
		SELECT short_code, original_url, created_at
		FROM short_urls
		WHERE short_code = $1
	`

	return p.queryOne(ctx, query, string(code))
}

func (p *PostgresStore) GetByOriginalURL(ctx context.Context, originalURL string) (*shortener.ShortURL, error) {
	query := `
		SELECT short_code, original_url, created_at
		FROM short_urls
		WHERE original_url = $1
	`

	return p.queryOne(ctx, query, originalURL)
}

func (p *PostgresStore) List(ctx context.Context) ([]*shortener.ShortURL, error) {
	pool, err := p.connection()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT short_code, original_url, created_at
		FROM short_urls
		ORDER BY created_at DESC, short_code DESC
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, classifyPgError(err)
	}

	urls, err := pgx.CollectRows(rows, scanShortURL)
	if err != nil {
		return nil, classifyPgError(err)
	}

	return urls, nil
}

func (p *PostgresStore) queryOne(ctx context.Context, query string, arg string) (*shortener.ShortURL, error) {
	pool, err := p.connection()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, query, arg)
	if err != nil {
		return nil, classifyPgError(err)
	}

	url, err := pgx.CollectExactlyOneRow(rows, scanShortURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, classifyPgError(err)
	}

	return url, nil
}

func (p *PostgresStore) connection() (*pgxpool.Pool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.pool == nil {
		return nil, shortener.ErrUnavailable
	}

	return p.pool, nil
}

func scanShortURL(row pgx.CollectableRow) (*shortener.ShortURL, error) {
	var (
		url  shortener.ShortURL
		code string
	)

	if err := row.Scan(&code, &url.OriginalURL, &url.CreatedAt); err != nil {
		return nil, err
	}

	url.Code = shortener.Code(code)

	return &url, nil
}

// classifyPgError maps driver errors onto the shortener sentinels.
func classifyPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "original_url") {
			return fmt.Errorf("%w: %s", shortener.ErrDuplicateURL, pgErr.ConstraintName)
		}

		return fmt.Errorf("%w: %s", shortener.ErrDuplicateCode, pgErr.ConstraintName)
	}

	var connectErr *pgconn.ConnectError

	var netErr net.Error

	if errors.As(err, &connectErr) || errors.As(err, &netErr) ||
		pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(shortener.ErrUnavailable, err)
	}

	return err
}

// Compile-time check.
var _ shortener.Store = (*PostgresStore)(nil)
