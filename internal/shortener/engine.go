package shortener

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// MaxAllocationAttempts bounds how many candidate codes Shorten tries.
const MaxAllocationAttempts = 5

// Recorder receives engine outcomes, typically to export them as metrics.
type Recorder interface {
	ShortenCompleted(kind ErrorKind, alreadyExists bool)
	AllocationAttempts(attempts int)
	ResolveCompleted(found bool, err error)
}

type noopRecorder struct{}

func (noopRecorder) ShortenCompleted(ErrorKind, bool) {}
func (noopRecorder) AllocationAttempts(int)           {}
func (noopRecorder) ResolveCompleted(bool, error)     {}

// ShortenResult is the outcome of a Shorten call. Failures are carried in Err.
type ShortenResult struct {
	ShortURL      *ShortURL
	AlreadyExists bool
	Err           error
}

// Success reports whether a short URL is available.
func (r ShortenResult) Success() bool {
	return r.Err == nil && r.ShortURL != nil
}

// Kind classifies the failure, KindNone on success.
func (r ShortenResult) Kind() ErrorKind {
	return KindOf(r.Err)
}

// Message returns a human readable description of the failure.
func (r ShortenResult) Message() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}

// Engine allocates short codes and mediates every read and write through the store.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	store     Store
	validator *Validator
	codes     *CodeGenerator
	now       func() time.Time
	recorder  Recorder
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for timestamps and code derivation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithCodePrefix overrides DefaultCodePrefix.
func WithCodePrefix(prefix string) Option {
	return func(e *Engine) {
		e.codes = NewCodeGenerator(prefix)
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine backed by store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		validator: NewValidator(),
		codes:     NewCodeGenerator(DefaultCodePrefix),
		now:       time.Now,
		recorder:  noopRecorder{},
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Shorten validates rawURL, normalizes it and returns its short URL, creating one if needed.
func (e *Engine) Shorten(ctx context.Context, rawURL string) ShortenResult {
	result := e.shorten(ctx, rawURL)
	e.recorder.ShortenCompleted(result.Kind(), result.AlreadyExists)

	if result.Err != nil && result.Kind() != KindValidation {
		e.logger.Warn("shorten failed",
			zap.String("kind", result.Kind().String()),
			zap.Error(result.Err),
		)
	}

	return result
}

func (e *Engine) shorten(ctx context.Context, rawURL string) ShortenResult {
	if err := e.validator.Validate(rawURL); err != nil {
		return ShortenResult{Err: err}
	}

	normalized := e.validator.Normalize(rawURL)

	if err := e.ensureConnected(ctx); err != nil {
		return ShortenResult{Err: err}
	}

	existing, err := e.store.GetByOriginalURL(ctx, normalized)
	if err == nil {
		return ShortenResult{ShortURL: existing, AlreadyExists: true}
	}

	if !errors.Is(err, ErrNotFound) {
		return ShortenResult{Err: &StoreError{Op: "find by url", Err: err}}
	}

	return e.allocate(ctx, normalized)
}

func (e *Engine) allocate(ctx context.Context, normalized string) ShortenResult {
	now := e.now()

	for attempt := range MaxAllocationAttempts {
		code := e.codes.Generate(normalized, attempt, now)

		_, err := e.store.GetByCode(ctx, code)
		if err == nil {
			e.logger.Debug("short code collision",
				zap.String("code", string(code)),
				zap.Int("attempt", attempt),
			)

			continue
		}

		if !errors.Is(err, ErrNotFound) {
			return ShortenResult{Err: &StoreError{Op: "find by code", Err: err}}
		}

		shortURL := &ShortURL{
			Code:        code,
			OriginalURL: normalized,
			CreatedAt:   now,
		}

		err = e.store.Save(ctx, shortURL)

		switch {
		case err == nil:
			e.recorder.AllocationAttempts(attempt + 1)

			return ShortenResult{ShortURL: shortURL}
		case errors.Is(err, ErrDuplicateCode):
			continue
		case errors.Is(err, ErrDuplicateURL):
			return e.existingAfterConflict(ctx, normalized)
		default:
			return ShortenResult{Err: &StoreError{Op: "insert", Err: err}}
		}
	}

	e.recorder.AllocationAttempts(MaxAllocationAttempts)

	return ShortenResult{Err: ErrAllocationExhausted}
}

// existingAfterConflict handles a concurrent Shorten of the same URL winning the insert.
func (e *Engine) existingAfterConflict(ctx context.Context, normalized string) ShortenResult {
	existing, err := e.store.GetByOriginalURL(ctx, normalized)
	if err != nil {
		return ShortenResult{Err: &StoreError{Op: "find by url", Err: err}}
	}

	return ShortenResult{ShortURL: existing, AlreadyExists: true}
}

// Resolve returns the original URL for code. An unknown code yields found == false and a
// nil error; err is only set when the store could not answer.
func (e *Engine) Resolve(ctx context.Context, code Code) (string, bool, error) {
	originalURL, found, err := e.resolve(ctx, code)
	e.recorder.ResolveCompleted(found, err)

	return originalURL, found, err
}

func (e *Engine) resolve(ctx context.Context, code Code) (string, bool, error) {
	if err := e.ensureConnected(ctx); err != nil {
		return "", false, err
	}

	shortURL, err := e.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}

		return "", false, &StoreError{Op: "find by code", Err: err}
	}

	return shortURL.OriginalURL, true, nil
}

// ListHistory returns every record, newest first.
func (e *Engine) ListHistory(ctx context.Context) ([]*ShortURL, error) {
	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}

	urls, err := e.store.List(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}

	return urls, nil
}

// Validator returns the validator used by the engine.
func (e *Engine) Validator() *Validator {
	return e.validator
}

func (e *Engine) ensureConnected(ctx context.Context) error {
	if e.store.IsConnected() {
		return nil
	}

	e.logger.Info("store not connected, reconnecting")

	if err := e.store.Connect(ctx); err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = errors.Join(ErrUnavailable, err)
		}

		return &StoreError{Op: "connect", Err: err}
	}

	return nil
}
