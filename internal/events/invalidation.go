package events

import (
	"context"

	"github.com/serroba/lleria/internal/messaging"
	"github.com/serroba/lleria/internal/shortener"
	"go.uber.org/zap"
)

// Invalidator evicts cached lookups for a code.
type Invalidator interface {
	Invalidate(code shortener.Code)
}

// NewInvalidationHandler evicts the created code from the local cache, so a negative
// entry cached before another instance stored the code stops hiding it.
func NewInvalidationHandler(cache Invalidator, logger *zap.Logger) messaging.Handler[ShortURLCreated] {
	return func(_ context.Context, event *ShortURLCreated) error {
		cache.Invalidate(shortener.Code(event.Code))

		logger.Debug("invalidated cached code", zap.String("code", event.Code))

		return nil
	}
}

// NewInvalidationConsumer subscribes the invalidation handler to TopicShortURLCreated.
func NewInvalidationConsumer(
	ps *messaging.PubSub, cache Invalidator, logger *zap.Logger,
) *messaging.Consumer[ShortURLCreated] {
	return messaging.NewConsumer(
		ps.Subscriber,
		TopicShortURLCreated,
		NewInvalidationHandler(cache, logger),
		logger,
	)
}
