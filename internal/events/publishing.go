package events

import (
	"context"

	"github.com/serroba/lleria/internal/messaging"
	"github.com/serroba/lleria/internal/shortener"
	"go.uber.org/zap"
)

// PublishingRepository wraps a Store and publishes ShortURLCreated after every
// successful Save. A failed publish is logged and does not fail the Save.
type PublishingRepository struct {
	shortener.Store

	publish messaging.Publish[ShortURLCreated]
	logger  *zap.Logger
}

// NewPublishingRepository creates a publishing store decorator.
func NewPublishingRepository(
	store shortener.Store, publish messaging.Publish[ShortURLCreated], logger *zap.Logger,
) *PublishingRepository {
	return &PublishingRepository{
		Store:   store,
		publish: publish,
		logger:  logger,
	}
}

func (p *PublishingRepository) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	if err := p.Store.Save(ctx, shortURL); err != nil {
		return err
	}

	if err := p.publish(ctx, NewShortURLCreated(shortURL)); err != nil {
		p.logger.Warn("failed to publish short url created event",
			zap.String("code", string(shortURL.Code)),
			zap.Error(err),
		)
	}

	return nil
}

// Compile-time check.
var _ shortener.Store = (*PublishingRepository)(nil)
