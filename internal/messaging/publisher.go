package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	wmmiddleware "github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/serroba/lleria/internal/middleware"
)

// MetadataTopic is the message metadata key carrying the topic an event was published to.
const MetadataTopic = "topic"

// Publish sends one typed event.
type Publish[T any] func(ctx context.Context, event *T) error

// NewPublishFunc returns a Publish that JSON-encodes events onto topic. The request id found
// in ctx, if any, becomes the message correlation id.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(ctx context.Context, event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(MetadataTopic, topic)

		if meta, ok := middleware.RequestMetaFromContext(ctx); ok {
			wmmiddleware.SetCorrelationID(meta.RequestID, msg)
		}

		msg.SetContext(ctx)

		if err := publisher.Publish(topic, msg); err != nil {
			return fmt.Errorf("publish %s event: %w", topic, err)
		}

		return nil
	}
}

// PublisherGroup owns the publisher and closes it once on shutdown.
type PublisherGroup struct {
	publisher message.Publisher

	closeOnce sync.Once
	closeErr  error
}

// NewPublisherGroup creates a new publisher group.
func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

// Publisher returns the underlying publisher for building Publish funcs.
func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the publisher. Later calls return the first result.
func (g *PublisherGroup) Shutdown() error {
	g.closeOnce.Do(func() {
		g.closeErr = g.publisher.Close()
	})

	return g.closeErr
}
