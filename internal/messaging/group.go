package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// ErrGroupStarted is returned when Start is called on a running group.
var ErrGroupStarted = errors.New("consumer group already started")

// Runnable represents a component that can be started and shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

type topicConsumer interface {
	Topic() string
}

// ConsumerGroup starts its consumers together and owns the subscriber they share.
type ConsumerGroup struct {
	subscriber message.Subscriber
	logger     *zap.Logger

	mu        sync.Mutex
	consumers []Runnable
	running   bool
}

// NewConsumerGroup creates a group reading from subscriber.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer. Consumers added after Start are not started.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.consumers = append(g.consumers, consumer)
}

// Topics lists the topics of the registered consumers that report one.
func (g *ConsumerGroup) Topics() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	topics := make([]string, 0, len(g.consumers))

	for _, consumer := range g.consumers {
		if tc, ok := consumer.(topicConsumer); ok {
			topics = append(topics, tc.Topic())
		}
	}

	return topics
}

// Start starts every consumer. If one fails, those already started are shut down.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return ErrGroupStarted
	}

	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			return fmt.Errorf("start consumer %d: %w", i, err)
		}
	}

	g.running = true

	g.logger.Info("consumer group started", zap.Int("count", len(g.consumers)))

	return nil
}

// Shutdown stops every consumer, then closes the subscriber. All errors are returned joined.
func (g *ConsumerGroup) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down consumer group")

	var errs []error

	for _, consumer := range g.consumers {
		if err := consumer.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}

	g.running = false

	return errors.Join(errs...)
}
