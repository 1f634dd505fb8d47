package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PubSub pairs a publisher with a subscriber on the same transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// NewRedisStreamPubSub builds a Redis Streams transport. Subscribers read without a
// consumer group, so every instance receives every event.
func NewRedisStreamPubSub(client redis.UniversalClient, logger *zap.Logger) (*PubSub, error) {
	wmLogger := NewZapLoggerAdapter(logger)

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client:     client,
		Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("redis stream publisher: %w", err)
	}

	subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:       client,
		Unmarshaller: redisstream.DefaultMarshallerUnmarshaller{},
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()

		return nil, fmt.Errorf("redis stream subscriber: %w", err)
	}

	return &PubSub{Publisher: publisher, Subscriber: subscriber}, nil
}

// NewInMemoryPubSub builds a process-local transport, used when Redis is not configured.
func NewInMemoryPubSub(logger *zap.Logger) *PubSub {
	channel := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, NewZapLoggerAdapter(logger))

	return &PubSub{Publisher: channel, Subscriber: channel}
}
