package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	wmmiddleware "github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/serroba/lleria/internal/messaging"
	"github.com/serroba/lleria/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	published  map[string][]*message.Message
	publishErr error
	closeErr   error
	closes     int
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{published: make(map[string][]*message.Message)}
}

func (r *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	if r.publishErr != nil {
		return r.publishErr
	}

	r.published[topic] = append(r.published[topic], msgs...)

	return nil
}

func (r *recordingPublisher) Close() error {
	r.closes++

	return r.closeErr
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("encodes the event onto its topic", func(t *testing.T) {
		pub := newRecordingPublisher()
		publish := messaging.NewPublishFunc[testEvent](pub, "shorturl.created")

		err := publish(context.Background(), &testEvent{Code: "lleria1a2b3c4d", OriginalURL: "https://example.com"})

		require.NoError(t, err)
		require.Len(t, pub.published["shorturl.created"], 1)

		msg := pub.published["shorturl.created"][0]
		assert.JSONEq(t, `{"code":"lleria1a2b3c4d","original_url":"https://example.com"}`, string(msg.Payload))
		assert.Equal(t, "shorturl.created", msg.Metadata.Get(messaging.MetadataTopic))
		assert.Empty(t, wmmiddleware.MessageCorrelationID(msg))
	})

	t.Run("uses the request id as correlation id", func(t *testing.T) {
		pub := newRecordingPublisher()
		publish := messaging.NewPublishFunc[testEvent](pub, "shorturl.created")
		ctx := middleware.ContextWithRequestMeta(context.Background(), middleware.RequestMeta{RequestID: "req-42"})

		require.NoError(t, publish(ctx, &testEvent{Code: "lleria1a2b3c4d"}))

		msg := pub.published["shorturl.created"][0]
		assert.Equal(t, "req-42", wmmiddleware.MessageCorrelationID(msg))
	})

	t.Run("wraps transport errors with the topic", func(t *testing.T) {
		pub := newRecordingPublisher()
		pub.publishErr = errors.New("stream unavailable")
		publish := messaging.NewPublishFunc[testEvent](pub, "shorturl.created")

		err := publish(context.Background(), &testEvent{Code: "lleria1a2b3c4d"})

		require.ErrorIs(t, err, pub.publishErr)
		assert.EqualError(t, err, "publish shorturl.created event: stream unavailable")
	})
}

func TestPublisherGroup_Shutdown(t *testing.T) {
	t.Run("exposes the publisher", func(t *testing.T) {
		pub := newRecordingPublisher()

		assert.Same(t, pub, messaging.NewPublisherGroup(pub).Publisher())
	})

	t.Run("closes the publisher once", func(t *testing.T) {
		pub := newRecordingPublisher()
		group := messaging.NewPublisherGroup(pub)

		require.NoError(t, group.Shutdown())
		require.NoError(t, group.Shutdown())

		assert.Equal(t, 1, pub.closes)
	})

	t.Run("keeps returning the close error", func(t *testing.T) {
		pub := newRecordingPublisher()
		pub.closeErr = errors.New("close failed")
		group := messaging.NewPublisherGroup(pub)

		assert.ErrorIs(t, group.Shutdown(), pub.closeErr)
		assert.ErrorIs(t, group.Shutdown(), pub.closeErr)
		assert.Equal(t, 1, pub.closes)
	})
}
