package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	wmmiddleware "github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/serroba/lleria/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	Code        string `json:"code"`
	OriginalURL string `json:"original_url,omitempty"`
}

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

func newEventMessage(t *testing.T, event testEvent) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

// waitOutcome returns "ack", "nack" or "timeout".
func waitOutcome(msg *message.Message) string {
	select {
	case <-msg.Acked():
		return "ack"
	case <-msg.Nacked():
		return "nack"
	case <-time.After(time.Second):
		return "timeout"
	}
}

func TestConsumer_Start(t *testing.T) {
	t.Run("subscribes to its topic", func(t *testing.T) {
		consumer := messaging.NewConsumer(newMockSubscriber(), "shorturl.created", noopHandler, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))
		assert.Equal(t, "shorturl.created", consumer.Topic())
		assert.NoError(t, consumer.Shutdown())
	})

	t.Run("reports subscribe failures and still shuts down", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("no stream")}
		consumer := messaging.NewConsumer(sub, "shorturl.created", noopHandler, zap.NewNop())

		assert.EqualError(t, consumer.Start(context.Background()), "no stream")
		assert.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("decodes and acks", func(t *testing.T) {
		sub := newMockSubscriber()
		received := make(chan testEvent, 1)
		consumer := messaging.NewConsumer(sub, "shorturl.created",
			func(_ context.Context, event *testEvent) error {
				received <- *event

				return nil
			},
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))
		defer func() { _ = consumer.Shutdown() }()

		msg := newEventMessage(t, testEvent{Code: "lleria1a2b3c4d", OriginalURL: "https://example.com"})
		sub.msgChan <- msg

		require.Equal(t, "ack", waitOutcome(msg))
		assert.Equal(t, testEvent{Code: "lleria1a2b3c4d", OriginalURL: "https://example.com"}, <-received)
	})

	t.Run("acks and drops payloads it cannot decode", func(t *testing.T) {
		sub := newMockSubscriber()
		calls := 0
		consumer := messaging.NewConsumer(sub, "shorturl.created",
			func(context.Context, *testEvent) error {
				calls++

				return nil
			},
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))

		msg := message.NewMessage(uuid.NewString(), []byte("{not json"))
		sub.msgChan <- msg

		require.Equal(t, "ack", waitOutcome(msg))
		require.NoError(t, consumer.Shutdown())
		assert.Zero(t, calls)
	})

	t.Run("nacks when the handler fails", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "shorturl.created",
			func(context.Context, *testEvent) error { return errors.New("cache busy") },
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))
		defer func() { _ = consumer.Shutdown() }()

		msg := newEventMessage(t, testEvent{Code: "lleria1a2b3c4d"})
		sub.msgChan <- msg

		assert.Equal(t, "nack", waitOutcome(msg))
	})

	t.Run("logs the correlation id of failed events", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "shorturl.created",
			func(context.Context, *testEvent) error { return errors.New("cache busy") },
			zap.New(core),
		)
		require.NoError(t, consumer.Start(context.Background()))

		msg := newEventMessage(t, testEvent{Code: "lleria1a2b3c4d"})
		wmmiddleware.SetCorrelationID("req-42", msg)
		sub.msgChan <- msg

		require.Equal(t, "nack", waitOutcome(msg))
		require.NoError(t, consumer.Shutdown())

		entries := logs.FilterField(zap.String("correlation_id", "req-42")).All()
		require.Len(t, entries, 1)
		assert.Equal(t, "failed to handle event", entries[0].Message)
		assert.Equal(t, "shorturl.created", entries[0].ContextMap()["topic"])
	})
}

func TestConsumer_Shutdown(t *testing.T) {
	t.Run("is a no-op before start", func(t *testing.T) {
		consumer := messaging.NewConsumer(newMockSubscriber(), "shorturl.created", noopHandler, zap.NewNop())

		assert.NoError(t, consumer.Shutdown())
	})

	t.Run("returns once the subscription closes", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "shorturl.created", noopHandler, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		require.NoError(t, sub.Close())

		assert.NoError(t, consumer.Shutdown())
	})
}
