package mq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jotnotes/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/pubsub"
	"gocloud.dev/pubsub/mempubsub"
)

type memChannels struct {
	mu     sync.Mutex
	topics map[string]*pubsub.Topic
	subs   map[string]*pubsub.Subscription
}

func newMemChannels(names ...string) *memChannels {
	m := &memChannels{
		topics: make(map[string]*pubsub.Topic),
		subs:   make(map[string]*pubsub.Subscription),
	}
	for _, name := range names {
		topic := mempubsub.NewTopic()
		m.topics[name] = topic
		m.subs[name] = mempubsub.NewSubscription(topic, 100*time.Millisecond)
	}
	return m
}

func (m *memChannels) openTopic(_ context.Context, channel string) (*pubsub.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	topic, ok := m.topics[channel]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return topic, nil
}

func (m *memChannels) openSubscription(_ context.Context, channel string) (*pubsub.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[channel]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return sub, nil
}

func TestCloudBackend_PublishSubscribe(t *testing.T) {
	channels := newMemChannels("notes-events")
	queue := New(NewCloudBackend(channels.openTopic, channels.openSubscription))
	defer queue.Close()

	ctx := context.Background()
	id, err := queue.Publish(ctx, "notes-events", []byte(`{"type":"note.created"}`), map[string]string{"type": "note.created"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var got Message
	err = queue.Subscribe(subCtx, "notes-events", func(_ context.Context, msg Message) error {
		got = msg
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, `{"type":"note.created"}`, string(got.Data))
	assert.Equal(t, "note.created", got.Attributes["type"])
}

func TestCloudBackend_NackRedelivers(t *testing.T) {
	channels := newMemChannels("notes-import")
	backend := NewCloudBackend(channels.openTopic, channels.openSubscription)
	defer backend.Close()

	ctx := context.Background()
	_, err := backend.Publish(ctx, "notes-import", []byte("payload"), nil)
	require.NoError(t, err)

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	attempts := 0
	err = backend.Subscribe(subCtx, "notes-import", func(_ context.Context, msg Message) error {
		attempts++
		if attempts == 1 {
			return errors.New("transient")
		}
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestCloudBackend_Errors(t *testing.T) {
	channels := newMemChannels()
	backend := NewCloudBackend(channels.openTopic, channels.openSubscription)

	_, err := backend.Publish(context.Background(), " ", nil, nil)
	assert.Error(t, err)
	_, err = backend.Publish(context.Background(), "missing", nil, nil)
	assert.Error(t, err)
	assert.Error(t, backend.Subscribe(context.Background(), "missing", func(context.Context, Message) error { return nil }))
	assert.NoError(t, backend.Close())
}

func TestOpen_Selection(t *testing.T) {
	_, err := Open(context.Background(), config.MQConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = Open(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.ErrorContains(t, err, "unsupported mq backend")

	_, err = Open(context.Background(), config.MQConfig{Backend: "rabbitmq"})
	assert.ErrorContains(t, err, "rabbitmq url is required")

	_, err = Open(context.Background(), config.MQConfig{Backend: "sqs"})
	assert.ErrorContains(t, err, "sqs queue url prefix is required")

	_, err = Open(context.Background(), config.MQConfig{Backend: "pubsub"})
	assert.ErrorContains(t, err, "pubsub project id is required")
}
