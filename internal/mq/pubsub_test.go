package mq

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/pstest"
	"github.com/jotnotes/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPubSub(t *testing.T) (*PubSubClient, *pstest.Server) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })
	t.Setenv("PUBSUB_EMULATOR_HOST", srv.Addr)

	client, err := NewPubSubClient(context.Background(), config.PubSubConfig{ProjectID: "jotnotes-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func waitForSubscription(t *testing.T, client *PubSubClient, channel string) {
	t.Helper()
	require.Eventually(t, func() bool {
		ok, err := client.client.Subscription(client.subscriptionName(channel)).Exists(context.Background())
		return err == nil && ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestPubSubClient_PublishReusesTopic(t *testing.T) {
	client, srv := newTestPubSub(t)
	ctx := context.Background()

	first, err := client.Publish(ctx, "notes-events", []byte(`{"n":1}`), map[string]string{"type": "note.created"})
	require.NoError(t, err)
	second, err := client.Publish(ctx, "notes-events", []byte(`{"n":2}`), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	assert.Len(t, client.topics, 1)

	messages := srv.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, []byte(`{"n":1}`), messages[0].Data)
	assert.Equal(t, "note.created", messages[0].Attributes["type"])
}

func TestPubSubClient_SubscribeAcks(t *testing.T) {
	client, srv := newTestPubSub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- client.Subscribe(ctx, "notes-import", func(_ context.Context, msg Message) error {
			select {
			case received <- msg:
			default:
			}
			return nil
		})
	}()
	waitForSubscription(t, client, "notes-import")

	id, err := client.Publish(context.Background(), "notes-import", []byte("hello"), map[string]string{"k": "v"})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, id, msg.ID)
		assert.Equal(t, []byte("hello"), msg.Data)
		assert.Equal(t, "v", msg.Attributes["k"])
	case <-time.After(10 * time.Second):
		t.Fatal("message not delivered")
	}

	require.Eventually(t, func() bool {
		msgs := srv.Messages()
		return len(msgs) == 1 && msgs[0].Acks > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("subscribe did not return after cancel")
	}
}

func TestPubSubClient_HandlerErrorRedelivers(t *testing.T) {
	client, _ := newTestPubSub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	go func() {
		_ = client.Subscribe(ctx, "notes-import", func(context.Context, Message) error {
			if attempts.Add(1) == 1 {
				return errors.New("try again")
			}
			return nil
		})
	}()
	waitForSubscription(t, client, "notes-import")

	_, err := client.Publish(context.Background(), "notes-import", []byte("retry"), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return attempts.Load() >= 2 }, 10*time.Second, 20*time.Millisecond)
}

func TestPubSubClient_Validation(t *testing.T) {
	_, err := NewPubSubClient(context.Background(), config.PubSubConfig{})
	assert.EqualError(t, err, "pubsub project id is required")

	client, _ := newTestPubSub(t)
	_, err = client.Publish(context.Background(), " ", nil, nil)
	assert.Error(t, err)
	err = client.Subscribe(context.Background(), "", func(context.Context, Message) error { return nil })
	assert.Error(t, err)
	assert.Equal(t, "notes-import-sub", client.subscriptionName("notes-import"))
}
