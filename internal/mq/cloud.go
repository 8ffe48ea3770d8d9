package mq

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocloud.dev/pubsub"
)

// MessageIDKey is the metadata key carrying the id assigned by Publish.
const MessageIDKey = "message-id"

const cloudShutdownTimeout = 10 * time.Second

// TopicOpener opens the gocloud topic backing a channel.
type TopicOpener func(ctx context.Context, channel string) (*pubsub.Topic, error)

// SubscriptionOpener opens the gocloud subscription backing a channel.
type SubscriptionOpener func(ctx context.Context, channel string) (*pubsub.Subscription, error)

// CloudBackend adapts gocloud.dev/pubsub drivers to Backend. Topics are
// opened lazily and reused per channel.
type CloudBackend struct {
	openTopic        TopicOpener
	openSubscription SubscriptionOpener

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

func NewCloudBackend(openTopic TopicOpener, openSubscription SubscriptionOpener) *CloudBackend {
	return &CloudBackend{
		openTopic:        openTopic,
		openSubscription: openSubscription,
		topics:           make(map[string]*pubsub.Topic),
	}
}

// Publish sends data to the channel's topic and returns a generated id.
func (c *CloudBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("cloud pubsub channel is required")
	}

	topic, err := c.topic(ctx, channel)
	if err != nil {
		return "", err
	}

	messageID := uuid.NewString()
	metadata := make(map[string]string, len(attrs)+1)
	for key, value := range attrs {
		metadata[key] = value
	}
	metadata[MessageIDKey] = messageID

	if err := topic.Send(ctx, &pubsub.Message{Body: data, Metadata: metadata}); err != nil {
		return "", err
	}
	return messageID, nil
}

// Subscribe receives from the channel's subscription until ctx ends.
// Handler errors nack the message when the driver supports it.
func (c *CloudBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("cloud pubsub channel is required")
	}

	sub, err := c.openSubscription(ctx, channel)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cloudShutdownTimeout)
		defer cancel()
		_ = sub.Shutdown(shutdownCtx)
	}()

	for {
		msg, err := sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		message := Message{
			ID:         msg.Metadata[MessageIDKey],
			Data:       msg.Body,
			Attributes: msg.Metadata,
		}
		if err := handler(ctx, message); err != nil {
			if msg.Nackable() {
				msg.Nack()
			}
			continue
		}
		msg.Ack()
	}
}

// Close shuts down every opened topic.
func (c *CloudBackend) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), cloudShutdownTimeout)
	defer cancel()

	var errs []error
	for name, topic := range c.topics {
		if err := topic.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		delete(c.topics, name)
	}
	return errors.Join(errs...)
}

func (c *CloudBackend) topic(ctx context.Context, channel string) (*pubsub.Topic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if topic, ok := c.topics[channel]; ok {
		return topic, nil
	}
	topic, err := c.openTopic(ctx, channel)
	if err != nil {
		return nil, err
	}
	c.topics[channel] = topic
	return topic, nil
}
