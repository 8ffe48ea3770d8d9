package mq

import (
	"context"
	"errors"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jotnotes/apiserver/config"
	"gocloud.dev/pubsub"
	"gocloud.dev/pubsub/awssnssqs"
)

// NewSQSBackend builds a CloudBackend over AWS SQS. A channel name is
// appended to QueueURLPrefix to form the queue URL.
func NewSQSBackend(ctx context.Context, cfg config.SQSConfig) (*CloudBackend, error) {
	prefix := strings.TrimSpace(cfg.QueueURLPrefix)
	if prefix == "" {
		return nil, errors.New("sqs queue url prefix is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	client := sqs.NewFromConfig(awsCfg)

	openTopic := func(ctx context.Context, channel string) (*pubsub.Topic, error) {
		return awssnssqs.OpenSQSTopicV2(ctx, client, prefix+channel, nil), nil
	}
	openSubscription := func(ctx context.Context, channel string) (*pubsub.Subscription, error) {
		return awssnssqs.OpenSubscriptionV2(ctx, client, prefix+channel, &awssnssqs.SubscriptionOptions{
			Raw:      true,
			WaitTime: cfg.WaitTime,
		}), nil
	}

	return NewCloudBackend(openTopic, openSubscription), nil
}
