// Package events exports audit events to an external message queue
// for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/provider-manager/backend/config"
	"go.uber.org/zap"
)

// Publisher sends an event body to an external queue.
type Publisher interface {
	Publish(ctx context.Context, body map[string]any) error
}

// NoopPublisher is used when no queue is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, map[string]any) error {
	return nil
}

// SQSPublisher publishes events to an AWS SQS queue.
type SQSPublisher struct {
	client   *sqs.Client
	queueURL string
	logger   *zap.Logger
}

// NewSQSPublisher builds a publisher from the queue configuration.
// Static credentials are optional; without them the default AWS chain
// applies.
func NewSQSPublisher(ctx context.Context, cfg config.QueueConfig, logger *zap.Logger) (*SQSPublisher, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to configure sqs client: %w", err)
	}

	return &SQSPublisher{
		client:   sqs.NewFromConfig(awsCfg),
		queueURL: cfg.URL,
		logger:   logger,
	}, nil
}

func (p *SQSPublisher) Publish(ctx context.Context, body map[string]any) error {
	message, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode queue message: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(message)),
	})
	if err != nil {
		return fmt.Errorf("failed to send queue message: %w", err)
	}

	p.logger.Debug("audit event published to queue",
		zap.Int("bytes", len(message)))
	return nil
}
