// Package webhooks fans audit events out to registered HTTP
// subscribers.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/internal/crypto"
	"github.com/provider-manager/backend/repositories"
	"go.uber.org/zap"
)

const userAgent = "ProviderManagerWebhook/1.0"

// SignatureHeader carries the HMAC-SHA256 signature of the delivered
// body, present only when the subscription has a secret.
const SignatureHeader = "x-signature"

// EventPayload is the wire shape delivered to subscribers.
type EventPayload struct {
	EventType string         `json:"eventType"`
	TenantID  string         `json:"tenantId"`
	Data      map[string]any `json:"data"`
	CreatedAt string         `json:"createdAt"`
}

// Service matches events to subscriptions and delivers them.
//
// Delivery is at-most-once: failures are logged, never retried, and
// never surfaced to the request that produced the event.
type Service struct {
	repo       repositories.WebhookRepository
	encryptor  *crypto.Encryptor
	httpClient *http.Client
	queue      JobQueue
	logger     *zap.Logger
}

func NewService(
	repo repositories.WebhookRepository,
	encryptor *crypto.Encryptor,
	deliveryTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	if deliveryTimeout == 0 {
		deliveryTimeout = 10 * time.Second
	}
	return &Service{
		repo:       repo,
		encryptor:  encryptor,
		httpClient: &http.Client{Timeout: deliveryTimeout},
		logger:     logger,
	}
}

// SetQueue routes deliveries through a job queue instead of inline
// execution. Call before the service starts receiving events.
func (s *Service) SetQueue(queue JobQueue) {
	s.queue = queue
}

// Enqueue matches the event against enabled subscriptions and hands
// each hit to the queue, or delivers inline when no queue is wired.
func (s *Service) Enqueue(ctx context.Context, event EventPayload) error {
	tenantID, err := uuid.Parse(event.TenantID)
	if err != nil {
		return fmt.Errorf("invalid tenant id in event: %w", err)
	}

	hooks, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list webhooks: %w", err)
	}

	for _, hook := range hooks {
		if !hook.Matches(tenantID, event.EventType) {
			continue
		}
		job := Job{WebhookID: hook.ID.String(), Event: event}
		if s.queue != nil {
			s.queue.Enqueue(job)
			continue
		}
		s.Process(ctx, job)
	}
	return nil
}

// Process delivers one queued job, logging and swallowing failures.
func (s *Service) Process(ctx context.Context, job Job) {
	if err := s.deliver(ctx, job); err != nil {
		s.logger.Warn("webhook delivery failed",
			zap.String("webhook_id", job.WebhookID),
			zap.String("event_type", job.Event.EventType),
			zap.Error(err))
	}
}

// SignPayload computes the hex HMAC-SHA256 of payload under secret.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Service) deliver(ctx context.Context, job Job) error {
	webhookID, err := uuid.Parse(job.WebhookID)
	if err != nil {
		return fmt.Errorf("invalid webhook id: %w", err)
	}

	// Re-fetch so a subscription disabled after enqueue is skipped.
	hook, err := s.repo.GetByID(ctx, webhookID)
	if err != nil {
		return fmt.Errorf("failed to load webhook: %w", err)
	}
	if hook == nil || !hook.Enabled {
		return nil
	}

	payload, err := json.Marshal(job.Event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if hook.EncryptedSecret != nil {
		secret, err := s.encryptor.Decrypt(*hook.EncryptedSecret)
		if err != nil {
			return fmt.Errorf("failed to decrypt webhook secret: %w", err)
		}
		req.Header.Set(SignatureHeader, SignPayload(secret, payload))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook delivery failed: %d %s", resp.StatusCode, string(body))
	}
	return nil
}
