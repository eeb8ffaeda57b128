package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/repositories"
	"go.uber.org/zap"
)

const (
	webhookSelectByID = `
		SELECT id, tenant_id, url, events, encrypted_secret, enabled, created_at, updated_at
		FROM webhooks
		WHERE id = $1`

	webhookListEnabled = `
		SELECT id, tenant_id, url, events, encrypted_secret, enabled, created_at, updated_at
		FROM webhooks
		WHERE enabled = TRUE
		ORDER BY created_at`
)

// WebhookRepository implements repositories.WebhookRepository backed by PostgreSQL.
type WebhookRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewWebhookRepository(db *sql.DB, logger *zap.Logger) repositories.WebhookRepository {
	return &WebhookRepository{db: db, logger: logger}
}

func (r *WebhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Webhook, error) {
	w, err := scanWebhook(r.db.QueryRowContext(ctx, webhookSelectByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook: %w", err)
	}
	return w, nil
}

func (r *WebhookRepository) ListEnabled(ctx context.Context) ([]*models.Webhook, error) {
	rows, err := r.db.QueryContext(ctx, webhookListEnabled)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []*models.Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhooks: %w", err)
	}
	return webhooks, nil
}

func scanWebhook(row rowScanner) (*models.Webhook, error) {
	var w models.Webhook
	var events []byte
	err := row.Scan(
		&w.ID, &w.TenantID, &w.URL, &events, &w.EncryptedSecret,
		&w.Enabled, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		if err := json.Unmarshal(events, &w.Events); err != nil {
			return nil, fmt.Errorf("malformed webhook events list: %w", err)
		}
	}
	return &w, nil
}
