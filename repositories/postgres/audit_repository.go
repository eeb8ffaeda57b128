package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/repositories"
	"go.uber.org/zap"
)

const (
	auditInsert = `
		INSERT INTO audit_events (id, tenant_id, action, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	auditListRecent = `
		SELECT id, tenant_id, action, status, metadata, created_at
		FROM audit_events
		WHERE ($1::uuid IS NULL OR tenant_id = $1)
		ORDER BY created_at DESC
		LIMIT $2`
)

// AuditRepository implements repositories.AuditRepository backed by PostgreSQL.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAuditRepository(db *sql.DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

func (r *AuditRepository) Insert(ctx context.Context, event *models.AuditEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, auditInsert,
		event.ID, event.TenantID, event.Action, event.Status, metadata, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]*models.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, auditListRecent, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Action, &e.Status, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				r.logger.Warn("skipping malformed audit metadata",
					zap.String("audit_id", e.ID.String()), zap.Error(err))
				e.Metadata = map[string]any{}
			}
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return events, nil
}
