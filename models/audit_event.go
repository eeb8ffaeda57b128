package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditStatus represents the outcome recorded by an audit event
type AuditStatus string

const (
	AuditStatusAccepted AuditStatus = "accepted"
	AuditStatusRejected AuditStatus = "rejected"
	AuditStatusError    AuditStatus = "error"
)

// AuditAction tags the operation an audit event belongs to
type AuditAction string

const (
	// ActionRuntimeExecute is recorded once per runtime pipeline run
	ActionRuntimeExecute AuditAction = "runtime.execute"
	// ActionKillSwitchSet is recorded when an operator flips a kill switch
	ActionKillSwitchSet AuditAction = "killswitch.set"
)

// AuditEvent is an immutable record of one pipeline outcome. Metadata must
// never contain raw prompts or credentials.
type AuditEvent struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	TenantID  uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Action    AuditAction    `json:"action" db:"action"`
	Status    AuditStatus    `json:"status" db:"status"`
	Metadata  map[string]any `json:"metadata" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the AuditEvent model
func (AuditEvent) TableName() string {
	return "audit_events"
}

// NewAuditEvent creates an audit event with a fresh ID and timestamp
func NewAuditEvent(tenantID uuid.UUID, action AuditAction, status AuditStatus, metadata map[string]any) *AuditEvent {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &AuditEvent{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Action:    action,
		Status:    status,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}
