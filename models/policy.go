package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Policy holds the per-tenant quota and redaction configuration. A tenant
// without a policy is not allowed to execute anything: quota enforcement
// never default-allows.
type Policy struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	TenantID             uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	MaxRequestsPerMinute int             `json:"max_requests_per_minute" db:"max_requests_per_minute"`
	MaxTokensPerDay      int64           `json:"max_tokens_per_day" db:"max_tokens_per_day"`
	MaxCostPerDayUsd     float64         `json:"max_cost_per_day_usd" db:"max_cost_per_day_usd"`
	RedactionEnabled     bool            `json:"redaction_enabled" db:"redaction_enabled"`
	Metadata             json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Policy model
func (Policy) TableName() string {
	return "policies"
}

// NewPolicy creates a Policy with the original defaults (60 rpm, 200k
// tokens/day, no cost ceiling, redaction on).
func NewPolicy(tenantID uuid.UUID) *Policy {
	now := time.Now().UTC()
	return &Policy{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		MaxRequestsPerMinute: 60,
		MaxTokensPerDay:      200000,
		MaxCostPerDayUsd:     0,
		RedactionEnabled:     true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}
