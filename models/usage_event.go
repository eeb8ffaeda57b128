package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageEvent is an immutable record of one billed inference call. Events
// are written exactly once by the runtime pipeline and never updated.
type UsageEvent struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	ProviderID  uuid.UUID `json:"provider_id" db:"provider_id"`
	Model       string    `json:"model" db:"model"`
	ServiceCode *string   `json:"service_code,omitempty" db:"service_code"`
	TokensIn    int       `json:"tokens_in" db:"tokens_in"`
	TokensOut   int       `json:"tokens_out" db:"tokens_out"`
	CostUsd     float64   `json:"cost_usd" db:"cost_usd"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the UsageEvent model
func (UsageEvent) TableName() string {
	return "usage_events"
}

// TotalTokens returns the combined token count of the call
func (e *UsageEvent) TotalTokens() int {
	return e.TokensIn + e.TokensOut
}

// DailyTotals is the aggregate of a tenant's usage over one UTC day
type DailyTotals struct {
	Tokens  int64   `json:"tokens"`
	CostUsd float64 `json:"costUsd"`
}

// TenantDailyTotals is one row of the all-tenants daily summary
type TenantDailyTotals struct {
	TenantID uuid.UUID `json:"tenantId"`
	Tokens   int64     `json:"tokens"`
	CostUsd  float64   `json:"costUsd"`
}
