package models

import (
	"time"

	"github.com/google/uuid"
)

// PricingWildcard is the model value of a fallback pricing row that
// matches any model for its provider type.
const PricingWildcard = "*"

// PricingEntry is a cost-per-1k-tokens record for a (provider type, model)
// pair. Entries may be global or scoped to tenants through TenantPricing.
type PricingEntry struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ProviderType    string    `json:"provider_type" db:"provider_type"`
	Model           string    `json:"model" db:"model"`
	InputCostPer1k  float64   `json:"input_cost_per_1k" db:"input_cost_per_1k"`
	OutputCostPer1k float64   `json:"output_cost_per_1k" db:"output_cost_per_1k"`
	Enabled         bool      `json:"enabled" db:"enabled"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the PricingEntry model
func (PricingEntry) TableName() string {
	return "pricing_models"
}

// IsWildcard reports whether the entry is a model fallback row
func (p *PricingEntry) IsWildcard() bool {
	return p.Model == PricingWildcard
}

// TenantPricing links a tenant to a pricing entry, overriding the global
// table for that tenant.
type TenantPricing struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	PricingID uuid.UUID `json:"pricing_id" db:"pricing_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the TenantPricing model
func (TenantPricing) TableName() string {
	return "tenant_pricings"
}
