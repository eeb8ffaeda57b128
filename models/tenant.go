package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus represents the operational status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusDisabled  TenantStatus = "disabled"
)

// Tenant represents a customer account. The runtime pipeline only reads
// tenants; lifecycle management belongs to the admin surface.
type Tenant struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	Name       string       `json:"name" db:"name"`
	Status     TenantStatus `json:"status" db:"status"`
	KillSwitch bool         `json:"kill_switch" db:"kill_switch"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// IsActive reports whether the tenant may execute requests
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}
