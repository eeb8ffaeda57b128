package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Provider is a tenant-scoped upstream AI provider configuration. The
// credentials blob is encrypted at rest and only decrypted in memory at
// invocation time; it is never returned to API callers.
type Provider struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	TenantID             uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Type                 string          `json:"type" db:"type"`
	DisplayName          string          `json:"display_name" db:"display_name"`
	EncryptedCredentials string          `json:"-" db:"encrypted_credentials"`
	Config               json.RawMessage `json:"config,omitempty" db:"config"`
	Enabled              bool            `json:"enabled" db:"enabled"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Provider model
func (Provider) TableName() string {
	return "providers"
}
