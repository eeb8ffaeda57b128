package models

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEventWildcard subscribes a webhook to every event type
const WebhookEventWildcard = "*"

// Webhook is an external subscriber for audit events. A nil TenantID
// means the subscription is global and receives events for all tenants.
type Webhook struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TenantID        *uuid.UUID `json:"tenant_id,omitempty" db:"tenant_id"`
	URL             string     `json:"url" db:"url"`
	Events          []string   `json:"events" db:"events"`
	EncryptedSecret *string    `json:"-" db:"encrypted_secret"`
	Enabled         bool       `json:"enabled" db:"enabled"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Webhook model
func (Webhook) TableName() string {
	return "webhooks"
}

// Matches reports whether the subscription should receive an event of the
// given type for the given tenant.
func (w *Webhook) Matches(tenantID uuid.UUID, eventType string) bool {
	if !w.Enabled {
		return false
	}
	if w.TenantID != nil && *w.TenantID != tenantID {
		return false
	}
	for _, e := range w.Events {
		if e == WebhookEventWildcard || e == eventType {
			return true
		}
	}
	return false
}
