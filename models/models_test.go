package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTenant_IsActive(t *testing.T) {
	tests := []struct {
		status TenantStatus
		want   bool
	}{
		{TenantStatusActive, true},
		{TenantStatusSuspended, false},
		{TenantStatusDisabled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			tenant := &Tenant{Status: tt.status}
			assert.Equal(t, tt.want, tenant.IsActive())
		})
	}
}

func TestNewPolicy_Defaults(t *testing.T) {
	tenantID := uuid.New()
	policy := NewPolicy(tenantID)

	assert.Equal(t, tenantID, policy.TenantID)
	assert.Equal(t, 60, policy.MaxRequestsPerMinute)
	assert.Equal(t, int64(200000), policy.MaxTokensPerDay)
	assert.Equal(t, 0.0, policy.MaxCostPerDayUsd)
	assert.True(t, policy.RedactionEnabled)
	assert.NotEqual(t, uuid.Nil, policy.ID)
}

func TestPricingEntry_IsWildcard(t *testing.T) {
	assert.True(t, (&PricingEntry{Model: "*"}).IsWildcard())
	assert.False(t, (&PricingEntry{Model: "gpt-4o-mini"}).IsWildcard())
}

func TestUsageEvent_TotalTokens(t *testing.T) {
	event := &UsageEvent{TokensIn: 60, TokensOut: 50}
	assert.Equal(t, 110, event.TotalTokens())
}

func TestWebhook_Matches(t *testing.T) {
	tenantID := uuid.New()
	otherTenant := uuid.New()

	t.Run("global wildcard matches everything", func(t *testing.T) {
		hook := &Webhook{Events: []string{"*"}, Enabled: true}
		assert.True(t, hook.Matches(tenantID, "audit.event"))
		assert.True(t, hook.Matches(otherTenant, "anything.else"))
	})

	t.Run("tenant scoped matches only its tenant", func(t *testing.T) {
		hook := &Webhook{TenantID: &tenantID, Events: []string{"audit.event"}, Enabled: true}
		assert.True(t, hook.Matches(tenantID, "audit.event"))
		assert.False(t, hook.Matches(otherTenant, "audit.event"))
	})

	t.Run("event type must be subscribed", func(t *testing.T) {
		hook := &Webhook{Events: []string{"audit.event"}, Enabled: true}
		assert.False(t, hook.Matches(tenantID, "usage.event"))
	})

	t.Run("disabled hook never matches", func(t *testing.T) {
		hook := &Webhook{Events: []string{"*"}, Enabled: false}
		assert.False(t, hook.Matches(tenantID, "audit.event"))
	})
}

func TestSystemSetting_BoolValue(t *testing.T) {
	t.Run("reads enabled flag", func(t *testing.T) {
		setting := &SystemSetting{Key: SettingGlobalKillSwitch, Value: json.RawMessage(`{"enabled":true}`)}
		assert.True(t, setting.BoolValue("enabled", false))
	})

	t.Run("falls back on empty value", func(t *testing.T) {
		setting := &SystemSetting{Key: SettingGlobalKillSwitch}
		assert.True(t, setting.BoolValue("enabled", true))
		assert.False(t, setting.BoolValue("enabled", false))
	})

	t.Run("falls back on malformed value", func(t *testing.T) {
		setting := &SystemSetting{Value: json.RawMessage(`{"enabled":"yes"}`)}
		assert.False(t, setting.BoolValue("enabled", false))
	})

	t.Run("falls back on missing field", func(t *testing.T) {
		setting := &SystemSetting{Value: json.RawMessage(`{"other":true}`)}
		assert.False(t, setting.BoolValue("enabled", false))
	})
}
