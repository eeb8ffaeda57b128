package models

import (
	"encoding/json"
	"time"
)

// SettingGlobalKillSwitch is the settings key backing the global kill switch
const SettingGlobalKillSwitch = "global_kill_switch"

// SystemSetting is a keyed JSON document for process-wide flags
type SystemSetting struct {
	Key       string          `json:"key" db:"key"`
	Value     json.RawMessage `json:"value" db:"value"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the SystemSetting model
func (SystemSetting) TableName() string {
	return "system_settings"
}

// BoolValue reads a {"enabled": bool} style value, returning fallback when
// the document is missing or malformed.
func (s *SystemSetting) BoolValue(field string, fallback bool) bool {
	if len(s.Value) == 0 {
		return fallback
	}
	var doc map[string]any
	if err := json.Unmarshal(s.Value, &doc); err != nil {
		return fallback
	}
	v, ok := doc[field].(bool)
	if !ok {
		return fallback
	}
	return v
}
