// Package providers defines the adapter boundary between the gateway
// and upstream model APIs.
package providers

import (
	"context"
	"encoding/json"
	"errors"
)

// InvocationResult is the unified result shape across provider APIs.
type InvocationResult struct {
	Output    map[string]any `json:"output"`
	TokensIn  int            `json:"tokensIn"`
	TokensOut int            `json:"tokensOut"`
}

// Adapter invokes an upstream model API. Credentials arrive decrypted
// per invocation; adapters must never retain or log them.
type Adapter interface {
	Invoke(ctx context.Context, credentials map[string]any, model string, payload map[string]any) (*InvocationResult, error)
}

// ErrInvalidCredentials indicates stored credentials that do not parse
// as a JSON object.
var ErrInvalidCredentials = errors.New("invalid credentials format, must be JSON")

// ParseCredentials decodes the decrypted credential blob.
func ParseCredentials(raw string) (map[string]any, error) {
	var credentials map[string]any
	if err := json.Unmarshal([]byte(raw), &credentials); err != nil {
		return nil, ErrInvalidCredentials
	}
	return credentials, nil
}

// CredentialString pulls a string field out of a credentials map,
// returning fallback when absent or not a string.
func CredentialString(credentials map[string]any, key, fallback string) string {
	if v, ok := credentials[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
