// Package redaction scrubs secret material from request payloads
// before they reach a provider.
package redaction

import (
	"regexp"
)

// Mask replaces detected secret material.
const Mask = "[REDACTED]"

var secretPatterns = []*regexp.Regexp{
	// Provider API keys
	regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{20,}\b`),
	regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_\-]{20,}\b`),
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}\b`),
	regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
	regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9\-]{10,}\b`),

	// JWTs
	regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\b`),

	// PEM private keys
	regexp.MustCompile(`-----BEGIN[A-Z ]*PRIVATE KEY-----[\s\S]*?-----END[A-Z ]*PRIVATE KEY-----`),

	// Labeled credentials
	regexp.MustCompile(`(?i)(password|passwd|pwd)[:\s=]+['"]?[^\s'"]{8,}['"]?`),
	regexp.MustCompile(`(?i)(api[_\-]?key|access[_\-]?token|secret)[:\s=]+['"]?[A-Za-z0-9_\-.]{16,}['"]?`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.]{20,}`),
}

// Redact returns a deep copy of payload with secret-shaped substrings
// in string values replaced by Mask. The input is never mutated.
func Redact(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	return redactMap(payload)
}

// RedactString scrubs a single string value.
func RedactString(s string) string {
	for _, pattern := range secretPatterns {
		s = pattern.ReplaceAllString(s, Mask)
	}
	return s
}

func redactMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = redactValue(value)
	}
	return out
}

func redactValue(value any) any {
	switch v := value.(type) {
	case string:
		return RedactString(v)
	case map[string]any:
		return redactMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = redactValue(item)
		}
		return out
	default:
		return v
	}
}
