// Package openai implements the provider adapter for the OpenAI chat
// completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/provider-manager/backend/services/providers"
)

const defaultBaseURL = "https://api.openai.com"

// Adapter calls the OpenAI chat completions endpoint with
// per-invocation credentials.
type Adapter struct {
	httpClient *http.Client
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{
		httpClient: &http.Client{Timeout: timeout},
	}
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

func (a *Adapter) Invoke(ctx context.Context, credentials map[string]any, model string, payload map[string]any) (*providers.InvocationResult, error) {
	apiKey := providers.CredentialString(credentials, "apiKey", "")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OpenAI apiKey")
	}
	baseURL := providers.CredentialString(credentials, "baseUrl", defaultBaseURL)

	body := make(map[string]any, len(payload)+1)
	body["model"] = model
	for k, v := range payload {
		body[k] = v
	}
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/v1/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai error: %d %s", resp.StatusCode, string(respBody))
	}

	var data map[string]any
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("failed to decode openai response: %w", err)
	}

	var parsed struct {
		Usage usage `json:"usage"`
	}
	// Usage is best-effort; a response without it bills zero tokens.
	_ = json.Unmarshal(respBody, &parsed)

	return &providers.InvocationResult{
		Output:    data,
		TokensIn:  parsed.Usage.PromptTokens,
		TokensOut: parsed.Usage.CompletionTokens,
	}, nil
}
