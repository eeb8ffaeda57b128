// Package azure implements the provider adapter for Azure OpenAI
// deployments.
package azure

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

const defaultAPIVersion = "2024-02-15-preview"

// Adapter calls an Azure OpenAI deployment with per-invocation
// credentials.
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

func (a *Adapter) Invoke(ctx context.Context, credentials map[string]any, model string, payload map[string]any) (*providers.InvocationResult, error) {
	endpoint := providers.CredentialString(credentials, "endpoint", "")
	apiKey := providers.CredentialString(credentials, "apiKey", "")
	deployment := providers.CredentialString(credentials, "deployment", model)
	apiVersion := providers.CredentialString(credentials, "apiVersion", defaultAPIVersion)

	if endpoint == "" || apiKey == "" || deployment == "" {
		return nil, fmt.Errorf("missing Azure OpenAI credentials (endpoint, apiKey, deployment)")
	}

	body := make(map[string]any, len(payload)+1)
	body["model"] = model
	for k, v := range payload {
		body[k] = v
	}
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		endpoint, deployment, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read azure openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("azure openai error: %d %s", resp.StatusCode, string(respBody))
	}

	var data map[string]any
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("failed to decode azure openai response: %w", err)
	}

	var parsed struct {
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	_ = json.Unmarshal(respBody, &parsed)

	return &providers.InvocationResult{
		Output:    data,
		TokensIn:  parsed.Usage.PromptTokens,
		TokensOut: parsed.Usage.CompletionTokens,
	}, nil
}
