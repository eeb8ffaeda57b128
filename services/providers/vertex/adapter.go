// Package vertex implements the provider adapter for Google Vertex AI
// generative models.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/provider-manager/backend/services/providers"
	"golang.org/x/oauth2/google"
)

const defaultLocation = "us-central1"

var cloudPlatformScope = []string{"https://www.googleapis.com/auth/cloud-platform"}

// Adapter calls Vertex AI generateContent with service-account
// credentials supplied per invocation.
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
	projectID := providers.CredentialString(credentials, "projectId", "")
	location := providers.CredentialString(credentials, "location", defaultLocation)
	modelID := providers.CredentialString(credentials, "model", model)

	serviceAccount, ok := credentials["serviceAccount"].(map[string]any)
	if !ok {
		serviceAccount = credentials
	}
	if projectID == "" || modelID == "" {
		return nil, fmt.Errorf("missing Google Vertex credentials (projectId, model)")
	}

	saJSON, err := json.Marshal(serviceAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode service account: %w", err)
	}
	jwtConfig, err := google.JWTConfigFromJSON(saJSON, cloudPlatformScope...)
	if err != nil {
		return nil, fmt.Errorf("invalid Google Vertex service account: %w", err)
	}
	token, err := jwtConfig.TokenSource(ctx).Token()
	if err != nil {
		return nil, fmt.Errorf("unable to obtain Google access token: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		location, projectID, location, modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vertex request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read vertex response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vertex error: %d %s", resp.StatusCode, string(respBody))
	}

	var data map[string]any
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("failed to decode vertex response: %w", err)
	}

	var parsed struct {
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}
	_ = json.Unmarshal(respBody, &parsed)

	return &providers.InvocationResult{
		Output:    data,
		TokensIn:  parsed.UsageMetadata.PromptTokenCount,
		TokensOut: parsed.UsageMetadata.CandidatesTokenCount,
	}, nil
}
