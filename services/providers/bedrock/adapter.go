// Package bedrock implements the provider adapter for AWS Bedrock
// runtime models.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/provider-manager/backend/services/providers"
)

const defaultRegion = "us-east-1"

// Adapter invokes Bedrock models. The client is rebuilt per
// invocation because credentials are tenant-scoped.
type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Invoke(ctx context.Context, creds map[string]any, model string, payload map[string]any) (*providers.InvocationResult, error) {
	accessKeyID := providers.CredentialString(creds, "accessKeyId", "")
	secretAccessKey := providers.CredentialString(creds, "secretAccessKey", "")
	sessionToken := providers.CredentialString(creds, "sessionToken", "")
	region := providers.CredentialString(creds, "region", defaultRegion)
	modelID := providers.CredentialString(creds, "modelId", model)

	if accessKeyID == "" || secretAccessKey == "" || modelID == "" {
		return nil, fmt.Errorf("missing AWS Bedrock credentials (accessKeyId, secretAccessKey, modelId)")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure bedrock client: %w", err)
	}
	client := bedrockruntime.NewFromConfig(cfg)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock invocation failed: %w", err)
	}

	data := map[string]any{}
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			return nil, fmt.Errorf("failed to decode bedrock response: %w", err)
		}
	}

	var parsed struct {
		Usage struct {
			InputTokens      int `json:"input_tokens"`
			OutputTokens     int `json:"output_tokens"`
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	_ = json.Unmarshal(resp.Body, &parsed)

	tokensIn := parsed.Usage.InputTokens
	if tokensIn == 0 {
		tokensIn = parsed.Usage.PromptTokens
	}
	tokensOut := parsed.Usage.OutputTokens
	if tokensOut == 0 {
		tokensOut = parsed.Usage.CompletionTokens
	}

	return &providers.InvocationResult{
		Output:    data,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
	}, nil
}
