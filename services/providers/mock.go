package providers

import "context"

// MockAdapter is a deterministic adapter for demos and tests. It never
// leaves the process and bills a fixed token count.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

func (a *MockAdapter) Invoke(_ context.Context, _ map[string]any, model string, payload map[string]any) (*InvocationResult, error) {
	return &InvocationResult{
		Output: map[string]any{
			"message": "mock-response",
			"model":   model,
			"payload": payload,
		},
		TokensIn:  50,
		TokensOut: 20,
	}, nil
}
