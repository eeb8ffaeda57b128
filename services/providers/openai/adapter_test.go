package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Invoke(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{"message": {"role": "assistant", "content": "hi"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7}
		}`))
	}))
	defer server.Close()

	adapter := NewAdapter(5 * time.Second)
	credentials := map[string]any{"apiKey": "sk-test", "baseUrl": server.URL}

	result, err := adapter.Invoke(context.Background(), credentials, "gpt-4o-mini",
		map[string]any{"messages": []any{map[string]any{"role": "user", "content": "hello"}}})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.Equal(t, 12, result.TokensIn)
	assert.Equal(t, 7, result.TokensOut)
	assert.Equal(t, "chatcmpl-1", result.Output["id"])
}

func TestAdapter_Invoke_MissingAPIKey(t *testing.T) {
	adapter := NewAdapter(time.Second)
	_, err := adapter.Invoke(context.Background(), map[string]any{}, "gpt-4", nil)
	assert.ErrorContains(t, err, "apiKey")
}

func TestAdapter_Invoke_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter := NewAdapter(time.Second)
	credentials := map[string]any{"apiKey": "sk-bad", "baseUrl": server.URL}

	_, err := adapter.Invoke(context.Background(), credentials, "gpt-4", map[string]any{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "401")
}

func TestAdapter_Invoke_MissingUsageBillsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "choices": []}`))
	}))
	defer server.Close()

	adapter := NewAdapter(time.Second)
	credentials := map[string]any{"apiKey": "sk-test", "baseUrl": server.URL}

	result, err := adapter.Invoke(context.Background(), credentials, "gpt-4", map[string]any{})
	require.NoError(t, err)
	assert.Zero(t, result.TokensIn)
	assert.Zero(t, result.TokensOut)
}
