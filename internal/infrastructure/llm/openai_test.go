package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCaster/internal/config"
)

func newTestClient(serverURL string) *OpenAIClient {
	return NewOpenAIClient(config.OracleConfig{
		Endpoint: serverURL,
		Model:    "test-model",
		APIKey:   "test-key",
	})
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"generated script"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	out, err := client.Generate(context.Background(), "write a digest", "headline list")
	require.NoError(t, err)

	assert.Equal(t, "generated script", out)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotPayload["model"])

	messages, ok := gotPayload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	system := messages[0].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, "write a digest", system["content"])
	user := messages[1].(map[string]any)
	assert.Equal(t, "headline list", user["content"])
}

func TestGenerateMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewOpenAIClient(config.OracleConfig{})
	_, err := client.Generate(context.Background(), "x", "y")
	require.Error(t, err)
}

func TestGenerateUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGenerateNoChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), "x", "y")
	require.Error(t, err)
}

func TestSafeInstructions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "do the thing", safeInstructions("  do the thing  "))
	assert.NotEmpty(t, safeInstructions("   "))
}
