package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

type capturedRequest struct {
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

func completionServer(t *testing.T, status int, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.Query = r.URL.RawQuery
		captured.Header = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&captured.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"` + reply + `","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

var draftMessages = []driven.ChatMessage{
	{Role: "system", Content: "You are a QA engineer."},
	{Role: "user", Content: "Write test cases for PROJ-1"},
}

func TestNewGenerator_RequiresKey(t *testing.T) {
	_, err := NewGenerator(Config{})
	assert.ErrorIs(t, err, domain.ErrConfigMissing)

	_, err = NewGenerator(Config{APIKey: "k", AzureURL: "https://x.openai.azure.com"})
	assert.ErrorIs(t, err, domain.ErrConfigMissing)
}

func TestGenerator_OpenAI(t *testing.T) {
	srv, captured := completionServer(t, http.StatusOK, "TC-1 Login succeeds")

	gen, err := NewGenerator(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, gen.ModelName())

	out, err := gen.Generate(context.Background(), draftMessages, driven.GenerateOptions{MaxTokens: 4000, Temperature: 0.1})
	require.NoError(t, err)
	assert.Equal(t, "TC-1 Login succeeds", out)

	assert.Equal(t, "/v1/chat/completions", captured.Path)
	assert.Equal(t, "Bearer sk-test", captured.Header.Get("Authorization"))
	assert.Equal(t, DefaultModel, captured.Body["model"])
	assert.EqualValues(t, 4000, captured.Body["max_tokens"])
	msgs, ok := captured.Body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestGenerator_Azure(t *testing.T) {
	srv, captured := completionServer(t, http.StatusOK, "plan")

	gen, err := NewGenerator(Config{
		APIKey:          "azure-key",
		AzureURL:        srv.URL,
		AzureDeployment: "qa-gpt4",
		AzureAPIVersion: "2024-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "qa-gpt4", gen.ModelName())

	out, err := gen.Generate(context.Background(), draftMessages, driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "plan", out)

	assert.Contains(t, captured.Path, "/openai/deployments/qa-gpt4/chat/completions")
	assert.Contains(t, captured.Query, "api-version=2024-06-01")
	assert.Equal(t, "azure-key", captured.Header.Get("api-key"))
}

func TestGenerator_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrAuthRequired},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := completionServer(t, tt.status, "nope")
			gen, err := NewGenerator(Config{APIKey: "k", BaseURL: srv.URL + "/v1"})
			require.NoError(t, err)

			_, err = gen.Generate(context.Background(), draftMessages, driven.GenerateOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerator_ServerError(t *testing.T) {
	srv, _ := completionServer(t, http.StatusBadRequest, "bad prompt")
	gen, err := NewGenerator(Config{APIKey: "k", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), draftMessages, driven.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion")
}
