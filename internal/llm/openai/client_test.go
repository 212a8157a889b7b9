package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature *float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, status int, content string, seen *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		Model:       "test-model",
		Temperature: 0.1,
	}, srv.Client(), discardLogger())
}

func TestExtractFields_EmbeddedJSON(t *testing.T) {
	var seen capturedRequest
	srv := chatServer(t, http.StatusOK,
		"Sure! Here you go:\n```json\n{\"Invoice Number\": \"INV-42\", \"Vendor Name\": \"ACME\"}\n```", &seen)

	rec, raw, err := newTestClient(srv).ExtractFields(context.Background(), "INVOICE INV-42 ACME")
	require.NoError(t, err)
	assert.Equal(t, "INV-42", rec["Invoice Number"])
	assert.Equal(t, "ACME", rec["Vendor Name"])
	assert.NotEmpty(t, raw)

	assert.Equal(t, "test-model", seen.Model)
	require.NotNil(t, seen.Temperature)
	assert.InDelta(t, 0.1, *seen.Temperature, 1e-6)
	assert.Equal(t, DefaultMaxTokens, seen.MaxTokens)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Contains(t, seen.Messages[0].Content, "expert invoice analyzer")
	assert.Contains(t, seen.Messages[1].Content, "INVOICE INV-42 ACME")
}

func TestExtractFields_ZeroTemperatureIsSent(t *testing.T) {
	var seen capturedRequest
	srv := chatServer(t, http.StatusOK, `{"Invoice Number": "INV-7"}`, &seen)
	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"}, srv.Client(), discardLogger())

	_, _, err := c.ExtractFields(context.Background(), "INVOICE INV-7")
	require.NoError(t, err)
	require.NotNil(t, seen.Temperature, "temperature must not be dropped from the request")
	assert.Greater(t, *seen.Temperature, float32(0))
	assert.Less(t, *seen.Temperature, float32(1e-6))
}

func TestExtract_NoJSONBecomesErrorRecord(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "I am unable to read this invoice.", nil)

	rec := newTestClient(srv).Extract(context.Background(), "text")
	assert.Equal(t, "No valid JSON found in response", rec["error"])
	assert.Len(t, rec, 1)
}

func TestExtract_InvalidJSONBecomesErrorRecord(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "{Invoice Number: INV-1}", nil)

	rec := newTestClient(srv).Extract(context.Background(), "text")
	msg, ok := rec.Err()
	require.True(t, ok)
	assert.Contains(t, msg, "invalid JSON in response")
}

func TestExtract_APIErrorBecomesErrorRecord(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "", nil)

	rec := newTestClient(srv).Extract(context.Background(), "text")
	msg, ok := rec.Err()
	require.True(t, ok)
	assert.Contains(t, msg, "LLM API error")
	assert.Contains(t, msg, "429")
}

func TestExtract_SchemaMismatchStillReturnsRecord(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"Line Items": "two widgets", "Total Amount": 5}`, nil)

	rec := newTestClient(srv).Extract(context.Background(), "text")
	_, isErr := rec.Err()
	assert.False(t, isErr)
	assert.Equal(t, "two widgets", rec["Line Items"])
}

func TestNewClient_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "from-env")

	c := NewClient(Config{}, nil, nil)
	assert.Equal(t, "from-env", c.cfg.APIKey)
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, DefaultModel, c.cfg.Model)
	assert.Equal(t, DefaultMaxTokens, c.cfg.MaxTokens)
	assert.Equal(t, MinTemperature, c.cfg.Temperature)
	assert.Positive(t, c.cfg.Timeout)
}
