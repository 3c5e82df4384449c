package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/llm"
)

func TestClient_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Here is the data:\n{\"vendor\": \"Shell\",}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1/", Model: "vision-test"}, zaptest.NewLogger(t))
	req := llm.NewCompletionRequest(constants.KindReceipt, "data:image/png;base64,AA==")

	text, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Here is the data:\n{\"vendor\": \"Shell\",}", text)

	assert.Equal(t, "vision-test", got["model"])
	assert.EqualValues(t, 1000, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	content := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, llm.ReceiptPrompt, content[0].(map[string]any)["text"])
	assert.Equal(t, "data:image/png;base64,AA==", content[1].(map[string]any)["image_url"].(map[string]any)["url"])
}

func TestClient_CompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non-2xx", http.StatusTooManyRequests, `{"error":"slow down"}`},
		{"bad json", http.StatusOK, `not json`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
			_, err := c.Complete(context.Background(), llm.NewCompletionRequest(constants.KindInvoice, ""))
			assert.Error(t, err)
		})
	}
}

func TestClient_CompleteStatusErrorCarriesAPIMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"object envelope", `{"error":{"message":"model overloaded","type":"server_error"}}`, "model overloaded"},
		{"string envelope", `{"error":"slow down"}`, "slow down"},
		{"no envelope", `<html>bad gateway</html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, zaptest.NewLogger(t))
			_, err := c.Complete(context.Background(), llm.NewCompletionRequest(constants.KindReceipt, ""))

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, http.StatusBadGateway, se.Status)
			assert.Equal(t, tt.want, se.Message)
		})
	}
}

func TestClient_CompleteWaitsOnLimiter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, RequestsPerMinute: 1}, zaptest.NewLogger(t))
	req := llm.NewCompletionRequest(constants.KindReceipt, "")

	_, err := c.Complete(context.Background(), req)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, req)
	assert.ErrorContains(t, err, "rate limit wait")
	assert.EqualValues(t, 1, calls.Load())
}

func TestNewChatRequest_OmitsImagePartWithoutImage(t *testing.T) {
	body := newChatRequest("m", "read this", "", 0.1, 0)
	bs, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"m","temperature":0.1,"messages":[{"role":"user","content":[{"type":"text","text":"read this"}]}]}`, string(bs))
}

func TestNewClient_Defaults(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "from-env")
	c := NewClient(Config{RequestsPerMinute: 60}, nil)

	assert.Equal(t, "from-env", c.cfg.APIKey)
	assert.Equal(t, "https://api.together.xyz/v1", c.cfg.BaseURL)
	assert.Equal(t, "meta-llama/Llama-Vision-Free", c.cfg.Model)
	assert.InDelta(t, 1.0, float64(c.limiter.Limit()), 0.001)
}
