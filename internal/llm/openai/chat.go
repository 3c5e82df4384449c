package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// apiError is the error envelope OpenAI-compatible servers return. Some
// providers send a bare string instead of an object.
type apiError struct {
	Error json.RawMessage `json:"error"`
}

func (e apiError) message() string {
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(e.Error, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	var s string
	if json.Unmarshal(e.Error, &s) == nil {
		return s
	}
	return ""
}

// StatusError is returned for a non-2xx reply from the completions endpoint.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "chat completions: " + http.StatusText(e.Status)
	}
	return "chat completions: " + http.StatusText(e.Status) + ": " + e.Message
}

// postChat sends one chat completions call and decodes the reply.
func (c *Client) postChat(ctx context.Context, rid string, body chatRequest) (chatResponse, error) {
	var out chatResponse
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return out, eris.Wrap(err, "encode chat request")
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return out, eris.Wrap(err, "build chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return out, eris.Wrap(err, "send chat request")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("llm.http.response_body_close_error", zap.String("req_id", rid), zap.Error(err))
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, eris.Wrap(err, "read chat response")
	}
	c.logger.Debug("llm.http.response",
		zap.String("req_id", rid),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode/100 != 2 {
		var ae apiError
		_ = json.Unmarshal(raw, &ae)
		return out, eris.Wrap(&StatusError{Status: resp.StatusCode, Message: ae.message()}, "chat completions")
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, eris.Wrapf(err, "decode chat response (%d bytes)", len(raw))
	}
	return out, nil
}

func newChatRequest(model string, prompt, image string, temperature float32, maxTokens int) chatRequest {
	parts := []contentPart{{Type: "text", Text: prompt}}
	if image != "" {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: image}})
	}
	return chatRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages:    []chatMessage{{Role: "user", Content: parts}},
	}
}
