package openai

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

// Complete implements llm.Completer. It returns the first choice's content
// untouched; the reply is often not valid JSON and is handed to llm.Recover.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.complete.start",
		zap.String("req_id", rid),
		zap.String("model", c.cfg.Model),
		zap.String("kind", string(req.Kind)),
		zap.Float32("temp", req.Temperature),
		zap.Int("max_tokens", req.MaxTokens),
		zap.Bool("has_image", req.ImageDataURL != ""),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "rate limit wait")
	}

	body := newChatRequest(c.cfg.Model, req.Prompt, req.ImageDataURL, req.Temperature, req.MaxTokens)
	cc, err := c.postChat(ctx, rid, body)
	if err != nil {
		c.logger.Error("llm.complete.http_error",
			zap.String("req_id", rid), zap.Error(err),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
		return "", err
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.complete.no_choices", zap.String("req_id", rid))
		return "", eris.New("no choices in chat completions response")
	}

	text := cc.Choices[0].Message.Content
	c.logger.Info("llm.complete.ok",
		zap.String("req_id", rid),
		zap.Int("reply_len", len(text)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return text, nil
}
