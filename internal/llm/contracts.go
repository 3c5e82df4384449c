package llm

import (
	"context"

	"github.com/joseph-ayodele/receipts-monitor/constants"
)

// CompletionRequest is one "image + prompt" call to a vision model.
type CompletionRequest struct {
	Kind         constants.DocumentKind
	Prompt       string
	ImageDataURL string // data:<mime>;base64,...
	MaxTokens    int
	Temperature  float32
}

// Completer returns the model's raw text reply. Recovery of a structured
// record from that text is done by Recover, never by the Completer.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// NewCompletionRequest fills the prompt and token budget used for kind.
func NewCompletionRequest(kind constants.DocumentKind, imageDataURL string) CompletionRequest {
	req := CompletionRequest{
		Kind:         kind,
		Prompt:       PromptFor(kind),
		ImageDataURL: imageDataURL,
		MaxTokens:    1000,
		Temperature:  0.1,
	}
	if kind == constants.KindInvoice {
		req.MaxTokens = 2000
	}
	return req
}
