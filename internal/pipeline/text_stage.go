package pipeline

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/internal/entity"
	"github.com/joseph-ayodele/receipts-monitor/internal/ingest"
	"github.com/joseph-ayodele/receipts-monitor/internal/llm"
)

// TextSource says where a document's raw model text came from.
type TextSource string

const (
	SourceReply   TextSource = "reply"   // the document is itself a reply
	SourceSidecar TextSource = "sidecar" // reply file next to the image
	SourceModel   TextSource = "model"   // fresh model call
)

// TextStage obtains the raw model reply for a document.
type TextStage struct {
	Completer   llm.Completer // nil: only replies and sidecars are accepted
	MaxTokens   int           // 0 keeps the per-kind default
	Temperature float32       // 0 keeps the default
	Logger      *zap.Logger
}

func NewTextStage(c llm.Completer, logger *zap.Logger) *TextStage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextStage{Completer: c, Logger: logger}
}

// Run returns the model text for doc. Reply files and sidecars are read
// as-is; images go to the Completer with the prompt for doc.Kind.
func (s *TextStage) Run(ctx context.Context, doc entity.Document) (string, TextSource, error) {
	if doc.IsReply {
		raw, err := readText(doc.Path)
		return raw, SourceReply, err
	}
	if p, ok := ingest.SidecarPath(doc.Path); ok {
		s.Logger.Debug("pipeline.text.sidecar", zap.String("document", doc.Name), zap.String("sidecar", p))
		raw, err := readText(p)
		return raw, SourceSidecar, err
	}
	if s.Completer == nil {
		return "", SourceModel, eris.Errorf("no reply for %s and no model configured", doc.Name)
	}

	dataURL, err := llm.ReadAsDataURL(doc.Path)
	if err != nil {
		return "", SourceModel, err
	}
	req := llm.NewCompletionRequest(doc.Kind, dataURL)
	if s.MaxTokens > 0 {
		req.MaxTokens = s.MaxTokens
	}
	if s.Temperature > 0 {
		req.Temperature = s.Temperature
	}
	raw, err := s.Completer.Complete(ctx, req)
	if err != nil {
		return "", SourceModel, eris.Wrapf(err, "model call for %s", doc.Name)
	}
	if strings.TrimSpace(raw) == "" {
		// recovery turns this into a placeholder record flagged for review
		s.Logger.Warn("pipeline.text.empty_reply", zap.String("document", doc.Name))
	}
	return raw, SourceModel, nil
}

func readText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "read reply %s", path)
	}
	return string(b), nil
}
