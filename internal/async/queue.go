package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/receipts-monitor/internal/entity"
)

// Job is one document waiting for a worker.
type Job struct {
	Document    entity.Document
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
