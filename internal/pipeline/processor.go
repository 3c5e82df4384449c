package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/common"
	"github.com/joseph-ayodele/receipts-monitor/internal/entity"
	"github.com/joseph-ayodele/receipts-monitor/internal/llm"
	"github.com/joseph-ayodele/receipts-monitor/internal/metrics"
	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
	"github.com/joseph-ayodele/receipts-monitor/internal/repository"
)

// Sink receives the rows for each processed document.
type Sink interface {
	AppendReceipt(doc entity.Document, r entity.Receipt) error
	AppendInvoice(doc entity.Document, inv entity.Invoice, changes map[int]pricehistory.Update) error
	AppendFailure(doc entity.Document, cause error) error
}

// Result is what happened to one document.
type Result struct {
	Document     entity.Document
	Skipped      bool // already processed
	Source       TextSource
	Record       llm.Record
	Verdict      llm.Verdict
	Receipt      *entity.Receipt
	Invoice      *entity.Invoice
	PriceUpdates []pricehistory.Update
	LineChanges  map[int]pricehistory.Update // by index into Invoice.Items
	PriceErrors  int
	Err          error
}

// Status is the processed_documents status Result maps to.
func (r Result) Status() constants.DocumentStatus {
	if r.Err != nil {
		return constants.DocumentStatusFailed
	}
	return constants.DocumentStatusProcessed
}

// Processor coordinates text retrieval, then recovery and price tracking,
// then row output.
type Processor struct {
	Logger    *zap.Logger
	Text      *TextStage
	Record    *RecordStage
	Sink      Sink
	Documents repository.DocumentStore // nil: no idempotency
	Metrics   *metrics.Metrics
	Timeout   time.Duration
	now       func() time.Time
}

func NewProcessor(logger *zap.Logger, text *TextStage, record *RecordStage, sink Sink) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{Logger: logger, Text: text, Record: record, Sink: sink, now: time.Now}
}

// Process runs one document end to end. Failures of the surrounding stages
// produce a failure row and a FAILED mark so the document is not retried;
// the returned error reports the same failure to the caller.
func (p *Processor) Process(ctx context.Context, doc entity.Document) (Result, error) {
	start := p.now()
	ctx = common.WithDocumentID(ctx, doc.ID)
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	log := p.Logger.With(zap.String("document", doc.Name), zap.String("kind", string(doc.Kind)))

	if p.Documents != nil {
		seen, err := p.Documents.Seen(ctx, doc.ID)
		if err != nil {
			return Result{Document: doc, Err: err}, eris.Wrapf(err, "check processed %s", doc.Name)
		}
		if seen {
			log.Info("pipeline.skip.already_processed", zap.String("id", doc.ID))
			return Result{Document: doc, Skipped: true}, nil
		}
	}

	raw, source, err := p.Text.Run(ctx, doc)
	if err != nil {
		log.Error("pipeline.text.failed", zap.String("source", string(source)), zap.Error(err))
		res := Result{Document: doc, Source: source, Err: err}
		p.finish(ctx, log, res, start)
		return res, err
	}
	log.Info("pipeline.text.ok", zap.String("source", string(source)), zap.Int("bytes", len(raw)))

	res := p.Record.Run(ctx, doc, raw)
	res.Source = source
	p.Metrics.RecordRecovery(string(doc.Kind), string(res.Verdict.Outcome))
	for _, u := range res.PriceUpdates {
		p.Metrics.RecordPriceChange(string(u.Classification))
	}

	if err := p.write(res); err != nil {
		res.Err = eris.Wrapf(err, "write rows for %s", doc.Name)
	}
	p.finish(ctx, log, res, start)
	return res, res.Err
}

func (p *Processor) write(res Result) error {
	if p.Sink == nil {
		return nil
	}
	switch {
	case res.Receipt != nil:
		return p.Sink.AppendReceipt(res.Document, *res.Receipt)
	case res.Invoice != nil:
		return p.Sink.AppendInvoice(res.Document, *res.Invoice, res.LineChanges)
	}
	return nil
}

// finish writes the failure row if needed, marks the document and records
// metrics. Errors here are logged only.
func (p *Processor) finish(ctx context.Context, log *zap.Logger, res Result, start time.Time) {
	if res.Err != nil && p.Sink != nil {
		if err := p.Sink.AppendFailure(res.Document, res.Err); err != nil {
			log.Error("pipeline.failure_row.failed", zap.Error(err))
		}
	}

	status := res.Status()
	if p.Documents != nil {
		rec := repository.ProcessedDocument{
			ID:          res.Document.ID,
			Path:        res.Document.Path,
			Kind:        res.Document.Kind,
			Status:      status,
			ProcessedAt: p.now().UTC(),
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		if err := p.Documents.MarkProcessed(context.WithoutCancel(ctx), rec); err != nil {
			log.Error("pipeline.mark_processed.failed", zap.Error(err))
		}
	}

	elapsed := p.now().Sub(start)
	p.Metrics.RecordDocument(string(res.Document.Kind), string(status), elapsed)

	if res.Err != nil {
		log.Warn("pipeline.document.failed", zap.Error(res.Err), zap.Int64("elapsed_ms", elapsed.Milliseconds()))
		return
	}
	log.Info("pipeline.document.ok",
		zap.String("outcome", string(res.Verdict.Outcome)),
		zap.Bool("has_signal", res.Verdict.HasSignal),
		zap.Int("price_updates", len(res.PriceUpdates)),
		zap.Int("price_errors", res.PriceErrors),
		zap.Int64("elapsed_ms", elapsed.Milliseconds()),
	)
}
