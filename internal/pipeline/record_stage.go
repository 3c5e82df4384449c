package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/entity"
	"github.com/joseph-ayodele/receipts-monitor/internal/llm"
	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
)

// PriceObserver is the serialized price-history writer.
type PriceObserver interface {
	Observe(ctx context.Context, obs pricehistory.Observation) (pricehistory.Update, error)
}

// RecordStage recovers a record from raw text, converts it and feeds
// invoice lines to price history.
type RecordStage struct {
	Recoverer *llm.Recoverer
	Prices    PriceObserver // nil: price history disabled
	Logger    *zap.Logger
	now       func() time.Time
}

func NewRecordStage(r *llm.Recoverer, prices PriceObserver, logger *zap.Logger) *RecordStage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if r == nil {
		r = llm.NewRecoverer(logger)
	}
	return &RecordStage{Recoverer: r, Prices: prices, Logger: logger, now: time.Now}
}

// Run never fails on bad model text. Price store errors are logged per
// line and do not stop the remaining lines.
func (s *RecordStage) Run(ctx context.Context, doc entity.Document, raw string) Result {
	rec, verdict := s.Recoverer.Recover(raw, doc.Kind)
	res := Result{Document: doc, Record: rec, Verdict: verdict}

	if doc.Kind != constants.KindInvoice {
		r := entity.ReceiptFromRecord(rec, verdict)
		res.Receipt = &r
		return res
	}

	inv := entity.InvoiceFromRecord(rec, verdict)
	res.Invoice = &inv
	if s.Prices == nil {
		return res
	}
	for _, obs := range inv.PriceObservations(doc.Link, s.now().Format(constants.DateLayout)) {
		upd, err := s.Prices.Observe(ctx, obs.Observation)
		if err != nil {
			s.Logger.Error("pipeline.price.observe_failed",
				zap.String("document", doc.Name),
				zap.String("product", obs.Product),
				zap.Error(err))
			res.PriceErrors++
			continue
		}
		res.PriceUpdates = append(res.PriceUpdates, upd)
		if res.LineChanges == nil {
			res.LineChanges = map[int]pricehistory.Update{}
		}
		res.LineChanges[obs.Line] = upd
	}
	return res
}
