package repository

import (
	"context"

	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
)

// PriceStore persists price-history state.
type PriceStore interface {
	pricehistory.Store
}

// DocumentStore is the processed-document idempotency ledger, keyed by
// content hash.
type DocumentStore interface {
	Seen(ctx context.Context, id string) (bool, error)
	MarkProcessed(ctx context.Context, doc ProcessedDocument) error
}
