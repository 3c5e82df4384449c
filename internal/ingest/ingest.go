package ingest

import (
	"context"

	"github.com/joseph-ayodele/receipts-monitor/internal/entity"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned  uint32
	Matched  uint32
	Sidecars uint32 // reply files attached to a sibling image
	Failed   uint32
}

// Ingestor turns filesystem paths into documents.
type Ingestor interface {
	// Describe hashes a single file and builds its document.
	Describe(path string) (entity.Document, error)
	// Scan describes every accepted file under root.
	Scan(ctx context.Context, root string) ([]entity.Document, DirStats, error)
}

// Scan walks root with default options.
func Scan(root string) ([]entity.Document, error) {
	docs, _, err := NewFSIngestor("", nil).Scan(context.Background(), root)
	return docs, err
}
