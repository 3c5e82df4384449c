package entity

import (
	"time"

	"github.com/joseph-ayodele/receipts-monitor/constants"
)

// Document is one input file found by ingestion.
type Document struct {
	ID      string                 `json:"id"` // hex sha256 of the content
	Path    string                 `json:"path"`
	Name    string                 `json:"name"`
	Kind    constants.DocumentKind `json:"kind"`
	IsReply bool                   `json:"is_reply"` // content is already a model's text reply
	Link    string                 `json:"link"`
	Size    int64                  `json:"size"`
	ModTime time.Time              `json:"mod_time"`
}
