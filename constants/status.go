package constants

// DocumentStatus is the canonical status for rows in processed_documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentStatusProcessed DocumentStatus = "PROCESSED" // record recovered and written
	DocumentStatusFailed    DocumentStatus = "FAILED"    // surrounding stage failed; failure row written
)
