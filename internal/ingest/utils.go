package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/receipts-monitor/constants"
)

// AllowedExt reports whether ext is a document image or a model reply.
func AllowedExt(ext string) bool {
	return constants.IsImageExt(ext) || constants.IsReplyExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// InferKind treats anything whose path mentions "invoice" as an invoice.
func InferKind(path string) constants.DocumentKind {
	if strings.Contains(strings.ToLower(filepath.ToSlash(path)), "invoice") {
		return constants.KindInvoice
	}
	return constants.KindReceipt
}

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// SidecarPath returns the reply file stored next to an image
// (receipt.jpg -> receipt.txt), if one exists.
func SidecarPath(imagePath string) (string, bool) {
	base := stem(imagePath)
	for _, ext := range []string{"txt", "md", "json"} {
		p := base + "." + ext
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
	}
	return "", false
}

// hasSiblingImage reports whether a reply file belongs to an image.
func hasSiblingImage(replyPath string) bool {
	base := stem(replyPath)
	for ext := range constants.ImageExtensions {
		for _, e := range []string{ext, strings.ToUpper(ext)} {
			if fi, err := os.Stat(base + "." + e); err == nil && !fi.IsDir() {
				return true
			}
		}
	}
	return false
}
