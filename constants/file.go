package constants

import "strings"

// ImageExtensions are documents that need a model call to produce a reply.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"gif":  {},
	"bmp":  {},
	"pdf":  {},
}

// ReplyExtensions are documents that already hold a model's raw text reply.
var ReplyExtensions = map[string]struct{}{
	"txt":  {},
	"md":   {},
	"json": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (with or without the dot) is a document image.
func IsImageExt(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}

// IsReplyExt reports whether ext (with or without the dot) is a raw model reply.
func IsReplyExt(ext string) bool {
	_, ok := ReplyExtensions[NormalizeExt(ext)]
	return ok
}
