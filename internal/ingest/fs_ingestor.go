package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/entity"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	LinkPrefix string // empty: file:// links
	SkipHidden bool
	logger     *zap.Logger
}

func NewFSIngestor(linkPrefix string, logger *zap.Logger) *FSIngestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FSIngestor{LinkPrefix: linkPrefix, SkipHidden: true, logger: logger}
}

// Describe hashes path and builds its document.
func (i *FSIngestor) Describe(path string) (entity.Document, error) {
	var out entity.Document

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, eris.Wrapf(err, "abs path %s", path)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, eris.Errorf("unsupported or missing extension: %q", ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, eris.Wrapf(err, "open %s", abs)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("ingest.close_error", zap.String("path", abs), zap.Error(err))
		}
	}(f)

	fi, err := f.Stat()
	if err != nil {
		return out, eris.Wrapf(err, "stat %s", abs)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return out, eris.Wrapf(err, "hash %s", abs)
	}
	id := hex.EncodeToString(h.Sum(nil))

	return entity.Document{
		ID:      id,
		Path:    abs,
		Name:    filepath.Base(abs),
		Kind:    InferKind(abs),
		IsReply: constants.IsReplyExt(ext),
		Link:    i.link(abs, id),
		Size:    fi.Size(),
		ModTime: fi.ModTime().UTC(),
	}, nil
}

func (i *FSIngestor) link(abs, id string) string {
	if i.LinkPrefix != "" {
		return strings.TrimRight(i.LinkPrefix, "/") + "/" + id
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// Scan walks root, skips hidden entries if requested and describes each
// accepted file. Reply files that sit next to an image are left for the
// image's document to pick up.
func (i *FSIngestor) Scan(ctx context.Context, root string) ([]entity.Document, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, eris.New("root path is required")
	}

	var docs []entity.Document
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			i.logger.Warn("ingest.walk_error", zap.String("path", path), zap.Error(walkErr))
			stats.Failed++
			return nil
		}
		if i.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if !AllowedExt(ext) {
			return nil
		}
		if constants.IsReplyExt(ext) && hasSiblingImage(path) {
			stats.Sidecars++
			return nil
		}
		stats.Matched++

		doc, err := i.Describe(path)
		if err != nil {
			i.logger.Warn("ingest.describe_error", zap.String("path", path), zap.Error(err))
			stats.Failed++
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return docs, stats, eris.Wrap(err, "walk")
	}

	i.logger.Info("ingest.scan.done",
		zap.String("root", root),
		zap.Uint32("scanned", stats.Scanned),
		zap.Uint32("matched", stats.Matched),
		zap.Uint32("sidecars", stats.Sidecars),
		zap.Uint32("failed", stats.Failed),
	)
	return docs, stats, nil
}
