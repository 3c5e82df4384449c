package llm

import (
	"encoding/base64"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// MaxImageBytes caps what is inlined into a vision request.
const MaxImageBytes = 20 << 20

// ReadAsDataURL loads an image or PDF and encodes it as a data URL.
func ReadAsDataURL(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", eris.Wrapf(err, "stat %s", path)
	}
	if st.Size() > MaxImageBytes {
		return "", eris.Errorf("%s is %d bytes, over the %d byte limit", path, st.Size(), MaxImageBytes)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "read %s", path)
	}
	return EncodeDataURL(b, filepath.Ext(path)), nil
}

// EncodeDataURL base64-encodes b with a mime type derived from ext.
func EncodeDataURL(b []byte, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	mt := mime.TypeByExtension("." + ext)
	if mt == "" {
		// fallbacks
		switch ext {
		case "jpg", "jpeg":
			mt = "image/jpeg"
		case "png":
			mt = "image/png"
		case "webp":
			mt = "image/webp"
		case "pdf":
			mt = "application/pdf"
		default:
			mt = "application/octet-stream"
		}
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(b)
}
