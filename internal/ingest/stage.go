package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// StagedFile is an upload copied under the staging directory. The pipeline
// owns Path from here on and removes it when done.
type StagedFile struct {
	Path         string
	OriginalName string
	Size         int64
	HashHex      string
	StagedAt     time.Time
}

// Stage copies r to dir/temp_<YYYYmmdd_HHMMSS>_<8 hex>_<sanitized name>. The
// random part keeps concurrent uploads of the same name apart.
func Stage(dir, originalName string, r io.Reader) (StagedFile, error) {
	out := StagedFile{OriginalName: originalName, StagedAt: time.Now()}

	safe := safeName(originalName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return out, fmt.Errorf("create staging dir: %w", err)
	}

	rnd := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	name := fmt.Sprintf("temp_%s_%s_%s", out.StagedAt.Format("20060102_150405"), rnd, safe)
	out.Path = filepath.Join(dir, name)

	f, err := os.OpenFile(out.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return out, fmt.Errorf("create staged file: %w", err)
	}

	h := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(f, h), r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(out.Path)
		if copyErr != nil {
			return out, fmt.Errorf("write staged file: %w", copyErr)
		}
		return out, fmt.Errorf("close staged file: %w", closeErr)
	}

	out.Size = n
	out.HashHex = hex.EncodeToString(h.Sum(nil))
	return out, nil
}

// StageCopy stages a copy of an existing file, leaving src untouched.
func StageCopy(dir, src string) (StagedFile, error) {
	f, err := os.Open(src)
	if err != nil {
		return StagedFile{}, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	return Stage(dir, filepath.Base(src), f)
}

// SecureFilename reduces name to an ASCII file name safe to join under a
// directory: accents folded, path separators and whitespace turned into
// underscores, anything outside [A-Za-z0-9_.-] dropped, leading/trailing
// dots and underscores trimmed.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || unicode.IsSpace(r):
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case r < unicode.MaxASCII && (r == '_' || r == '.' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastUnderscore = r == '_'
		}
	}
	return strings.Trim(b.String(), "._")
}

// safeName sanitizes base and extension separately so the extension the
// pipeline dispatches on survives names made only of non-ASCII characters.
func safeName(name string) string {
	ext := filepath.Ext(name)
	base := SecureFilename(strings.TrimSuffix(name, ext))
	if base == "" {
		base = "upload"
	}
	if ext = SecureFilename(ext); ext != "" {
		return base + "." + ext
	}
	return base
}
