package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// AllowedExt checks if a file extension is in the upload set (png/jpg/jpeg/pdf/docx).
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// IsStaged reports whether name looks like one of our own staging files, so
// a watched directory doesn't pick up its own temporaries.
func IsStaged(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "temp_")
}
