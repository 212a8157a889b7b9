package constants

import (
	"path/filepath"
	"strings"
)

// DocumentKind is the closed set of inputs the pipeline knows how to read.
type DocumentKind string

const (
	Image       DocumentKind = "IMAGE"
	PDF         DocumentKind = "PDF"
	DOCX        DocumentKind = "DOCX"
	Unsupported DocumentKind = "UNSUPPORTED"
)

// AllowedExtensions holds the upload/discovery extensions (lowercase, without '.').
var AllowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"pdf":  {},
	"docx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsAllowedExt reports whether ext (with or without the dot) may be uploaded.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// KindFromExt maps an extension to its DocumentKind.
func KindFromExt(ext string) DocumentKind {
	switch NormalizeExt(ext) {
	case "png", "jpg", "jpeg":
		return Image
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	default:
		return Unsupported
	}
}

// KindFromPath is KindFromExt applied to the extension of path.
func KindFromPath(path string) DocumentKind {
	return KindFromExt(filepath.Ext(path))
}
