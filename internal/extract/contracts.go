package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// TextExtractor is Stage 1: file -> text. It never fails; a document nothing
// could be read from comes back with empty Text and the reasons in Warnings.
type TextExtractor interface {
	Extract(ctx context.Context, path string, kind constants.DocumentKind) TextExtractionResult
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	Kind       constants.DocumentKind
	Method     constants.ExtractionMethod
	Duration   time.Duration
	Warnings   []string
	Confidence float32 // heuristic text quality, logged only
}
