// Package ocr turns raster images into text. It holds the image enhancement
// steps, the remote OCR.space client, the fallback chain that ties a local and
// a remote engine together, and the PDF page rasterizer.
package ocr

import (
	"context"
	"image"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// Engine recognizes the text in one image. Implementations return a *Failure
// instead of panicking; an empty string with a nil error means the engine ran
// but found nothing.
type Engine interface {
	Method() constants.ExtractionMethod
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Recognizer is what the document layer depends on: a single call that never fails.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) Outcome
}
