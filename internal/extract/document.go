package extract

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

// Extractor picks a text source per DocumentKind: the PDF text layer, the
// DOCX body, or OCR through the local/remote fallback chain.
type Extractor struct {
	recognizer ocr.Recognizer
	rasterizer ocr.Rasterizer
	logger     *slog.Logger
}

func NewExtractor(recognizer ocr.Recognizer, rasterizer ocr.Rasterizer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{recognizer: recognizer, rasterizer: rasterizer, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, path string, kind constants.DocumentKind) (res TextExtractionResult) {
	start := time.Now()
	res.Kind = kind
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extract.panic", "path", path, "kind", kind, "panic", fmt.Sprint(r))
			res.Text, res.Method = "", constants.MethodNone
			res.Warnings = append(res.Warnings, fmt.Sprintf("panic: %v", r))
		}
		res.Text = strings.TrimSpace(res.Text)
		res.Duration = time.Since(start)
		if res.Text != "" {
			res.Confidence = ocr.HeuristicConfidence(res.Text)
		}
	}()

	e.logger.Debug("extract.start", "path", path, "kind", kind)
	switch kind {
	case constants.PDF:
		e.extractPDF(ctx, path, &res)
	case constants.DOCX:
		e.extractDOCX(path, &res)
	case constants.Image:
		e.extractImage(ctx, path, &res)
	default:
		res.Warnings = append(res.Warnings, fmt.Sprintf("unsupported document kind %q", kind))
	}
	return res
}

func (e *Extractor) extractPDF(ctx context.Context, path string, res *TextExtractionResult) {
	text, pages, err := pdfText(path)
	res.Pages = pages
	if err != nil {
		e.logger.Warn("extract.pdf.text_failed", "path", path, "error", err)
		res.Warnings = append(res.Warnings, err.Error())
	}
	if strings.TrimSpace(text) != "" {
		res.Text, res.Method = text, constants.MethodPDFText
		return
	}

	// no usable text layer: OCR a raster of page 1
	if e.rasterizer == nil || e.recognizer == nil {
		res.Warnings = append(res.Warnings, "pdf has no text layer and OCR is not configured")
		return
	}
	img, err := e.rasterizer.FirstPage(ctx, path)
	if err != nil {
		e.logger.Warn("extract.pdf.rasterize_failed", "path", path, "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		return
	}
	e.applyOCR(ctx, img, res)
}

func (e *Extractor) extractDOCX(path string, res *TextExtractionResult) {
	text, err := docxText(path)
	if err != nil {
		e.logger.Warn("extract.docx.failed", "path", path, "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		return
	}
	res.Pages = 1
	res.Text, res.Method = text, constants.MethodDOCXText
}

func (e *Extractor) extractImage(ctx context.Context, path string, res *TextExtractionResult) {
	img, err := ocr.DecodeFile(path)
	if err != nil {
		e.logger.Warn("extract.image.decode_failed", "path", path, "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		return
	}
	res.Pages = 1
	if e.recognizer == nil {
		res.Warnings = append(res.Warnings, "OCR is not configured")
		return
	}
	e.applyOCR(ctx, img, res)
}

func (e *Extractor) applyOCR(ctx context.Context, img image.Image, res *TextExtractionResult) {
	out := e.recognizer.Recognize(ctx, img)
	for _, f := range out.Failures {
		res.Warnings = append(res.Warnings, f.Error())
	}
	res.Text, res.Method = out.Text, out.Method
}
