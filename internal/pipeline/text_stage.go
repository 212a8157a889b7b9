package processor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
)

type TextStage struct {
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewTextStage(tx extract.TextExtractor, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{TextExtractor: tx, Logger: logger}
}

// Run pulls text out of path. Blank text is reported as common.ErrNoText so
// the caller can stop before the LLM call.
func (s *TextStage) Run(ctx context.Context, path string, kind constants.DocumentKind) (extract.TextExtractionResult, error) {
	res := s.TextExtractor.Extract(ctx, path, kind)
	if strings.TrimSpace(res.Text) == "" {
		s.Logger.Warn("pipeline.text.empty",
			"path", path,
			"kind", kind,
			"warnings", res.Warnings,
			"elapsed_ms", res.Duration.Milliseconds(),
		)
		return res, common.WrapError(common.ErrNoText, string(kind))
	}

	s.Logger.Info("pipeline.text.ok",
		"path", path,
		"kind", kind,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
