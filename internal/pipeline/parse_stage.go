package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

type ParseStage struct {
	Extractor llm.Extractor
	Logger    *slog.Logger
}

func NewParseStage(fe llm.Extractor, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Extractor: fe, Logger: logger}
}

// Run turns document text into a record. The result is never nil.
func (s *ParseStage) Run(ctx context.Context, text string) llm.Record {
	start := time.Now()
	rec := s.Extractor.Extract(ctx, text)
	if rec == nil {
		rec = llm.Record{}
	}

	if msg, isErr := rec.Err(); isErr {
		s.Logger.Error("pipeline.parse.failed",
			"error", msg,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return rec
	}
	s.Logger.Info("pipeline.parse.ok",
		"fields", len(rec),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec
}
