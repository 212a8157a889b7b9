package ocr

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// Outcome reports what a Chain run produced. Text is empty when every engine
// failed or found nothing; Failures keeps what each engine reported.
type Outcome struct {
	Text     string
	Method   constants.ExtractionMethod
	Failures []error
}

// Chain runs Primary and, only when it yields no text, Fallback exactly once.
// No retries, no backoff.
type Chain struct {
	Primary  Engine
	Fallback Engine
	logger   *slog.Logger
}

func NewChain(primary, fallback Engine, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{Primary: primary, Fallback: fallback, logger: logger}
}

func (c *Chain) Recognize(ctx context.Context, img image.Image) Outcome {
	var out Outcome
	for _, eng := range []Engine{c.Primary, c.Fallback} {
		if eng == nil {
			continue
		}
		text, err := c.run(ctx, eng, img)
		if err != nil {
			out.Failures = append(out.Failures, err)
			continue
		}
		out.Text = text
		out.Method = eng.Method()
		return out
	}
	return out
}

func (c *Chain) run(ctx context.Context, eng Engine, img image.Image) (text string, err error) {
	start := time.Now()
	method := eng.Method()
	defer func() {
		if r := recover(); r != nil {
			err = FailureFromPanic(string(method), r)
		}
		if err != nil {
			c.logger.Warn("ocr.chain.engine_failed",
				"method", method, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
		}
	}()

	text, err = eng.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", NewFailure(string(method), "result", ErrEmptyResult)
	}
	c.logger.Info("ocr.chain.engine_ok",
		"method", method, "chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
