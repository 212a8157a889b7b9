// Package tesseract is the local OCR engine, backed by libtesseract through cgo.
package tesseract

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

const engineName = string(constants.MethodLocalOCR)

// Config for the local engine.
type Config struct {
	Language    string // default "eng"
	TessdataDir string // optional TESSDATA_PREFIX override
}

// Engine owns one gosseract client. Create it once in main, share it by
// pointer and Close it on shutdown. The native handle is not safe for
// concurrent use, so recognitions are serialized.
type Engine struct {
	cfg      Config
	enhancer *ocr.Enhancer
	logger   *slog.Logger

	once    sync.Once
	initErr error

	mu     sync.Mutex
	client *gosseract.Client
	closed bool
}

func New(cfg Config, enhancer *ocr.Enhancer, logger *slog.Logger) *Engine {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if enhancer == nil {
		enhancer = ocr.NewEnhancer(ocr.EnhanceConfig{}, logger)
	}
	return &Engine{cfg: cfg, enhancer: enhancer, logger: logger}
}

// Init creates and configures the client exactly once. Recognize calls it
// lazily when main has not.
func (e *Engine) Init() error {
	e.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				e.initErr = ocr.FailureFromPanic(engineName, r)
			}
		}()
		start := time.Now()
		c := gosseract.NewClient()
		if e.cfg.TessdataDir != "" {
			if err := c.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
				_ = c.Close()
				e.initErr = ocr.NewFailure(engineName, "init", err)
				return
			}
		}
		if err := c.SetLanguage(e.cfg.Language); err != nil {
			_ = c.Close()
			e.initErr = ocr.NewFailure(engineName, "init", err)
			return
		}
		e.client = c
		e.logger.Info("ocr.local.init",
			"language", e.cfg.Language,
			"tesseract_version", c.Version(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
	return e.initErr
}

func (e *Engine) Method() constants.ExtractionMethod { return constants.MethodLocalOCR }

// Recognize enhances img, runs word-level detection and joins every detected
// word with single spaces in engine order.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", ocr.FailureFromPanic(engineName, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return "", ocr.NewFailure(engineName, "context", err)
	}
	if img == nil {
		return "", ocr.NewFailure(engineName, "input", errors.New("nil image"))
	}
	if err := e.Init(); err != nil {
		return "", err
	}

	enhanced := e.enhancer.Enhance(ctx, img)
	if err := ctx.Err(); err != nil {
		return "", ocr.NewFailure(engineName, "context", err)
	}
	png, err := ocr.EncodePNG(enhanced)
	if err != nil {
		return "", ocr.NewFailure(engineName, "encode", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", ocr.NewFailure(engineName, "init", errors.New("engine closed"))
	}
	if err := e.client.SetImageFromBytes(png); err != nil {
		return "", ocr.NewFailure(engineName, "image", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return "", ocr.NewFailure(engineName, "recognize", err)
	}
	return JoinWords(boxes), nil
}

// JoinWords concatenates detected fragments with single spaces, trimmed.
func JoinWords(boxes []gosseract.BoundingBox) string {
	words := make([]string, 0, len(boxes))
	for _, b := range boxes {
		if w := strings.TrimSpace(b.Word); w != "" {
			words = append(words, w)
		}
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// Close releases the native handle. Safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.client == nil {
		e.closed = true
		return nil
	}
	e.closed = true
	return e.client.Close()
}
