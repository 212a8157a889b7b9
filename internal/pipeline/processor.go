package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

// SourceFileKey is added to every record that reached the LLM stage.
const SourceFileKey = "source_file"

type Config struct {
	MaxFileSize int64         // bytes; default 50 MiB
	Timeout     time.Duration // per-file deadline; 0 means none
}

// Processor coordinates text extraction then LLM field extraction for one
// staged file, and owns that file: it is removed on every exit path.
type Processor struct {
	Logger *slog.Logger
	Cfg    Config
	Text   *TextStage
	Parse  *ParseStage
}

func NewProcessor(logger *slog.Logger, cfg Config, text *TextStage, parse *ParseStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 50 << 20
	}
	return &Processor{Logger: logger, Cfg: cfg, Text: text, Parse: parse}
}

// Process runs the whole pipeline for path. It never fails: every problem is
// reported as an error record.
func (p *Processor) Process(ctx context.Context, path string) (rec llm.Record) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("pipeline.panic", "req_id", rid, "path", path, "panic", fmt.Sprint(r))
			rec = llm.ErrorRecord(fmt.Sprintf("processing failed: %v", r))
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.Logger.Warn("pipeline.cleanup.failed", "req_id", rid, "path", path, "error", err)
		}
		_, isErr := rec.Err()
		p.Logger.Info("pipeline.done",
			"req_id", rid,
			"file", filepath.Base(path),
			"error", isErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}()

	ctx, cancel := common.WithTimeout(ctx, p.Cfg.Timeout)
	defer cancel()

	info, err := os.Stat(path)
	if err != nil {
		p.Logger.Error("pipeline.stat.failed", "req_id", rid, "path", path, "error", err)
		return llm.ErrorRecord(fmt.Sprintf("processing failed: %v", err))
	}
	if info.Size() > p.Cfg.MaxFileSize {
		p.Logger.Warn("pipeline.too_large", "req_id", rid, "path", path, "size", info.Size(), "limit", p.Cfg.MaxFileSize)
		return llm.ErrorRecord(fmt.Sprintf("file size exceeds %s limit", humanize.IBytes(uint64(p.Cfg.MaxFileSize))))
	}

	kind := constants.KindFromPath(path)
	if kind == constants.Unsupported {
		p.Logger.Warn("pipeline.unsupported", "req_id", rid, "path", path)
		return llm.ErrorRecord("unsupported file type")
	}

	p.Logger.Info("pipeline.start", "req_id", rid, "path", path, "kind", kind, "size", humanize.IBytes(uint64(info.Size())))

	res, err := p.Text.Run(ctx, path, kind)
	if err != nil {
		return llm.ErrorRecord("no text could be extracted from the file")
	}

	rec = p.Parse.Run(ctx, res.Text)
	rec[SourceFileKey] = filepath.Base(path)
	return rec
}
