package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Rasterizer renders the first page of a PDF to an image.
type Rasterizer interface {
	FirstPage(ctx context.Context, pdfPath string) (image.Image, error)
}

// PdftoppmConfig configures the poppler based rasterizer.
type PdftoppmConfig struct {
	Binary string // binary name or absolute path; default "pdftoppm"
	DPI    int    // default 72
}

// PdftoppmRasterizer shells out to pdftoppm for page 1 only.
type PdftoppmRasterizer struct {
	cfg    PdftoppmConfig
	runner Runner
	logger *slog.Logger
}

func NewPdftoppmRasterizer(cfg PdftoppmConfig, runner Runner, logger *slog.Logger) *PdftoppmRasterizer {
	if cfg.Binary == "" {
		cfg.Binary = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 72
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &PdftoppmRasterizer{cfg: cfg, runner: runner, logger: logger}
}

func (p *PdftoppmRasterizer) FirstPage(ctx context.Context, pdfPath string) (image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "inv-pp-*")
	if err != nil {
		return nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			p.logger.Warn("ocr.rasterize.cleanup_failed", "dir", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f 1 -l 1 -r 72 -png -singlefile <in.pdf> <tmp/page>
	_, errb, err := p.runner.Run(ctx, p.cfg.Binary,
		"-f", "1", "-l", "1",
		"-r", strconv.Itoa(p.cfg.DPI),
		"-png", "-singlefile",
		pdfPath, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(truncate(string(errb), 512)))
	}
	img, err := DecodeFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image: %w", err)
	}
	return img, nil
}
