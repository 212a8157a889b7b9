package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file.pdf|.docx|.png|.jpg>")
		os.Exit(2)
	}
	path := os.Args[1]
	kind := constants.KindFromPath(path)
	if kind == constants.Unsupported {
		logger.Error("unsupported file type", "path", path)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a := app.New(cfg, logger)
	defer func() { _ = a.Close() }()

	res := a.Text.Extract(ctx, path, kind)
	if res.Text == "" {
		logger.Error("text extraction failed",
			"path", path, "warnings", res.Warnings, "duration_ms", res.Duration.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"path", path,
		"kind", res.Kind,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"confidence", res.Confidence,
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
}
