package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := common.LoadConfig()
	logger := common.NewLoggerTo(os.Stderr, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		fmt.Println("Please provide a file path as argument")
		return 2
	}

	// The pipeline deletes what it processes, so work on a copy.
	staged, err := ingest.StageCopy(cfg.Upload.Dir, os.Args[1])
	if err != nil {
		logger.Error("failed to stage file", "path", os.Args[1], "error", err)
		return 1
	}

	a := app.New(cfg, logger)
	defer func() { _ = a.Close() }()

	rec := a.Processor.Process(context.Background(), staged.Path)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		logger.Error("failed to encode result", "error", err)
		return 1
	}
	if _, isErr := rec.Err(); isErr {
		return 1
	}
	return 0
}
