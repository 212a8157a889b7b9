package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	processor "github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory to process invoices from (required)")
		out     = flag.String("out", "", "output .xlsx or .csv path (optional, defaults to <dir>/../invoices.xlsx)")
		workers = flag.Int("workers", 4, "number of concurrent pipeline workers")
		watch   = flag.Bool("watch", false, "keep watching -dir and print each new record as a JSON line")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "invoices.xlsx")
	}
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(*out), "."))
	if format != "xlsx" && format != "csv" {
		printError("Error: --out must end in .xlsx or .csv\n")
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	// stdout carries the JSON lines in watch mode
	logger := common.NewLoggerTo(os.Stderr, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger)
	defer func() { _ = a.Close() }()

	var (
		mu      sync.Mutex
		results []async.Result
		linesMu sync.Mutex
		lines   = json.NewEncoder(os.Stdout)
	)
	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(64),
		async.WithProcessTimeout(cfg.Server.ProcessingTimeout),
		async.WithResultHandler(func(r async.Result) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			if *watch {
				linesMu.Lock()
				_ = lines.Encode(r.Record)
				linesMu.Unlock()
			}
		}),
	)

	submit := func(path string) {
		staged, err := ingest.StageCopy(cfg.Upload.Dir, path)
		if err != nil {
			logger.Error("failed to stage file", "path", path, "error", err)
			return
		}
		job := async.Job{Path: staged.Path, Name: filepath.Base(path), TraceID: uuid.New().String()}
		if err := queue.Enqueue(ctx, job); err != nil {
			logger.Error("failed to enqueue file", "path", path, "error", err)
			_ = os.Remove(staged.Path)
		}
	}

	files, failed, stats, err := ingest.DiscoverDirectory(ctx, *dir, nil, true)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	for _, f := range failed {
		logger.Warn("unreadable path", "path", f.Path, "error", f.Err)
	}
	logger.Info("discovery complete", "dir", *dir, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)

	for _, f := range files {
		submit(f)
	}

	if *watch {
		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:    []string{*dir},
			Debounce: 500 * time.Millisecond,
			Logger:   logger,
		})
		if err != nil {
			logger.Error("failed to start watcher", "dir", *dir, "error", err)
			os.Exit(1)
		}
		logger.Info("watching for new invoices", "dir", *dir)
	loop:
		for {
			select {
			case p, ok := <-events:
				if !ok {
					break loop
				}
				submit(p)
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("watcher error", "error", err)
			case <-ctx.Done():
				break loop
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ProcessingTimeout+30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	mu.Lock()
	done := append([]async.Result(nil), results...)
	mu.Unlock()
	sort.Slice(done, func(i, j int) bool { return done[i].Job.Name < done[j].Job.Name })

	recs := make([]llm.Record, 0, len(done))
	failures := 0
	for _, r := range done {
		if _, isErr := r.Record.Err(); isErr {
			failures++
		}
		recs = append(recs, r.Record)
	}

	tbl, err := export.FromRecords(recs, append(append([]string{}, llm.InvoiceFields...), processor.SourceFileKey, llm.ErrorKey))
	if err != nil {
		logger.Error("failed to build export table", "error", err)
		os.Exit(1)
	}
	var body []byte
	if format == "csv" {
		body, err = a.Export.CSV(tbl)
	} else {
		body, err = a.Export.XLSX(tbl)
	}
	if err != nil {
		logger.Error("failed to export records", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, body, 0o644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"files_found", len(files),
		"files_processed", len(done),
		"failures", failures,
		"output_file", *out,
	)
	if !*watch {
		fmt.Printf("Batch processing complete!\n")
		fmt.Printf("- Files processed: %d\n", len(done))
		fmt.Printf("- Failures: %d\n", failures)
		fmt.Printf("- Output: %s\n", *out)
	}
}
