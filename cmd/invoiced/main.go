package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		logger.Error("failed to create upload dir", "dir", cfg.Upload.Dir, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger)
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close OCR engine", "error", err)
		}
	}()
	a.WarmUp()

	srv := server.New(server.Config{
		UploadDir:         cfg.Upload.Dir,
		MaxFileSize:       cfg.Upload.MaxFileSize,
		ProcessingTimeout: cfg.Server.ProcessingTimeout,
	}, a.Processor, a.Export, logger)
	httpServer := server.NewHTTPServer(cfg.Server.HTTPAddr, srv.Routes(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("invoiced listening",
			"addr", cfg.Server.HTTPAddr,
			"upload_dir", cfg.Upload.Dir,
			"model", cfg.LLM.Model,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
