// Package app wires the extraction stack from configuration. Every command
// builds the same graph through New.
package app

import (
	"log/slog"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr/tesseract"
	processor "github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Text      *extract.Extractor
	LLM       *openai.Client
	Processor *processor.Processor
	Export    *export.Service

	engine *tesseract.Engine
}

func New(cfg *common.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	enhancer := ocr.NewEnhancer(ocr.EnhanceConfig{}, logger)
	engine := tesseract.New(tesseract.Config{
		Language:    cfg.OCR.Language,
		TessdataDir: cfg.OCR.TessdataDir,
	}, enhancer, logger)
	remote := ocr.NewOCRSpaceEngine(ocr.OCRSpaceConfig{
		APIKey:   cfg.RemoteOCR.APIKey,
		URL:      cfg.RemoteOCR.URL,
		Language: cfg.OCR.Language,
		Timeout:  cfg.RemoteOCR.Timeout,
	}, nil, logger)
	chain := ocr.NewChain(engine, remote, logger)

	rasterizer := ocr.NewPdftoppmRasterizer(ocr.PdftoppmConfig{
		Binary: cfg.OCR.Pdftoppm,
		DPI:    cfg.OCR.RasterDPI,
	}, nil, logger)
	text := extract.NewExtractor(chain, rasterizer, logger)

	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, nil, logger)

	proc := processor.NewProcessor(logger,
		processor.Config{
			MaxFileSize: cfg.Upload.MaxFileSize,
			Timeout:     cfg.Server.ProcessingTimeout,
		},
		processor.NewTextStage(text, logger),
		processor.NewParseStage(llmClient, logger),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Text:      text,
		LLM:       llmClient,
		Processor: proc,
		Export:    export.NewService(logger),
		engine:    engine,
	}
}

// WarmUp creates the native OCR client up front so its version lands in the
// startup logs. Failure is not fatal; the remote engine still serves.
func (a *App) WarmUp() {
	if err := a.engine.Init(); err != nil {
		a.Logger.Warn("app.ocr.local_unavailable", "error", err)
	}
}

// Close releases the native OCR handle.
func (a *App) Close() error {
	return a.engine.Close()
}
