package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

// Processor is satisfied by the pipeline orchestrator. It owns the staged
// file it is given.
type Processor interface {
	Process(ctx context.Context, path string) llm.Record
}

type Config struct {
	UploadDir         string
	MaxFileSize       int64
	ProcessingTimeout time.Duration
}

type Server struct {
	cfg    Config
	proc   Processor
	export *export.Service
	logger *slog.Logger
	now    func() time.Time
}

func New(cfg Config, proc Processor, exp *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if exp == nil {
		exp = export.NewService(logger)
	}
	return &Server{cfg: cfg, proc: proc, export: exp, logger: logger, now: time.Now}
}

// Routes builds the chi router with the global middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/upload", s.handleUpload)
	r.Get("/download/csv", s.handleDownloadCSV)
	r.Get("/download/excel", s.handleDownloadExcel)
	return r
}

// NewHTTPServer wraps handler with the configured timeouts. The write
// timeout must cover a full OCR + LLM run.
func NewHTTPServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
