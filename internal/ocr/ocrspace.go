package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

const defaultOCRSpaceURL = "https://api.ocr.space/parse/image"

var ErrMissingAPIKey = errors.New("ocr.space api key not configured")

// OCRSpaceConfig configures the remote engine.
type OCRSpaceConfig struct {
	APIKey   string
	URL      string        // default https://api.ocr.space/parse/image
	Language string        // default "eng"
	Timeout  time.Duration // http client timeout, default 30s
	Quality  int           // jpeg quality, default 90
}

// OCRSpaceEngine posts a base64 JPEG to the OCR.space parse endpoint.
type OCRSpaceEngine struct {
	cfg        OCRSpaceConfig
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOCRSpaceEngine(cfg OCRSpaceConfig, httpClient *http.Client, logger *slog.Logger) *OCRSpaceEngine {
	if cfg.URL == "" {
		cfg.URL = defaultOCRSpaceURL
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Quality <= 0 {
		cfg.Quality = 90
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRSpaceEngine{cfg: cfg, httpClient: httpClient, logger: logger}
}

func (e *OCRSpaceEngine) Method() constants.ExtractionMethod { return constants.MethodRemoteOCR }

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

func (e *OCRSpaceEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	const engine = string(constants.MethodRemoteOCR)
	if strings.TrimSpace(e.cfg.APIKey) == "" {
		return "", NewFailure(engine, "config", ErrMissingAPIKey)
	}
	if img == nil {
		return "", NewFailure(engine, "encode", errors.New("nil image"))
	}

	reqID := uuid.New().String()
	start := time.Now()

	jpg, err := EncodeJPEG(img, e.cfg.Quality)
	if err != nil {
		return "", NewFailure(engine, "encode", err)
	}
	form := url.Values{}
	form.Set("apikey", e.cfg.APIKey)
	form.Set("language", e.cfg.Language)
	form.Set("base64Image", "data:image/jpg;base64,"+base64.StdEncoding.EncodeToString(jpg))
	body := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, strings.NewReader(body))
	if err != nil {
		return "", NewFailure(engine, "request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	e.logger.Info("ocr.remote.request",
		"req_id", reqID,
		"url", e.cfg.URL,
		"content_length", len(body),
	)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Error("ocr.remote.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", NewFailure(engine, "request", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			e.logger.Warn("ocr.remote.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewFailure(engine, "read", err)
	}

	e.logger.Info("ocr.remote.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return "", NewFailure(engine, "status", fmt.Errorf("non-2xx status: %d", resp.StatusCode))
	}

	var parsed ocrSpaceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", NewFailure(engine, "decode", err)
	}
	if len(parsed.ParsedResults) == 0 {
		msg := strings.TrimSpace(string(parsed.ErrorMessage))
		if msg == "" || msg == "null" {
			msg = "no parsed results"
		}
		return "", NewFailure(engine, "decode", errors.New(msg))
	}
	return parsed.ParsedResults[0].ParsedText, nil
}
