package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	gopenai "github.com/sashabaranov/go-openai"
)

// Config for the chat-completions client. Any OpenAI-compatible endpoint
// works; the defaults point at Groq.
type Config struct {
	APIKey      string        // if empty, falls back to env GROQ_API_KEY
	BaseURL     string        // default https://api.groq.com/openai/v1
	Model       string        // e.g., "llama-3.3-70b-versatile"
	Temperature float32       // 0..2; 0 is sent as MinTemperature
	MaxTokens   int           // completion cap
	Timeout     time.Duration // http client timeout
}

const (
	DefaultBaseURL   = "https://api.groq.com/openai/v1"
	DefaultModel     = "llama-3.3-70b-versatile"
	DefaultMaxTokens = 2000

	// MinTemperature stands in for 0: go-openai omits a zero temperature from
	// the request and the provider then samples at its default of 1.0.
	MinTemperature float32 = 1e-8
)

type Client struct {
	cfg    Config
	api    *gopenai.Client
	logger *slog.Logger
}

// NewClient builds a client. httpClient may be nil; tests pass one pointed at
// an httptest server.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = MinTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	apiCfg := gopenai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = httpClient

	return &Client{
		cfg:    cfg,
		api:    gopenai.NewClientWithConfig(apiCfg),
		logger: logger,
	}
}
