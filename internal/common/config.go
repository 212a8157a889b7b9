package common

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	OCR       OCRConfig
	RemoteOCR RemoteOCRConfig
	LLM       LLMConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr          string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ProcessingTimeout time.Duration
	LogLevel          string
}

// UploadConfig holds upload staging configuration
type UploadConfig struct {
	Dir         string
	MaxFileSize int64 // bytes
}

// OCRConfig holds local OCR and rasterization configuration
type OCRConfig struct {
	Language    string
	TessdataDir string
	Pdftoppm    string
	RasterDPI   int
}

// RemoteOCRConfig holds the OCR.space client configuration
type RemoteOCRConfig struct {
	APIKey  string
	URL     string
	Timeout time.Duration
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is applied first; real environment values win.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config.dotenv.load_failed", "error", err)
	}
	return &Config{
		Server: ServerConfig{
			HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 6*time.Minute),
			ProcessingTimeout: getEnvAsDuration("PROCESSING_TIMEOUT", 300*time.Second),
			LogLevel:          getEnv("LOG_LEVEL", "info"),
		},
		Upload: UploadConfig{
			Dir:         getEnv("UPLOAD_FOLDER", "uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 50<<20),
		},
		OCR: OCRConfig{
			Language:    getEnv("OCR_LANGUAGE", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Pdftoppm:    getEnv("PDFTOPPM", "pdftoppm"),
			RasterDPI:   getEnvAsInt("PDF_RASTER_DPI", 72),
		},
		RemoteOCR: RemoteOCRConfig{
			APIKey:  getEnv("OCR_SPACE_API_KEY", ""),
			URL:     getEnv("OCR_SPACE_URL", "https://api.ocr.space/parse/image"),
			Timeout: getEnvAsDuration("OCR_SPACE_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("GROQ_API_KEY", ""),
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 2000),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// Validate checks the settings the HTTP service cannot run without.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("HTTP_ADDR", c.Server.HTTPAddr, Required).
		Field("UPLOAD_FOLDER", c.Upload.Dir, Required).
		Field("MAX_FILE_SIZE", c.Upload.MaxFileSize, Positive).
		Field("GROQ_API_KEY", c.LLM.APIKey, Required).
		Field("LLM_MODEL", c.LLM.Model, Required)
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
