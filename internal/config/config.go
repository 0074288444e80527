/**
 * Configuration for the OCR worker.
 *
 * Loads configuration from environment variables. Invalid configuration is
 * fatal at startup (ConfigurationInvalid); nothing here is re-read per
 * document. The loaded Config is passed by reference to every component
 * that needs it - there is no ambient global state.
 */

package config

import (
	"os"
	"runtime"
	"strconv"

	apperrors "github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/errors"
)

// Cache backend selection is a closed set checked at startup.
const (
	CacheBackendBolt  = "bolt"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config holds worker configuration.
type Config struct {
	// Redis configuration (job queue, optional cache backend)
	RedisURL string

	// PostgreSQL configuration (job status + document records)
	DatabaseURL string

	// Queue configuration
	QueueName         string
	WorkerConcurrency int
	ProcessingTimeout int // milliseconds, whole-job budget

	// Rendering and OCR
	RenderDPI       int
	OCRLanguage     string
	OCRMinTextChars int // pages with fewer extractable chars get OCR
	OCRTimeoutSecs  int // per-page OCR budget
	PageWorkers     int // 0 = NumCPU-1 (min 1)

	// Result cache
	CacheBackend     string
	CachePath        string
	CacheMemoryItems int

	// Text post-processing resources
	CorrectionsPath string
	LegalWordsPath  string

	// Optional LLM refinement (disabled when the key is empty)
	RefinerAPIKey  string
	RefinerBaseURL string
	RefinerModel   string
	RefineDocument bool

	// Output
	OutputDir   string
	MaxFileSize int64

	// Tesseract binary, used for the orientation (OSD) pass
	TesseractPath string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
		QueueName:         getEnvOrDefault("QUEUE_NAME", "ocr:documents"),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 2),
		ProcessingTimeout: getEnvAsIntOrDefault("PROCESSING_TIMEOUT", 1800000), // 30 minutes
		RenderDPI:         getEnvAsIntOrDefault("RENDER_DPI", 300),
		OCRLanguage:       getEnvOrDefault("OCR_LANGUAGE", "spa"),
		OCRMinTextChars:   getEnvAsIntOrDefault("OCR_MIN_TEXT_CHARS", 10),
		OCRTimeoutSecs:    getEnvAsIntOrDefault("OCR_TIMEOUT_SECONDS", 120),
		PageWorkers:       getEnvAsIntOrDefault("PAGE_WORKERS", 0),
		CacheBackend:      getEnvOrDefault("CACHE_BACKEND", CacheBackendBolt),
		CachePath:         getEnvOrDefault("CACHE_PATH", "data/cache/ocr_cache.db"),
		CacheMemoryItems:  getEnvAsIntOrDefault("CACHE_MEMORY_ITEMS", 128),
		CorrectionsPath:   getEnvOrDefault("CORRECTIONS_PATH", "data/corrections.csv"),
		LegalWordsPath:    getEnvOrDefault("LEGAL_WORDS_PATH", "data/legal_words.txt"),
		RefinerAPIKey:     getEnvOrDefault("REFINER_API_KEY", ""),
		RefinerBaseURL:    getEnvOrDefault("REFINER_BASE_URL", ""),
		RefinerModel:      getEnvOrDefault("REFINER_MODEL", "gpt-4o-mini"),
		RefineDocument:    getEnvAsBoolOrDefault("REFINE_DOCUMENT", false),
		OutputDir:         getEnvOrDefault("OUTPUT_DIR", "output"),
		MaxFileSize:       getEnvAsInt64OrDefault("MAX_FILE_SIZE", 536870912), // 512MB
		TesseractPath:     getEnvOrDefault("TESSERACT_PATH", "tesseract"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration bounds. Every violation is a
// ConfigurationInvalid error.
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return apperrors.NewConfigurationInvalid("REDIS_URL", "is required")
	}
	if c.DatabaseURL == "" {
		return apperrors.NewConfigurationInvalid("DATABASE_URL", "is required")
	}
	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return apperrors.NewConfigurationInvalid("WORKER_CONCURRENCY",
			"must be between 1 and 100, got "+strconv.Itoa(c.WorkerConcurrency))
	}
	if c.RenderDPI < 72 || c.RenderDPI > 1200 {
		return apperrors.NewConfigurationInvalid("RENDER_DPI",
			"must be between 72 and 1200, got "+strconv.Itoa(c.RenderDPI))
	}
	if c.OCRMinTextChars < 0 || c.OCRMinTextChars > 1000 {
		return apperrors.NewConfigurationInvalid("OCR_MIN_TEXT_CHARS",
			"must be between 0 and 1000, got "+strconv.Itoa(c.OCRMinTextChars))
	}
	if c.OCRTimeoutSecs < 1 {
		return apperrors.NewConfigurationInvalid("OCR_TIMEOUT_SECONDS", "must be positive")
	}
	if c.PageWorkers < 0 {
		return apperrors.NewConfigurationInvalid("PAGE_WORKERS", "must not be negative")
	}
	switch c.CacheBackend {
	case CacheBackendBolt, CacheBackendRedis, CacheBackendNone:
	default:
		return apperrors.NewConfigurationInvalid("CACHE_BACKEND",
			"must be one of bolt, redis, none; got "+c.CacheBackend)
	}
	if c.OCRLanguage == "" {
		return apperrors.NewConfigurationInvalid("OCR_LANGUAGE", "is required")
	}
	if c.MaxFileSize < 1024 {
		return apperrors.NewConfigurationInvalid("MAX_FILE_SIZE", "must be at least 1KB")
	}
	return nil
}

// EffectivePageWorkers resolves the page worker count: configured value, or
// CPU count minus one (minimum one) when unset.
func (c *Config) EffectivePageWorkers() int {
	if c.PageWorkers > 0 {
		return c.PageWorkers
	}
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// getEnvOrDefault gets environment variable or returns default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default.
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default.
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default.
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
