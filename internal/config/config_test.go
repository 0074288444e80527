package config

import (
	"strings"
	"testing"

	apperrors "github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/errors"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("DATABASE_URL", "postgres://localhost/ocr")
}

func TestLoadConfigDefaults(t *testing.T) {
	validEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.RenderDPI != 300 {
		t.Errorf("RenderDPI = %d, want 300", cfg.RenderDPI)
	}
	if cfg.OCRLanguage != "spa" {
		t.Errorf("OCRLanguage = %q, want spa", cfg.OCRLanguage)
	}
	if cfg.OCRMinTextChars != 10 {
		t.Errorf("OCRMinTextChars = %d, want 10", cfg.OCRMinTextChars)
	}
	if cfg.CacheBackend != CacheBackendBolt {
		t.Errorf("CacheBackend = %q, want bolt", cfg.CacheBackend)
	}
	if cfg.EffectivePageWorkers() < 1 {
		t.Errorf("EffectivePageWorkers = %d, want at least 1", cfg.EffectivePageWorkers())
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		field string
	}{
		{"dpi too low", "RENDER_DPI", "50", "RENDER_DPI"},
		{"dpi too high", "RENDER_DPI", "2400", "RENDER_DPI"},
		{"negative min chars", "OCR_MIN_TEXT_CHARS", "-1", "OCR_MIN_TEXT_CHARS"},
		{"zero ocr timeout", "OCR_TIMEOUT_SECONDS", "0", "OCR_TIMEOUT_SECONDS"},
		{"negative page workers", "PAGE_WORKERS", "-2", "PAGE_WORKERS"},
		{"unknown cache backend", "CACHE_BACKEND", "memcached", "CACHE_BACKEND"},
		{"excessive concurrency", "WORKER_CONCURRENCY", "500", "WORKER_CONCURRENCY"},
		{"tiny max file size", "MAX_FILE_SIZE", "10", "MAX_FILE_SIZE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			if err == nil {
				t.Fatalf("LoadConfig accepted %s=%s", tt.key, tt.value)
			}
			if kind := apperrors.KindOf(err); kind != apperrors.ConfigurationInvalid {
				t.Errorf("error kind = %q, want ConfigurationInvalid", kind)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name the field %s", err, tt.field)
			}
		})
	}
}

func TestEffectivePageWorkersExplicit(t *testing.T) {
	cfg := &Config{PageWorkers: 3}
	if got := cfg.EffectivePageWorkers(); got != 3 {
		t.Errorf("EffectivePageWorkers = %d, want 3", got)
	}
}

func TestInvalidIntFallsBackToDefault(t *testing.T) {
	validEnv(t)
	t.Setenv("RENDER_DPI", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RenderDPI != 300 {
		t.Errorf("RenderDPI = %d, want the 300 default", cfg.RenderDPI)
	}
}
