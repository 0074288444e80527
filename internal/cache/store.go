/**
 * OCR result cache.
 *
 * Page results are keyed by a fingerprint of the rendered page image, so
 * reprocessing an unchanged document (or a shared page between documents)
 * skips the OCR pass entirely. Cache failures are never fatal: callers
 * treat a failed Get as a miss and a failed Put as a no-op.
 */

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/config"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
)

// Entry is one cached page result.
type Entry struct {
	Text           string    `json:"text"`
	TablesDetected int       `json:"tables_detected"`
	UsedOCR        bool      `json:"used_ocr"`
	CreatedAt      time.Time `json:"created_at"`
}

// Stats describes the cache contents for the maintenance surface.
type Stats struct {
	Entries    int       `json:"entries"`
	SizeBytes  int64     `json:"size_bytes"`
	LastUpdate time.Time `json:"last_update"`
}

// Store is a page-result cache backend.
type Store interface {
	// Get returns the entry for key; the bool reports a hit.
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Put stores the entry under key, overwriting any previous one.
	Put(ctx context.Context, key string, entry Entry) error
	// Stats reports entry count, approximate size and last write time.
	Stats(ctx context.Context) (Stats, error)
	// Clear removes every entry.
	Clear(ctx context.Context) error
	Close() error
}

// New builds the configured cache backend, fronted by a bounded in-memory
// layer when CACHE_MEMORY_ITEMS is positive.
func New(cfg *config.Config, log *logging.Logger) (Store, error) {
	var store Store
	var err error

	switch cfg.CacheBackend {
	case config.CacheBackendBolt:
		store, err = NewBoltStore(cfg.CachePath)
	case config.CacheBackendRedis:
		store, err = NewRedisStore(cfg.RedisURL)
	case config.CacheBackendNone:
		store = NewNoopStore()
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("cache backend ready", "backend", cfg.CacheBackend)
	if cfg.CacheMemoryItems > 0 && cfg.CacheBackend != config.CacheBackendNone {
		store = WithMemoryLayer(store, cfg.CacheMemoryItems)
	}
	return store, nil
}

// NoopStore is the disabled cache: every Get misses, every Put succeeds.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (*NoopStore) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }
func (*NoopStore) Put(context.Context, string, Entry) error         { return nil }
func (*NoopStore) Stats(context.Context) (Stats, error)             { return Stats{}, nil }
func (*NoopStore) Clear(context.Context) error                      { return nil }
func (*NoopStore) Close() error                                     { return nil }

func encodeEntry(entry Entry) ([]byte, error) {
	return json.Marshal(entry)
}

func decodeEntry(raw []byte) (Entry, error) {
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	return entry, nil
}
