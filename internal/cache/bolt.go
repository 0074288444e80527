package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var pagesBucket = []byte("pages")

// BoltStore persists page results in a local bbolt file. One writer at a
// time, readers never block; good enough for a single worker process.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// NewBoltStore opens (or creates) the cache database at path, creating
// parent directories as needed.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache database %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(pagesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}
	return &BoltStore{db: db, path: path}, nil
}

func (s *BoltStore) Get(_ context.Context, key string) (Entry, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if value := tx.Bucket(pagesBucket).Get([]byte(key)); value != nil {
			raw = append([]byte(nil), value...)
		}
		return nil
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache read: %w", err)
	}
	if raw == nil {
		return Entry{}, false, nil
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (s *BoltStore) Put(_ context.Context, key string, entry Entry) error {
	raw, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(pagesBucket).Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// Stats reports the entry count, the database file size and the newest
// entry's creation time.
func (s *BoltStore) Stats(_ context.Context) (Stats, error) {
	var stats Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(pagesBucket)
		stats.Entries = bucket.Stats().KeyN
		return bucket.ForEach(func(_, raw []byte) error {
			entry, err := decodeEntry(raw)
			if err != nil {
				return nil // skip corrupt entries
			}
			if entry.CreatedAt.After(stats.LastUpdate) {
				stats.LastUpdate = entry.CreatedAt
			}
			return nil
		})
	})
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

func (s *BoltStore) Clear(_ context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(pagesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(pagesBucket)
		return err
	})
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

func (s *BoltStore) Close() error { return s.db.Close() }
