/**
 * Markdown artifact storage on the local filesystem.
 */

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactStore writes conversion results under a base directory.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates the output directory if needed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// SaveMarkdown writes the Markdown for the given source document and
// returns the artifact path. The write is atomic: a temp file is renamed
// into place so readers never see a partial document.
func (s *ArtifactStore) SaveMarkdown(document, markdown string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(document), filepath.Ext(document))
	if stem == "" {
		stem = "document"
	}
	target := filepath.Join(s.dir, stem+".md")

	tmp, err := os.CreateTemp(s.dir, stem+"-*.md.tmp")
	if err != nil {
		return "", fmt.Errorf("create artifact temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(markdown); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return target, nil
}
