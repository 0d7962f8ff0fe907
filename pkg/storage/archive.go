package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive keeps rendered files on disk under a base directory.
type Archive struct {
	baseDir string
}

// NewArchive ensures the base directory exists and returns a handle.
func NewArchive(baseDir string) (*Archive, error) {
	if baseDir == "" {
		baseDir = "./sheets"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Archive{baseDir: baseDir}, nil
}

// Save writes data under name, replacing any earlier copy, and returns the
// full path written.
func (a *Archive) Save(name string, data []byte) (string, error) {
	path, err := a.resolve(name)
	if err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit archive file: %w", err)
	}
	return path, nil
}

// Prune removes files last written before now-ttl and returns their names.
func (a *Archive) Prune(now time.Time, ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		return nil, nil
	}
	cutoff := now.Add(-ttl)
	entries, err := os.ReadDir(a.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	deleted := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return deleted, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(a.baseDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return deleted, fmt.Errorf("prune %s: %w", entry.Name(), err)
		}
		deleted = append(deleted, entry.Name())
	}
	return deleted, nil
}

func (a *Archive) resolve(name string) (string, error) {
	clean := filepath.Base(name)
	if clean != name || clean == "." || clean == ".." || strings.HasPrefix(clean, ".") {
		return "", fmt.Errorf("invalid archive name %q", name)
	}
	return filepath.Join(a.baseDir, clean), nil
}
