// Package storage keeps rendered export files on local disk and signs download links for them.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// exportExtensions limits cleanup to files this package writes.
var exportExtensions = map[string]bool{".csv": true, ".pdf": true}

// LocalStorage is a directory of export files addressed by slash-separated relative names.
type LocalStorage struct {
	root string
	now  func() time.Time
}

// NewLocalStorage creates root when missing.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if strings.TrimSpace(root) == "" {
		root = "./exports"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create export root %s: %w", root, err)
	}
	return &LocalStorage{root: filepath.Clean(root), now: time.Now}, nil
}

// Save writes data through a temp file and renames it into place, so readers never see a partial export.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	target, err := s.pathFor(name)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("stage export: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("stage export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("stage export: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("stage export: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("publish export: %w", err)
	}
	return filepath.ToSlash(name), nil
}

// Open returns the stored file for streaming.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	target, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	return os.Open(target)
}

// Delete is idempotent.
func (s *LocalStorage) Delete(name string) error {
	target, err := s.pathFor(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove export %s: %w", name, err)
	}
	return nil
}

// CleanupOlderThan removes export files last written more than ttl ago and reports their names.
// Anything else under the root is left alone.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := s.now().Add(-ttl)
	var removed []string
	walkErr := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !exportExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		rel, _ := filepath.Rel(s.root, path)
		removed = append(removed, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		return removed, fmt.Errorf("sweep exports: %w", walkErr)
	}
	return removed, nil
}

func (s *LocalStorage) pathFor(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", fmt.Errorf("export name %q is not a relative path", name)
	}
	target := filepath.Join(s.root, filepath.FromSlash(name))
	if target != s.root && !strings.HasPrefix(target, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("export name %q escapes the export root", name)
	}
	return target, nil
}
