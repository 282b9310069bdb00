package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore is the durable on-disk fallback used when the remote blob store
// is unconfigured. Files are keyed by their derived folder path plus the
// generated filename, so the local tree mirrors the remote hierarchy and a
// later sync can replay it one-to-one.
type LocalStore struct {
	baseDir string
}

// NewLocalStoreFromEnv roots the store at ASSET_STORAGE_DIR (default
// ./data/assets), creating the directory when missing.
func NewLocalStoreFromEnv() (*LocalStore, error) {
	dir := strings.TrimSpace(os.Getenv("ASSET_STORAGE_DIR"))
	if dir == "" {
		dir = "./data/assets"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve local storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure local storage dir: %w", err)
	}
	return &LocalStore{baseDir: abs}, nil
}

func (s *LocalStore) BaseDir() string {
	if s == nil {
		return ""
	}
	return s.baseDir
}

// Save writes the file at the given relative key and returns the key. The
// key must stay inside the store's base directory.
func (s *LocalStore) Save(key string, body io.Reader) (string, error) {
	if s == nil {
		return "", errors.New("storage: local store not configured")
	}
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("storage: prepare dir for %s: %w", key, err)
	}

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create file %s: %w", key, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return "", fmt.Errorf("storage: write file %s: %w", key, err)
	}
	return key, nil
}

// Open returns a reader over a previously saved file.
func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	if s == nil {
		return nil, errors.New("storage: local store not configured")
	}
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(target)
}

// Remove deletes a previously saved file. Removing a missing file is not an
// error.
func (s *LocalStore) Remove(key string) error {
	if s == nil {
		return nil
	}
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path maps a key to its absolute on-disk location, rejecting keys that
// escape the base directory.
func (s *LocalStore) Path(key string) (string, error) {
	if s == nil {
		return "", errors.New("storage: local store not configured")
	}
	return s.resolve(key)
}

func (s *LocalStore) resolve(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return "", errors.New("storage: empty file key")
	}
	target := filepath.Join(s.baseDir, filepath.FromSlash(trimmed))
	if !strings.HasPrefix(target, s.baseDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: invalid file key %q", key)
	}
	return target, nil
}
