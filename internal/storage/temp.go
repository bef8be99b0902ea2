package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"employee-poll-backend/internal/models"
)

// TempDir stages raw uploads outside the public root until a worker consumes them.
type TempDir struct {
	dir string
}

func NewTempDir(dir string) (*TempDir, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create temp upload directory: %w", err)
	}
	return &TempDir{dir: dir}, nil
}

func (t *TempDir) Dir() string {
	return t.dir
}

// Save writes data to a new file named after originalName's extension and returns its path.
func (t *TempDir) Save(data []byte, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	f, err := os.CreateTemp(t.dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: write upload: %w", models.ErrStorage, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: write upload: %w", models.ErrStorage, err)
	}
	return f.Name(), nil
}

// Remove deletes a staged file. Missing files are not an error.
func (t *TempDir) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
