// Package storage persists processed nominee images and staged uploads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"employee-poll-backend/internal/models"
)

// ImageStore publishes processed images. Save returns the public path or URL that is written to the
// nominee record; Delete accepts that same value.
type ImageStore interface {
	Save(ctx context.Context, filename string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, publicPath string) error
}

// LocalStore writes images under <publicDir>/uploads/nominees, served at /uploads/nominees.
type LocalStore struct {
	dir       string
	urlPrefix string
}

const NomineeURLPrefix = "/uploads/nominees"

func NewLocalStore(publicDir string) (*LocalStore, error) {
	dir := filepath.Join(publicDir, "uploads", "nominees")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: NomineeURLPrefix}, nil
}

func (s *LocalStore) Save(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if err := validName(filename); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: write image: %w", models.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: write image: %w", models.ErrStorage, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, filename)); err != nil {
		return "", fmt.Errorf("%w: publish image: %w", models.ErrStorage, err)
	}

	return path.Join(s.urlPrefix, filename), nil
}

func (s *LocalStore) Delete(ctx context.Context, publicPath string) error {
	name := strings.TrimPrefix(publicPath, s.urlPrefix+"/")
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: delete image: %w", models.ErrStorage, err)
	}
	return nil
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: invalid file name %q", models.ErrValidation, name)
	}
	return nil
}
