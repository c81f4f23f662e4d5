// Package storage persists uploaded bytes outside the database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for names that would escape the store root.
var ErrInvalidName = errors.New("invalid file name")

// FileStore saves and removes uploaded files by flat name.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (url string, err error)
	Remove(ctx context.Context, name string) error
}

// LocalFileStore writes files under Root and serves them below PublicPath.
type LocalFileStore struct {
	Root       string
	PublicPath string
}

// NewLocalFileStore creates root if needed.
func NewLocalFileStore(root, publicPath string) (*LocalFileStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &LocalFileStore{Root: root, PublicPath: strings.TrimRight(publicPath, "/")}, nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// Save streams r into Root/name. A partially written file is removed on error.
func (s *LocalFileStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(s.Root, name)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path.Join(s.PublicPath, name), nil
}

// Remove deletes Root/name; a missing file is not an error.
func (s *LocalFileStore) Remove(_ context.Context, name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	err := os.Remove(filepath.Join(s.Root, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
