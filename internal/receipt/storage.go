package receipt

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage holds the original receipt images. A receipt's SourceRef is the
// opaque path returned by Save; the core never interprets it.
type Storage interface {
	// Save saves a source image and returns its reference
	Save(filename string, data []byte) (string, error)

	// Get retrieves a source image by reference
	Get(ref string) ([]byte, error)

	// Delete removes a source image
	Delete(ref string) error
}

// LocalStorage implements the Storage interface using the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save saves a source image to local storage
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves a source image from local storage
func (l *LocalStorage) Get(ref string) ([]byte, error) {
	fullPath := filepath.Join(l.basePath, ref)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a source image from local storage
func (l *LocalStorage) Delete(ref string) error {
	fullPath := filepath.Join(l.basePath, ref)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
