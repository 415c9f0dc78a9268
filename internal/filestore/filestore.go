// Package filestore keeps uploaded statement files on local disk, named by
// their statement ID so the original file can always be re-parsed.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store handles local statement file storage
type Store struct {
	basePath string
}

// New creates a file store rooted at the given path
func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create filestore directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Save stores a statement file under its statement ID, preserving the
// original extension, and returns the stored filename
func (s *Store) Save(statementID, originalName string, r io.Reader) (string, error) {
	filename := statementID + filepath.Ext(originalName)
	fullPath := filepath.Join(s.basePath, filename)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("write file: %w", err)
	}

	return filename, nil
}

// Read returns the stored file's contents
func (s *Store) Read(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, filename))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Delete removes a stored file; a missing file is not an error
func (s *Store) Delete(filename string) error {
	if filename == "" {
		return nil
	}
	fullPath := filepath.Join(s.basePath, filename)
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// FullPath returns the full filesystem path for a stored filename
func (s *Store) FullPath(filename string) string {
	return filepath.Join(s.basePath, filename)
}
