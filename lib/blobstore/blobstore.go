package blobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store keeps blobs as plain files under a base directory. writes go
// through a temporary file and an atomic rename, so a concurrent reader
// of the final path never observes a partial blob.
type Store struct {
	baseDir string
}

func New(baseDir string) (*Store, error) {
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob directory %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.baseDir, name)
}

func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && !info.IsDir()
}

func (s *Store) Size(name string) (int64, error) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *Store) Write(name string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(s.baseDir, "."+name+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	err = tmp.Close()
	if err != nil {
		return 0, fmt.Errorf("failed to finalize blob %s: %w", name, err)
	}

	err = os.Rename(tmp.Name(), s.Path(name))
	if err != nil {
		return 0, fmt.Errorf("failed to publish blob %s: %w", name, err)
	}
	return n, nil
}

func (s *Store) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(s.Path(name))
}

func (s *Store) Delete(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
