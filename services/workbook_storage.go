package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WorkbookStorage reads and writes the whole workbook at once
type WorkbookStorage interface {
	// ReadWorkbook returns the persisted workbook or ErrWorkbookNotFound
	ReadWorkbook(ctx context.Context) ([]byte, error)

	// WriteWorkbook replaces the persisted workbook
	WriteWorkbook(ctx context.Context, data []byte) error

	// Describe names the storage location for logs and status endpoints
	Describe() string
}

// LocalWorkbookStorage keeps the workbook in a file on disk
type LocalWorkbookStorage struct {
	path string
}

// NewLocalWorkbookStorage returns a storage rooted at path
func NewLocalWorkbookStorage(path string) *LocalWorkbookStorage {
	if path == "" {
		path = "ordenes.xlsx"
	}
	return &LocalWorkbookStorage{path: path}
}

// Path returns the workbook file path
func (s *LocalWorkbookStorage) Path() string {
	return s.path
}

func (s *LocalWorkbookStorage) Describe() string {
	return "file://" + s.path
}

// ReadWorkbook reads the whole file
func (s *LocalWorkbookStorage) ReadWorkbook(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrWorkbookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook file: %w", err)
	}
	return data, nil
}

// WriteWorkbook writes to a temporary file next to the workbook and renames it into place,
// so an interrupted write leaves the previous workbook untouched
func (s *LocalWorkbookStorage) WriteWorkbook(ctx context.Context, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create workbook directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ordenes-*.xlsx.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary workbook: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temporary workbook: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temporary workbook: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary workbook: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace workbook: %w", err)
	}
	return nil
}
