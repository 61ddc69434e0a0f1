package services

import (
	"context"
	"sync"
)

// MockWorkbookStorage is an in-memory WorkbookStorage for testing
type MockWorkbookStorage struct {
	mu     sync.RWMutex
	data   []byte
	writes int

	// WriteErr, when set, is returned by every WriteWorkbook call
	WriteErr error
}

// NewMockWorkbookStorage creates an empty mock storage
func NewMockWorkbookStorage() *MockWorkbookStorage {
	return &MockWorkbookStorage{}
}

func (m *MockWorkbookStorage) Describe() string {
	return "memory://workbook"
}

// ReadWorkbook returns a copy of the stored bytes
func (m *MockWorkbookStorage) ReadWorkbook(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return nil, ErrWorkbookNotFound
	}
	return append([]byte(nil), m.data...), nil
}

// WriteWorkbook stores a copy of data
func (m *MockWorkbookStorage) WriteWorkbook(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.data = append([]byte(nil), data...)
	m.writes++
	return nil
}

// Seed replaces the stored bytes without counting a write
func (m *MockWorkbookStorage) Seed(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}

// Writes returns how many times WriteWorkbook succeeded
func (m *MockWorkbookStorage) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Bytes returns a copy of the stored workbook
func (m *MockWorkbookStorage) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.data...)
}
