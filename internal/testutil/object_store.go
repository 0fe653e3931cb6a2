package testutil

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/margem-saas/margem-backend/internal/repository/storage"
)

// MockObjectStore is an in-memory storage.ObjectStore
type MockObjectStore struct {
	mu           sync.Mutex
	Objects      map[string][]byte
	ContentTypes map[string]string
	UploadErr    error
	DownloadErr  error
	DeleteErr    error
}

// NewMockObjectStore creates an empty MockObjectStore
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		Objects:      make(map[string][]byte),
		ContentTypes: make(map[string]string),
	}
}

func (m *MockObjectStore) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf
	m.ContentTypes[objectPath] = contentType
	return objectPath, nil
}

func (m *MockObjectStore) Download(ctx context.Context, objectPath string) ([]byte, error) {
	if m.DownloadErr != nil {
		return nil, m.DownloadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[objectPath]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *MockObjectStore) Delete(ctx context.Context, objectPath string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	delete(m.ContentTypes, objectPath)
	return nil
}

func (m *MockObjectStore) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	if objectPath == "" {
		return "", errors.New("empty object path")
	}
	return "https://storage.test/" + objectPath + "?expires=" + expiry.String(), nil
}

// Paths returns the stored object paths in order
func (m *MockObjectStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.Objects))
	for p := range m.Objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
