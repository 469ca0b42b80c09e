package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MemoryObjectStorage keeps uploaded objects in process memory.
// It stands in for S3 when storage is disabled.
type MemoryObjectStorage struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

// StoredObject is an object held by MemoryObjectStorage
type StoredObject struct {
	Data        []byte
	ContentType string
}

// NewMemoryObjectStorage creates an in-memory store whose URLs start with baseURL
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost/storage"
	}
	return &MemoryObjectStorage{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string]StoredObject),
	}
}

// Upload stores a copy of data and returns its URL
func (s *MemoryObjectStorage) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = StoredObject{Data: append([]byte(nil), data...), ContentType: contentType}
	return s.baseURL + "/" + key, nil
}

// Get returns a stored object
func (s *MemoryObjectStorage) Get(key string) (StoredObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}
