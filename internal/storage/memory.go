package storage

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sync"

	"hoard-go/internal/hoard"
)

// MemoryStore is an in-memory implementation of the ContentStore interface,
// useful for testing. Paths it reports are virtual and never touch disk.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	files  map[string][]byte // FilePath -> content
	thumbs map[string][]byte // ThumbnailPath -> content
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:  make(map[string][]byte),
		thumbs: make(map[string][]byte),
	}
}

func (m *MemoryStore) FilePath(post *hoard.Post) string {
	hex := post.Hash.Hex()
	return path.Join("/memory/files", hex[0:2], hex[2:4], post.FileName())
}

func (m *MemoryStore) ThumbnailPath(post *hoard.Post) string {
	hex := post.Hash.Hex()
	return path.Join("/memory/thumbnails", hex[0:2], hex[2:4], hex+ThumbnailExt)
}

func (m *MemoryStore) Put(post *hoard.Post, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.FilePath(post)
	if _, ok := m.files[key]; !ok {
		m.files[key] = data
	}
	return nil
}

func (m *MemoryStore) Open(post *hoard.Post) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[m.FilePath(post)]
	if !ok {
		return nil, hoard.NotFound("file " + post.FileName())
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Remove(post *hoard.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.FilePath(post)
	if _, ok := m.files[key]; !ok {
		return fmt.Errorf("file not found: %s", post.FileName())
	}
	delete(m.files, key)
	return nil
}

// PutThumbnail records a thumbnail for post, standing in for a Thumbnailer.
func (m *MemoryStore) PutThumbnail(post *hoard.Post, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thumbs[m.ThumbnailPath(post)] = data
}

// HasThumbnail reports whether a thumbnail is stored for post.
func (m *MemoryStore) HasThumbnail(post *hoard.Post) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.thumbs[m.ThumbnailPath(post)]
	return ok
}

func (m *MemoryStore) RemoveThumbnail(post *hoard.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.thumbs, m.ThumbnailPath(post))
	return nil
}

// Len is the number of stored files.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryStore implements hoard.ContentStore interface
var _ hoard.ContentStore = (*MemoryStore)(nil)
