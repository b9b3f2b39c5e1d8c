package storage

import (
	"context"
	"sync"

	"github.com/scholaragent/research-assistant/internal/domain"
)

// MemoryStore is an in-process CollectionStore. It backs tests and the
// ephemeral mode used when durable storage is intentionally not configured
// but the collection endpoints should still work within one process.
type MemoryStore struct {
	mu         sync.RWMutex
	collection domain.Collection
	sheets     map[string][]byte
}

var _ CollectionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collection: domain.Collection{Articles: []domain.SavedArticle{}},
		sheets:     make(map[string][]byte),
	}
}

// LoadCollection returns a copy of the stored collection.
func (m *MemoryStore) LoadCollection(context.Context) (*domain.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	articles := make([]domain.SavedArticle, len(m.collection.Articles))
	copy(articles, m.collection.Articles)
	return &domain.Collection{Articles: articles}, nil
}

// SaveCollection replaces the stored collection with a copy of the input.
func (m *MemoryStore) SaveCollection(_ context.Context, collection *domain.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	articles := make([]domain.SavedArticle, len(collection.Articles))
	copy(articles, collection.Articles)
	m.collection = domain.Collection{Articles: articles}
	return nil
}

// UploadSheet stores the sheet in memory and returns its path.
func (m *MemoryStore) UploadSheet(_ context.Context, name string, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := SheetPrefix + SanitizeFileName(name)
	stored := make([]byte, len(content))
	copy(stored, content)
	m.sheets[path] = stored
	return path, nil
}

// Sheet returns a stored sheet by path, for tests.
func (m *MemoryStore) Sheet(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.sheets[path]
	return content, ok
}
