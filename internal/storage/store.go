// Package storage persists the user's article collection and generated
// review sheets in a Supabase Storage bucket. The collection lives in a
// single JSON object, review sheets as Markdown files under a prefix.
package storage

import (
	"context"

	"github.com/scholaragent/research-assistant/internal/domain"
)

// CollectionObject is the bucket path of the saved collection.
const CollectionObject = "saved_articles.json"

// SheetPrefix is the bucket path prefix for uploaded review sheets.
const SheetPrefix = "sheets/"

// CollectionStore persists the saved-article collection and review sheets.
type CollectionStore interface {
	// LoadCollection returns the stored collection. A missing object
	// yields an empty collection, not an error.
	LoadCollection(ctx context.Context) (*domain.Collection, error)

	// SaveCollection replaces the stored collection.
	SaveCollection(ctx context.Context, collection *domain.Collection) error

	// UploadSheet stores a Markdown review sheet under the given file name
	// and returns the object path.
	UploadSheet(ctx context.Context, name string, content []byte) (string, error)
}

// DisabledStore is the CollectionStore used when no storage backend is
// configured. Every operation fails with domain.ErrStorageDisabled.
type DisabledStore struct{}

// NewDisabledStore creates a DisabledStore.
func NewDisabledStore() *DisabledStore {
	return &DisabledStore{}
}

// LoadCollection always fails with domain.ErrStorageDisabled.
func (*DisabledStore) LoadCollection(context.Context) (*domain.Collection, error) {
	return nil, domain.ErrStorageDisabled
}

// SaveCollection always fails with domain.ErrStorageDisabled.
func (*DisabledStore) SaveCollection(context.Context, *domain.Collection) error {
	return domain.ErrStorageDisabled
}

// UploadSheet always fails with domain.ErrStorageDisabled.
func (*DisabledStore) UploadSheet(context.Context, string, []byte) (string, error) {
	return "", domain.ErrStorageDisabled
}

var _ CollectionStore = (*DisabledStore)(nil)
