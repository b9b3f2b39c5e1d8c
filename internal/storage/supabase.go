package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	storage_go "github.com/supabase-community/storage-go"

	"github.com/scholaragent/research-assistant/internal/domain"
)

// SupabaseConfig holds the parameters for the Supabase Storage backend.
type SupabaseConfig struct {
	// URL is the storage API endpoint, e.g.
	// "https://<project-ref>.supabase.co/storage/v1".
	URL string

	// ServiceKey is the service role API key.
	ServiceKey string

	// Bucket is the bucket holding the collection and sheets.
	Bucket string
}

// Configured reports whether the backend has everything it needs.
func (c SupabaseConfig) Configured() bool {
	return c.URL != "" && c.ServiceKey != "" && c.Bucket != ""
}

// SupabaseStore is a CollectionStore backed by Supabase Storage.
type SupabaseStore struct {
	client *storage_go.Client
	bucket string
	logger zerolog.Logger
}

var _ CollectionStore = (*SupabaseStore)(nil)

// NewSupabaseStore creates a SupabaseStore from the given configuration.
func NewSupabaseStore(cfg SupabaseConfig, logger zerolog.Logger) (*SupabaseStore, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("supabase storage: %w: url, service key and bucket are required", domain.ErrStorageDisabled)
	}
	return &SupabaseStore{
		client: storage_go.NewClient(cfg.URL, cfg.ServiceKey, nil),
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// LoadCollection downloads and decodes the collection object. A missing
// object yields an empty collection, matching first-run behavior on a fresh
// bucket. Any other download failure propagates; treating an auth error or
// timeout as an empty collection would let a later save overwrite the stored
// one.
func (s *SupabaseStore) LoadCollection(_ context.Context) (*domain.Collection, error) {
	data, err := s.client.DownloadFile(s.bucket, CollectionObject)
	if err != nil {
		if isNotFound(err) {
			s.logger.Debug().Msg("collection object missing, starting empty")
			return &domain.Collection{Articles: []domain.SavedArticle{}}, nil
		}
		return nil, fmt.Errorf("downloading collection: %w", err)
	}

	var collection domain.Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}
	if collection.Articles == nil {
		collection.Articles = []domain.SavedArticle{}
	}
	return &collection, nil
}

// isNotFound reports whether a storage error means the object does not
// exist. Supabase reports missing objects as a 404, or on some versions as a
// 400 with a not-found message.
func isNotFound(err error) bool {
	var storageErr *storage_go.StorageError
	if errors.As(err, &storageErr) && storageErr.Status == http.StatusNotFound {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not_found")
}

// SaveCollection encodes and uploads the collection, replacing the previous
// object.
func (s *SupabaseStore) SaveCollection(_ context.Context, collection *domain.Collection) error {
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding collection: %w", err)
	}

	contentType := "application/json"
	upsert := true
	_, err = s.client.UploadFile(s.bucket, CollectionObject, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("uploading collection: %w", err)
	}
	return nil
}

// UploadSheet uploads a Markdown review sheet and returns its object path.
func (s *SupabaseStore) UploadSheet(_ context.Context, name string, content []byte) (string, error) {
	path := SheetPrefix + SanitizeFileName(name)

	contentType := "text/markdown"
	upsert := true
	_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(content), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("uploading sheet %q: %w", path, err)
	}
	return path, nil
}

// SanitizeFileName makes a string safe for use as a storage object name,
// keeping letters, digits, dots, dashes and underscores.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
