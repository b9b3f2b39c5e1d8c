package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaragent/research-assistant/internal/domain"
)

// mockSource is a minimal Source implementation for registry tests.
type mockSource struct {
	sourceType domain.SourceType
	name       string
	enabled    bool
}

func (m *mockSource) Search(ctx context.Context, query SearchQuery) ([]domain.Article, error) {
	return nil, nil
}

func (m *mockSource) SourceType() domain.SourceType { return m.sourceType }
func (m *mockSource) Name() string                  { return m.name }
func (m *mockSource) IsEnabled() bool               { return m.enabled }

func TestRegistry_Register(t *testing.T) {
	t.Run("registers and retrieves a source", func(t *testing.T) {
		registry := NewRegistry()
		src := &mockSource{sourceType: domain.SourceTypeCrossref, name: "Crossref", enabled: true}

		registry.Register(src)

		got := registry.Get(domain.SourceTypeCrossref)
		require.NotNil(t, got)
		assert.Equal(t, "Crossref", got.Name())
	})

	t.Run("replaces a source with the same type", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(&mockSource{sourceType: domain.SourceTypeDOAJ, name: "old"})
		registry.Register(&mockSource{sourceType: domain.SourceTypeDOAJ, name: "new"})

		got := registry.Get(domain.SourceTypeDOAJ)
		require.NotNil(t, got)
		assert.Equal(t, "new", got.Name())
	})

	t.Run("unknown type yields nil", func(t *testing.T) {
		registry := NewRegistry()
		assert.Nil(t, registry.Get(domain.SourceTypeScopus))
	})
}

func TestRegistry_EnabledSources(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&mockSource{sourceType: domain.SourceTypeCrossref, name: "Crossref", enabled: true})
	registry.Register(&mockSource{sourceType: domain.SourceTypeArXiv, name: "arXiv", enabled: true})
	registry.Register(&mockSource{sourceType: domain.SourceTypeScopus, name: "Scopus", enabled: false})

	enabled := registry.EnabledSources()
	require.Len(t, enabled, 2)

	names := []string{enabled[0].Name(), enabled[1].Name()}
	assert.ElementsMatch(t, []string{"Crossref", "arXiv"}, names)
}

func TestRegistry_Select(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&mockSource{sourceType: domain.SourceTypeCrossref, name: "Crossref", enabled: true})
	registry.Register(&mockSource{sourceType: domain.SourceTypeArXiv, name: "arXiv", enabled: true})
	registry.Register(&mockSource{sourceType: domain.SourceTypeScopus, name: "Scopus", enabled: false})

	t.Run("empty selection resolves to all enabled", func(t *testing.T) {
		assert.Len(t, registry.Select(nil), 2)
	})

	t.Run("explicit selection filters to requested types", func(t *testing.T) {
		selected := registry.Select([]domain.SourceType{domain.SourceTypeArXiv})
		require.Len(t, selected, 1)
		assert.Equal(t, "arXiv", selected[0].Name())
	})

	t.Run("disabled and unknown types are skipped", func(t *testing.T) {
		selected := registry.Select([]domain.SourceType{
			domain.SourceTypeScopus,
			domain.SourceTypePubMed,
			domain.SourceTypeCrossref,
		})
		require.Len(t, selected, 1)
		assert.Equal(t, "Crossref", selected[0].Name())
	})
}
