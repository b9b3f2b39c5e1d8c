package sources

import (
	"sync"

	"github.com/scholaragent/research-assistant/internal/domain"
)

// Registry holds the configured search sources. It provides thread-safe
// registration and selection; the concurrent fan-out itself lives in the
// aggregator, which owns the worker pool and deadlines.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.SourceType]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.SourceType]Source),
	}
}

// Register adds a source to the registry, replacing any source with the
// same type.
func (r *Registry) Register(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.SourceType()] = source
}

// Get returns a source by type, or nil if not registered.
func (r *Registry) Get(sourceType domain.SourceType) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// EnabledSources returns all registered sources whose IsEnabled reports
// true. The returned slice is a snapshot.
func (r *Registry) EnabledSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.sources))
	for _, source := range r.sources {
		if source.IsEnabled() {
			out = append(out, source)
		}
	}
	return out
}

// Select resolves the requested source types to enabled sources. Unknown and
// disabled types are skipped. An empty selection resolves to all enabled
// sources.
func (r *Registry) Select(types []domain.SourceType) []Source {
	if len(types) == 0 {
		return r.EnabledSources()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(types))
	for _, st := range types {
		if source, ok := r.sources[st]; ok && source.IsEnabled() {
			out = append(out, source)
		}
	}
	return out
}
