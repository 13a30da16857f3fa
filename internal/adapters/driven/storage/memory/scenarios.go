package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// Ensure the static sources implement the interfaces.
var (
	_ driven.ScenarioSource = (*ScenarioSource)(nil)
	_ driven.TemplateStore  = (*TemplateStore)(nil)
)

// ScenarioSource serves a fixed scenario catalogue.
type ScenarioSource struct {
	catalog domain.ScenarioCatalog
}

// NewScenarioSource creates a source that always returns catalog.
func NewScenarioSource(catalog domain.ScenarioCatalog) *ScenarioSource {
	return &ScenarioSource{catalog: catalog}
}

// Catalog returns the fixed catalogue.
func (s *ScenarioSource) Catalog(_ context.Context) (domain.ScenarioCatalog, error) {
	return s.catalog, nil
}

// TemplateStore serves templates from a map.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewTemplateStore creates a template store with the given templates.
func NewTemplateStore(templates map[string]string) *TemplateStore {
	s := &TemplateStore{templates: make(map[string]string, len(templates))}
	for k, v := range templates {
		s.templates[k] = v
	}
	return s
}

// Load returns a template's text.
func (s *TemplateStore) Load(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("template %s: %w", name, domain.ErrNotFound)
	}
	return t, nil
}
