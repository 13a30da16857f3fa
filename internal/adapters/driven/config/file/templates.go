package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// Ensure TemplateStore implements the interface.
var _ driven.TemplateStore = (*TemplateStore)(nil)

// TemplateStore reads HTML notification templates from a directory.
// Loaded templates are cached until Reload is called.
type TemplateStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]string
}

// NewTemplateStore creates a template store rooted at dir.
func NewTemplateStore(dir string) *TemplateStore {
	return &TemplateStore{
		dir:   dir,
		cache: make(map[string]string),
	}
}

// Load returns the text of the named template. A name without an
// extension is tried with ".html" appended.
func (s *TemplateStore) Load(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("template name: %w", domain.ErrNotFound)
	}
	if strings.Contains(name, "..") || filepath.IsAbs(name) {
		return "", fmt.Errorf("template %q: %w", name, domain.ErrInvalidInput)
	}

	s.mu.RLock()
	text, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return text, nil
	}

	if s.dir == "" {
		return "", fmt.Errorf("template %s: %w", name, domain.ErrNotFound)
	}

	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = append(candidates, name+".html")
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(filepath.Join(s.dir, candidate))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read template %s: %w", name, err)
		}

		s.mu.Lock()
		s.cache[name] = string(data)
		s.mu.Unlock()
		return string(data), nil
	}

	return "", fmt.Errorf("template %s: %w", name, domain.ErrNotFound)
}

// Reload drops cached templates so edits on disk are picked up.
func (s *TemplateStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the template directory.
func (s *TemplateStore) Dir() string {
	return s.dir
}
