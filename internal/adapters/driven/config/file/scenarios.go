package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// Ensure ScenarioStore implements the interface.
var _ driven.ScenarioSource = (*ScenarioStore)(nil)

// scenarioDocument is the on-disk catalogue. The file may also hold a
// bare list of scenarios.
type scenarioDocument struct {
	Scenarios   []domain.Scenario                    `json:"scenarios" yaml:"scenarios"`
	Attachments map[string]domain.AttachmentTemplate `json:"attachments" yaml:"attachments"`
}

// ScenarioStore serves the scenario catalogue from a YAML or JSON file.
// The parsed catalogue is cached; Watch keeps it current.
type ScenarioStore struct {
	path string

	mu      sync.RWMutex
	catalog *domain.ScenarioCatalog
}

// NewScenarioStore creates a store for the catalogue file at path.
// The file is parsed on first use.
func NewScenarioStore(path string) *ScenarioStore {
	return &ScenarioStore{path: path}
}

// Catalog returns the cached catalogue, loading it on first use.
func (s *ScenarioStore) Catalog(_ context.Context) (domain.ScenarioCatalog, error) {
	s.mu.RLock()
	cached := s.catalog
	s.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}
	return s.Reload()
}

// Reload re-reads the file and replaces the cached catalogue.
// On error the previous catalogue is kept.
func (s *ScenarioStore) Reload() (domain.ScenarioCatalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.ScenarioCatalog{}, fmt.Errorf("read scenarios %s: %w", s.path, err)
	}

	catalog, err := ParseScenarioFile(data, isJSONPath(s.path))
	if err != nil {
		return domain.ScenarioCatalog{}, fmt.Errorf("parse scenarios %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.catalog = &catalog
	s.mu.Unlock()

	logger.Debug("loaded %d scenario(s) from %s", len(catalog.Scenarios), s.path)
	return catalog, nil
}

// Watch reloads the catalogue whenever the file changes, until ctx is done.
// The directory is watched so editors that replace the file are followed.
func (s *ScenarioStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	target := filepath.Clean(s.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if _, err := s.Reload(); err != nil {
					logger.Warn("scenario reload failed, keeping previous catalogue: %v", err)
					continue
				}
				logger.Info("scenario catalogue reloaded from %s", s.path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("scenario watcher: %v", err)
			}
		}
	}()
	return nil
}

// Path returns the catalogue file path.
func (s *ScenarioStore) Path() string {
	return s.path
}

// ParseScenarioFile decodes a catalogue document. JSON input is decoded
// strictly; anything else is read as YAML.
func ParseScenarioFile(data []byte, isJSON bool) (domain.ScenarioCatalog, error) {
	doc, err := decodeDocument(data, isJSON)
	if err != nil {
		return domain.ScenarioCatalog{}, err
	}
	if err := validateScenarios(doc.Scenarios); err != nil {
		return domain.ScenarioCatalog{}, err
	}
	return domain.ScenarioCatalog{
		Scenarios:   doc.Scenarios,
		Attachments: attachmentMap(doc.Attachments),
	}, nil
}

// LoadAttachments reads only the attachment templates of a catalogue file.
// Scenarios in the file, if any, are ignored. It serves scenario sources
// that keep their scenarios elsewhere, such as the spreadsheet table.
func LoadAttachments(path string) (map[string]domain.AttachmentTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: attachments file %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read attachments file: %w", err)
	}
	doc, err := decodeDocument(data, isJSONPath(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return attachmentMap(doc.Attachments), nil
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func decodeDocument(data []byte, isJSON bool) (scenarioDocument, error) {
	var doc scenarioDocument

	if isJSON {
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &doc.Scenarios); err != nil {
				return doc, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
			}
		} else if err := json.Unmarshal(trimmed, &doc); err != nil {
			return doc, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return doc, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return doc, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if len(root.Content) > 0 {
		node := root.Content[0]
		var err error
		if node.Kind == yaml.SequenceNode {
			err = node.Decode(&doc.Scenarios)
		} else {
			err = node.Decode(&doc)
		}
		if err != nil {
			return doc, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	return doc, nil
}

// attachmentMap names each template after its key when it has no name of its own.
func attachmentMap(in map[string]domain.AttachmentTemplate) map[string]domain.AttachmentTemplate {
	out := make(map[string]domain.AttachmentTemplate, len(in))
	for name, tpl := range in {
		if tpl.Name == "" {
			tpl.Name = name
		}
		out[name] = tpl
	}
	return out
}

func validateScenarios(scenarios []domain.Scenario) error {
	if len(scenarios) == 0 {
		return fmt.Errorf("%w: no scenarios defined", domain.ErrInvalidInput)
	}
	seenID := make(map[string]bool, len(scenarios))
	seenKey := make(map[string]string, len(scenarios))
	for i, sc := range scenarios {
		if sc.ID == "" {
			return fmt.Errorf("%w: scenario %d has no id", domain.ErrInvalidInput, i)
		}
		if sc.StatusID == "" {
			return fmt.Errorf("%w: scenario %s has no status_id", domain.ErrInvalidInput, sc.ID)
		}
		if seenID[sc.ID] {
			return fmt.Errorf("%w: duplicate scenario id %s", domain.ErrInvalidInput, sc.ID)
		}
		seenID[sc.ID] = true

		key := sc.StatusID + "/" + sc.CategoryID
		if other, ok := seenKey[key]; ok {
			return fmt.Errorf("%w: scenarios %s and %s both serve status %s category %q",
				domain.ErrInvalidInput, other, sc.ID, sc.StatusID, sc.CategoryID)
		}
		seenKey[key] = sc.ID
	}
	return nil
}
