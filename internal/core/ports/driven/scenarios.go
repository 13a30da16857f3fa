package driven

import (
	"context"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// ScenarioSource supplies the notification scenario catalogue.
type ScenarioSource interface {
	// Catalog returns the current scenarios and attachment templates.
	Catalog(ctx context.Context) (domain.ScenarioCatalog, error)
}

// TemplateStore loads HTML body templates.
type TemplateStore interface {
	// Load returns a template's text. A missing template returns domain.ErrNotFound.
	Load(name string) (string, error)
}
