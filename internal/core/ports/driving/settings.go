package driving

import "github.com/custodia-labs/reqbridge/internal/core/domain"

// SettingsService resolves typed application settings from configuration.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Validate checks that every value required by enabled features is set.
	Validate(settings *domain.AppSettings) error

	// Set parses a raw value for a known key and persists it.
	Set(key, raw string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
