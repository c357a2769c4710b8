package driving

import "github.com/custodia-labs/insightgen-cli/internal/core/domain"

// SettingsService manages client settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, overlaid by the config
	// store, overlaid by the environment.
	Get() (*domain.ClientSettings, error)

	// Set validates and persists a single setting.
	Set(key, value string) error

	// Keys lists the settable keys.
	Keys() []string

	// ConfigPath returns where settings are stored.
	ConfigPath() string
}
