package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyAPIURL            = "api.url"
	KeyAPITimeout        = "api.timeout_seconds"
	KeyRequestsPerSecond = "api.requests_per_second"
	KeyPollInterval      = "job.poll_interval_seconds"
	KeyJobTimeout        = "job.timeout_seconds"
	KeyContextWindowSize = "job.context_window_size"
	KeyUsername          = "auth.username"
	KeyLogFile           = "log.file"
)

// EnvAPIURL overrides the configured API URL when set.
const EnvAPIURL = "INSIGHTGEN_API_URL"

type settingKind int

const (
	kindString settingKind = iota
	kindURL
	kindInt
	kindSeconds
	kindFloat
)

var settingKinds = map[string]settingKind{
	KeyAPIURL:            kindURL,
	KeyAPITimeout:        kindSeconds,
	KeyRequestsPerSecond: kindFloat,
	KeyPollInterval:      kindSeconds,
	KeyJobTimeout:        kindSeconds,
	KeyContextWindowSize: kindInt,
	KeyUsername:          kindString,
	KeyLogFile:           kindString,
}

// SettingsService manages client settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns the effective settings. Stored values that are missing or
// unusable fall back to defaults; the environment wins over the store.
func (s *SettingsService) Get() (*domain.ClientSettings, error) {
	defaults := domain.DefaultClientSettings()

	settings := &domain.ClientSettings{
		APIURL:            s.getString(KeyAPIURL, defaults.APIURL),
		APITimeout:        s.getSeconds(KeyAPITimeout, defaults.APITimeout),
		RequestsPerSecond: s.getFloat(KeyRequestsPerSecond, defaults.RequestsPerSecond),
		PollInterval:      s.getSeconds(KeyPollInterval, defaults.PollInterval),
		JobTimeout:        s.getSeconds(KeyJobTimeout, defaults.JobTimeout),
		ContextWindowSize: s.getInt(KeyContextWindowSize, defaults.ContextWindowSize),
		Username:          s.configStore.GetString(KeyUsername),
		LogFile:           s.configStore.GetString(KeyLogFile),
	}

	if env := strings.TrimSpace(os.Getenv(EnvAPIURL)); env != "" {
		settings.APIURL = env
	}
	settings.APIURL = strings.TrimRight(settings.APIURL, "/")

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set parses value for key, checks the result and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (known: %s)",
			domain.ErrInvalidInput, key, strings.Join(s.Keys(), ", "))
	}
	value = strings.TrimSpace(value)

	var stored any
	switch kind {
	case kindString:
		stored = value
	case kindURL:
		stored = strings.TrimRight(value, "/")
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		stored = int64(n)
	case kindSeconds:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive number of seconds", domain.ErrInvalidInput, key)
		}
		stored = int64(n)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		stored = f
	}

	candidate := s.stored()
	applySetting(&candidate, key, stored)
	if err := candidate.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the settable keys in sorted order.
func (s *SettingsService) Keys() []string {
	return SettingKeys()
}

// SettingKeys lists every settable key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigPath returns the backing file path.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// stored returns the settings from defaults and the store only, so that a
// Set is validated against what will be persisted rather than the environment.
func (s *SettingsService) stored() domain.ClientSettings {
	defaults := domain.DefaultClientSettings()
	return domain.ClientSettings{
		APIURL:            s.getString(KeyAPIURL, defaults.APIURL),
		APITimeout:        s.getSeconds(KeyAPITimeout, defaults.APITimeout),
		RequestsPerSecond: s.getFloat(KeyRequestsPerSecond, defaults.RequestsPerSecond),
		PollInterval:      s.getSeconds(KeyPollInterval, defaults.PollInterval),
		JobTimeout:        s.getSeconds(KeyJobTimeout, defaults.JobTimeout),
		ContextWindowSize: s.getInt(KeyContextWindowSize, defaults.ContextWindowSize),
	}
}

func applySetting(settings *domain.ClientSettings, key string, value any) {
	switch key {
	case KeyAPIURL:
		settings.APIURL, _ = value.(string)
	case KeyAPITimeout:
		settings.APITimeout = seconds(value)
	case KeyRequestsPerSecond:
		settings.RequestsPerSecond, _ = value.(float64)
	case KeyPollInterval:
		settings.PollInterval = seconds(value)
	case KeyJobTimeout:
		settings.JobTimeout = seconds(value)
	case KeyContextWindowSize:
		n, _ := value.(int64)
		settings.ContextWindowSize = int(n)
	}
}

func seconds(value any) time.Duration {
	n, _ := value.(int64)
	return time.Duration(n) * time.Second
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt treats zero as a real value, since a context window of 0 is valid.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}
