package services

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyScope          = "sync.scope"
	keyNamespace      = "sync.namespace"
	keyDebounceMS     = "sync.debounce_ms"
	keyIntervalMS     = "sync.interval_ms"
	keyMaxAttempts    = "sync.max_attempts"
	keyBackoff        = "sync.backoff"
	keyBackoffMaxMS   = "sync.backoff_max_ms"
	keyBackoffJitter  = "sync.backoff_jitter"
	keyHistoryKeep    = "sync.history_keep"
	keyRemoteBaseURL  = "remote.base_url"
	keyRemoteToken    = "remote.token"
	keyRemoteRate     = "remote.rate_per_second"
	keyRemoteBurst    = "remote.burst"
	keyStorageBackend = "storage.backend"
	keyStorageDataDir = "storage.data_dir"
	keyLogVerbose     = "log.verbose"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
)

var settingKeys = map[string]keyKind{
	keyScope:          kindString,
	keyNamespace:      kindString,
	keyDebounceMS:     kindInt,
	keyIntervalMS:     kindInt,
	keyMaxAttempts:    kindInt,
	keyBackoff:        kindString,
	keyBackoffMaxMS:   kindInt,
	keyBackoffJitter:  kindFloat,
	keyHistoryKeep:    kindInt,
	keyRemoteBaseURL:  kindString,
	keyRemoteToken:    kindString,
	keyRemoteRate:     kindFloat,
	keyRemoteBurst:    kindInt,
	keyStorageBackend: kindString,
	keyStorageDataDir: kindString,
	keyLogVerbose:     kindBool,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or unrecognised
// values fall back to their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	eng := defaults.Engine

	settings := &domain.AppSettings{
		Engine: domain.EngineConfig{
			Scope:         s.configStore.GetString(keyScope),
			Namespace:     s.getString(keyNamespace, eng.Namespace),
			DebounceDelay: s.getMillis(keyDebounceMS, eng.DebounceDelay),
			SyncInterval:  s.getMillis(keyIntervalMS, eng.SyncInterval),
			MaxAttempts:   s.getInt(keyMaxAttempts, eng.MaxAttempts),
			Backoff: domain.BackoffSettings{
				Policy: s.getBackoffPolicy(eng.Backoff.Policy),
				Max:    s.getMillis(keyBackoffMaxMS, eng.Backoff.Max),
				Jitter: s.getFloat(keyBackoffJitter, eng.Backoff.Jitter),
			},
			HistoryRetention: s.getInt(keyHistoryKeep, eng.HistoryRetention),
		},
		Remote: domain.RemoteSettings{
			BaseURL:       s.configStore.GetString(keyRemoteBaseURL),
			Token:         s.configStore.GetString(keyRemoteToken),
			RatePerSecond: s.getFloat(keyRemoteRate, defaults.Remote.RatePerSecond),
			Burst:         s.getInt(keyRemoteBurst, defaults.Remote.Burst),
		},
		Storage: domain.StorageSettings{
			Backend: s.getStorageBackend(defaults.Storage.Backend),
			DataDir: s.configStore.GetString(keyStorageDataDir),
		},
		Verbose: s.getBool(keyLogVerbose, defaults.Verbose),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings are required", domain.ErrInvalidInput)
	}
	e := settings.Engine
	values := []struct {
		key   string
		value any
	}{
		{keyScope, e.Scope},
		{keyNamespace, e.Namespace},
		{keyDebounceMS, e.DebounceDelay.Milliseconds()},
		{keyIntervalMS, e.SyncInterval.Milliseconds()},
		{keyMaxAttempts, int64(e.MaxAttempts)},
		{keyBackoff, e.Backoff.Policy.String()},
		{keyBackoffMaxMS, e.Backoff.Max.Milliseconds()},
		{keyBackoffJitter, e.Backoff.Jitter},
		{keyHistoryKeep, int64(e.HistoryRetention)},
		{keyRemoteBaseURL, settings.Remote.BaseURL},
		{keyRemoteToken, settings.Remote.Token},
		{keyRemoteRate, settings.Remote.RatePerSecond},
		{keyRemoteBurst, int64(settings.Remote.Burst)},
		{keyStorageBackend, settings.Storage.Backend.String()},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyLogVerbose, settings.Verbose},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("failed to save %s: %w", v.key, err)
		}
	}
	return s.configStore.Save()
}

// Set parses value according to the type of key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	default:
		parsed = value
	}

	switch key {
	case keyBackoff:
		if !domain.BackoffPolicy(value).IsValid() {
			return fmt.Errorf("%w: unknown backoff policy %q", domain.ErrInvalidInput, value)
		}
	case keyStorageBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, value)
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return err
	}
	return s.configStore.Save()
}

// Keys returns every recognised configuration key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Validate checks if current settings are complete enough to start the engine.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Millisecond
}

func (s *SettingsService) getBackoffPolicy(defaultVal domain.BackoffPolicy) domain.BackoffPolicy {
	policy := domain.BackoffPolicy(s.configStore.GetString(keyBackoff))
	if !policy.IsValid() {
		return defaultVal
	}
	return policy
}

func (s *SettingsService) getStorageBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

// LoadEngineConfig reads the engine section of the configuration and
// validates it.
func LoadEngineConfig(store driven.ConfigStore) (domain.EngineConfig, error) {
	settings, err := NewSettingsService(store).Get()
	if err != nil {
		return domain.EngineConfig{}, err
	}
	if err := settings.Engine.Validate(); err != nil {
		return domain.EngineConfig{}, err
	}
	return settings.Engine, nil
}
