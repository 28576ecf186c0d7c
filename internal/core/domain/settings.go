package domain

import (
	"fmt"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// DefaultNamespace is the storage key the operation log is persisted under.
const DefaultNamespace = "canvas-sync-queue"

// BackoffPolicy defines how long a failed operation waits before the next
// periodic attempt.
type BackoffPolicy string

// Available backoff policies.
const (
	// BackoffNone retries on the next scheduled pass.
	BackoffNone BackoffPolicy = "none"

	// BackoffExponential doubles the wait after each failure, up to a cap.
	BackoffExponential BackoffPolicy = "exponential"
)

// IsValid returns true if the backoff policy is recognised.
func (p BackoffPolicy) IsValid() bool {
	switch p {
	case BackoffNone, BackoffExponential:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p BackoffPolicy) String() string {
	return string(p)
}

// Description returns a human-readable description of the policy.
func (p BackoffPolicy) Description() string {
	switch p {
	case BackoffNone:
		return "None (retry on next pass)"
	case BackoffExponential:
		return "Exponential (interval doubled per failure)"
	default:
		return unknownDescription
	}
}

// AllBackoffPolicies returns all available backoff policies.
func AllBackoffPolicies() []BackoffPolicy {
	return []BackoffPolicy{BackoffNone, BackoffExponential}
}

// BackoffSettings configures retry spacing.
type BackoffSettings struct {
	Policy BackoffPolicy

	// Max caps the wait between attempts.
	Max time.Duration

	// Jitter is the fraction (0..1) of random spread applied to each wait.
	Jitter float64
}

// EngineConfig holds the sync engine's timing, retry and storage settings.
type EngineConfig struct {
	// Scope is the workspace all created boards belong to.
	Scope string

	// Namespace is the key the operation log is stored under.
	Namespace string

	// DebounceDelay is the quiet period before buffered edits are queued.
	DebounceDelay time.Duration

	// SyncInterval is the period between scheduled drain passes.
	SyncInterval time.Duration

	// MaxAttempts is how many failed attempts an operation gets before
	// it is dropped and surfaced as an error.
	MaxAttempts int

	Backoff BackoffSettings

	// HistoryRetention is how many pass results are kept. Zero disables pruning.
	HistoryRetention int
}

// DefaultEngineConfig returns the defaults used when no configuration exists.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Namespace:     DefaultNamespace,
		DebounceDelay: 2 * time.Second,
		SyncInterval:  5 * time.Second,
		MaxAttempts:   3,
		Backoff: BackoffSettings{
			Policy: BackoffNone,
			Max:    5 * time.Minute,
			Jitter: 0.2,
		},
		HistoryRetention: 100,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c EngineConfig) Validate() error {
	if strings.TrimSpace(c.Scope) == "" {
		return fmt.Errorf("%w: scope is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Namespace) == "" {
		return fmt.Errorf("%w: namespace is required", ErrInvalidInput)
	}
	if c.DebounceDelay <= 0 {
		return fmt.Errorf("%w: debounce delay must be positive", ErrInvalidInput)
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("%w: sync interval must be positive", ErrInvalidInput)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidInput)
	}
	if !c.Backoff.Policy.IsValid() {
		return fmt.Errorf("%w: unknown backoff policy %q", ErrInvalidInput, c.Backoff.Policy)
	}
	if c.Backoff.Jitter < 0 || c.Backoff.Jitter > 1 {
		return fmt.Errorf("%w: backoff jitter must be between 0 and 1", ErrInvalidInput)
	}
	if c.HistoryRetention < 0 {
		return fmt.Errorf("%w: history retention cannot be negative", ErrInvalidInput)
	}
	return nil
}

// StorageBackend selects the durable store for local engine state.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite keeps the log, applied cache and pass history in SQLite.
	StorageSQLite StorageBackend = "sqlite"

	// StorageLevelDB keeps the log and applied cache in a LevelDB datastore.
	StorageLevelDB StorageBackend = "leveldb"
)

// IsValid returns true if the storage backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StorageLevelDB
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// RemoteSettings configures the HTTP remote board store.
type RemoteSettings struct {
	// BaseURL is the API root, e.g. https://api.example.com/v1.
	BaseURL string

	// Token is the bearer token sent with every request.
	Token string

	// RatePerSecond limits outgoing requests. Zero disables limiting.
	RatePerSecond float64

	// Burst is the number of requests allowed at once.
	Burst int
}

// IsConfigured returns true if a remote endpoint is set.
func (r RemoteSettings) IsConfigured() bool {
	return r.BaseURL != ""
}

// StorageSettings configures where local state lives.
type StorageSettings struct {
	Backend StorageBackend

	// DataDir holds the database files. Empty means the config directory.
	DataDir string
}

// AppSettings holds all user-configurable settings.
type AppSettings struct {
	Engine  EngineConfig
	Remote  RemoteSettings
	Storage StorageSettings
	Verbose bool
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Engine: DefaultEngineConfig(),
		Remote: RemoteSettings{
			RatePerSecond: 10,
			Burst:         5,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
	}
}

// Validate checks the settings the application cannot start without.
func (s AppSettings) Validate() error {
	if err := s.Engine.Validate(); err != nil {
		return err
	}
	if !s.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidInput, s.Storage.Backend)
	}
	if s.Remote.RatePerSecond < 0 || s.Remote.Burst < 0 {
		return fmt.Errorf("%w: remote rate limits cannot be negative", ErrInvalidInput)
	}
	return nil
}
