// Package cli provides the boardsync command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boardsync/internal/core/ports/driving"
	"github.com/custodia-labs/boardsync/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired into commands. Commands check for nil and report the
// service as not configured.
var (
	syncEngine      driving.SyncEngine
	historyService  driving.PassHistoryService
	settingsService driving.SettingsService
)

// Services bundles the driving ports built by a Bootstrapper.
type Services struct {
	Engine   driving.SyncEngine
	History  driving.PassHistoryService
	Settings driving.SettingsService
}

// Options carries global flag values to the Bootstrapper.
type Options struct {
	// ConfigDir overrides the configuration directory. Empty means default.
	ConfigDir string

	// Verbose reports whether --verbose was given.
	Verbose bool

	// SettingsOnly is true for commands that never touch the engine.
	SettingsOnly bool

	// ReadOnly is true for commands that only inspect the engine. Their
	// cleanup must not flush or contact the remote store.
	ReadOnly bool
}

// Bootstrapper builds the services a command runs against. The returned
// cleanup function is called once the command finishes.
type Bootstrapper func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	bootstrap Bootstrapper
	cleanup   func()
)

// Annotation values controlling how much of the application a command needs.
const (
	annotationNeeds = "boardsync/needs"
	needsNothing    = "nothing"
	needsSettings   = "settings"
	needsInspect    = "inspect"
)

var rootCmd = &cobra.Command{
	Use:   "boardsync",
	Short: "Local-first board sync engine",
	Long: `boardsync keeps board edits on this machine and delivers them to the
remote board store in the background.

Edits are debounced, queued durably and retried until the remote store
accepts them. Use the subcommands to inspect the queue, force a flush or
stream edits from a snapshot file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().String("config-dir", "", "configuration directory (default ~/.boardsync)")
}

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(b Bootstrapper) {
	bootstrap = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer teardown()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	if verbose {
		logger.SetVerbose(true)
	}

	needs := cmd.Annotations[annotationNeeds]
	if bootstrap == nil || needs == needsNothing {
		return nil
	}

	configDir, err := cmd.Flags().GetString("config-dir")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	services, done, err := bootstrap(ctx, Options{
		ConfigDir:    configDir,
		Verbose:      verbose,
		SettingsOnly: needs == needsSettings,
		ReadOnly:     needs == needsInspect,
	})
	if err != nil {
		return err
	}
	if services == nil {
		return errors.New("bootstrap returned no services")
	}

	syncEngine = services.Engine
	historyService = services.History
	settingsService = services.Settings
	cleanup = done
	return nil
}

func teardown() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}
