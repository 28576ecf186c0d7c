package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage configuration",
	Long:        `View and change boardsync settings stored in config.toml.`,
	Annotations: map[string]string{annotationNeeds: needsSettings},
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: map[string]string{annotationNeeds: needsSettings},
	RunE:        runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Parses value for key and saves it.

Run 'boardsync config keys' to list recognised keys.`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationNeeds: needsSettings},
	RunE:        runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List recognised settings keys",
	Annotations: map[string]string{annotationNeeds: needsSettings},
	RunE:        runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	e := settings.Engine
	cmd.Println("[Sync]")
	cmd.Printf("  Scope: %s\n", valueOrUnset(e.Scope))
	cmd.Printf("  Namespace: %s\n", e.Namespace)
	cmd.Printf("  Debounce: %s\n", e.DebounceDelay)
	cmd.Printf("  Interval: %s\n", e.SyncInterval)
	cmd.Printf("  Max attempts: %d\n", e.MaxAttempts)
	cmd.Printf("  Backoff: %s (max %s, jitter %.2f)\n", e.Backoff.Policy.Description(), e.Backoff.Max, e.Backoff.Jitter)
	cmd.Printf("  History kept: %d\n", e.HistoryRetention)
	cmd.Println()

	cmd.Println("[Remote]")
	cmd.Printf("  Base URL: %s\n", valueOrUnset(settings.Remote.BaseURL))
	if settings.Remote.Token != "" {
		cmd.Printf("  Token: %s\n", maskAPIKey(settings.Remote.Token))
	} else {
		cmd.Println("  Token: (not set)")
	}
	cmd.Printf("  Rate: %.1f/s (burst %d)\n", settings.Remote.RatePerSecond, settings.Remote.Burst)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	cmd.Printf("  Data dir: %s\n", valueOrDefault(settings.Storage.DataDir))
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'boardsync config set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func valueOrDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
