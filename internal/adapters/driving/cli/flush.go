package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Send all queued changes now",
	Long: `Sends every buffered and queued change to the remote store, ignoring
retry delays. Exits non-zero if any change could not be delivered. Undelivered
changes stay queued until they run out of attempts, after which they move to
the failed list (see 'boardsync retry').`,
	RunE: runFlush,
}

func init() {
	rootCmd.AddCommand(flushCmd)
}

func runFlush(cmd *cobra.Command, _ []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}

	before := len(syncEngine.PendingOperations())
	cmd.Printf("Flushing %d operation(s)...\n", before)

	if err := syncEngine.ForceFlush(cmd.Context()); err != nil {
		return fmt.Errorf("flush failed, %d operation(s) still queued: %w",
			len(syncEngine.PendingOperations()), err)
	}

	cmd.Println("All changes saved.")
	return nil
}
