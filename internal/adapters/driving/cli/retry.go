package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Requeue failed operations",
	Long: `Moves operations that exhausted their attempts back onto the queue with a
fresh attempt count. They are sent on the next pass, or right away when
followed by 'boardsync flush'.`,
	RunE: runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, _ []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}

	n := syncEngine.RetryFailed(cmd.Context())
	if n == 0 {
		cmd.Println("No failed operations.")
		return nil
	}
	cmd.Printf("Requeued %d operation(s).\n", n)
	return nil
}
