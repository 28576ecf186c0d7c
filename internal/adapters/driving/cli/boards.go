package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a board",
	Long: `Creates a board and tries to send it to the remote store at once.

Prints the remote board ID on success. While the remote store is
unreachable a local placeholder ID is printed instead; it can be used in
later commands and resolves to the remote ID once the create lands.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var renameCmd = &cobra.Command{
	Use:   "rename <board-id> <name>",
	Short: "Rename a board",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <board-id>",
	Short: "Delete a board",
	Long:  `Discards any pending changes of the board and queues its deletion.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	createCmd.Flags().StringP("snapshot", "s", "", "file holding the initial board snapshot (JSON)")
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}

	path, err := cmd.Flags().GetString("snapshot")
	if err != nil {
		return fmt.Errorf("getting snapshot flag: %w", err)
	}
	var snapshot domain.Snapshot
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading snapshot: %w", err)
		}
		if snapshot, err = domain.ParseSnapshot(data); err != nil {
			return fmt.Errorf("reading snapshot %s: %w", path, err)
		}
	}

	id, err := syncEngine.Create(cmd.Context(), args[0], snapshot)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	if domain.IsPlaceholderID(id) {
		cmd.Printf("Board queued: %s\n", id)
		cmd.Println("The remote store has not accepted it yet; it will be retried in the background.")
		return nil
	}
	cmd.Printf("Board created: %s\n", id)
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}
	if err := syncEngine.Rename(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to rename board: %w", err)
	}
	cmd.Printf("Rename of %s queued.\n", args[0])
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}
	if err := syncEngine.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	cmd.Printf("Deletion of %s queued.\n", args[0])
	return nil
}
