package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04:05"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long: `Shows whether changes are syncing, waiting or failed, when the remote
store last accepted a change, and how many operations are queued.`,
	Annotations: map[string]string{annotationNeeds: needsInspect},
	RunE:        runStatus,
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List pending operations",
	Long: `Lists operations waiting for the remote store in the order they will be
sent. With --failed, lists operations that exhausted their attempts instead.`,
	Annotations: map[string]string{annotationNeeds: needsInspect},
	RunE:        runQueue,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short:       "Show recent sync passes",
	Annotations: map[string]string{annotationNeeds: needsInspect},
	RunE:        runHistory,
}

func init() {
	queueCmd.Flags().Bool("json", false, "print operations as JSON")
	queueCmd.Flags().Bool("failed", false, "list failed operations")
	historyCmd.Flags().IntP("limit", "n", 10, "number of passes to show")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(historyCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}

	st := syncEngine.Status()
	cmd.Printf("Status:       %s\n", st.Label())
	if st.HasSynced() {
		cmd.Printf("Last sync:    %s\n", st.LastSyncTime.Local().Format(timeLayout))
	} else {
		cmd.Println("Last sync:    never")
	}
	cmd.Printf("Queued:       %d\n", len(syncEngine.PendingOperations()))
	if failed := syncEngine.FailedOperations(); len(failed) > 0 {
		cmd.Printf("Failed:       %d (run 'boardsync retry' to requeue)\n", len(failed))
	}
	if st.HasError() {
		cmd.Printf("Error:        %s\n", st.Error)
	}
	return nil
}

// queueEntry is the JSON form of a queued operation.
type queueEntry struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	TargetID   string    `json:"targetId"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Attempts   int       `json:"attempts"`
}

func runQueue(cmd *cobra.Command, _ []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("getting json flag: %w", err)
	}

	failed, err := cmd.Flags().GetBool("failed")
	if err != nil {
		return fmt.Errorf("getting failed flag: %w", err)
	}

	ops, state := syncEngine.PendingOperations(), "pending"
	if failed {
		ops, state = syncEngine.FailedOperations(), "failed"
	}

	if asJSON {
		entries := make([]queueEntry, len(ops))
		for i, op := range ops {
			entries[i] = queueEntry{
				ID:         op.ID,
				Kind:       string(op.Kind),
				TargetID:   op.TargetID,
				EnqueuedAt: op.EnqueuedAt,
				Attempts:   op.Attempts,
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(ops) == 0 {
		cmd.Printf("No %s operations.\n", state)
		return nil
	}

	cmd.Printf("%-8s %-40s %-19s %s\n", "KIND", "BOARD", "QUEUED", "ATTEMPTS")
	for _, op := range ops {
		cmd.Printf("%-8s %-40s %-19s %d\n",
			op.Kind, op.TargetID, op.EnqueuedAt.Local().Format(timeLayout), op.Attempts)
	}
	cmd.Printf("\n%d operation(s) %s\n", len(ops), state)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}

	passes, err := historyService.Recent(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(passes) == 0 {
		cmd.Println("No sync passes recorded.")
		return nil
	}

	for i := range passes {
		printPass(cmd, &passes[i])
	}
	return nil
}

func printPass(cmd *cobra.Command, p *domain.PassResult) {
	outcome := "ok"
	if !p.Success() {
		outcome = "failed"
	}
	cmd.Printf("%s  %-8s %-6s sent %d, ok %d, failed %d, dropped %d, skipped %d (%s)\n",
		p.StartedAt.Local().Format(timeLayout), p.Trigger, outcome,
		p.Attempted, p.Succeeded, p.Failed, p.Dropped, p.Skipped,
		p.Duration().Round(time.Millisecond))
	if p.Error != "" {
		cmd.Printf("    %s\n", p.Error)
	}
}
