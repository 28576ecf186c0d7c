package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/boardsync/internal/adapters/driving/filewatch"
	"github.com/custodia-labs/boardsync/internal/adapters/driving/tui"
	"github.com/custodia-labs/boardsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Stream edits from a snapshot file",
	Long: `Watches a board snapshot file and queues its content as an edit of the
board every time it changes. Changes are debounced and synced in the
background until interrupted; pending edits are flushed on exit.

With --tui a live status indicator is shown when stdout is a terminal.
Otherwise status changes are printed as they happen.

Controls (--tui):
  f - Flush now
  r - Retry failed operations
  ? - Toggle help
  q - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("board", "b", "", "board ID receiving the edits")
	watchCmd.Flags().Bool("tui", false, "show the interactive status view")
	_ = watchCmd.MarkFlagRequired("board")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}
	boardID, err := cmd.Flags().GetString("board")
	if err != nil {
		return fmt.Errorf("getting board flag: %w", err)
	}
	useTUI, err := cmd.Flags().GetBool("tui")
	if err != nil {
		return fmt.Errorf("getting tui flag: %w", err)
	}

	watcher, err := filewatch.NewWatcher(args[0], boardID, syncEngine)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := syncEngine.SetActiveDocument(ctx, boardID); err != nil {
		return fmt.Errorf("activating board: %w", err)
	}
	go func() {
		if err := syncEngine.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("sync engine stopped: %v", err)
		}
	}()

	if useTUI && isTerminal(cmd.OutOrStdout()) {
		return watchWithTUI(ctx, cmd, watcher, boardID)
	}
	return watchWithLog(ctx, cmd, watcher)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func watchWithTUI(ctx context.Context, cmd *cobra.Command, watcher *filewatch.Watcher, boardID string) error {
	app, err := tui.NewApp(&tui.Ports{Engine: syncEngine}, tui.Options{
		BoardID: boardID,
		Source:  watcher.Path(),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	defer app.Close()
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout()))

	watcher.OnEdit = func(domain.Snapshot) {
		p.Send(messages.EditQueued{At: time.Now()})
	}
	go func() {
		p.Send(messages.WatchStopped{Err: watcher.Run(ctx)})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return app.Err()
}

func watchWithLog(ctx context.Context, cmd *cobra.Command, watcher *filewatch.Watcher) error {
	var mu sync.Mutex
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		cmd.Printf(format, args...)
	}

	unsubscribe := syncEngine.OnStatusChange(func(s domain.SyncStatus) {
		line := s.Label()
		if s.HasError() {
			line += ": " + s.Error
		}
		printf("[%s] %s\n", time.Now().Format("15:04:05"), line)
	})
	defer unsubscribe()

	watcher.OnEdit = func(snap domain.Snapshot) {
		printf("[%s] edit queued (%d bytes)\n", time.Now().Format("15:04:05"), len(snap))
	}

	printf("Watching %s (Ctrl+C to stop)\n", watcher.Path())
	err := watcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
