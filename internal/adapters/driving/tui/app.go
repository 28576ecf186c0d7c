package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/boardsync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/boardsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/boardsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/boardsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// Options describes what the App is watching.
type Options struct {
	// BoardID is the board receiving edits.
	BoardID string

	// Source names where edits come from, e.g. the watched file.
	Source string
}

// App is the watch view following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	opts   Options
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	bar    *status.Bar

	// updates carries engine status changes into the Bubbletea loop. It
	// holds at most the latest status.
	updates     chan domain.SyncStatus
	unsubscribe func()

	edits    int
	lastEdit time.Time
	flushing bool
	notice   string
	showHelp bool
	width    int
	stopErr  error
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the watch view and subscribes to engine status changes.
// Call Close when the program exits.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		ports:   ports,
		opts:    opts,
		ctx:     context.Background(),
		styles:  s,
		keymap:  km,
		bar:     status.NewBar(s, km),
		updates: make(chan domain.SyncStatus, 1),
		width:   80,
	}
	a.bar.SetStatus(ports.Engine.Status())
	a.unsubscribe = ports.Engine.OnStatusChange(a.publish)
	return a, nil
}

// WithContext sets the context used for engine calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Close unsubscribes from the engine.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// publish replaces any undelivered status with s. Called from engine
// goroutines.
func (a *App) publish(s domain.SyncStatus) {
	for {
		select {
		case a.updates <- s:
			return
		default:
		}
		select {
		case <-a.updates:
		default:
		}
	}
}

func (a *App) waitForStatus() tea.Msg {
	return messages.StatusChanged{Status: <-a.updates}
}

// Init starts the spinner and the status listener.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.bar.Init(), a.waitForStatus)
}

// Update handles incoming messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.bar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.StatusChanged:
		a.bar.SetStatus(msg.Status)
		return a, a.waitForStatus

	case messages.EditQueued:
		a.edits++
		a.lastEdit = msg.At
		return a, nil

	case messages.FlushCompleted:
		a.flushing = false
		if msg.Err != nil {
			a.notice = "Flush failed: " + msg.Err.Error()
		} else {
			a.notice = "All changes saved."
		}
		return a, nil

	case messages.RetryCompleted:
		a.notice = fmt.Sprintf("Requeued %d failed operation(s).", msg.Count)
		return a, nil

	case messages.WatchStopped:
		a.stopErr = msg.Err
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.bar, cmd = a.bar.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keymap.Help):
		a.showHelp = !a.showHelp
	case key.Matches(msg, a.keymap.Flush):
		if a.flushing {
			return a, nil
		}
		a.flushing = true
		a.notice = "Flushing..."
		return a, a.flush
	case key.Matches(msg, a.keymap.Retry):
		return a, a.retry
	}
	return a, nil
}

func (a *App) flush() tea.Msg {
	return messages.FlushCompleted{Err: a.ports.Engine.ForceFlush(a.ctx)}
}

func (a *App) retry() tea.Msg {
	return messages.RetryCompleted{Count: a.ports.Engine.RetryFailed(a.ctx)}
}

// View renders the watch view.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("boardsync"))
	b.WriteString(a.styles.Muted.Render(" · board " + a.opts.BoardID))
	b.WriteString("\n\n")

	var panel strings.Builder
	if a.opts.Source != "" {
		panel.WriteString(a.styles.Muted.Render("Watching ") + a.styles.Normal.Render(a.opts.Source) + "\n")
	}
	panel.WriteString(a.styles.Muted.Render(fmt.Sprintf("Edits seen: %d", a.edits)))
	if !a.lastEdit.IsZero() {
		panel.WriteString(a.styles.Muted.Render(", last at " + a.lastEdit.Local().Format(status.TimeLayout)))
	}
	if queued := len(a.ports.Engine.PendingOperations()); queued > 0 {
		panel.WriteString("\n" + a.styles.Pending.Render(fmt.Sprintf("%d operation(s) queued", queued)))
	}
	if failed := len(a.ports.Engine.FailedOperations()); failed > 0 {
		panel.WriteString("\n" + a.styles.Error.Render(fmt.Sprintf("%d operation(s) failed, press r to retry", failed)))
	}
	b.WriteString(a.styles.Panel.Render(panel.String()))
	b.WriteString("\n")

	if a.notice != "" {
		b.WriteString(a.styles.Normal.Render(a.notice) + "\n")
	}
	if a.showHelp {
		b.WriteString(a.renderHelp())
	}

	b.WriteString("\n" + a.bar.View())
	return b.String()
}

func (a *App) renderHelp() string {
	var lines []string
	for _, group := range a.keymap.FullHelp() {
		parts := make([]string, 0, len(group))
		for _, binding := range group {
			h := binding.Help()
			parts = append(parts, fmt.Sprintf("%-6s %s", h.Key, h.Desc))
		}
		lines = append(lines, strings.Join(parts, "    "))
	}
	return a.styles.Help.Render(strings.Join(lines, "\n")) + "\n"
}

// Notice returns the last user-facing message.
func (a *App) Notice() string {
	return a.notice
}

// Edits returns how many edits the view has been told about.
func (a *App) Edits() int {
	return a.edits
}

// Err returns the error that stopped the edit source, if any.
func (a *App) Err() error {
	return a.stopErr
}
