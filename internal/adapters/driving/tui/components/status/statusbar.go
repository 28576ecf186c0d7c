// Package status provides the sync status bar for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/boardsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/boardsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// TimeLayout formats the last sync time.
const TimeLayout = "15:04:05"

// Bar displays the sync status and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model
	status  domain.SyncStatus
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles:  s,
		keymap:  km,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Syncing)),
		width:   80,
	}
}

// Init starts the spinner.
func (b *Bar) Init() tea.Cmd {
	return b.spinner.Tick
}

// Update advances the spinner; every other message is ignored.
func (b *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return b, nil
	}
	var cmd tea.Cmd
	b.spinner, cmd = b.spinner.Update(msg)
	return b, cmd
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	frame := b.styles.StatusBar.GetHorizontalFrameSize()
	padding := b.width - frame - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	var state string
	switch {
	case b.status.IsSyncing:
		state = b.spinner.View() + " " + b.styles.Syncing.Render("Syncing...")
	case b.status.HasError():
		state = b.styles.Error.Render("Error: " + b.status.Error)
	case b.status.PendingChanges:
		state = b.styles.Pending.Render("Unsaved changes")
	default:
		state = b.styles.Saved.Render("Saved")
	}

	if b.status.HasSynced() {
		state += b.styles.Muted.Render(" · last sync " + b.status.LastSyncTime.Local().Format(TimeLayout))
	}
	return state
}

func (b *Bar) renderRight() string {
	bindings := b.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetStatus replaces the displayed status.
func (b *Bar) SetStatus(s domain.SyncStatus) {
	b.status = s
}

// Status returns the displayed status.
func (b *Bar) Status() domain.SyncStatus {
	return b.status
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the current width.
func (b *Bar) Width() int {
	return b.width
}

// Bindings exposes the hints shown on the right, for tests and help views.
func (b *Bar) Bindings() []key.Binding {
	return b.keymap.ShortHelp()
}
