// Package tui renders the node picker as a Bubble Tea program.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	itemStyle         = lipgloss.NewStyle().PaddingLeft(2)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Background(lipgloss.Color("236")).Foreground(lipgloss.Color("212")).Bold(true)
	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	paneStyle         = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(0, 1)
	activePaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1)
	helpStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	counterStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	emptyTitleStyle     = lipgloss.NewStyle().Bold(true)
	emptyBodyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	buttonStyle         = lipgloss.NewStyle().Padding(0, 2)
	activeButtonStyle   = buttonStyle.Background(lipgloss.Color("212")).Foreground(lipgloss.Color("0"))
	focusedButtonStyle  = buttonStyle.Underline(true).Bold(true)
	disabledButtonStyle = buttonStyle.Foreground(lipgloss.Color("240"))
)

// spinnerFrames defines the animation frames shown while a check is pending.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var pendingSpinner = spinner.Spinner{Frames: spinnerFrames, FPS: time.Second / 10}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	Focus    key.Binding
	Back     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Confirm, k.Focus, k.Cancel}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Confirm, k.Focus, k.Back, k.Cancel},
	}
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "previous")),
	Down:     key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next")),
	PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
	Confirm:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Cancel:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
	Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
	Back:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "focus back")),
}
