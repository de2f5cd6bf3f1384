package tui

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/tormodhaugland/nodepick/internal/nodes"
	"github.com/tormodhaugland/nodepick/internal/picker"
)

// PreviewFunc returns the source of a candidate and its language for the
// preview pane. An empty content falls back to the text of the candidate.
type PreviewFunc func(vm nodes.ViewModel) (content, language string)

type focusArea int

const (
	focusSearch focusArea = iota
	focusList
	focusCancel
	focusConfirm
	focusCount
)

// Screen layout, top to bottom: title, blank, search, counter, list rows,
// blank, buttons, help.
const (
	searchRow            = 2
	listTop              = 4
	chromeRows           = 7
	minListHeight        = 3
	minPreviewWidth      = 60
	wheelStep            = 3
	buttonGap            = 2
	doubleClickThreshold = 400 * time.Millisecond
)

// BrowserModel is the Bubble Tea model of the picker. The picker state lives
// in the controller; the model only owns presentation state.
type BrowserModel struct {
	ctrl     *picker.Controller
	preview  PreviewFunc
	search   textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model

	focus        focusArea
	scrollOffset int
	width        int
	height       int

	hasPreview    bool
	previewTarget nodes.Target

	lastClickTime time.Time
	lastClickRow  int
	now           func() time.Time
}

// NewBrowser returns a model driving ctrl. preview may be nil.
func NewBrowser(ctrl *picker.Controller, preview PreviewFunc) BrowserModel {
	search := textinput.New()
	search.Placeholder = "Search"
	search.Prompt = "/ "
	search.Focus()

	sp := spinner.New()
	sp.Spinner = pendingSpinner

	m := BrowserModel{
		ctrl:         ctrl,
		preview:      preview,
		search:       search,
		viewport:     viewport.New(40, 10),
		spinner:      sp,
		help:         help.New(),
		focus:        focusSearch,
		width:        100,
		height:       24,
		lastClickRow: -1,
		now:          time.Now,
	}
	m.resize()
	m.syncSelection(true)
	return m
}

func (m BrowserModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.ctrl.Init())
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ensureVisible()
		return m, nil

	case picker.EligibilityMsg:
		return m.finish(m.ctrl.Update(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.finish(m.handleMouse(msg))

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m.finish(cmd)
		}
	}

	if m.focus != focusSearch {
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != m.ctrl.Query() {
		m.scrollOffset = 0
		return m.finish(tea.Batch(cmd, m.ctrl.TypeQuery(q)))
	}
	return m, cmd
}

// finish quits once the controller has closed and otherwise keeps the preview
// in step with the selection.
func (m BrowserModel) finish(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.ctrl.Closed() {
		return m, tea.Quit
	}
	m.syncSelection(false)
	return m, cmd
}

func (m *BrowserModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.ctrl.PressEscape()
		return nil, true

	case key.Matches(msg, keys.Focus):
		return m.setFocus((m.focus + 1) % focusCount), true

	case key.Matches(msg, keys.Back):
		return m.setFocus((m.focus + focusCount - 1) % focusCount), true

	case key.Matches(msg, keys.Confirm):
		if m.focus == focusCancel {
			m.ctrl.ClickCancel()
		} else {
			m.ctrl.PressEnter()
		}
		return nil, true

	case key.Matches(msg, keys.Up):
		return m.move(-1), true

	case key.Matches(msg, keys.Down):
		return m.move(1), true

	case key.Matches(msg, keys.PageUp):
		return m.move(-m.listHeight()), true

	case key.Matches(msg, keys.PageDown):
		return m.move(m.listHeight()), true
	}
	return nil, false
}

func (m *BrowserModel) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	if f == focusSearch {
		return m.search.Focus()
	}
	m.search.Blur()
	return nil
}

// move selects the candidate delta rows away from the selection. Without a
// selection it starts from the first or last row.
func (m *BrowserModel) move(delta int) tea.Cmd {
	visible := m.ctrl.Visible()
	if len(visible) == 0 {
		return nil
	}
	idx := m.ctrl.SelectedIndex()
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(visible) - 1
	default:
		idx = clamp(idx+delta, 0, len(visible)-1)
	}
	return m.ctrl.ClickItem(visible[idx])
}

func (m *BrowserModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if m.showPreview() && msg.X >= m.listWidth() {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd
		}
		step := wheelStep
		if msg.Button == tea.MouseButtonWheelUp {
			step = -wheelStep
		}
		m.scrollOffset = clamp(m.scrollOffset+step, 0, m.maxScroll())
		return nil

	case tea.MouseButtonLeft:
	default:
		return nil
	}

	lh := m.listHeight()
	switch {
	case msg.Y == searchRow:
		return m.setFocus(focusSearch)

	case msg.Y >= listTop && msg.Y < listTop+lh && msg.X < m.listWidth():
		row := m.scrollOffset + msg.Y - listTop
		visible := m.ctrl.Visible()
		if row >= len(visible) {
			return nil
		}
		focusCmd := m.setFocus(focusList)

		now := m.now()
		isDoubleClick := !m.lastClickTime.IsZero() &&
			now.Sub(m.lastClickTime) <= doubleClickThreshold &&
			m.lastClickRow == row
		if isDoubleClick {
			// Reset to prevent triple-click
			m.lastClickTime = time.Time{}
			return tea.Batch(focusCmd, m.ctrl.DoubleClickItem(visible[row]))
		}
		m.lastClickTime = now
		m.lastClickRow = row
		return tea.Batch(focusCmd, m.ctrl.ClickItem(visible[row]))

	case msg.Y == listTop+lh+1:
		cancel, confirm := m.buttons()
		cancelW := lipgloss.Width(cancel)
		confirmX := cancelW + buttonGap
		switch {
		case msg.X < cancelW:
			m.ctrl.ClickCancel()
		case msg.X >= confirmX && msg.X < confirmX+lipgloss.Width(confirm):
			m.ctrl.ClickConfirm()
		}
	}
	return nil
}

// syncSelection refreshes the preview and scroll position when the selection
// changed.
func (m *BrowserModel) syncSelection(force bool) {
	vm, ok := m.ctrl.Selection()
	if !force && ok == m.hasPreview && (!ok || vm.Target() == m.previewTarget) {
		return
	}
	m.hasPreview = ok
	m.previewTarget = vm.Target()
	if ok {
		m.ensureVisible()
	}
	m.viewport.SetContent(m.previewContent(vm, ok))
	m.viewport.GotoTop()
}

func (m *BrowserModel) previewContent(vm nodes.ViewModel, ok bool) string {
	if !ok {
		return emptyBodyStyle.Render("No element selected")
	}
	content, language := "", ""
	if m.preview != nil {
		content, language = m.preview(vm)
	}
	if content == "" {
		content = vm.TextContent
	}
	header := titleStyle.Render(vm.MarkupLabel) + " " + labelStyle.Render(vm.Target().String())
	return header + "\n\n" + highlight(content, language)
}

// ensureVisible scrolls the list so the selection is on screen.
func (m *BrowserModel) ensureVisible() {
	idx := m.ctrl.SelectedIndex()
	lh := m.listHeight()
	if idx >= 0 {
		if idx < m.scrollOffset {
			m.scrollOffset = idx
		}
		if idx >= m.scrollOffset+lh {
			m.scrollOffset = idx - lh + 1
		}
	}
	m.scrollOffset = clamp(m.scrollOffset, 0, m.maxScroll())
}

func (m *BrowserModel) resize() {
	m.search.Width = max(m.width-len(m.search.Prompt)-1, 10)
	m.help.Width = m.width
	lh := m.listHeight()
	pw := m.width - m.listWidth()
	m.viewport.Width = max(pw-4, 1)
	m.viewport.Height = max(lh-2, 1)
}

func (m BrowserModel) listHeight() int {
	return max(m.height-chromeRows, minListHeight)
}

func (m BrowserModel) showPreview() bool {
	return m.width >= minPreviewWidth
}

func (m BrowserModel) listWidth() int {
	if !m.showPreview() {
		return m.width
	}
	return m.width * 2 / 5
}

func (m BrowserModel) maxScroll() int {
	return max(len(m.ctrl.Visible())-m.listHeight(), 0)
}

func (m BrowserModel) View() string {
	opts := m.ctrl.Options()
	header := opts.ModalTitle
	if opts.ModalIcon != "" {
		header = opts.ModalIcon + " " + header
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(header) + "\n\n")
	sb.WriteString(m.search.View() + "\n")
	sb.WriteString(counterStyle.Render(m.ctrl.Counter()) + "\n")

	body := m.listView()
	if m.showPreview() {
		style := paneStyle
		if m.focus == focusList {
			style = activePaneStyle
		}
		pane := style.
			Width(m.width - m.listWidth() - 2).
			Height(m.listHeight() - 2).
			Render(m.viewport.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, pane)
	}
	sb.WriteString(body + "\n\n")

	cancel, confirm := m.buttons()
	sb.WriteString(cancel + strings.Repeat(" ", buttonGap) + confirm + "\n")
	sb.WriteString(helpStyle.Render(m.help.View(keys)))
	return sb.String()
}

func (m BrowserModel) listView() string {
	lw := m.listWidth()
	lh := m.listHeight()
	box := lipgloss.NewStyle().Width(lw).Height(lh).MaxHeight(lh)

	if title, body, ok := m.ctrl.StateMessage(); ok {
		msg := emptyTitleStyle.Render(title) + "\n\n" +
			emptyBodyStyle.Width(max(lw-2, 1)).Render(body)
		return box.Render(msg)
	}

	visible := m.ctrl.Visible()
	selected := m.ctrl.SelectedIndex()
	end := min(m.scrollOffset+lh, len(visible))

	rows := make([]string, 0, lh)
	for i := m.scrollOffset; i < end; i++ {
		rows = append(rows, renderRow(visible[i], i == selected, lw))
	}
	return box.Render(strings.Join(rows, "\n"))
}

// renderRow renders one candidate as "Label title" within width columns.
func renderRow(vm nodes.ViewModel, selected bool, width int) string {
	room := max(width-itemStyle.GetPaddingLeft(), 1)
	label := truncate(vm.MarkupLabel, room)
	title := truncate(singleLine(vm.ShortLabel), max(room-len([]rune(label))-1, 0))

	if selected {
		return selectedItemStyle.Width(width).Render(label + " " + title)
	}
	return itemStyle.Render(labelStyle.Render(label) + " " + title)
}

func (m BrowserModel) buttons() (cancel, confirm string) {
	opts := m.ctrl.Options()

	cancelStyle := buttonStyle
	if m.focus == focusCancel {
		cancelStyle = focusedButtonStyle
	}
	cancel = cancelStyle.Render("Cancel")

	label := opts.ModalPrimaryButtonLabel
	if m.ctrl.Eligibility().Pending {
		label = m.spinner.View() + " " + label
	}
	confirmStyle := disabledButtonStyle
	if m.ctrl.CanConfirm() {
		confirmStyle = activeButtonStyle
	}
	if m.focus == focusConfirm {
		confirmStyle = confirmStyle.Underline(true)
	}
	confirm = confirmStyle.Render(label)
	return cancel, confirm
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

// RunBrowser runs the picker until it closes and returns its result. A
// program that ends without confirm or cancel yields OutcomeNone.
func RunBrowser(ctrl *picker.Controller, preview PreviewFunc) (picker.Result, error) {
	// Use stderr for rendering so stdout stays clean for the picked target.
	// Also configure lipgloss to detect colors from stderr, not stdout
	lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true)))

	m := NewBrowser(ctrl, preview)
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithAltScreen(), tea.WithMouseCellMotion())

	_, err := p.Run()
	ctrl.Unmount()
	if err != nil {
		return picker.Result{}, err
	}
	return ctrl.Result(), nil
}
