package picker

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tormodhaugland/nodepick/internal/nodes"
	"github.com/tormodhaugland/nodepick/internal/operation"
)

// Outcome is how a picker session ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeConfirmed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Result is the terminal state of a session. Target is set when confirmed.
type Result struct {
	Outcome Outcome
	Target  nodes.Target
}

func (r Result) Confirmed() bool { return r.Outcome == OutcomeConfirmed }
func (r Result) Cancelled() bool { return r.Outcome == OutcomeCancelled }

// Callbacks are invoked once, when the session closes.
type Callbacks struct {
	Confirm func(nodes.Target)
	Cancel  func()
}

// Controller is the picker state machine. It is open until the first confirm,
// cancel or unmount and ignores every input afterwards.
type Controller struct {
	opts      Options
	index     nodes.Index
	visible   nodes.Index
	query     string
	selection *nodes.ViewModel
	gate      *Gate
	callbacks Callbacks

	initCmd tea.Cmd
	closed  bool
	result  Result
}

// New opens a session over index. The candidate named by opts.NodeID, and
// opts.DocumentID when set, is pre-selected if the index holds it.
func New(opts Options, index nodes.Index, oracle operation.Oracle, cb Callbacks) (*Controller, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.InsertOperationName != "" && oracle == nil {
		return nil, fmt.Errorf("%w: operation %q needs an oracle", ErrInvalidOptions, opts.InsertOperationName)
	}

	c := &Controller{
		opts:      opts,
		index:     index,
		visible:   index,
		gate:      NewGate(opts, oracle),
		callbacks: cb,
	}

	if opts.NodeID != "" {
		if vm, ok := index.Find(opts.DocumentID, opts.NodeID); ok {
			c.selection = &vm
			t := vm.Target()
			c.initCmd = c.gate.Select(&t)
		}
	}
	return c, nil
}

// Init returns the check for the pre-selected candidate, if any. It returns
// nil on later calls.
func (c *Controller) Init() tea.Cmd {
	cmd := c.initCmd
	c.initCmd = nil
	return cmd
}

// TypeQuery replaces the search query. The selection is always cleared.
func (c *Controller) TypeQuery(q string) tea.Cmd {
	if c.closed || q == c.query {
		return nil
	}
	c.query = q
	c.visible = nodes.Filter(c.index, q)
	c.selection = nil
	return c.gate.Select(nil)
}

// ClickItem selects vm, which must be visible.
func (c *Controller) ClickItem(vm nodes.ViewModel) tea.Cmd {
	if c.closed || !c.isVisible(vm) {
		return nil
	}
	if c.selection != nil && c.selection.Target() == vm.Target() {
		return nil
	}
	c.selection = &vm
	t := vm.Target()
	return c.gate.Select(&t)
}

// DoubleClickItem selects vm and confirms it as soon as the operation allows
// it for vm itself.
func (c *Controller) DoubleClickItem(vm nodes.ViewModel) tea.Cmd {
	if c.closed || !c.isVisible(vm) {
		return nil
	}
	selectCmd := c.ClickItem(vm)
	ok, checkCmd := c.gate.RequestConfirm(vm.Target())
	if ok {
		c.confirm(vm.Target())
		return nil
	}
	return tea.Batch(selectCmd, checkCmd)
}

// PressEnter confirms the selection when it is eligible.
func (c *Controller) PressEnter() {
	if !c.CanConfirm() {
		return
	}
	c.confirm(c.selection.Target())
}

// ClickConfirm is the primary button. It behaves like PressEnter.
func (c *Controller) ClickConfirm() {
	c.PressEnter()
}

// PressEscape cancels the session.
func (c *Controller) PressEscape() {
	if c.closed {
		return
	}
	c.close(Result{Outcome: OutcomeCancelled})
	if c.callbacks.Cancel != nil {
		c.callbacks.Cancel()
	}
}

// ClickCancel is the cancel button. It behaves like PressEscape.
func (c *Controller) ClickCancel() {
	c.PressEscape()
}

// Unmount tears the session down without an outcome. Checks still in flight
// are discarded when they answer.
func (c *Controller) Unmount() {
	if c.closed {
		return
	}
	c.close(Result{})
}

// Update applies messages produced by the commands of the controller.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	if c.closed {
		return nil
	}
	if m, ok := msg.(EligibilityMsg); ok {
		if t := c.gate.Resolve(m); t != nil {
			c.confirm(*t)
		}
	}
	return nil
}

func (c *Controller) confirm(t nodes.Target) {
	c.close(Result{Outcome: OutcomeConfirmed, Target: t})
	if c.callbacks.Confirm != nil {
		c.callbacks.Confirm(t)
	}
}

func (c *Controller) close(r Result) {
	c.closed = true
	c.result = r
	c.gate.Close()
}

func (c *Controller) isVisible(vm nodes.ViewModel) bool {
	t := vm.Target()
	for _, v := range c.visible {
		if v.Target() == t {
			return true
		}
	}
	return false
}

func (c *Controller) Options() Options     { return c.opts }
func (c *Controller) Index() nodes.Index   { return c.index }
func (c *Controller) Visible() nodes.Index { return c.visible }
func (c *Controller) Query() string        { return c.query }
func (c *Controller) Closed() bool         { return c.closed }
func (c *Controller) Result() Result       { return c.result }

// Selection returns the selected candidate.
func (c *Controller) Selection() (nodes.ViewModel, bool) {
	if c.selection == nil {
		return nodes.ViewModel{}, false
	}
	return *c.selection, true
}

// SelectedIndex returns the position of the selection in Visible, or -1.
func (c *Controller) SelectedIndex() int {
	if c.selection == nil {
		return -1
	}
	t := c.selection.Target()
	for i, v := range c.visible {
		if v.Target() == t {
			return i
		}
	}
	return -1
}

func (c *Controller) Eligibility() Eligibility {
	return c.gate.Eligibility()
}

// CanConfirm reports whether the primary action is available.
func (c *Controller) CanConfirm() bool {
	return !c.closed && c.selection != nil && c.gate.Eligibility().Enabled
}
