package picker

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tormodhaugland/nodepick/internal/nodes"
	"github.com/tormodhaugland/nodepick/internal/operation"
)

// Eligibility is what the gate currently knows about the selection. Pending
// checks read as disabled.
type Eligibility struct {
	Enabled bool
	Pending bool
}

// EligibilityMsg carries the answer of one oracle check back into the update
// loop.
type EligibilityMsg struct {
	Generation uint64
	Target     nodes.Target
	State      operation.State
	Err        error
}

// Gate decides whether the current selection may be confirmed. Every check is
// tagged with a generation and only the newest applicable answer is kept.
//
// Gate is not safe for concurrent use. The commands it returns run elsewhere
// but only deliver messages; state changes happen in Resolve.
type Gate struct {
	operation string
	opts      Options
	oracle    operation.Oracle
	ctx       context.Context
	cancel    context.CancelFunc
	alive     bool

	gen        uint64
	selection  *nodes.Target
	selGen     uint64
	appliedGen uint64
	state      Eligibility

	confirmGen    uint64
	confirmTarget nodes.Target
}

// NewGate returns a gate for opts.InsertOperationName. oracle may be nil when
// no operation is configured.
func NewGate(opts Options, oracle operation.Oracle) *Gate {
	ctx, cancel := context.WithCancel(context.Background())
	return &Gate{
		operation: opts.InsertOperationName,
		opts:      opts,
		oracle:    oracle,
		ctx:       ctx,
		cancel:    cancel,
		alive:     true,
	}
}

// Select records a new selection, nil meaning none, and returns the check to
// run for it, if any. A pending double-click confirmation is dropped.
func (g *Gate) Select(t *nodes.Target) tea.Cmd {
	if !g.alive {
		return nil
	}
	g.confirmGen = 0
	g.selGen = 0
	if t == nil {
		g.selection = nil
		g.state = Eligibility{}
		return nil
	}
	target := *t
	g.selection = &target

	if g.operation == "" {
		g.state = Eligibility{Enabled: true}
		return nil
	}

	g.gen++
	g.selGen = g.gen
	g.state = Eligibility{Pending: true}
	return g.check(g.gen, target)
}

// RequestConfirm asks to confirm t directly, bypassing whatever the selection
// currently resolves to. It reports true when t may be confirmed right away.
// Otherwise the returned command, or the selection check already in flight
// for t, decides: Resolve returns t once that check answers enabled.
func (g *Gate) RequestConfirm(t nodes.Target) (bool, tea.Cmd) {
	if !g.alive {
		return false, nil
	}
	if g.operation == "" {
		return true, nil
	}

	if g.selection != nil && *g.selection == t {
		if g.state.Pending {
			g.confirmGen = g.selGen
			g.confirmTarget = t
			return false, nil
		}
		if g.state.Enabled {
			return true, nil
		}
	}

	g.gen++
	g.confirmGen = g.gen
	g.confirmTarget = t
	return false, g.check(g.gen, t)
}

func (g *Gate) check(gen uint64, t nodes.Target) tea.Cmd {
	ctx, oracle, name := g.ctx, g.oracle, g.operation
	data := g.opts.OperationContext(t)
	return func() tea.Msg {
		msg := EligibilityMsg{Generation: gen, Target: t}
		if oracle == nil {
			msg.Err = operation.ErrUnknownOperation
			return msg
		}
		msg.State, msg.Err = oracle.State(ctx, name, data)
		return msg
	}
}

// Resolve applies the answer of a check. It returns the target to confirm when
// the answer completes a pending double-click.
func (g *Gate) Resolve(msg EligibilityMsg) *nodes.Target {
	if !g.alive {
		return nil
	}

	enabled := msg.Err == nil && msg.State.Enabled
	if msg.Err != nil {
		slog.Debug("eligibility check failed",
			"operation", g.operation,
			"target", msg.Target.String(),
			"error", msg.Err)
	}

	if g.selection != nil && *g.selection == msg.Target &&
		msg.Generation >= g.selGen && msg.Generation > g.appliedGen {
		g.appliedGen = msg.Generation
		g.state = Eligibility{Enabled: enabled}
	}

	if g.confirmGen != 0 && msg.Generation == g.confirmGen && msg.Target == g.confirmTarget {
		g.confirmGen = 0
		if enabled {
			t := msg.Target
			return &t
		}
	}
	return nil
}

// Eligibility reports the state of the current selection.
func (g *Gate) Eligibility() Eligibility {
	if g.selection == nil {
		return Eligibility{}
	}
	return g.state
}

// Close discards every outstanding check and cancels the context handed to
// the oracle.
func (g *Gate) Close() {
	g.alive = false
	g.confirmGen = 0
	g.cancel()
}
