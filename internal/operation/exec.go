package operation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
)

// DefaultExecTimeout bounds a state check of an exec operation.
const DefaultExecTimeout = 5 * time.Second

// ExecConfig describes an operation backed by external commands.
type ExecConfig struct {
	// Command prints {"enabled": bool} for the JSON context on its stdin.
	Command string
	// Run is executed with the JSON context on its stdin when the picked
	// target is confirmed. Optional.
	Run     string
	Timeout time.Duration
	Dir     string
}

// ExecOperation checks eligibility by running an external command.
type ExecOperation struct {
	argv    []string
	timeout time.Duration
	dir     string
}

type runnableExec struct {
	*ExecOperation
	run []string
}

// NewExec builds an exec operation. The returned operation implements
// Executor when cfg.Run is set.
func NewExec(cfg ExecConfig) (Operation, error) {
	argv, err := splitCommand(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("command: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultExecTimeout
	}
	op := &ExecOperation{argv: argv, timeout: cfg.Timeout, dir: cfg.Dir}
	if strings.TrimSpace(cfg.Run) == "" {
		return op, nil
	}
	run, err := splitCommand(cfg.Run)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	return &runnableExec{ExecOperation: op, run: run}, nil
}

// splitCommand uses shell-style lexing to handle quoted arguments.
func splitCommand(raw string) ([]string, error) {
	args, err := shlex.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid command %q: %w", raw, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return args, nil
}

func (o *ExecOperation) State(ctx context.Context, data Context) (State, error) {
	out, err := o.invoke(ctx, o.argv, data)
	if err != nil {
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(bytes.TrimSpace(out), &st); err != nil {
		return State{}, fmt.Errorf("decoding state from %s: %w", o.argv[0], err)
	}
	return st, nil
}

func (o *runnableExec) Execute(ctx context.Context, data Context) error {
	_, err := o.invoke(ctx, o.run, data)
	return err
}

func (o *ExecOperation) invoke(ctx context.Context, argv []string, data Context) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = o.dir
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("running %s: %w: %s", argv[0], err, msg)
		}
		return nil, fmt.Errorf("running %s: %w", argv[0], err)
	}
	return stdout.Bytes(), nil
}
