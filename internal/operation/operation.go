// Package operation implements the oracle that decides whether an operation
// may currently target a node, and the operations themselves.
package operation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Context keys understood by the built-in operations.
const (
	KeyDocumentID       = "documentId"
	KeyNodeID           = "nodeId"
	KeySourceDocumentID = "sourceDocumentId"
	KeySourceNodeID     = "sourceNodeId"
)

var ErrUnknownOperation = errors.New("unknown operation")

// State is the answer of an operation for one prospective target.
type State struct {
	Enabled bool `json:"enabled"`
}

// Context is the data an operation is checked or executed with. It carries the
// caller configuration plus the target documentId and nodeId.
type Context map[string]string

// Clone returns a copy of c.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Oracle answers whether the named operation is currently enabled for data.
type Oracle interface {
	State(ctx context.Context, name string, data Context) (State, error)
}

// Operation is a named action that can be checked against a target.
type Operation interface {
	State(ctx context.Context, data Context) (State, error)
}

// Executor is implemented by operations that can also be run.
type Executor interface {
	Execute(ctx context.Context, data Context) error
}

// Registry holds named operations. It is safe for concurrent use and
// implements Oracle.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Operation)}
}

// Register adds op under name, replacing any previous registration.
func (r *Registry) Register(name string, op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[name] = op
}

func (r *Registry) Lookup(name string) (Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return op, nil
}

// Names returns the registered operation names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) State(ctx context.Context, name string, data Context) (State, error) {
	op, err := r.Lookup(name)
	if err != nil {
		return State{}, err
	}
	return op.State(ctx, data)
}

// Execute runs the named operation when it supports execution. It reports
// whether anything was run.
func (r *Registry) Execute(ctx context.Context, name string, data Context) (bool, error) {
	op, err := r.Lookup(name)
	if err != nil {
		return false, err
	}
	exec, ok := op.(Executor)
	if !ok {
		return false, nil
	}
	if err := exec.Execute(ctx, data); err != nil {
		return false, fmt.Errorf("executing %s: %w", name, err)
	}
	return true, nil
}
