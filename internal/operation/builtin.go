package operation

import (
	"context"
	"errors"

	"github.com/tormodhaugland/nodepick/internal/linkdb"
)

// Names of the built-in operations.
const (
	DoNothing  = "do-nothing"
	InsertLink = "insert-link"
)

var errNoSource = errors.New("no source node to link from")

// Func adapts a plain function to Operation.
type Func func(ctx context.Context, data Context) (State, error)

func (f Func) State(ctx context.Context, data Context) (State, error) {
	return f(ctx, data)
}

// LinkStore is the persistence used by the insert-link operation.
type LinkStore interface {
	HasLink(ctx context.Context, source, target linkdb.Endpoint) (bool, error)
	AddLink(ctx context.Context, source, target linkdb.Endpoint) (bool, error)
}

// LinkOperation links a source node to the picked target. It is disabled when
// no source is given, when the target is the source itself and when the link
// already exists.
type LinkOperation struct {
	Store LinkStore
}

func endpoints(data Context) (source, target linkdb.Endpoint) {
	source = linkdb.Endpoint{DocumentID: data[KeySourceDocumentID], NodeID: data[KeySourceNodeID]}
	target = linkdb.Endpoint{DocumentID: data[KeyDocumentID], NodeID: data[KeyNodeID]}
	return source, target
}

func (o *LinkOperation) State(ctx context.Context, data Context) (State, error) {
	source, target := endpoints(data)
	if target.DocumentID == "" || target.NodeID == "" {
		return State{}, nil
	}
	if source.DocumentID == "" || source.NodeID == "" {
		return State{}, nil
	}
	if source == target {
		return State{}, nil
	}
	exists, err := o.Store.HasLink(ctx, source, target)
	if err != nil {
		return State{}, err
	}
	return State{Enabled: !exists}, nil
}

func (o *LinkOperation) Execute(ctx context.Context, data Context) error {
	source, target := endpoints(data)
	if source.DocumentID == "" || source.NodeID == "" {
		return errNoSource
	}
	_, err := o.Store.AddLink(ctx, source, target)
	return err
}

// RegisterBuiltins registers do-nothing, and insert-link when links is not
// nil.
func RegisterBuiltins(r *Registry, links LinkStore) {
	r.Register(DoNothing, Func(func(context.Context, Context) (State, error) {
		return State{Enabled: true}, nil
	}))
	if links != nil {
		r.Register(InsertLink, &LinkOperation{Store: links})
	}
}
