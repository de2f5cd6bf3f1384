// Package doctor reports problems that make documents or profiles unusable
// in the picker.
package doctor

import (
	"context"
	"fmt"

	"github.com/tormodhaugland/nodepick/internal/document"
	"github.com/tormodhaugland/nodepick/internal/nodes"
	"github.com/tormodhaugland/nodepick/internal/operation"
	"github.com/tormodhaugland/nodepick/internal/picker"
)

type Kind string

const (
	KindDocument Kind = "document"
	KindProfile  Kind = "profile"
)

type Problem struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s %s: %s", p.Kind, p.Subject, p.Message)
}

// DocumentReport summarizes the documents found under a root.
type DocumentReport struct {
	Checked  int       `json:"checked"`
	Operable int       `json:"operable"`
	ReadOnly []string  `json:"read_only,omitempty"`
	Problems []Problem `json:"problems,omitempty"`
}

// CheckDocuments parses every path and reports the ones the picker would
// skip. Read-only documents are listed but are not problems.
func CheckDocuments(ctx context.Context, paths []string, opts document.LoadOptions) (DocumentReport, error) {
	report := DocumentReport{}
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		doc, err := document.LoadFile(ctx, rel, opts)
		if err != nil {
			report.Problems = append(report.Problems, Problem{Kind: KindDocument, Subject: rel, Message: err.Error()})
			continue
		}
		if doc.Operable() {
			report.Operable++
		} else {
			report.ReadOnly = append(report.ReadOnly, rel)
		}
		_ = doc.Close()
	}
	return report, nil
}

// OperationLookup resolves operation names.
type OperationLookup interface {
	Lookup(name string) (operation.Operation, error)
}

// CheckProfile verifies that a profile is complete, that its operation
// exists and that its queries select at least one node of store.
func CheckProfile(name string, opts picker.Options, store nodes.Store, ops OperationLookup) []Problem {
	problem := func(format string, args ...any) []Problem {
		return []Problem{{Kind: KindProfile, Subject: name, Message: fmt.Sprintf(format, args...)}}
	}

	if err := opts.Validate(); err != nil {
		return problem("%v", err)
	}
	if opts.InsertOperationName != "" && ops != nil {
		if _, err := ops.Lookup(opts.InsertOperationName); err != nil {
			return problem("%v", err)
		}
	}
	if len(store.EligibleDocuments()) == 0 {
		return problem("no operable documents to pick from")
	}

	idx, err := nodes.Build(store, opts.LinkableElementsQuery, opts.TitleQuery)
	if err != nil {
		return problem("%v", err)
	}
	if len(idx) == 0 {
		return problem("element query %q matches no nodes", opts.LinkableElementsQuery)
	}
	return nil
}
