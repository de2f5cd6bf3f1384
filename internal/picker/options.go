// Package picker holds the selection, search and eligibility state of the
// node picker and decides when a selection is confirmed.
package picker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tormodhaugland/nodepick/internal/document"
	"github.com/tormodhaugland/nodepick/internal/nodes"
	"github.com/tormodhaugland/nodepick/internal/operation"
)

var ErrInvalidOptions = errors.New("invalid picker options")

// Options configures one picker session.
type Options struct {
	// LinkableElementsQuery selects the candidate nodes of each document.
	LinkableElementsQuery string `json:"linkableElementsQuery" yaml:"linkable_elements_query"`

	// TitleQuery is evaluated with each candidate as context to produce its
	// short label. Optional.
	TitleQuery string `json:"titleQuery,omitempty" yaml:"title_query,omitempty"`

	// InsertOperationName names the operation whose state gates confirmation.
	// When empty any selection may be confirmed.
	InsertOperationName string `json:"insertOperationName,omitempty" yaml:"insert_operation_name,omitempty"`

	// NodeID and DocumentID pre-select a candidate. DocumentID is optional.
	NodeID     document.NodeID     `json:"nodeId,omitempty" yaml:"node_id,omitempty"`
	DocumentID document.DocumentID `json:"documentId,omitempty" yaml:"document_id,omitempty"`

	ModalTitle              string `json:"modalTitle" yaml:"modal_title"`
	ModalPrimaryButtonLabel string `json:"modalPrimaryButtonLabel" yaml:"modal_primary_button_label"`
	ModalIcon               string `json:"modalIcon,omitempty" yaml:"modal_icon,omitempty"`

	// Data is forwarded to the operation with every check.
	Data map[string]string `json:"data,omitempty" yaml:"data,omitempty"`
}

func (o Options) Validate() error {
	var missing []string
	if strings.TrimSpace(o.LinkableElementsQuery) == "" {
		missing = append(missing, "linkableElementsQuery")
	}
	if strings.TrimSpace(o.ModalTitle) == "" {
		missing = append(missing, "modalTitle")
	}
	if strings.TrimSpace(o.ModalPrimaryButtonLabel) == "" {
		missing = append(missing, "modalPrimaryButtonLabel")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidOptions, strings.Join(missing, ", "))
	}
	return nil
}

// OperationContext returns the data an operation is checked with for t: every
// option, then Data, then the target ids.
func (o Options) OperationContext(t nodes.Target) operation.Context {
	ctx := operation.Context{}
	set := func(k, v string) {
		if v != "" {
			ctx[k] = v
		}
	}
	set("linkableElementsQuery", o.LinkableElementsQuery)
	set("titleQuery", o.TitleQuery)
	set("insertOperationName", o.InsertOperationName)
	set("modalTitle", o.ModalTitle)
	set("modalPrimaryButtonLabel", o.ModalPrimaryButtonLabel)
	set("modalIcon", o.ModalIcon)
	for k, v := range o.Data {
		ctx[k] = v
	}
	ctx[operation.KeyDocumentID] = string(t.DocumentID)
	ctx[operation.KeyNodeID] = string(t.NodeID)
	return ctx
}
