// Package nodes builds and filters the flat list of candidate nodes shown by
// the picker.
package nodes

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tormodhaugland/nodepick/internal/document"
)

// EmptyElementLabel is the short label of nodes with neither a title nor text.
const EmptyElementLabel = "(Empty element)"

// Target is the composite key of a node across all open documents.
type Target struct {
	DocumentID document.DocumentID `json:"documentId"`
	NodeID     document.NodeID     `json:"nodeId"`
}

func (t Target) String() string {
	return string(t.DocumentID) + "#" + string(t.NodeID)
}

// ViewModel is the display-ready projection of one candidate node.
type ViewModel struct {
	DocumentID  document.DocumentID `json:"documentId"`
	NodeID      document.NodeID     `json:"nodeId"`
	MarkupLabel string              `json:"markupLabel"`
	ShortLabel  string              `json:"shortLabel"`
	TextContent string              `json:"textContent"`
}

func (v ViewModel) Target() Target {
	return Target{DocumentID: v.DocumentID, NodeID: v.NodeID}
}

// Index is the ordered, read-only list of candidates built when a picker
// opens.
type Index []ViewModel

// Find returns the first entry with nodeID, restricted to documentID unless it
// is empty.
func (idx Index) Find(documentID document.DocumentID, nodeID document.NodeID) (ViewModel, bool) {
	for _, vm := range idx {
		if vm.NodeID != nodeID {
			continue
		}
		if documentID != "" && vm.DocumentID != documentID {
			continue
		}
		return vm, true
	}
	return ViewModel{}, false
}

// Store is the part of the document store the indexer reads.
type Store interface {
	EligibleDocuments() []document.DocumentID
	Document(id document.DocumentID) (document.Document, error)
}

// Build evaluates elementQuery against the root of every eligible document and
// returns one ViewModel per matched node, in document enumeration order and
// then selector order. titleQuery may be empty.
//
// Selector errors are returned as is, wrapped with the document id.
func Build(store Store, elementQuery, titleQuery string) (Index, error) {
	var idx Index
	for _, id := range store.EligibleDocuments() {
		doc, err := store.Document(id)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		matches, err := doc.Select(elementQuery, doc.Root())
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		for _, n := range matches {
			vm, err := viewModel(doc, n, titleQuery)
			if err != nil {
				return nil, fmt.Errorf("document %s: %w", id, err)
			}
			idx = append(idx, vm)
		}
	}
	return idx, nil
}

func viewModel(doc document.Document, n document.Node, titleQuery string) (ViewModel, error) {
	text := doc.TextContent(n)

	label := doc.MarkupLabel(n)
	if label == "" {
		label = doc.NodeName(n)
	}

	short := ""
	if titleQuery != "" {
		title, err := doc.SelectString(titleQuery, n)
		if err != nil {
			return ViewModel{}, err
		}
		short = title
	}
	if short == "" {
		short = text
	}
	if short == "" {
		short = EmptyElementLabel
	}

	return ViewModel{
		DocumentID:  doc.ID(),
		NodeID:      doc.NodeID(n),
		MarkupLabel: UpperCaseFirst(label),
		ShortLabel:  short,
		TextContent: text,
	}, nil
}

// UpperCaseFirst upper-cases the first code point of s.
func UpperCaseFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Filter returns the entries whose short label, text content or markup label
// contain query, ignoring case. Order is preserved. An empty query returns idx
// itself.
func Filter(idx Index, query string) Index {
	if query == "" {
		return idx
	}
	q := strings.ToLower(query)
	filtered := make(Index, 0, len(idx))
	for _, vm := range idx {
		if Matches(vm, q) {
			filtered = append(filtered, vm)
		}
	}
	return filtered
}

// Matches reports whether vm matches a query that is already lower-cased.
func Matches(vm ViewModel, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(vm.ShortLabel), lowerQuery) ||
		strings.Contains(strings.ToLower(vm.TextContent), lowerQuery) ||
		strings.Contains(strings.ToLower(vm.MarkupLabel), lowerQuery)
}
