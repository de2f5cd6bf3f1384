package document

import (
	"errors"
	"fmt"
)

// DocumentID identifies an open document.
type DocumentID string

// NodeID identifies a node within its document. It is only unique together
// with the DocumentID.
type NodeID string

// Node is an opaque handle to a node of a specific Document. Handles are only
// meaningful to the document that produced them.
type Node any

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrDuplicateDocument = errors.New("duplicate document id")
)

// InvalidQueryError is returned when a selector cannot be compiled or does not
// evaluate to nodes.
type InvalidQueryError struct {
	Query string
	Err   error
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query %q: %v", e.Query, e.Err)
}

func (e *InvalidQueryError) Unwrap() error {
	return e.Err
}

// Document is a parsed, read-only structured document.
type Document interface {
	ID() DocumentID

	// Language is the content language, used for preview highlighting
	// ("xml", "go", "python", ...).
	Language() string

	// Operable reports whether operations may target this document.
	Operable() bool

	Root() Node

	// Select evaluates a selector with context as the context node and returns
	// the matched nodes in document order.
	Select(query string, context Node) ([]Node, error)

	// SelectString evaluates a query to a string with context as the context
	// node. An empty result is not an error.
	SelectString(query string, context Node) (string, error)

	TextContent(n Node) string

	// MarkupLabel returns the registered display name for the kind of n, or ""
	// when none is registered.
	MarkupLabel(n Node) string

	// NodeName returns the raw type name of n.
	NodeName(n Node) string

	NodeID(n Node) NodeID

	Close() error
}

// Previewer is implemented by documents that can render the source of a node
// for display.
type Previewer interface {
	Preview(id NodeID) (string, bool)
}

// ParseOptions holds per-document settings shared by all formats.
type ParseOptions struct {
	Operable bool

	// MarkupLabels maps node type names to display labels. Entries override the
	// built-in labels of the format.
	MarkupLabels map[string]string
}

// Manager holds the documents of a session in enumeration order.
type Manager struct {
	docs []Document
	byID map[DocumentID]Document
}

func NewManager() *Manager {
	return &Manager{byID: make(map[DocumentID]Document)}
}

// Add appends doc to the enumeration order.
func (m *Manager) Add(doc Document) error {
	if _, exists := m.byID[doc.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDocument, doc.ID())
	}
	m.docs = append(m.docs, doc)
	m.byID[doc.ID()] = doc
	return nil
}

func (m *Manager) Len() int {
	return len(m.docs)
}

// DocumentIDs returns the ids of all documents in enumeration order.
func (m *Manager) DocumentIDs() []DocumentID {
	ids := make([]DocumentID, 0, len(m.docs))
	for _, d := range m.docs {
		ids = append(ids, d.ID())
	}
	return ids
}

// EligibleDocuments returns the ids of operable documents in enumeration order.
func (m *Manager) EligibleDocuments() []DocumentID {
	var ids []DocumentID
	for _, d := range m.docs {
		if d.Operable() {
			ids = append(ids, d.ID())
		}
	}
	return ids
}

func (m *Manager) Document(id DocumentID) (Document, error) {
	doc, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return doc, nil
}

// Close releases every document. The first error is returned.
func (m *Manager) Close() error {
	var first error
	for _, d := range m.docs {
		if err := d.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
