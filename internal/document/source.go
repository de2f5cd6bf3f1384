package document

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	clang "github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Capture names with special meaning in selectors. When a query declares a
// @node capture only those captures are selected. @title marks the capture
// used by SelectString.
const (
	captureNode  = "node"
	captureTitle = "title"
)

// SourceDocument is a source file parsed with tree-sitter. Selectors are
// tree-sitter queries.
type SourceDocument struct {
	id       DocumentID
	lang     string
	operable bool
	labels   map[string]string
	source   []byte
	tsLang   *sitter.Language
	tree     *sitter.Tree

	// mu guards the tree and the query cache. Node accessors populate a cache
	// inside the tree, so reads are serialized as well.
	mu      sync.Mutex
	queries map[string]*sitter.Query
}

// languageFor returns the tree-sitter grammar for a language name.
func languageFor(lang string) (*sitter.Language, error) {
	switch lang {
	case "go":
		return golang.GetLanguage(), nil
	case "python":
		return python.GetLanguage(), nil
	case "javascript":
		return javascript.GetLanguage(), nil
	case "typescript":
		return typescript.GetLanguage(), nil
	case "rust":
		return rust.GetLanguage(), nil
	case "ruby":
		return ruby.GetLanguage(), nil
	case "java":
		return java.GetLanguage(), nil
	case "c":
		return clang.GetLanguage(), nil
	case "cpp":
		return cpp.GetLanguage(), nil
	case "csharp":
		return csharp.GetLanguage(), nil
	case "bash":
		return bash.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// ParseSource parses source code of the given language.
func ParseSource(ctx context.Context, id DocumentID, lang string, source []byte, opts ParseOptions) (*SourceDocument, error) {
	tsLang, err := languageFor(lang)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(tsLang)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing source: %w", err)
	}

	return &SourceDocument{
		id:       id,
		lang:     lang,
		operable: opts.Operable,
		labels:   mergeLabels(builtinMarkupLabels(lang), opts.MarkupLabels),
		source:   source,
		tsLang:   tsLang,
		tree:     tree,
		queries:  make(map[string]*sitter.Query),
	}, nil
}

func (d *SourceDocument) ID() DocumentID  { return d.id }
func (d *SourceDocument) Language() string { return d.lang }
func (d *SourceDocument) Operable() bool   { return d.operable }

func (d *SourceDocument) Root() Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tree.RootNode()
}

// query returns the compiled query, compiling and caching it on first use.
// Callers must hold d.mu.
func (d *SourceDocument) query(pattern string) (*sitter.Query, error) {
	if q, ok := d.queries[pattern]; ok {
		return q, nil
	}
	q, err := sitter.NewQuery([]byte(pattern), d.tsLang)
	if err != nil {
		return nil, &InvalidQueryError{Query: pattern, Err: err}
	}
	d.queries[pattern] = q
	return q, nil
}

func (d *SourceDocument) contextNode(n Node) (*sitter.Node, error) {
	if n == nil {
		return d.tree.RootNode(), nil
	}
	sn, ok := n.(*sitter.Node)
	if !ok || sn == nil {
		return nil, fmt.Errorf("node %T does not belong to document %s", n, d.id)
	}
	return sn, nil
}

type capturedNode struct {
	node *sitter.Node
	name string
}

// captures runs the query below ctx and returns every capture that passes the
// query predicates. Callers must hold d.mu.
func (d *SourceDocument) captures(pattern string, ctx Node) ([]capturedNode, error) {
	q, err := d.query(pattern)
	if err != nil {
		return nil, err
	}
	root, err := d.contextNode(ctx)
	if err != nil {
		return nil, err
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var out []capturedNode
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, d.source)
		for _, c := range m.Captures {
			out = append(out, capturedNode{node: c.Node, name: q.CaptureNameForId(c.Index)})
		}
	}
	return out, nil
}

// Select runs a tree-sitter query below context and returns the captured
// nodes in document order. Nodes captured more than once are returned once.
func (d *SourceDocument) Select(query string, context Node) ([]Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.captures(query, context)
	if err != nil {
		return nil, err
	}

	hasNodeCapture := false
	for _, c := range caps {
		if c.name == captureNode {
			hasNodeCapture = true
			break
		}
	}

	selected := make([]*sitter.Node, 0, len(caps))
	for _, c := range caps {
		if hasNodeCapture && c.name != captureNode {
			continue
		}
		selected = append(selected, c.node)
	}

	// Document order: outer nodes precede the nodes they contain.
	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if a.StartByte() != b.StartByte() {
			return a.StartByte() < b.StartByte()
		}
		return a.EndByte() > b.EndByte()
	})

	nodes := make([]Node, 0, len(selected))
	seen := make(map[NodeID]bool, len(selected))
	for _, n := range selected {
		id := sourceNodeID(n)
		if seen[id] {
			continue
		}
		seen[id] = true
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// SelectString runs a tree-sitter query below context and returns the text of
// its @title capture, or of any capture when no @title is declared. Among
// several candidates the shallowest wins, then the earliest in the source.
func (d *SourceDocument) SelectString(query string, context Node) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.captures(query, context)
	if err != nil {
		return "", err
	}

	var (
		best      *sitter.Node
		bestTitle bool
		bestDepth int
	)
	for _, c := range caps {
		isTitle := c.name == captureTitle
		depth := nodeDepth(c.node)
		switch {
		case best == nil:
		case isTitle != bestTitle:
			if !isTitle {
				continue
			}
		case depth != bestDepth:
			if depth > bestDepth {
				continue
			}
		case c.node.StartByte() >= best.StartByte():
			continue
		}
		best, bestTitle, bestDepth = c.node, isTitle, depth
	}
	if best == nil {
		return "", nil
	}
	return best.Content(d.source), nil
}

func nodeDepth(n *sitter.Node) int {
	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		depth++
	}
	return depth
}

func (d *SourceDocument) TextContent(n Node) string {
	sn, ok := n.(*sitter.Node)
	if !ok || sn == nil {
		return ""
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return sn.Content(d.source)
}

func (d *SourceDocument) MarkupLabel(n Node) string {
	return d.labels[d.NodeName(n)]
}

func (d *SourceDocument) NodeName(n Node) string {
	sn, ok := n.(*sitter.Node)
	if !ok || sn == nil {
		return ""
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return sn.Type()
}

// NodeID identifies a node by its type and byte range, which is stable for a
// given source.
func (d *SourceDocument) NodeID(n Node) NodeID {
	sn, ok := n.(*sitter.Node)
	if !ok || sn == nil {
		return ""
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return sourceNodeID(sn)
}

func sourceNodeID(n *sitter.Node) NodeID {
	return NodeID(fmt.Sprintf("%s:%d-%d", n.Type(), n.StartByte(), n.EndByte()))
}

// Line returns the 1-indexed first line of n. It is used by previews.
func (d *SourceDocument) Line(n Node) int {
	sn, ok := n.(*sitter.Node)
	if !ok || sn == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(sn.StartPoint().Row) + 1
}

// Preview returns the source text covered by the node with the given id.
func (d *SourceDocument) Preview(id NodeID) (string, bool) {
	start, end, ok := parseSourceNodeID(id)
	if !ok || start > end || end > uint32(len(d.source)) {
		return "", false
	}
	return string(d.source[start:end]), true
}

// parseSourceNodeID splits an id of the form type:start-end.
func parseSourceNodeID(id NodeID) (start, end uint32, ok bool) {
	s := string(id)
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		return 0, 0, false
	}
	from, to, found := strings.Cut(s[colon+1:], "-")
	if !found {
		return 0, 0, false
	}
	a, err := strconv.ParseUint(from, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.ParseUint(to, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint32(a), uint32(b), true
}

func (d *SourceDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, q := range d.queries {
		q.Close()
	}
	d.queries = map[string]*sitter.Query{}
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
	return nil
}
