package document

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var errNotNodeSet = errors.New("expression does not evaluate to a node-set")

// XMLDocument is an XML file. Selectors are XPath 1.0 expressions.
type XMLDocument struct {
	id       DocumentID
	operable bool
	labels   map[string]string
	root     *xmlquery.Node

	// order holds the document position of every element. ids holds its
	// positional path.
	order map[*xmlquery.Node]int
	ids   map[*xmlquery.Node]NodeID
	byID  map[NodeID]*xmlquery.Node

	// mu guards the expression cache. Compiled expressions keep iteration
	// state, so evaluation is serialized too.
	mu    sync.Mutex
	exprs map[string]*xpath.Expr
}

// ParseXML reads and indexes an XML document.
func ParseXML(id DocumentID, r io.Reader, opts ParseOptions) (*XMLDocument, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing xml: %w", err)
	}

	doc := &XMLDocument{
		id:       id,
		operable: opts.Operable,
		labels:   mergeLabels(builtinMarkupLabels(LanguageXML), opts.MarkupLabels),
		root:     root,
		order:    make(map[*xmlquery.Node]int),
		ids:      make(map[*xmlquery.Node]NodeID),
		byID:     make(map[NodeID]*xmlquery.Node),
		exprs:    make(map[string]*xpath.Expr),
	}
	doc.order[root] = 0
	doc.ids[root] = "/"
	doc.byID["/"] = root
	doc.indexChildren(root, "")
	return doc, nil
}

// indexChildren assigns document order and positional paths such as
// /topic[1]/body[1]/p[3] to the element children of parent, recursively.
func (d *XMLDocument) indexChildren(parent *xmlquery.Node, prefix string) {
	counts := make(map[string]int)
	for child := parent.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		name := qualifiedName(child)
		counts[name]++
		path := fmt.Sprintf("%s/%s[%d]", prefix, name, counts[name])
		d.order[child] = len(d.order)
		d.ids[child] = NodeID(path)
		d.byID[NodeID(path)] = child
		d.indexChildren(child, path)
	}
}

func qualifiedName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

func (d *XMLDocument) ID() DocumentID  { return d.id }
func (d *XMLDocument) Language() string { return LanguageXML }
func (d *XMLDocument) Operable() bool   { return d.operable }
func (d *XMLDocument) Root() Node       { return d.root }

// compile returns the compiled expression. Callers must hold d.mu.
func (d *XMLDocument) compile(query string) (*xpath.Expr, error) {
	if expr, ok := d.exprs[query]; ok {
		return expr, nil
	}
	expr, err := xpath.Compile(query)
	if err != nil {
		return nil, &InvalidQueryError{Query: query, Err: err}
	}
	d.exprs[query] = expr
	return expr, nil
}

func (d *XMLDocument) contextNode(n Node) (*xmlquery.Node, error) {
	if n == nil {
		return d.root, nil
	}
	xn, ok := n.(*xmlquery.Node)
	if !ok || xn == nil {
		return nil, fmt.Errorf("node %T does not belong to document %s", n, d.id)
	}
	return xn, nil
}

// evaluate runs query with context as the context node. Callers must hold d.mu.
func (d *XMLDocument) evaluate(query string, context Node) (any, error) {
	expr, err := d.compile(query)
	if err != nil {
		return nil, err
	}
	ctx, err := d.contextNode(context)
	if err != nil {
		return nil, err
	}
	return expr.Evaluate(xmlquery.CreateXPathNavigator(ctx)), nil
}

// Select evaluates an XPath expression and returns the matched elements in
// document order. Attribute, text and other non-element nodes are dropped.
func (d *XMLDocument) Select(query string, context Node) ([]Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result, err := d.evaluate(query, context)
	if err != nil {
		return nil, err
	}
	iter, ok := result.(*xpath.NodeIterator)
	if !ok {
		return nil, &InvalidQueryError{Query: query, Err: errNotNodeSet}
	}

	var elems []*xmlquery.Node
	seen := make(map[*xmlquery.Node]bool)
	for iter.MoveNext() {
		nav, ok := iter.Current().(*xmlquery.NodeNavigator)
		if !ok || nav.NodeType() != xpath.ElementNode {
			continue
		}
		n := nav.Current()
		if n.Type != xmlquery.ElementNode || seen[n] {
			continue
		}
		if _, indexed := d.order[n]; !indexed {
			continue
		}
		seen[n] = true
		elems = append(elems, n)
	}

	sort.Slice(elems, func(i, j int) bool {
		return d.order[elems[i]] < d.order[elems[j]]
	})

	nodes := make([]Node, len(elems))
	for i, n := range elems {
		nodes[i] = n
	}
	return nodes, nil
}

// SelectString evaluates an XPath expression and converts the result to a
// string the way XPath string() does.
func (d *XMLDocument) SelectString(query string, context Node) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result, err := d.evaluate(query, context)
	if err != nil {
		return "", err
	}
	switch v := result.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return formatNumber(v), nil
	case *xpath.NodeIterator:
		if v.MoveNext() {
			return v.Current().Value(), nil
		}
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatInt(int64(f), 10)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

func (d *XMLDocument) TextContent(n Node) string {
	xn, ok := n.(*xmlquery.Node)
	if !ok || xn == nil {
		return ""
	}
	return xn.InnerText()
}

func (d *XMLDocument) MarkupLabel(n Node) string {
	return d.labels[d.NodeName(n)]
}

func (d *XMLDocument) NodeName(n Node) string {
	xn, ok := n.(*xmlquery.Node)
	if !ok || xn == nil {
		return ""
	}
	return qualifiedName(xn)
}

// NodeID returns the positional path of an element, e.g. /topic[1]/body[1].
func (d *XMLDocument) NodeID(n Node) NodeID {
	xn, ok := n.(*xmlquery.Node)
	if !ok || xn == nil {
		return ""
	}
	return d.ids[xn]
}

// Markup renders n and its descendants as XML. It is used by previews.
func (d *XMLDocument) Markup(n Node) string {
	xn, ok := n.(*xmlquery.Node)
	if !ok || xn == nil {
		return ""
	}
	return strings.TrimSpace(xn.OutputXML(true))
}

// Preview returns the markup of the element with the given id.
func (d *XMLDocument) Preview(id NodeID) (string, bool) {
	n, ok := d.byID[id]
	if !ok {
		return "", false
	}
	return d.Markup(n), true
}

func (d *XMLDocument) Close() error {
	return nil
}
