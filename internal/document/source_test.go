package document

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSource = `package main

import "fmt"

func hello() {
	fmt.Println("Hello")
}

type User struct {
	Name string
}

func (u User) Greet() string {
	return "hi " + u.Name
}
`

const goSymbols = `[(function_declaration) (method_declaration) (type_spec)] @node`

func parseGo(t *testing.T) *SourceDocument {
	t.Helper()
	doc, err := ParseSource(context.Background(), "main.go", "go", []byte(goSource), ParseOptions{Operable: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = doc.Close() })
	return doc
}

func TestSourceSelectSymbols(t *testing.T) {
	doc := parseGo(t)

	nodes, err := doc.Select(goSymbols, doc.Root())
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, "function_declaration", doc.NodeName(nodes[0]))
	assert.Equal(t, "type_spec", doc.NodeName(nodes[1]))
	assert.Equal(t, "method_declaration", doc.NodeName(nodes[2]))

	assert.Equal(t, "function", doc.MarkupLabel(nodes[0]))
	assert.Equal(t, "type", doc.MarkupLabel(nodes[1]))
	assert.Equal(t, "method", doc.MarkupLabel(nodes[2]))
	assert.Equal(t, 5, doc.Line(nodes[0]))
}

func TestSourceSelectOnlyNodeCaptures(t *testing.T) {
	doc := parseGo(t)

	nodes, err := doc.Select(`(function_declaration name: (identifier) @name) @node`, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "function_declaration", doc.NodeName(nodes[0]))
}

func TestSourceSelectString(t *testing.T) {
	doc := parseGo(t)

	nodes, err := doc.Select(goSymbols, nil)
	require.NoError(t, err)

	var names []string
	for _, n := range nodes {
		name, err := doc.SelectString(`(_ name: (_) @title)`, n)
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"hello", "User", "Greet"}, names)

	none, err := doc.SelectString(`(interface_type) @title`, nodes[0])
	require.NoError(t, err)
	assert.Equal(t, "", none)
}

func TestSourceNodeIDsAreStable(t *testing.T) {
	a := parseGo(t)
	b := parseGo(t)

	na, err := a.Select(goSymbols, nil)
	require.NoError(t, err)
	nb, err := b.Select(goSymbols, nil)
	require.NoError(t, err)

	assert.Equal(t, nodeIDs(a, na), nodeIDs(b, nb))
	assert.Contains(t, string(a.NodeID(na[0])), "function_declaration:")
}

func TestSourceInvalidQuery(t *testing.T) {
	doc := parseGo(t)

	_, err := doc.Select(`(function_declaration`, nil)
	var invalid *InvalidQueryError
	assert.True(t, errors.As(err, &invalid), "got %v", err)

	_, err = doc.Select(`(no_such_node_type) @node`, nil)
	assert.True(t, errors.As(err, &invalid), "got %v", err)
}

func TestParseSourceUnsupportedLanguage(t *testing.T) {
	_, err := ParseSource(context.Background(), "x.cobol", "cobol", []byte("x"), ParseOptions{})
	assert.Error(t, err)
}

func TestDetectLanguage(t *testing.T) {
	cases := map[string]string{
		"topic.xml":    LanguageXML,
		"map.DITAMAP":  LanguageXML,
		"main.go":      "go",
		"lib/app.py":   "python",
		"index.tsx":    "",
		"README.md":    "",
		"Makefile":     "",
		"src/lib.rs":   "rust",
		"scripts/x.sh": "bash",
	}
	for name, want := range cases {
		if got := DetectLanguage(name); got != want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSourcePreview(t *testing.T) {
	doc := parseGo(t)
	nodes, err := doc.Select(goSymbols, nil)
	require.NoError(t, err)

	text, ok := doc.Preview(doc.NodeID(nodes[0]))
	require.True(t, ok)
	assert.Equal(t, "func hello() {\n\tfmt.Println(\"Hello\")\n}", text)

	_, ok = doc.Preview("function_declaration:10-99999")
	assert.False(t, ok)
	_, ok = doc.Preview("garbage")
	assert.False(t, ok)
}
