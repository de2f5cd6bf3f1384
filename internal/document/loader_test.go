package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nfs "github.com/tormodhaugland/nodepick/internal/fs"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.xml":                "<a/>",
		"b/c.go":               "package b\n",
		"b/notes.txt":          "skip",
		"node_modules/x.xml":   "<x/>",
		"ro/d.xml":             "<d/>",
		"drafts/wip/draft.xml": "<w/>",
	})

	excludes := nfs.BuildExcludeList(nfs.ExcludeOptions{Additional: []string{"drafts/"}})
	paths, err := Discover(root, []string{"**/*.xml", "**/*.go"}, excludes)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xml", "b/c.go", "ro/d.xml"}, paths)
}

func TestDiscoverInvalidPattern(t *testing.T) {
	_, err := Discover(t.TempDir(), []string{"[a-"}, nil)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.xml":    "<a><p>one</p></a>",
		"b/c.go":   "package b\n\nfunc F() {}\n",
		"big.xml":  "<big>" + strings.Repeat("x", 2048) + "</big>",
		"ro/d.xml": "<d/>",
		"bad.xml":  "<a><b></a>",
	})

	paths := []string{"a.xml", "bad.xml", "big.xml", "b/c.go", "ro/d.xml"}
	m, err := Load(context.Background(), paths, LoadOptions{
		Root:        root,
		ReadOnly:    []string{"ro/**"},
		MaxFileSize: 1024,
		Workers:     2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	assert.Equal(t, []DocumentID{"a.xml", "b/c.go", "ro/d.xml"}, m.DocumentIDs())
	assert.Equal(t, []DocumentID{"a.xml", "b/c.go"}, m.EligibleDocuments())

	doc, err := m.Document("b/c.go")
	require.NoError(t, err)
	assert.Equal(t, "go", doc.Language())
}

func TestLoadWriteProtectedIsNotOperable(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"locked.xml": "<a/>"})
	require.NoError(t, os.Chmod(filepath.Join(root, "locked.xml"), 0444))

	m, err := Load(context.Background(), []string{"locked.xml"}, LoadOptions{Root: root})
	require.NoError(t, err)
	assert.Equal(t, []DocumentID{"locked.xml"}, m.DocumentIDs())
	assert.Empty(t, m.EligibleDocuments())
}

func TestLoadCancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.xml": "<a/>"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, []string{"a.xml"}, LoadOptions{Root: root})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestManager(t *testing.T) {
	m := NewManager()
	a, err := ParseXML("a.xml", strings.NewReader("<a/>"), ParseOptions{Operable: true})
	require.NoError(t, err)
	b, err := ParseXML("b.xml", strings.NewReader("<b/>"), ParseOptions{})
	require.NoError(t, err)

	require.NoError(t, m.Add(a))
	require.NoError(t, m.Add(b))
	assert.True(t, errors.Is(m.Add(a), ErrDuplicateDocument))

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []DocumentID{"a.xml", "b.xml"}, m.DocumentIDs())
	assert.Equal(t, []DocumentID{"a.xml"}, m.EligibleDocuments())

	_, err = m.Document("missing.xml")
	assert.True(t, errors.Is(err, ErrDocumentNotFound))
}
