package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tormodhaugland/nodepick/internal/config"
	"github.com/tormodhaugland/nodepick/internal/document"
	"github.com/tormodhaugland/nodepick/internal/linkdb"
	"github.com/tormodhaugland/nodepick/internal/nodes"
	"github.com/tormodhaugland/nodepick/internal/operation"
)

const topicA = `<topic id="a"><title>Intro</title><p id="p1">Hello</p></topic>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setupRoot creates a document root and a config file pointing at it.
func setupRoot(t *testing.T) (root, configPath string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	root = t.TempDir()
	writeFile(t, filepath.Join(root, "a.xml"), topicA)
	writeFile(t, filepath.Join(root, "guide", "b.dita"), `<topic id="b"><title>Guide</title></topic>`)
	writeFile(t, filepath.Join(root, "skip", "c.xml"), `<topic id="c"/>`)
	writeFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(root, ".nodepickignore"), "# local\nskip/\n")

	configPath = filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, "root: "+root+"\nlinks_db: "+filepath.Join(root, "links.db")+"\n")
	return root, configPath
}

func TestParseTarget(t *testing.T) {
	target, err := parseTarget("a.xml#/topic[1]")
	require.NoError(t, err)
	assert.Equal(t, nodes.Target{DocumentID: "a.xml", NodeID: "/topic[1]"}, target)

	for _, bad := range []string{"", "a.xml", "#node", "a.xml#"} {
		_, err := parseTarget(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolveDocument(t *testing.T) {
	ids := []document.DocumentID{"guide/install.dita", "guide/intro.xml", "ref/api.xml"}

	id, err := resolveDocument("ref/api.xml", ids)
	require.NoError(t, err)
	assert.Equal(t, document.DocumentID("ref/api.xml"), id)

	id, err = resolveDocument("api", ids)
	require.NoError(t, err)
	assert.Equal(t, document.DocumentID("ref/api.xml"), id)

	_, err = resolveDocument("zzz", ids)
	assert.Error(t, err)
}

func TestRelativeTo(t *testing.T) {
	root := t.TempDir()

	rel, err := relativeTo(root, filepath.Join(root, "guide", "b.dita"))
	require.NoError(t, err)
	assert.Equal(t, "guide/b.dita", rel)

	_, err = relativeTo(root, filepath.Join(root, "..", "elsewhere.xml"))
	assert.Error(t, err)
}

func TestOpenDocumentsDiscoversByLanguage(t *testing.T) {
	_, configPath := setupRoot(t)
	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	docs, err := openDocuments(context.Background(), cfg, document.LanguageXML, nil)
	require.NoError(t, err)
	defer docs.Close()
	assert.Equal(t, []document.DocumentID{"a.xml", "guide/b.dita"}, docs.DocumentIDs())

	src, err := openDocuments(context.Background(), cfg, "go", nil)
	require.NoError(t, err)
	defer src.Close()
	assert.Empty(t, src.DocumentIDs(), "main.go is not matched by the default patterns")
}

func TestOpenDocumentsExplicitPaths(t *testing.T) {
	root, configPath := setupRoot(t)
	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	docs, err := openDocuments(context.Background(), cfg, "go", []string{filepath.Join(root, "main.go"), filepath.Join(root, "a.xml")})
	require.NoError(t, err)
	defer docs.Close()
	assert.Equal(t, []document.DocumentID{"main.go"}, docs.DocumentIDs())
}

func TestOpenOperations(t *testing.T) {
	_, configPath := setupRoot(t)
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	cfg.Operations = map[string]config.OperationConfig{
		"always": {Command: `sh -c 'echo "{\"enabled\": true}"'`},
	}

	reg, db, err := openOperations(cfg, false)
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.Equal(t, []string{"always", operation.DoNothing}, reg.Names())

	st, err := reg.State(context.Background(), "always", operation.Context{})
	require.NoError(t, err)
	assert.True(t, st.Enabled)

	reg, db, err = openOperations(cfg, true)
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()
	assert.Contains(t, reg.Names(), operation.InsertLink)

	cfg.Operations["broken"] = config.OperationConfig{Command: `"unterminated`}
	_, _, err = openOperations(cfg, false)
	assert.Error(t, err)
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, jsonOut, jsonlOut = "", false, false
	lsProfile, lsSearch, lsQuery, lsTitleQuery = "", "", "", ""
	stateSource, stateData = "", nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLsCommand(t *testing.T) {
	_, configPath := setupRoot(t)

	out, err := execute(t, "--config", configPath, "ls", "--json")
	require.NoError(t, err)
	var idx []nodes.ViewModel
	require.NoError(t, json.Unmarshal([]byte(out), &idx))
	require.Len(t, idx, 3)
	assert.Equal(t, "Intro", idx[0].ShortLabel)
	assert.Equal(t, "Hello", idx[1].ShortLabel)
	assert.Equal(t, "Paragraph", idx[1].MarkupLabel)
	assert.Equal(t, document.DocumentID("guide/b.dita"), idx[2].DocumentID)

	out, err = execute(t, "--config", configPath, "ls", "--search", "GUIDE", "--jsonl")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 1)

	out, err = execute(t, "--config", configPath, "ls", "--search", "nothing-matches")
	require.NoError(t, err)
	assert.Contains(t, out, "No nodes found")

	out, err = execute(t, "--config", configPath, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "DOCUMENT")
	assert.Contains(t, out, "a.xml")
}

func TestLsCommandInvalidQuery(t *testing.T) {
	_, configPath := setupRoot(t)

	_, err := execute(t, "--config", configPath, "ls", "--query", "//*[")
	var invalid *document.InvalidQueryError
	assert.ErrorAs(t, err, &invalid)
}

func TestStateAndLinksCommands(t *testing.T) {
	root, configPath := setupRoot(t)

	out, err := execute(t, "--config", configPath, "state", operation.DoNothing, "a.xml#/topic[1]")
	require.NoError(t, err)
	assert.Equal(t, "enabled\n", out)

	// insert-link needs a source.
	out, err = execute(t, "--config", configPath, "state", operation.InsertLink, "a.xml#/topic[1]")
	require.NoError(t, err)
	assert.Equal(t, "disabled\n", out)

	out, err = execute(t, "--config", configPath, "state", operation.InsertLink, "a.xml#/topic[1]",
		"--source", "guide/b.dita#/topic[1]", "--json")
	require.NoError(t, err)
	var st operation.State
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.Enabled)

	db, err := linkdb.Open(filepath.Join(root, "links.db"))
	require.NoError(t, err)
	_, err = db.AddLink(context.Background(),
		linkdb.Endpoint{DocumentID: "guide/b.dita", NodeID: "/topic[1]"},
		linkdb.Endpoint{DocumentID: "a.xml", NodeID: "/topic[1]"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err = execute(t, "--config", configPath, "state", operation.InsertLink, "a.xml#/topic[1]",
		"--source", "guide/b.dita#/topic[1]")
	require.NoError(t, err)
	assert.Equal(t, "disabled\n", out, "an existing link disables insert-link")

	out, err = execute(t, "--config", configPath, "links", "a.xml#/topic[1]", "--json")
	require.NoError(t, err)
	var links []linkdb.Link
	require.NoError(t, json.Unmarshal([]byte(out), &links))
	require.Len(t, links, 1)
	assert.Equal(t, "guide/b.dita", links[0].Source.DocumentID)

	_, err = execute(t, "--config", configPath, "state", "no-such-op", "a.xml#/topic[1]")
	assert.ErrorIs(t, err, operation.ErrUnknownOperation)
}

func TestProfilesCommand(t *testing.T) {
	_, configPath := setupRoot(t)

	out, err := execute(t, "--config", configPath, "profiles", "--json")
	require.NoError(t, err)
	var rows []profileRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "link", rows[0].Name)
	assert.Equal(t, operation.InsertLink, rows[0].Operation)
	assert.Equal(t, "go", rows[1].Language)
}

func TestPickOptions(t *testing.T) {
	defer func() {
		pickQuery, pickOperation, pickNode, pickSource, pickData = "", "", "", "", nil
	}()

	cfg := config.DefaultConfig()
	profile, err := cfg.Profile("")
	require.NoError(t, err)

	pickQuery = "//section"
	pickNode = "/topic[1]/section[2]"
	pickSource = "a.xml#/topic[1]"
	pickData = map[string]string{"mode": "xref"}

	opts, err := pickOptions(profile)
	require.NoError(t, err)
	assert.Equal(t, "//section", opts.LinkableElementsQuery)
	assert.Equal(t, "string(./title)", opts.TitleQuery)
	assert.Equal(t, document.NodeID("/topic[1]/section[2]"), opts.NodeID)
	assert.Equal(t, map[string]string{
		"mode":                        "xref",
		operation.KeySourceDocumentID: "a.xml",
		operation.KeySourceNodeID:     "/topic[1]",
	}, opts.Data)

	pickSource = "bad"
	_, err = pickOptions(profile)
	assert.Error(t, err)
}
