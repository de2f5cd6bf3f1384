package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tormodhaugland/nodepick/internal/config"
	"github.com/tormodhaugland/nodepick/internal/document"
	nfs "github.com/tormodhaugland/nodepick/internal/fs"
	"github.com/tormodhaugland/nodepick/internal/linkdb"
	"github.com/tormodhaugland/nodepick/internal/nodes"
	"github.com/tormodhaugland/nodepick/internal/operation"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildExcludes combines the built-in excludes, the config and the ignore
// file at the document root.
func buildExcludes(cfg *config.Config) *nfs.ExcludeList {
	extra := append([]string(nil), cfg.Excludes...)
	patterns, err := nfs.ParseExcludeFile(filepath.Join(cfg.Root, nfs.IgnoreFileName))
	switch {
	case err == nil:
		extra = append(extra, patterns...)
	case !os.IsNotExist(err):
		slog.Warn("reading ignore file", "error", err)
	}
	return nfs.BuildExcludeList(nfs.ExcludeOptions{Additional: extra, NoBuiltins: cfg.NoBuiltinExcludes})
}

// openDocuments loads the documents of one language. Explicit paths are
// resolved against the working directory and must lie under the document
// root; without paths the root is searched with the configured patterns.
func openDocuments(ctx context.Context, cfg *config.Config, language string, paths []string) (*document.Manager, error) {
	var rels []string
	if len(paths) == 0 {
		found, err := document.Discover(cfg.Root, cfg.Documents, buildExcludes(cfg))
		if err != nil {
			return nil, err
		}
		rels = found
	} else {
		for _, p := range paths {
			rel, err := relativeTo(cfg.Root, p)
			if err != nil {
				return nil, err
			}
			rels = append(rels, rel)
		}
	}

	var selected []string
	for _, rel := range rels {
		if document.DetectLanguage(rel) == language {
			selected = append(selected, rel)
		}
	}
	slog.Debug("opening documents", "root", cfg.Root, "language", language, "found", len(rels), "selected", len(selected))

	return document.Load(ctx, selected, document.LoadOptions{
		Root:         cfg.Root,
		ReadOnly:     cfg.ReadOnly,
		MaxFileSize:  cfg.MaxFileSize,
		Workers:      cfg.Workers,
		MarkupLabels: cfg.MarkupLabels,
	})
}

func relativeTo(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the document root %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}

// openOperations registers the built-in and configured operations. The link
// database is opened only when withLinks is set; the caller closes it.
func openOperations(cfg *config.Config, withLinks bool) (*operation.Registry, *linkdb.DB, error) {
	reg := operation.NewRegistry()

	var db *linkdb.DB
	var links operation.LinkStore
	if withLinks {
		var err error
		db, err = linkdb.Open(cfg.LinksDBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open link database: %w", err)
		}
		links = db
	}
	operation.RegisterBuiltins(reg, links)

	for name, oc := range cfg.Operations {
		ec, err := oc.ExecConfig()
		if err == nil {
			var op operation.Operation
			op, err = operation.NewExec(ec)
			if err == nil {
				reg.Register(name, op)
				continue
			}
		}
		if db != nil {
			_ = db.Close()
		}
		return nil, nil, fmt.Errorf("operation %s: %w", name, err)
	}
	return reg, db, nil
}

// resolveDocument matches query against the loaded document ids, exactly
// first and then fuzzily.
func resolveDocument(query string, ids []document.DocumentID) (document.DocumentID, error) {
	names := make([]string, len(ids))
	for i, id := range ids {
		if string(id) == query {
			return id, nil
		}
		names[i] = string(id)
	}

	matches := fuzzy.Find(query, names)
	if len(matches) == 0 {
		return "", fmt.Errorf("no document found matching: %s", query)
	}

	best := matches[0]
	if len(matches) > 1 && matches[0].Score == matches[1].Score {
		fmt.Fprintf(os.Stderr, "Ambiguous match, using: %s\n", best.Str)
	}
	return document.DocumentID(best.Str), nil
}

// parseTarget parses "<document>#<node>".
func parseTarget(s string) (nodes.Target, error) {
	doc, node, ok := strings.Cut(s, "#")
	if !ok || doc == "" || node == "" {
		return nodes.Target{}, fmt.Errorf("invalid target %q, want <document>#<node>", s)
	}
	return nodes.Target{DocumentID: document.DocumentID(doc), NodeID: document.NodeID(node)}, nil
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputJSONL[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

// oneLine collapses whitespace and truncates s for table output.
func oneLine(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
