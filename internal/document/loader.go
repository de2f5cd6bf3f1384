package document

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	nfs "github.com/tormodhaugland/nodepick/internal/fs"
)

// LoadOptions configures Load.
type LoadOptions struct {
	// Root is the directory document ids are relative to.
	Root string

	// ReadOnly lists doublestar patterns of documents that operations may not
	// target.
	ReadOnly []string

	// MaxFileSize skips files larger than this many bytes. Zero means 4 MiB.
	MaxFileSize int64

	// Workers is the number of concurrent parsers. Zero means 4.
	Workers int

	MarkupLabels map[string]string
}

// Discover walks root and returns the slash-separated paths, relative to root,
// of the files matching any of patterns and no exclude. Paths are sorted.
func Discover(root string, patterns []string, excludes *nfs.ExcludeList) ([]string, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid document pattern %q", p)
		}
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if excludes.Match(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, rel); ok {
				found = append(found, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering documents in %s: %w", root, err)
	}

	sort.Strings(found)
	return found, nil
}

// Load parses the documents at paths, relative to opts.Root, and returns a
// Manager holding them in the order of paths. Files that cannot be read or
// parsed are skipped with a warning.
func Load(ctx context.Context, paths []string, opts LoadOptions) (*Manager, error) {
	opts = opts.withDefaults()

	type loadResult struct {
		index int
		doc   Document
		err   error
	}

	type job struct {
		index int
		path  string
	}

	jobChan := make(chan job, len(paths))
	resultChan := make(chan loadResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				doc, err := LoadFile(ctx, j.path, opts)
				resultChan <- loadResult{index: j.index, doc: doc, err: err}
			}
		}()
	}

	go func() {
		for i, p := range paths {
			jobChan <- job{index: i, path: p}
		}
		close(jobChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	docs := make([]Document, len(paths))
	for result := range resultChan {
		if result.err != nil {
			slog.Warn("skipping document", "path", paths[result.index], "error", result.err)
			continue
		}
		docs[result.index] = result.doc
	}

	if err := ctx.Err(); err != nil {
		for _, d := range docs {
			if d != nil {
				_ = d.Close()
			}
		}
		return nil, err
	}

	m := NewManager()
	for _, d := range docs {
		if d == nil {
			continue
		}
		if err := m.Add(d); err != nil {
			_ = m.Close()
			return nil, err
		}
	}
	slog.Debug("documents loaded", "requested", len(paths), "loaded", m.Len())
	return m, nil
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = 4 * 1024 * 1024
	}
	return o
}

// LoadFile parses the single document at rel, relative to opts.Root.
func LoadFile(ctx context.Context, rel string, opts LoadOptions) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	lang := DetectLanguage(rel)
	if lang == "" {
		return nil, fmt.Errorf("unsupported file type: %s", rel)
	}

	full := filepath.Join(opts.Root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if info.Size() > opts.MaxFileSize {
		return nil, fmt.Errorf("file is %d bytes, limit is %d", info.Size(), opts.MaxFileSize)
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}

	parseOpts := ParseOptions{
		Operable:     isOperable(rel, info.Mode(), opts.ReadOnly),
		MarkupLabels: opts.MarkupLabels,
	}

	id := DocumentID(rel)
	if lang == LanguageXML {
		return ParseXML(id, bytes.NewReader(content), parseOpts)
	}
	return ParseSource(ctx, id, lang, content, parseOpts)
}

// isOperable reports whether a document may be targeted by operations: it must
// be writable by its owner and match no read-only pattern.
func isOperable(rel string, mode fs.FileMode, readOnly []string) bool {
	if mode.Perm()&0o200 == 0 {
		return false
	}
	for _, p := range readOnly {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	return true
}
