package fs

import (
	"bufio"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFileName is the per-root file holding extra exclude patterns.
const IgnoreFileName = ".nodepickignore"

// BuiltinExcludes contains the default patterns skipped during document
// discovery. These target dependency caches and build outputs that hold
// generated copies of documents.
var BuiltinExcludes = []string{
	// === Version control ===
	".git/",
	".hg/",
	".svn/",

	// === Package managers & dependencies ===
	"node_modules/",     // Node.js
	"vendor/",           // Go, PHP, Ruby
	".pnpm-store/",      // pnpm
	"bower_components/", // Bower (legacy)

	// === Build outputs ===
	"target/", // Rust, Scala, Java (Maven)
	"dist/",   // Generic build output
	"build/",  // Generic build output
	"out/",    // Generic build output
	"obj/",    // .NET, C++
	"_build/", // Elixir, Erlang
	".next/",  // Next.js

	// === Caches ===
	".cache/",        // Generic cache
	"__pycache__/",   // Python bytecode
	".pytest_cache/", // pytest
	".mypy_cache/",   // mypy

	// === Virtual environments ===
	".venv/",       // Python venv
	"venv/",        // Python venv (alternate)
	".virtualenv/", // virtualenv

	// === IDE & editors ===
	".idea/",   // JetBrains IDEs
	".vscode/", // VS Code
	"*.swp",    // Vim swap
	"*~",       // Emacs backup
}

// ExcludeList holds the computed effective exclude list.
type ExcludeList struct {
	Patterns []string
}

// ExcludeOptions configures how the exclude list is built.
type ExcludeOptions struct {
	// Additional patterns to add
	Additional []string
	// Patterns to remove from defaults
	Remove []string
	// NoBuiltins drops the built-in defaults entirely
	NoBuiltins bool
}

// BuildExcludeList computes the effective exclude list from all sources.
func BuildExcludeList(opts ExcludeOptions) *ExcludeList {
	patterns := make([]string, 0, len(BuiltinExcludes)+len(opts.Additional))

	removeSet := make(map[string]bool, len(opts.Remove))
	for _, p := range opts.Remove {
		removeSet[p] = true
	}

	if !opts.NoBuiltins {
		for _, p := range BuiltinExcludes {
			if !removeSet[p] {
				patterns = append(patterns, p)
			}
		}
	}

	for _, p := range opts.Additional {
		if !removeSet[p] {
			patterns = append(patterns, p)
		}
	}

	return &ExcludeList{Patterns: dedupePatterns(patterns)}
}

// ParseExcludeFile reads exclude patterns from a file.
// Lines starting with # are comments, blank lines are ignored.
func ParseExcludeFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}

// dedupePatterns removes duplicate patterns while preserving order.
func dedupePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))

	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	return result
}

// Match reports whether the slash-separated relative path rel is excluded.
//
// Patterns ending in / only match directories. Patterns without a slash match
// the base name at any depth. Other patterns are doublestar globs matched
// against the whole relative path.
func (e *ExcludeList) Match(rel string, isDir bool) bool {
	if e == nil {
		return false
	}
	base := path.Base(rel)
	for _, p := range e.Patterns {
		if dir, found := strings.CutSuffix(p, "/"); found {
			if !isDir {
				continue
			}
			p = dir
		}
		var ok bool
		if strings.Contains(p, "/") {
			ok, _ = doublestar.Match(p, rel)
		} else {
			ok, _ = doublestar.Match(p, base)
		}
		if ok {
			return true
		}
	}
	return false
}
