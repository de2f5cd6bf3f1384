package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tormodhaugland/nodepick/internal/document"
	"github.com/tormodhaugland/nodepick/internal/operation"
	"github.com/tormodhaugland/nodepick/internal/picker"
)

var ErrUnknownProfile = errors.New("unknown profile")

// Profile is a named picker preset. Language restricts the documents the
// profile opens, since element queries are written for one document kind.
type Profile struct {
	picker.Options `yaml:",inline"`

	// Language of the documents to open. Empty means XML.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// DocumentLanguage returns the language the profile applies to.
func (p Profile) DocumentLanguage() string {
	if p.Language == "" {
		return document.LanguageXML
	}
	return p.Language
}

// OperationConfig is an operation backed by external commands.
type OperationConfig struct {
	Command string `json:"command" yaml:"command"`
	Run     string `json:"run,omitempty" yaml:"run,omitempty"`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// ExecConfig converts c, parsing its timeout.
func (c OperationConfig) ExecConfig() (operation.ExecConfig, error) {
	cfg := operation.ExecConfig{Command: c.Command, Run: c.Run, Dir: c.Dir}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return operation.ExecConfig{}, fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

type Config struct {
	Schema int `json:"schema" yaml:"schema"`

	// Root is the directory documents are discovered under and their ids are
	// relative to.
	Root string `json:"root" yaml:"root"`

	// Documents are doublestar patterns of the files to open.
	Documents []string `json:"documents,omitempty" yaml:"documents,omitempty"`

	Excludes          []string `json:"excludes,omitempty" yaml:"excludes,omitempty"`
	NoBuiltinExcludes bool     `json:"no_builtin_excludes,omitempty" yaml:"no_builtin_excludes,omitempty"`

	// ReadOnly are patterns of documents operations may not target.
	ReadOnly []string `json:"read_only,omitempty" yaml:"read_only,omitempty"`

	MaxFileSize int64 `json:"max_file_size,omitempty" yaml:"max_file_size,omitempty"`
	Workers     int   `json:"workers,omitempty" yaml:"workers,omitempty"`

	LinksDB string `json:"links_db,omitempty" yaml:"links_db,omitempty"`
	LogFile string `json:"log_file,omitempty" yaml:"log_file,omitempty"`

	// MarkupLabels maps element names or node types to display labels.
	MarkupLabels map[string]string `json:"markup_labels,omitempty" yaml:"markup_labels,omitempty"`

	Profiles   map[string]Profile         `json:"profiles,omitempty" yaml:"profiles,omitempty"`
	Operations map[string]OperationConfig `json:"operations,omitempty" yaml:"operations,omitempty"`
}

const (
	CurrentConfigSchema = 1
	DefaultProfile      = "link"
)

// DefaultDocuments are the patterns opened when the config names none.
var DefaultDocuments = []string{"**/*.xml", "**/*.dita", "**/*.ditamap"}

func defaultProfiles() map[string]Profile {
	return map[string]Profile{
		DefaultProfile: {
			Options: picker.Options{
				LinkableElementsQuery:   "//*[@id]",
				TitleQuery:              "string(./title)",
				InsertOperationName:     operation.InsertLink,
				ModalTitle:              "Insert link",
				ModalPrimaryButtonLabel: "Insert link",
				ModalIcon:               "🔗",
			},
		},
		"symbol": {
			Options: picker.Options{
				LinkableElementsQuery:   "[(function_declaration) (method_declaration) (type_spec)] @node",
				TitleQuery:              "(_ name: (_) @title)",
				ModalTitle:              "Go to symbol",
				ModalPrimaryButtonLabel: "Open",
			},
			Language: "go",
		},
	}
}

func DefaultConfig() *Config {
	return &Config{
		Schema:     CurrentConfigSchema,
		Root:       ".",
		Documents:  append([]string(nil), DefaultDocuments...),
		Profiles:   defaultProfiles(),
		Operations: map[string]OperationConfig{},
	}
}

func Load(configPath string) (*Config, error) {
	paths := getConfigPaths(configPath)

	for _, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		cfg := DefaultConfig()
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		cfg.applyDefaults()
		cfg.expandPaths()
		return cfg, nil
	}

	return DefaultConfig(), nil
}

// decode picks the format from the file extension. Profiles from the file
// are merged over the built-in ones.
func decode(path string, data []byte, cfg *Config) error {
	builtin := cfg.Profiles
	cfg.Profiles = nil

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return err
	}

	for name, p := range builtin {
		if _, ok := cfg.Profiles[name]; !ok {
			if cfg.Profiles == nil {
				cfg.Profiles = map[string]Profile{}
			}
			cfg.Profiles[name] = p
		}
	}
	return nil
}

func getConfigPaths(explicit string) []string {
	var paths []string

	if explicit != "" {
		paths = append(paths, explicit)
	}

	dir := filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "nodepick")
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		paths = append(paths, filepath.Join(dir, name))
	}

	return paths
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, fallback)
}

func (c *Config) applyDefaults() {
	if c.Schema == 0 {
		c.Schema = CurrentConfigSchema
	}
	if c.Root == "" {
		c.Root = "."
	}
	if len(c.Documents) == 0 {
		c.Documents = append([]string(nil), DefaultDocuments...)
	}
}

func (c *Config) expandPaths() {
	c.Root = expandHome(c.Root)
	c.LinksDB = expandHome(c.LinksDB)
	c.LogFile = expandHome(c.LogFile)

	for name, op := range c.Operations {
		op.Dir = expandHome(op.Dir)
		c.Operations[name] = op
	}
}

func expandHome(p string) string {
	if len(p) == 0 || p[0] != '~' {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, p[1:])
}

// Profile returns the named profile, DefaultProfile when name is empty.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s (have %s)", ErrUnknownProfile, name, strings.Join(c.ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames returns the configured profile names, sorted.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DataDir holds state written by nodepick, such as the link database.
func (c *Config) DataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), "nodepick")
}

func (c *Config) LinksDBPath() string {
	if c.LinksDB != "" {
		return c.LinksDB
	}
	return filepath.Join(c.DataDir(), "links.db")
}

// LogPath is the log file of interactive sessions. Empty disables logging
// while the picker owns the terminal.
func (c *Config) LogPath() string {
	return c.LogFile
}
