// Package config loads augur settings from TOML, YAML, or JSON files and
// maps them onto the analyzer option surfaces.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/corvida/augur/pkg/analyzer/detect"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds every tunable surfaced by the CLI and the MCP server.
type Config struct {
	Exclude     ExcludeConfig     `koanf:"exclude"`
	MaxFileSize int64             `koanf:"max_file_size"`
	Workers     int               `koanf:"workers"`
	Detect      DetectConfig      `koanf:"detect"`
	Fingerprint FingerprintConfig `koanf:"fingerprint"`
	Plan        PlanConfig        `koanf:"plan"`
	Map         MapConfig         `koanf:"map"`
	Output      OutputConfig      `koanf:"output"`
}

// ExcludeConfig controls which paths are skipped during scanning.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// DetectConfig tunes the issue detectors.
type DetectConfig struct {
	Categories  []string `koanf:"categories"`
	RulesFile   string   `koanf:"rules_file"`
	OnDuplicate string   `koanf:"on_duplicate"`
}

// FingerprintConfig tunes structural duplicate detection.
type FingerprintConfig struct {
	MaxDepth  int `koanf:"max_depth"`
	MinTokens int `koanf:"min_tokens"`
}

// PlanConfig tunes refactoring plan generation.
type PlanConfig struct {
	Percentile int `koanf:"percentile"`
}

// MapConfig tunes repo map rendering. A zero budget renders everything.
type MapConfig struct {
	SignatureCap int `koanf:"signature_cap"`
	Budget       int `koanf:"budget"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `koanf:"format"`
	Color  bool   `koanf:"color"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Exclude: ExcludeConfig{
			Dirs:      []string{"node_modules", "dist", "build", "coverage", ".git"},
			Gitignore: true,
		},
		MaxFileSize: 1 << 20,
		Workers:     runtime.NumCPU(),
		Detect: DetectConfig{
			Categories:  []string{"lint", "security", "type-safety"},
			OnDuplicate: "skip",
		},
		Fingerprint: FingerprintConfig{
			MaxDepth: 50,
		},
		Plan: PlanConfig{
			Percentile: 75,
		},
		Map: MapConfig{
			SignatureCap: 10,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load reads a config file and layers it over the defaults. The parser is
// chosen by file extension; unknown extensions parse as TOML.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserForPath(path)); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func parserForPath(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// configNames lists the file names probed by LoadOrDefault, highest
// priority first.
var configNames = []string{
	"augur.toml", "augur.yaml", "augur.yml", "augur.json",
	".augur.toml", ".augur.yaml", ".augur.yml", ".augur.json",
}

var searchDirs = []string{".", ".augur"}

// LoadOrDefault loads path when it is set. Otherwise it probes the working
// directory and .augur/ for a config file and falls back to the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	for _, dir := range searchDirs {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return Load(candidate)
			}
		}
	}
	return DefaultConfig(), nil
}

// ShouldExclude reports whether path matches an excluded directory name or
// glob pattern. Gitignore handling lives in the scanner, which resolves
// patterns against the repository root.
func (c *Config) ShouldExclude(path string) bool {
	norm := filepath.ToSlash(path)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(norm, "/"+dir+"/") || strings.HasPrefix(norm, dir+"/") {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, norm); ok {
			return true
		}
	}
	return false
}

// DuplicatePolicy maps the configured on_duplicate string to a registry
// policy. An empty string means skip.
func (c DetectConfig) DuplicatePolicy() (detect.OnDuplicate, error) {
	switch strings.ToLower(c.OnDuplicate) {
	case "", "skip":
		return detect.DuplicateSkip, nil
	case "overwrite":
		return detect.DuplicateOverwrite, nil
	case "error":
		return detect.DuplicateError, nil
	case "warn":
		return detect.DuplicateWarn, nil
	default:
		return 0, fmt.Errorf("unknown duplicate policy %q", c.OnDuplicate)
	}
}

// DetectCategories parses the configured category names.
func (c DetectConfig) DetectCategories() ([]detect.Category, error) {
	cats := make([]detect.Category, 0, len(c.Categories))
	for _, name := range c.Categories {
		cat := detect.Category(strings.ToLower(name))
		switch cat {
		case detect.CategoryLint, detect.CategorySecurity, detect.CategoryTypeSafety:
			cats = append(cats, cat)
		default:
			return nil, fmt.Errorf("unknown detect category %q", name)
		}
	}
	return cats, nil
}

// DetectorOptions builds the detector rule options implied by the
// configuration, loading and validating the custom rules file when one is
// set.
func (c *Config) DetectorOptions() ([]detect.DetectorOption, error) {
	policy, err := c.Detect.DuplicatePolicy()
	if err != nil {
		return nil, err
	}
	opts := []detect.DetectorOption{detect.WithDuplicatePolicy(policy)}

	if c.Detect.RulesFile == "" {
		return opts, nil
	}
	rules, err := LoadRules(c.Detect.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", c.Detect.RulesFile, err)
	}
	return append(opts, rules.DetectorOptions()...), nil
}

// defaultTOML is the commented starter config written by augur init.
const defaultTOML = `# augur configuration

max_file_size = 1048576 # skip files larger than this many bytes
workers = 0             # 0 uses all CPUs

[exclude]
patterns = []
dirs = ["node_modules", "dist", "build", "coverage", ".git"]
gitignore = true

[detect]
categories = ["lint", "security", "type-safety"]
rules_file = ""      # JSON file with extra detector rules
on_duplicate = "skip" # skip | overwrite | error | warn

[fingerprint]
max_depth = 50
min_tokens = 0

[plan]
percentile = 75

[map]
signature_cap = 10
budget = 0 # approximate token budget, 0 renders everything

[output]
format = "text" # text | json | markdown | toon
color = true
`

// WriteDefault writes a commented starter config to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return os.WriteFile(path, []byte(defaultTOML), 0o644)
}
