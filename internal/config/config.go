package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up when none is given explicitly.
const DefaultFile = "pagenerator.yaml"

// Comment handling modes.
const (
	CommentsAll  = "all"
	CommentsMeta = "meta"
)

// SiteConfig holds the settings from pagenerator.yaml. Command-line flags
// override these values.
type SiteConfig struct {
	Input        string            `yaml:"input"`
	Output       string            `yaml:"output"`
	Template     string            `yaml:"template"`
	Encoding     string            `yaml:"encoding"`
	Recursive    bool              `yaml:"recursive"`
	Force        bool              `yaml:"force"`
	Breads       []string          `yaml:"breads"`
	Dict         map[string]string `yaml:"dict"`
	Comments     string            `yaml:"comments"`
	Sanitize     bool              `yaml:"sanitize"`
	FrontMatter  bool              `yaml:"front_matter"`
	EditML       bool              `yaml:"editml"`
	RewriteLinks bool              `yaml:"rewrite_links"`
}

// LoadSiteConfig reads and validates the YAML config at path.
func LoadSiteConfig(path string) (SiteConfig, error) {
	cfg := SiteConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Load loads the config at path. An empty path means DefaultFile, which may be
// absent; an explicitly named file must exist.
func Load(path string) (SiteConfig, error) {
	if path != "" {
		return LoadSiteConfig(path)
	}
	cfg, err := LoadSiteConfig(DefaultFile)
	if errors.Is(err, os.ErrNotExist) {
		return SiteConfig{}, nil
	}
	return cfg, err
}

// Validate checks the enumerated settings.
func (c SiteConfig) Validate() error {
	switch c.Comments {
	case "", CommentsAll, CommentsMeta:
	default:
		return fmt.Errorf("comments must be %q or %q, got %q", CommentsAll, CommentsMeta, c.Comments)
	}
	return nil
}

// ParseDict decodes a keyword dictionary given as a JSON object, such as
// {"og_description": "Default"}. An empty string yields an empty dictionary.
func ParseDict(s string) (map[string]string, error) {
	dict := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return dict, nil
	}
	// JSON is a subset of YAML, so the YAML decoder reads it directly.
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		return nil, fmt.Errorf("could not parse keyword dictionary: %w", err)
	}
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("keyword dictionary must be an object")
	}
	if err := node.Content[0].Decode(&dict); err != nil {
		return nil, fmt.Errorf("keyword dictionary values must be strings: %w", err)
	}
	return dict, nil
}

// MergeDict returns a copy of base with every entry of override applied.
func MergeDict(base, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
