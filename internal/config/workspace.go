package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrWorkspaceConfigNotFound is returned when a workspace carries no
// .code-atlas.yml.
var ErrWorkspaceConfigNotFound = errors.New("workspace config not found")

// WorkspaceConfig is the optional per-workspace override file
// (.code-atlas.yml at the workspace root).
type WorkspaceConfig struct {
	// ExcludeDirs supplements the built-in ignore set.
	ExcludeDirs []string `yaml:"exclude_dirs"`
	// Parsers overrides the parser command for a language.
	Parsers map[string]ParserOverride `yaml:"parsers"`
}

type ParserOverride struct {
	Command        []string `yaml:"command"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// DefaultWorkspaceConfig returns an empty override set.
func DefaultWorkspaceConfig() *WorkspaceConfig {
	return &WorkspaceConfig{}
}

// LoadWorkspaceConfig reads .code-atlas.yml from the workspace root.
// Returns DefaultWorkspaceConfig with ErrWorkspaceConfigNotFound when the
// file is absent.
func LoadWorkspaceConfig(root string) (*WorkspaceConfig, error) {
	path := filepath.Join(root, ".code-atlas.yml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultWorkspaceConfig(), ErrWorkspaceConfigNotFound
		}
		return nil, fmt.Errorf("failed to read .code-atlas.yml: %w", err)
	}

	cfg := DefaultWorkspaceConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse .code-atlas.yml: %w", err)
	}
	return cfg, nil
}
