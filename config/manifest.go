// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// PluginManifest describes one external plugin module discovered under
// EnvPluginPath. Plugins self-register by calling the registration
// interface once loaded; the manifest only carries the metadata needed to
// find and identify the module before that happens.
type PluginManifest struct {
	Name        string            `yaml:"name" toml:"name"`
	Path        string            `yaml:"path" toml:"path"`
	Description string            `yaml:"description,omitempty" toml:"description,omitempty"`
	StrictDSL   []string          `yaml:"strict_commands,omitempty" toml:"strict_commands,omitempty"`
	Options     map[string]string `yaml:"options,omitempty" toml:"options,omitempty"`
}

// ProjectManifest is the `.attach.yaml` / `.attach.toml` project file: a
// list of plugin manifests. Either extension is
// accepted; YAML is tried first for parity with the teacher's project
// config, TOML second via the pack's go-toml/v2 dependency.
type ProjectManifest struct {
	Plugins []PluginManifest `yaml:"plugins,omitempty" toml:"plugins,omitempty"`
}

// LoadProjectManifest reads a `.attach.yaml` or `.attach.toml` file from
// dir. Returns a zero-value manifest, no error, if neither file exists.
func LoadProjectManifest(dir string) (ProjectManifest, error) {
	for _, name := range []string{".attach.yaml", ".attach.yml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			var m ProjectManifest
			if err := yaml.Unmarshal(data, &m); err != nil {
				return ProjectManifest{}, fmt.Errorf("parse %s: %w", name, err)
			}
			return m, nil
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, ".attach.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return ProjectManifest{}, nil
		}
		return ProjectManifest{}, err
	}
	var m ProjectManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return ProjectManifest{}, fmt.Errorf("parse .attach.toml: %w", err)
	}
	return m, nil
}

// PluginSearchPaths splits EnvPluginPath on the OS path-list separator,
// matching the single optional environment variable described in §6.
func (c Config) PluginSearchPaths() []string {
	if c.PluginPath == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(c.PluginPath, string(os.PathListSeparator)) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
