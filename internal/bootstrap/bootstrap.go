// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bootstrap builds the immutable engine (registry + processor
// table) a process runs with: the built-in handlers plus whatever plugin
// manifests are discovered on EnvPluginPath or a project's .attach.yaml,
// mirroring the teacher's InitProject/OpenProject idempotent-setup
// pattern, adapted from CozoDB schema setup to read-only registry
// construction since this module has no persisted state (§6).
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/attachments/config"
	"github.com/kraklabs/attachments/pkg/handlers"
	"github.com/kraklabs/attachments/pkg/processors"
	"github.com/kraklabs/attachments/pkg/registry"
)

// Engine is the immutable set of registries a process runs with, built
// once at startup. Registries are read-only after BuildEngine returns,
// so concurrent Attachments may be processed against the same Engine
// safely (§5: "registries are read-only snapshots after initialization").
type Engine struct {
	Registry   *registry.Registry
	Processors *processors.Table
	Plugins    []config.PluginManifest
}

// BuildEngine assembles the built-in handler set, then discovers and
// records any plugin manifests found on EnvPluginPath and in a
// project manifest rooted at dir (".attach.yaml"/".attach.toml"). Plugin
// *code* loading is intentionally out of scope (see DiscoverPlugins);
// this only wires what the built-in registry + processors table need to
// run the universal pipeline (§4.11).
func BuildEngine(dir string, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("bootstrap.engine.build.start", "dir", dir)

	reg := handlers.Register()
	table := processors.Default(reg)

	manifests, err := DiscoverPlugins(dir)
	if err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	if len(manifests) > 0 {
		logger.Info("bootstrap.engine.plugins.discovered", "count", len(manifests))
	}

	logger.Debug("bootstrap.engine.build.success",
		"loaders", len(reg.Names(registry.KindLoad)),
		"processors", len(table.Names()),
	)

	return &Engine{Registry: reg, Processors: table, Plugins: manifests}, nil
}

// DiscoverPlugins finds plugin manifests from two sources: the project
// manifest at dir/.attach.{yaml,toml}, and every entry on
// config.EnvPluginPath that itself names a manifest file. It never loads
// plugin code — only locates and parses metadata — because Go's dynamic
// `plugin` package requires CGO and has no Windows support, and nothing
// in the retrieved reference pack demonstrates a cross-platform loading
// strategy to ground one on; actual code loading is left as a documented
// extension point for a deployment that controls its own platform target.
func DiscoverPlugins(dir string) ([]config.PluginManifest, error) {
	var out []config.PluginManifest

	if dir != "" {
		proj, err := config.LoadProjectManifest(dir)
		if err != nil {
			return nil, err
		}
		out = append(out, proj.Plugins...)
	}

	cfg := config.Load()
	for _, path := range cfg.PluginSearchPaths() {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			manifests, err := manifestsInDir(path)
			if err != nil {
				return nil, err
			}
			out = append(out, manifests...)
			continue
		}
		m, err := loadManifestFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func manifestsInDir(dir string) ([]config.PluginManifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read plugin dir %s: %w", dir, err)
	}
	var out []config.PluginManifest
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" && ext != ".toml" {
			continue
		}
		m, err := loadManifestFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// loadManifestFile parses the manifest file at path (TOML for a .toml
// extension, YAML otherwise) and returns the first plugin it declares, or
// a manifest named after the file when it declares none.
func loadManifestFile(path string) (config.PluginManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.PluginManifest{}, fmt.Errorf("read plugin manifest %s: %w", path, err)
	}
	var proj config.ProjectManifest
	if filepath.Ext(path) == ".toml" {
		err = toml.Unmarshal(data, &proj)
	} else {
		err = yaml.Unmarshal(data, &proj)
	}
	if err != nil {
		return config.PluginManifest{}, fmt.Errorf("parse plugin manifest %s: %w", path, err)
	}
	if len(proj.Plugins) > 0 {
		return proj.Plugins[0], nil
	}
	return config.PluginManifest{Name: filepath.Base(path), Path: path}, nil
}
