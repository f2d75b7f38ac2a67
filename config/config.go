// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config holds the policy knobs the spec leaves as documented
// defaults rather than literal constants: truncation thresholds, size
// budgets, and the plugin discovery path. Each is overridable through an
// environment variable and falls back to a Default* constant, mirroring
// the teacher's internal/contract package.
package config

import (
	"os"
	"strconv"
)

const (
	// DefaultTruncateChars is refine.truncate's character budget when the
	// DSL and call site don't override it. The original implementation
	// hard-coded 5000; this module keeps the value but makes it a policy
	// knob, per the Open Question resolution in DESIGN.md.
	DefaultTruncateChars = 5000

	// DefaultSizeBudgetBytes is the eager size-probe budget for
	// repository-like loaders and URL downloads (§5).
	DefaultSizeBudgetBytes int64 = 64 << 20

	// EnvTruncateChars overrides DefaultTruncateChars.
	EnvTruncateChars = "ATTACH_TRUNCATE_CHARS"

	// EnvSizeBudgetBytes overrides DefaultSizeBudgetBytes.
	EnvSizeBudgetBytes = "ATTACH_SIZE_BUDGET_BYTES"

	// EnvPluginPath names a directory or colon-separated file list of
	// external plugin modules to discover at startup (§6).
	EnvPluginPath = "ATTACH_PLUGIN_PATH"
)

// Config is the resolved set of policy knobs for one process.
type Config struct {
	TruncateChars   int
	SizeBudgetBytes int64
	PluginPath      string
}

// Load reads the environment once and returns the effective configuration,
// falling back to documented defaults for anything unset or invalid.
func Load() Config {
	return Config{
		TruncateChars:   truncateCharsFromEnv(),
		SizeBudgetBytes: sizeBudgetFromEnv(),
		PluginPath:      os.Getenv(EnvPluginPath),
	}
}

func truncateCharsFromEnv() int {
	if v := os.Getenv(EnvTruncateChars); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultTruncateChars
}

func sizeBudgetFromEnv() int64 {
	if v := os.Getenv(EnvSizeBudgetBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSizeBudgetBytes
}
