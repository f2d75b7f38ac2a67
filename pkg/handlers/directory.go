// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kraklabs/attachments/config"
	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
)

// loadDirectory walks a.Path (already confirmed to be a directory by
// directoryLoader.Match), running an eager size probe before reading any
// file contents, and assembles one Document Unit per eligible file
// (adapted from RepoLoader.LoadRepository/walkRepository, §5).
func loadDirectory(ctx context.Context, a *attachment.Attachment) error {
	excludeRaw, _ := a.Commands.Get("exclude")
	force := false
	if v, ok := a.Commands.Get("force"); ok {
		force = v == "true"
	}
	excludeGlobs := splitGlobs(excludeRaw)

	cfg := config.Load()
	budget := cfg.SizeBudgetBytes

	var files []string
	var total int64
	err := filepath.WalkDir(a.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(a.Path, path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			if rel != "." && excluded(rel, excludeGlobs) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(rel, excludeGlobs) {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		total += info.Size()
		files = append(files, path)
		return nil
	})
	if err != nil {
		return errs.New(errs.KindLoaderUnavailable, "could not walk directory", err.Error(), "", err)
	}

	if !force && budget > 0 && total > budget {
		return errs.SizeBudgetExceeded("directory", total, budget)
	}

	sort.Strings(files)

	units := make([]string, 0, len(files))
	for _, path := range files {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			continue
		}
		rel, _ := filepath.Rel(a.Path, path)
		units = append(units, fmt.Sprintf("--- %s ---\n%s", filepath.ToSlash(rel), data))
	}

	a.Obj = attachment.Object{Kind: attachment.ObjectKindDocument, Document: &attachment.Document{Units: units}}
	a.Metadata["discovered_size_bytes"] = total
	a.Metadata["file_count"] = len(files)
	return nil
}

func splitGlobs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func excluded(relPath string, globs []string) bool {
	normalized := filepath.ToSlash(relPath)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, normalized); ok {
			return true
		}
	}
	return false
}
