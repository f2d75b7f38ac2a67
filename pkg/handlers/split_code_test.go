// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"strings"
	"testing"

	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

func TestLanguageByExt(t *testing.T) {
	if languageByExt(".go") == nil {
		t.Error("languageByExt(.go) should resolve a grammar")
	}
	if languageByExt(".PY") == nil {
		t.Error("languageByExt should be case-insensitive")
	}
	if languageByExt(".rs") != nil {
		t.Error("languageByExt(.rs) should return nil: no grammar registered")
	}
}

func TestSplitCodeBlocksHandlerSplitsGoFunctions(t *testing.T) {
	src := "package main\n\nfunc First() {}\n\nfunc Second() {\n\treturn\n}\n"
	a := textAttachment(src)
	a.Path = "sample.go"

	coll, err := splitCodeBlocksHandler.Split(ctxBg(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 top-level function blocks", coll.Len())
	}
	if !strings.Contains(coll.Items[0].Obj.Text, "First") {
		t.Errorf("Items[0].Text = %q, want it to contain First()", coll.Items[0].Obj.Text)
	}
	if !strings.Contains(coll.Items[1].Obj.Text, "Second") {
		t.Errorf("Items[1].Text = %q, want it to contain Second()", coll.Items[1].Obj.Text)
	}
}

func TestSplitCodeBlocksHandlerUsesDetectedExtensionMetadata(t *testing.T) {
	src := "package main\n\nfunc Only() {}\n"
	a := textAttachment(src)
	a.Path = "no-extension" // extension must come from metadata, not the path
	a.Metadata["detected_extension"] = ".go"

	coll, err := splitCodeBlocksHandler.Split(ctxBg(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 block detected via metadata extension", coll.Len())
	}
}

func TestSplitCodeBlocksHandlerFallsBackForUnknownLanguage(t *testing.T) {
	a := textAttachment("fn main() {}")
	a.Path = "main.rs"

	coll, err := splitCodeBlocksHandler.Split(ctxBg(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 1 {
		t.Fatalf("Len() = %d, want the whole text as one block for an unsupported language", coll.Len())
	}
	if coll.Items[0].Obj.Text != "fn main() {}" {
		t.Errorf("Items[0].Text = %q, want the full source unchanged", coll.Items[0].Obj.Text)
	}
}
