// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

// languageByExt picks the tree-sitter grammar for code_blocks splitting,
// chosen by the source's detected_extension metadata or file extension.
// Adapted from the teacher's per-language parser set
// (parser_go.go/parser_typescript.go), reduced to boundary detection
// rather than full entity extraction.
func languageByExt(ext string) *sitter.Language {
	switch strings.ToLower(ext) {
	case ".go":
		return golang.GetLanguage()
	case ".js", ".jsx", ".mjs":
		return javascript.GetLanguage()
	case ".py":
		return python.GetLanguage()
	default:
		return nil
	}
}

// topLevelNodeTypes names the AST node kinds treated as one code block
// each, per language family.
var topLevelNodeTypes = map[string]bool{
	"function_declaration": true,
	"method_declaration":   true,
	"type_declaration":     true,
	"function_definition":  true, // python
	"class_definition":     true, // python
	"class_declaration":    true, // js/ts
}

// splitCodeBlocksHandler splits source text into one chunk per top-level
// declaration (function/method/type/class), using tree-sitter to find
// boundaries rather than a brace-counting heuristic (SUPP-3: dropped from
// the distilled spec, recovered from the original's structural-chunking
// behavior via the teacher's parser infrastructure).
var splitCodeBlocksHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "code_blocks",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		ext, _ := a.Metadata["detected_extension"].(string)
		if ext == "" {
			ext = filepath.Ext(a.Path)
		}
		lang := languageByExt(ext)
		text := textOf(a)
		if lang == nil {
			// No grammar for this language: fall back to treating the
			// whole text as a single block rather than failing the split.
			return collectionFromTexts(a, "code_blocks", []string{text}), nil
		}

		parser := sitter.NewParser()
		parser.SetLanguage(lang)
		src := []byte(text)
		tree, err := parser.ParseCtx(ctx, nil, src)
		if err != nil {
			return collectionFromTexts(a, "code_blocks", []string{text}), nil
		}
		defer tree.Close()

		var blocks []string
		root := tree.RootNode()
		for i := 0; i < int(root.NamedChildCount()); i++ {
			child := root.NamedChild(i)
			if topLevelNodeTypes[child.Type()] {
				blocks = append(blocks, string(src[child.StartByte():child.EndByte()]))
			}
		}
		if len(blocks) == 0 {
			blocks = []string{text}
		}
		return collectionFromTexts(a, "code_blocks", blocks), nil
	},
}
