// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

var paragraphSep = regexp.MustCompile(`\n\s*\n`)

// splitParagraphsHandler splits Text on blank lines (§4.7).
var splitParagraphsHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "paragraphs",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		parts := paragraphSep.Split(textOf(a), -1)
		return collectionFromTexts(a, "paragraphs", nonEmpty(parts)), nil
	},
}

// splitSentences splits at a sentence terminator (".", "!" or "?")
// followed by whitespace, per §4.7's "preserving Unicode letters"
// requirement — grounded on rivo/uniseg's grapheme-aware segmentation
// rather than a naive ASCII byte scan.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	gr := uniseg.NewGraphemes(text)
	afterTerminator := false
	for gr.Next() {
		seg := gr.Str()
		if afterTerminator && strings.TrimSpace(seg) == "" {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		afterTerminator = seg == "." || seg == "!" || seg == "?"
		cur.WriteString(seg)
	}
	if strings.TrimSpace(cur.String()) != "" {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}

var splitSentencesHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "sentences",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		return collectionFromTexts(a, "sentences", nonEmpty(splitSentences(textOf(a)))), nil
	},
}

// splitTokensHandler approximates token-based chunking as chars÷4,
// the "tokens" DSL parameter selecting the chunk size in tokens (§4.7).
var splitTokensHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "tokens",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Params: []registry.Param{
		{Name: "tokens", Kind: registry.ParamInt, Default: 500},
	},
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		tokens := params.Int("tokens")
		if tokens <= 0 {
			return nil, errs.DSLValue("tokens", "", "")
		}
		chunkChars := tokens * 4
		text := textOf(a)
		var parts []string
		runes := []rune(text)
		for i := 0; i < len(runes); i += chunkChars {
			end := i + chunkChars
			if end > len(runes) {
				end = len(runes)
			}
			parts = append(parts, string(runes[i:end]))
		}
		return collectionFromTexts(a, "tokens", parts), nil
	},
}

// splitCharactersHandler splits into fixed-width chunks, the width taken
// from the "chars" DSL parameter.
var splitCharactersHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "characters",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Params: []registry.Param{
		{Name: "chars", Kind: registry.ParamInt, Default: 1000},
	},
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		width := params.Int("chars")
		if width <= 0 {
			return nil, errs.DSLValue("chars", "", "")
		}
		runes := []rune(textOf(a))
		var parts []string
		for i := 0; i < len(runes); i += width {
			end := i + width
			if end > len(runes) {
				end = len(runes)
			}
			parts = append(parts, string(runes[i:end]))
		}
		return collectionFromTexts(a, "characters", parts), nil
	},
}

// splitLinesHandler splits on newlines, one chunk per line.
var splitLinesHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "lines",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		return collectionFromTexts(a, "lines", nonEmpty(strings.Split(textOf(a), "\n"))), nil
	},
}

// splitCustomHandler splits on a DSL-supplied separator.
var splitCustomHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "custom",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Params: []registry.Param{
		{Name: "sep", Kind: registry.ParamString, Default: "\n"},
	},
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		sep := params.String("sep")
		if sep == "" {
			return nil, errs.DSLValue("sep", sep, "")
		}
		return collectionFromTexts(a, "custom", nonEmpty(strings.Split(textOf(a), sep))), nil
	},
}

func textOf(a *attachment.Attachment) string {
	if a.Obj.Kind == attachment.ObjectKindText {
		return a.Obj.Text
	}
	return a.Text
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func collectionFromTexts(source *attachment.Attachment, kind string, parts []string) *attachment.Collection {
	items := make([]*attachment.Attachment, len(parts))
	for i, p := range parts {
		chunk := attachment.New(source.Input, source.Path, attachment.NewCommands())
		chunk.Obj = attachment.Object{Kind: attachment.ObjectKindText, Text: p}
		items[i] = chunk
	}
	return attachment.NewCollection(source, kind, items)
}
