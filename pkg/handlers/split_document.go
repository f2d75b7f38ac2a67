// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"regexp"
	"strconv"

	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

// splitPagesHandler splits a Document's Units into one chunk per
// page/slide, in order (§4.7).
var splitPagesHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "pages",
	Dispatch: registry.Exact(attachment.ObjectKindDocument),
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		doc := a.Obj.Document
		if doc == nil {
			return attachment.NewCollection(a, "pages", nil), nil
		}
		return collectionFromDocUnits(a, "pages", doc.Units), nil
	},
}

// splitSlidesHandler is an alias of pages for slide-deck-shaped
// Documents; kept as a distinct named handler so DSL callers can write
// [split:slides] against a presentation source for self-documenting
// intent even though the mechanics are identical.
var splitSlidesHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "slides",
	Dispatch: registry.Exact(attachment.ObjectKindDocument),
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		doc := a.Obj.Document
		if doc == nil {
			return attachment.NewCollection(a, "slides", nil), nil
		}
		return collectionFromDocUnits(a, "slides", doc.Units), nil
	},
}

// headingPattern matches an HTML heading tag opening, capturing its
// level (1-6), for sections-by-heading splitting.
var headingPattern = regexp.MustCompile(`(?i)<h([1-6])[^>]*>`)

// splitSectionsHandler splits HTML Text by heading levels (§4.7). The
// DSL "level" parameter selects which heading tag starts a new section
// (default h2); content before the first matching heading becomes its
// own leading section.
var splitSectionsHandler = &registry.HandlerRecord{
	Kind:     registry.KindSplit,
	Name:     "sections",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Params: []registry.Param{
		{Name: "level", Kind: registry.ParamInt, Default: 2},
	},
	Split: func(ctx context.Context, a *attachment.Attachment, params registry.Params) (*attachment.Collection, error) {
		level := params.Int("level")
		text := textOf(a)

		locs := headingPattern.FindAllStringSubmatchIndex(text, -1)
		var sections []string
		last := 0
		for _, loc := range locs {
			lvl := text[loc[2]:loc[3]]
			if lvl != strconv.Itoa(level) {
				continue
			}
			if loc[0] > last {
				sections = append(sections, text[last:loc[0]])
			}
			last = loc[0]
		}
		sections = append(sections, text[last:])
		return collectionFromTexts(a, "sections", nonEmpty(sections)), nil
	},
}

func collectionFromDocUnits(source *attachment.Attachment, kind string, units []string) *attachment.Collection {
	items := make([]*attachment.Attachment, len(units))
	for i, u := range units {
		chunk := attachment.New(source.Input, source.Path, attachment.NewCommands())
		chunk.Obj = attachment.Object{Kind: attachment.ObjectKindText, Text: u}
		items[i] = chunk
	}
	return attachment.NewCollection(source, kind, items)
}
