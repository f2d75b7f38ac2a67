// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"regexp"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/kraklabs/attachments/config"
	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

// truncateHandler caps att.Text at a character budget, the DSL "chars"
// parameter overriding the config.Load() value (ATTACH_TRUNCATE_CHARS, else
// config.DefaultTruncateChars), which is read once when the package is
// initialized (§4.9: "truncate text to a character budget").
var truncateHandler = &registry.HandlerRecord{
	Kind:     registry.KindRefine,
	Name:     "truncate",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Params: []registry.Param{
		{Name: "chars", Kind: registry.ParamInt, Default: config.Load().TruncateChars},
	},
	Refine: func(ctx context.Context, item attachment.Item, params registry.Params) (*attachment.Attachment, error) {
		a := item.Single
		if a == nil {
			return nil, errs.HandlerFailure("truncate", fmt.Errorf("truncate is not a reducer"))
		}
		limit := params.Int("chars")
		runes := []rune(a.Text)
		if limit > 0 && len(runes) > limit {
			a.Text = string(runes[:limit]) + "…"
			a.Metadata["truncated"] = true
			a.Metadata["truncated_from_chars"] = len(runes)
		}
		return a, nil
	},
}

var whitespaceRun = regexp.MustCompile(`[ \t]+`)
var blankLineRun = regexp.MustCompile(`\n{3,}`)

// cleanHandler collapses repeated whitespace and blank lines, a tidy-up
// pass before ADAPT (§4.9: "clean: normalize whitespace").
var cleanHandler = &registry.HandlerRecord{
	Kind:     registry.KindRefine,
	Name:     "clean",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Refine: func(ctx context.Context, item attachment.Item, params registry.Params) (*attachment.Attachment, error) {
		a := item.Single
		if a == nil {
			return nil, errs.HandlerFailure("clean", fmt.Errorf("clean is not a reducer"))
		}
		cleaned := whitespaceRun.ReplaceAllString(a.Text, " ")
		cleaned = blankLineRun.ReplaceAllString(cleaned, "\n\n")
		a.Text = strings.TrimSpace(cleaned)
		return a, nil
	},
}

// headerHandler prefixes att.Text with a "### <path>" heading, giving
// downstream ADAPT output a stable per-source label (§4.9: "header:
// prefix a source label").
var headerHandler = &registry.HandlerRecord{
	Kind:     registry.KindRefine,
	Name:     "header",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Refine: func(ctx context.Context, item attachment.Item, params registry.Params) (*attachment.Attachment, error) {
		a := item.Single
		if a == nil {
			return nil, errs.HandlerFailure("header", fmt.Errorf("header is not a reducer"))
		}
		label := a.Path
		if orig, ok := a.Metadata["original_path"].(string); ok && orig != "" {
			label = orig
		}
		a.Text = fmt.Sprintf("### %s\n\n%s", label, a.Text)
		return a, nil
	},
}

// resizeHandler scales a RasterImage to fit within max_width/max_height,
// preserving aspect ratio (§4.9: "resize: bound image dimensions").
var resizeHandler = &registry.HandlerRecord{
	Kind:     registry.KindRefine,
	Name:     "resize",
	Dispatch: registry.Exact(attachment.ObjectKindImage),
	Params: []registry.Param{
		{Name: "max_width", Kind: registry.ParamInt, Default: 1024},
		{Name: "max_height", Kind: registry.ParamInt, Default: 1024},
	},
	Refine: func(ctx context.Context, item attachment.Item, params registry.Params) (*attachment.Attachment, error) {
		a := item.Single
		if a == nil || a.Obj.Img == nil {
			return a, nil
		}
		maxW, maxH := params.Int("max_width"), params.Int("max_height")
		raster := a.Obj.Img
		if raster.Width <= maxW && raster.Height <= maxH {
			return a, nil
		}

		scale := minFloat(float64(maxW)/float64(raster.Width), float64(maxH)/float64(raster.Height))
		newW := maxInt(1, int(float64(raster.Width)*scale))
		newH := maxInt(1, int(float64(raster.Height)*scale))

		src, err := decodeRaster(raster)
		if err != nil {
			return nil, errs.HandlerFailure("resize", err)
		}
		dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
		xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)

		encoded, err := encodeRaster(dst, raster.Format)
		if err != nil {
			return nil, errs.HandlerFailure("resize", err)
		}
		a.Obj.Img = &attachment.RasterImage{Format: raster.Format, Width: newW, Height: newH, Pixels: encoded}
		return a, nil
	},
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// tileHandler is a reducer: it composes every image member of a collection
// into a single grid-tiled raster, used when a provider caps the number of
// image parts per message (§4.9: "tile: merge a collection of images into
// one grid"; §9 design note on reducer refiners).
var tileHandler = &registry.HandlerRecord{
	Kind:      registry.KindRefine,
	Name:      "tile",
	Dispatch:  registry.Exact(attachment.ObjectKindImage),
	IsReducer: true,
	Params: []registry.Param{
		{Name: "columns", Kind: registry.ParamInt, Default: 3},
	},
	Refine: func(ctx context.Context, item attachment.Item, params registry.Params) (*attachment.Attachment, error) {
		members := item.Attachments()
		var rasters []*attachment.RasterImage
		for _, m := range members {
			if m.Obj.Img != nil {
				rasters = append(rasters, m.Obj.Img)
			}
		}
		if len(rasters) == 0 {
			if len(members) == 0 {
				return nil, errs.HandlerFailure("tile", fmt.Errorf("no members to tile"))
			}
			return members[0], nil
		}

		cols := params.Int("columns")
		if cols <= 0 {
			cols = 1
		}
		rows := (len(rasters) + cols - 1) / cols

		cellW, cellH := 0, 0
		decoded := make([]image.Image, len(rasters))
		for i, r := range rasters {
			img, err := decodeRaster(r)
			if err != nil {
				return nil, errs.HandlerFailure("tile", err)
			}
			decoded[i] = img
			b := img.Bounds()
			if b.Dx() > cellW {
				cellW = b.Dx()
			}
			if b.Dy() > cellH {
				cellH = b.Dy()
			}
		}

		canvas := image.NewRGBA(image.Rect(0, 0, cellW*cols, cellH*rows))
		for i, img := range decoded {
			col, row := i%cols, i/cols
			dstRect := image.Rect(col*cellW, row*cellH, col*cellW+img.Bounds().Dx(), row*cellH+img.Bounds().Dy())
			draw.Draw(canvas, dstRect, img, img.Bounds().Min, draw.Over)
		}

		encoded, err := encodeRaster(canvas, rasters[0].Format)
		if err != nil {
			return nil, errs.HandlerFailure("tile", err)
		}

		source := members[0]
		out := attachment.New(source.Input, source.Path, source.Commands.Clone())
		out.Obj = attachment.Object{Kind: attachment.ObjectKindImage, Img: &attachment.RasterImage{
			Format: rasters[0].Format,
			Width:  cellW * cols,
			Height: cellH * rows,
			Pixels: encoded,
		}}
		out.Metadata["tiled_from"] = len(rasters)
		return out, nil
	},
}
