// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

// categoryEnabled honors the content-filter DSL: [text:false]/[images:false]
// skip a presenter whose Category matches the disabled one (§4.8).
func categoryEnabled(a *attachment.Attachment, category registry.Category) bool {
	if category == "" {
		return true
	}
	key := string(category)
	if category == registry.CategoryImage {
		key = "images" // the DSL spells the image filter [images:false]
	}
	if v, ok := a.Commands.Get(key); ok {
		return v != "false"
	}
	return true
}

// presentTextHandler appends a Text object's content to a.Text.
var presentTextHandler = &registry.HandlerRecord{
	Kind:     registry.KindPresent,
	Name:     "text",
	Dispatch: registry.Exact(attachment.ObjectKindText),
	Category: registry.CategoryText,
	Present: func(ctx context.Context, a *attachment.Attachment, params registry.Params) error {
		if !categoryEnabled(a, registry.CategoryText) {
			return nil
		}
		a.AppendText(a.Obj.Text)
		return nil
	},
}

// presentTableHandler renders a Table as CSV-ish text and appends it.
var presentTableHandler = &registry.HandlerRecord{
	Kind:     registry.KindPresent,
	Name:     "table",
	Dispatch: registry.Exact(attachment.ObjectKindTable),
	Category: registry.CategoryText,
	Present: func(ctx context.Context, a *attachment.Attachment, params registry.Params) error {
		if !categoryEnabled(a, registry.CategoryText) {
			return nil
		}
		a.AppendText(renderTable(a.Obj.Table))
		return nil
	},
}

// presentDocumentHandler joins a Document's units with page-break markers.
var presentDocumentHandler = &registry.HandlerRecord{
	Kind:     registry.KindPresent,
	Name:     "document",
	Dispatch: registry.Exact(attachment.ObjectKindDocument),
	Category: registry.CategoryText,
	Present: func(ctx context.Context, a *attachment.Attachment, params registry.Params) error {
		if !categoryEnabled(a, registry.CategoryText) {
			return nil
		}
		doc := a.Obj.Document
		if doc == nil {
			return nil
		}
		joined := strings.Join(doc.Units, "\n\n---\n\n")
		a.AppendText(joined)
		return nil
	},
}

// presentImageHandler appends a RasterImage as a self-contained data URL
// to a.Images, never overwriting a.Images (§4.8).
var presentImageHandler = &registry.HandlerRecord{
	Kind:     registry.KindPresent,
	Name:     "image",
	Dispatch: registry.Exact(attachment.ObjectKindImage),
	Category: registry.CategoryImage,
	Present: func(ctx context.Context, a *attachment.Attachment, params registry.Params) error {
		if !categoryEnabled(a, registry.CategoryImage) {
			return nil
		}
		img := a.Obj.Img
		if img == nil {
			return nil
		}
		mime := "image/" + img.Format
		if img.Format == "jpg" {
			mime = "image/jpeg"
		}
		a.AppendImages(attachment.Image{MIME: mime, Payload: base64.StdEncoding.EncodeToString(img.Pixels)})
		return nil
	},
}

// presentMetadataHandler surfaces an HTTPResponse's headers-equivalent
// facts into metadata rather than text, honoring the "metadata" category.
var presentMetadataHandler = &registry.HandlerRecord{
	Kind:     registry.KindPresent,
	Name:     "response_metadata",
	Dispatch: registry.Exact(attachment.ObjectKindResponse),
	Category: registry.CategoryMetadata,
	Present: func(ctx context.Context, a *attachment.Attachment, params registry.Params) error {
		if !categoryEnabled(a, registry.CategoryMetadata) {
			return nil
		}
		resp := a.Obj.Response
		if resp == nil {
			return nil
		}
		a.Metadata["response_status"] = resp.StatusCode
		a.Metadata["response_content_type"] = resp.ContentType
		body := resp.Body
		if len(body) > 0 {
			var probe json.RawMessage
			if json.Unmarshal(body, &probe) == nil {
				a.AppendText(fmt.Sprintf("```json\n%s\n```", string(body)))
			} else {
				a.AppendText(string(body))
			}
		}
		return nil
	},
}
