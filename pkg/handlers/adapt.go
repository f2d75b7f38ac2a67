// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"strings"

	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/envelope"
	"github.com/kraklabs/attachments/pkg/registry"
)

// adaptSources collects every Attachment's text (concatenated with chunk
// headers for collection input) and flattened images, honoring the
// text/images content-filter DSL on each member (§4.10). The precedence
// rule — DSL over process defaults, call-site overrides over DSL — is
// enforced by params.Bind already folding DSL values in before this
// function runs; the includeText/includeImages booleans here are the
// call-site override layer, applied last.
func adaptSources(item attachment.Item, includeText, includeImages bool) (string, []attachment.Image) {
	members := item.Attachments()
	var texts []string
	var images []attachment.Image
	for _, m := range members {
		if includeText && categoryEnabled(m, registry.CategoryText) {
			if t := m.Text; t != "" {
				if len(members) > 1 {
					label := m.Path
					if orig, ok := m.Metadata["original_path"].(string); ok && orig != "" {
						label = orig
					}
					texts = append(texts, "### "+label+"\n\n"+t)
				} else {
					texts = append(texts, t)
				}
			}
		}
		if includeImages && categoryEnabled(m, registry.CategoryImage) {
			images = append(images, m.Images...)
		}
	}
	return strings.Join(texts, "\n\n"), images
}

// adaptParams is the shared parameter manifest every provider adapter
// declares: call-site overrides for the text/images content filter, taking
// precedence over the DSL per §4.10.
var adaptParams = []registry.Param{
	{Name: "text", Kind: registry.ParamBool, Default: true},
	{Name: "images", Kind: registry.ParamBool, Default: true},
}

func imageDataURLs(images []attachment.Image) []string {
	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = img.DataURL()
	}
	return urls
}

// chatAdapter emits the Chat-style envelope (§6.1).
var chatAdapter = &registry.HandlerRecord{
	Kind:      registry.KindAdapt,
	Name:      "chat",
	IsReducer: true,
	Params:    adaptParams,
	Adapt: func(ctx context.Context, item attachment.Item, prompt string, params registry.Params) (any, error) {
		text, images := adaptSources(item, params.Bool("text"), params.Bool("images"))
		if prompt != "" {
			text = prompt + "\n\n" + text
		}
		return envelope.NewChat(text, imageDataURLs(images)), nil
	},
}

// responsesAdapter emits the Responses-style envelope (§6.2).
var responsesAdapter = &registry.HandlerRecord{
	Kind:      registry.KindAdapt,
	Name:      "responses",
	IsReducer: true,
	Params:    adaptParams,
	Adapt: func(ctx context.Context, item attachment.Item, prompt string, params registry.Params) (any, error) {
		text, images := adaptSources(item, params.Bool("text"), params.Bool("images"))
		if prompt != "" {
			text = prompt + "\n\n" + text
		}
		return envelope.NewResponses(text, imageDataURLs(images)), nil
	},
}

// claudeAdapter emits the Claude-style envelope (§6.3), which embeds raw
// base64 + media type pairs rather than data URLs.
var claudeAdapter = &registry.HandlerRecord{
	Kind:      registry.KindAdapt,
	Name:      "claude",
	IsReducer: true,
	Params:    adaptParams,
	Adapt: func(ctx context.Context, item attachment.Item, prompt string, params registry.Params) (any, error) {
		text, images := adaptSources(item, params.Bool("text"), params.Bool("images"))
		if prompt != "" {
			text = prompt + "\n\n" + text
		}
		specs := make([]envelope.ImageSpec, len(images))
		for i, img := range images {
			specs[i] = envelope.ImageSpec{MIME: img.MIME, Payload: img.Payload}
		}
		return envelope.NewClaude(text, specs), nil
	},
}
