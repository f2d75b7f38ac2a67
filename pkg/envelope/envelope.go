// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package envelope defines the three provider-specific message shapes
// ADAPT handlers emit (§6): Chat-style, Responses-style, and Claude-style.
// Each is bit-exact where the receiving API expects it, so these types
// carry explicit json tags rather than reusing a single generic shape —
// mirroring the teacher's ChatRequest/ChatResponse pattern in
// pkg/llm/provider.go, generalized from one wire format to three.
package envelope

// ChatPart is one element of a Chat-style message's content array.
type ChatPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *ChatImageURL `json:"image_url,omitempty"`
}

// ChatImageURL wraps a data URL for a Chat-style image_url part.
type ChatImageURL struct {
	URL string `json:"url"`
}

// ChatMessage is one Chat-style message.
type ChatMessage struct {
	Role    string     `json:"role"`
	Content []ChatPart `json:"content"`
}

// Chat is the full Chat-style envelope: a single user message with a
// mixed text/image content array (§6.1).
type Chat []ChatMessage

// NewChat builds a single-message Chat-style envelope from assembled text
// and a list of base64 data URLs.
func NewChat(text string, imageDataURLs []string) Chat {
	parts := []ChatPart{{Type: "text", Text: text}}
	for _, url := range imageDataURLs {
		parts = append(parts, ChatPart{Type: "image_url", ImageURL: &ChatImageURL{URL: url}})
	}
	return Chat{{Role: "user", Content: parts}}
}

// ResponsesPart is one element of a Responses-style input item's content array.
type ResponsesPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// ResponsesItem is one Responses-style input item.
type ResponsesItem struct {
	Role    string          `json:"role"`
	Content []ResponsesPart `json:"content"`
}

// Responses is the full Responses-style envelope (§6.2).
type Responses []ResponsesItem

// NewResponses builds a single-item Responses-style envelope.
func NewResponses(text string, imageDataURLs []string) Responses {
	parts := []ResponsesPart{{Type: "input_text", Text: text}}
	for _, url := range imageDataURLs {
		parts = append(parts, ResponsesPart{Type: "input_image", ImageURL: url})
	}
	return Responses{{Role: "user", Content: parts}}
}

// ClaudeImageSource is the base64 source descriptor for a Claude-style
// image part.
type ClaudeImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// ClaudePart is one element of a Claude-style message's content array.
type ClaudePart struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Source *ClaudeImageSource `json:"source,omitempty"`
}

// ClaudeMessage is one Claude-style message — the same top-level shape as
// ChatMessage, but with a distinct image part encoding (§6.3).
type ClaudeMessage struct {
	Role    string       `json:"role"`
	Content []ClaudePart `json:"content"`
}

// Claude is the full Claude-style envelope.
type Claude []ClaudeMessage

// ImageSpec pairs an image's MIME type with its bare base64 payload
// (without the data-URL prefix), since Claude-style embeds these
// separately rather than as a single data URL.
type ImageSpec struct {
	MIME    string
	Payload string
}

// NewClaude builds a single-message Claude-style envelope.
func NewClaude(text string, images []ImageSpec) Claude {
	parts := []ClaudePart{{Type: "text", Text: text}}
	for _, img := range images {
		parts = append(parts, ClaudePart{
			Type: "image",
			Source: &ClaudeImageSource{
				Type:      "base64",
				MediaType: img.MIME,
				Data:      img.Payload,
			},
		})
	}
	return Claude{{Role: "user", Content: parts}}
}
