// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatShape(t *testing.T) {
	c := NewChat("hello", []string{"data:image/png;base64,AAA="})
	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "user", decoded[0]["role"])

	content := decoded[0]["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0].(map[string]any)["type"])
	assert.Equal(t, "image_url", content[1].(map[string]any)["type"])
	imgURL := content[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,AAA=", imgURL["url"])
}

func TestResponsesShape(t *testing.T) {
	r := NewResponses("hi", []string{"data:image/png;base64,BBB="})
	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	content := decoded[0]["content"].([]any)
	assert.Equal(t, "input_text", content[0].(map[string]any)["type"])
	assert.Equal(t, "input_image", content[1].(map[string]any)["type"])
	assert.Equal(t, "data:image/png;base64,BBB=", content[1].(map[string]any)["image_url"])
}

func TestClaudeShape(t *testing.T) {
	cl := NewClaude("hi", []ImageSpec{{MIME: "image/png", Payload: "CCC="}})
	raw, err := json.Marshal(cl)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	content := decoded[0]["content"].([]any)
	imgPart := content[1].(map[string]any)
	assert.Equal(t, "image", imgPart["type"])
	source := imgPart["source"].(map[string]any)
	assert.Equal(t, "base64", source["type"])
	assert.Equal(t, "image/png", source["media_type"])
	assert.Equal(t, "CCC=", source["data"])
}
