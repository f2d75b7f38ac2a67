// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearestFindsCloseTypo(t *testing.T) {
	got := Nearest("pgae", []string{"page", "pages", "images", "text"})
	assert.Equal(t, "page", got)
}

func TestNearestExactCaseInsensitive(t *testing.T) {
	got := Nearest("TEXT", []string{"text", "images"})
	assert.Equal(t, "text", got)
}

func TestNearestNoPlausibleMatch(t *testing.T) {
	got := Nearest("zzzzzzzzzz", []string{"text", "images", "page"})
	assert.Equal(t, "", got)
}

func TestNearestEmptyCandidates(t *testing.T) {
	assert.Equal(t, "", Nearest("text", nil))
}
