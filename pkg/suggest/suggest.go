// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package suggest implements the "did you mean" correction engine for
// malformed DSL keys and enum values (§4.1, C12): Levenshtein distance
// against a set of known candidates, returning the closest one within a
// distance threshold scaled to the input's length.
package suggest

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// maxRelativeDistance bounds how much a candidate may differ from the
// input, relative to the input's length, before it's no longer considered
// a plausible typo rather than an unrelated word.
const maxRelativeDistance = 0.4

// Nearest returns the candidate in candidates closest to input by
// Levenshtein distance, or "" if none falls within the relative distance
// threshold (or candidates is empty).
func Nearest(input string, candidates []string) string {
	if input == "" || len(candidates) == 0 {
		return ""
	}

	best := ""
	bestDist := -1
	threshold := int(float64(len(input))*maxRelativeDistance) + 1

	for _, cand := range candidates {
		if strings.EqualFold(cand, input) {
			return cand
		}
		sim, err := edlib.StringsSimilarity(input, cand, edlib.Levenshtein)
		if err != nil {
			continue
		}
		d := int((1 - float64(sim)) * float64(maxLen(input, cand)))
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = cand
		}
	}
	if bestDist == -1 || bestDist > threshold {
		return ""
	}
	return best
}

func maxLen(a, b string) int {
	if len(a) > len(b) {
		return len(a)
	}
	return len(b)
}
