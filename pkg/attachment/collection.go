// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Collection is the ordered sequence of Attachments a SPLIT produces.
// Order preserves producer-defined iteration (page order, paragraph
// order, …); every member carries metadata.original_path, chunk_index,
// and total_chunks per the invariants in spec.md §3.
type Collection struct {
	Items []*Attachment
}

// NewCollection wraps items as a Collection, stamping the required
// per-chunk metadata (original_path/chunk_index/total_chunks/chunk_id) on
// every member, overwriting earlier values. A member keeps its Path only
// when it already has both a Path and a chunk_index; otherwise it gets a
// synthetic path built from kind, the SPLIT handler's short name (e.g.
// "paragraphs").
func NewCollection(source *Attachment, kind string, items []*Attachment) *Collection {
	total := len(items)
	for i, it := range items {
		if it.Path == "" || it.Metadata["chunk_index"] == nil {
			it.Path = fmt.Sprintf("%s#%s-%d", source.Path, kind, i+1)
		}
		it.Metadata["original_path"] = source.Path
		it.Metadata["chunk_index"] = i
		it.Metadata["total_chunks"] = total
		it.Metadata["chunk_id"] = ChunkID(source.Path, kind, i)
		it.Commands = source.Commands.Clone()
	}
	return &Collection{Items: items}
}

// ChunkID is the deterministic content id assigned to each SPLIT chunk:
// sha256(original_path + "#" + kind + "-" + index), first 16 bytes,
// hex-encoded. Grounded on the teacher's GenerateFileID strategy
// (pkg/ingestion/ids.go) rather than a random UUID, so ids are stable
// across repeated runs on the same input (§8 properties require this).
func ChunkID(originalPath, kind string, index int) string {
	raw := fmt.Sprintf("%s#%s-%d", originalPath, kind, index)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16])
}

// Len returns the number of members.
func (c *Collection) Len() int {
	return len(c.Items)
}

// Texts returns each member's Text in order, a convenience for the
// vectorization-law tests in §8.
func (c *Collection) Texts() []string {
	out := make([]string, len(c.Items))
	for i, it := range c.Items {
		out[i] = it.Text
	}
	return out
}
