// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"testing"

	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

func textAttachment(text string) *attachment.Attachment {
	a := attachment.New("src.txt", "src.txt", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindText, Text: text}
	a.Text = text
	return a
}

func bindDefaults(t *testing.T, manifest []registry.Param, overrides map[string]string) registry.Params {
	t.Helper()
	cmds := attachment.NewCommands()
	for k, v := range overrides {
		cmds.Set(k, v)
	}
	params, err := registry.Bind(manifest, cmds)
	if err != nil {
		t.Fatalf("registry.Bind() error = %v", err)
	}
	return params
}

// objTexts reads each member's Obj.Text directly: SPLIT handlers populate
// Obj, not Text (that's PRESENT's job), so collection-content assertions in
// these tests read the object fields a Split() call is actually responsible
// for rather than Collection.Texts(), which reads Text.
func objTexts(coll *attachment.Collection) []string {
	out := make([]string, coll.Len())
	for i, it := range coll.Items {
		out[i] = it.Obj.Text
	}
	return out
}

func TestSplitParagraphsHandler(t *testing.T) {
	a := textAttachment("first paragraph\n\nsecond paragraph\n\n\nthird")
	coll, err := splitParagraphsHandler.Split(context.Background(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if got := objTexts(coll); len(got) != 3 {
		t.Fatalf("Texts() = %v, want 3 paragraphs", got)
	}
}

func TestSplitSentencesHandler(t *testing.T) {
	a := textAttachment("First sentence. Second one! Third?")
	coll, err := splitSentencesHandler.Split(context.Background(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	texts := objTexts(coll)
	if len(texts) != 3 {
		t.Fatalf("Texts() = %v, want 3 sentences", texts)
	}
	if texts[0] != "First sentence." || texts[2] != "Third?" {
		t.Errorf("unexpected sentence split: %v", texts)
	}
}

func TestSplitTokensHandlerDefaultAndOverride(t *testing.T) {
	text := make([]byte, 0, 5000)
	for len(text) < 5000 {
		text = append(text, 'x')
	}
	a := textAttachment(string(text))

	params := bindDefaults(t, splitTokensHandler.Params, nil)
	coll, err := splitTokensHandler.Split(context.Background(), a, params)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	// default tokens=500 -> 2000 chars per chunk, 5000 chars -> 3 chunks.
	if got := coll.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3 (default tokens=500)", got)
	}

	small := bindDefaults(t, splitTokensHandler.Params, map[string]string{"tokens": "10"})
	coll2, err := splitTokensHandler.Split(context.Background(), a, small)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll2.Len() <= coll.Len() {
		t.Errorf("smaller tokens parameter should produce more chunks: got %d, want > %d", coll2.Len(), coll.Len())
	}
}

func TestSplitTokensHandlerRejectsNonPositive(t *testing.T) {
	a := textAttachment("hello")
	params := bindDefaults(t, splitTokensHandler.Params, map[string]string{"tokens": "0"})
	if _, err := splitTokensHandler.Split(context.Background(), a, params); err == nil {
		t.Error("Split() should reject tokens<=0")
	}
}

func TestSplitCharactersHandler(t *testing.T) {
	a := textAttachment("abcdefghij")
	params := bindDefaults(t, splitCharactersHandler.Params, map[string]string{"chars": "4"})
	coll, err := splitCharactersHandler.Split(context.Background(), a, params)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	want := []string{"abcd", "efgh", "ij"}
	got := objTexts(coll)
	if len(got) != len(want) {
		t.Fatalf("Texts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Texts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitLinesHandler(t *testing.T) {
	a := textAttachment("one\ntwo\n\nthree")
	coll, err := splitLinesHandler.Split(context.Background(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if got := objTexts(coll); len(got) != 3 {
		t.Errorf("Texts() = %v, want 3 non-empty lines", got)
	}
}

func TestSplitCustomHandler(t *testing.T) {
	a := textAttachment("a|b|c")
	params := bindDefaults(t, splitCustomHandler.Params, map[string]string{"sep": "|"})
	coll, err := splitCustomHandler.Split(context.Background(), a, params)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	got := objTexts(coll)
	if len(got) != len(want) {
		t.Fatalf("Texts() = %v, want %v", got, want)
	}
}

func TestSplitCustomHandlerRejectsEmptySeparator(t *testing.T) {
	a := textAttachment("a,b,c")
	params := bindDefaults(t, splitCustomHandler.Params, map[string]string{"sep": ""})
	if _, err := splitCustomHandler.Split(context.Background(), a, params); err == nil {
		t.Error("Split() should reject an empty separator")
	}
}

func TestCollectionFromTextsStampsMetadata(t *testing.T) {
	a := textAttachment("a\n\nb")
	coll := collectionFromTexts(a, "paragraphs", []string{"a", "b"})
	if coll.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", coll.Len())
	}
	for i, it := range coll.Items {
		if it.Metadata["chunk_index"] != i {
			t.Errorf("member %d: chunk_index = %v, want %d", i, it.Metadata["chunk_index"], i)
		}
		if it.Metadata["original_path"] != "src.txt" {
			t.Errorf("member %d: original_path = %v, want src.txt", i, it.Metadata["original_path"])
		}
	}
}

func TestTextOfPrefersObjText(t *testing.T) {
	a := attachment.New("x", "x", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindText, Text: "from-obj"}
	a.Text = "from-text-field"
	if got := textOf(a); got != "from-obj" {
		t.Errorf("textOf() = %q, want %q (Obj.Text takes precedence)", got, "from-obj")
	}

	b := attachment.New("x", "x", nil)
	b.Text = "fallback"
	if got := textOf(b); got != "fallback" {
		t.Errorf("textOf() = %q, want %q (falls back to Text field)", got, "fallback")
	}
}

func TestSplitThenPresentDoesNotDuplicateChunkText(t *testing.T) {
	a := textAttachment("A\n\nB\n\nC")
	coll, err := splitParagraphsHandler.Split(context.Background(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", coll.Len())
	}
	for _, chunk := range coll.Items {
		if chunk.Text != "" {
			t.Fatalf("chunk.Text = %q before PRESENT, want empty (populated only by PRESENT/REFINE)", chunk.Text)
		}
	}
	for _, chunk := range coll.Items {
		if err := presentTextHandler.Present(context.Background(), chunk, registry.Params{}); err != nil {
			t.Fatalf("Present() error = %v", err)
		}
	}
	got := []string{coll.Items[0].Text, coll.Items[1].Text, coll.Items[2].Text}
	want := []string{"A", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk[%d].Text = %q, want %q (no duplication from a pre-populated Text field)", i, got[i], want[i])
		}
	}
}

func TestNonEmptyFiltersBlankEntries(t *testing.T) {
	got := nonEmpty([]string{"a", "", "  ", "b"})
	want := []string{"a", "b"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("nonEmpty() = %v, want %v", got, want)
	}
}
