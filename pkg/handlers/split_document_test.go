// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"testing"

	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

func documentAttachment(units []string) *attachment.Attachment {
	a := attachment.New("deck.pptx", "deck.pptx", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindDocument, Document: &attachment.Document{Units: units}}
	return a
}

func TestSplitPagesHandlerOneChunkPerUnit(t *testing.T) {
	a := documentAttachment([]string{"page one", "page two", "page three"})
	coll, err := splitPagesHandler.Split(ctxBg(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", coll.Len())
	}
	if coll.Items[1].Obj.Text != "page two" {
		t.Errorf("Items[1].Obj.Text = %q, want %q", coll.Items[1].Obj.Text, "page two")
	}
}

func TestSplitPagesHandlerNilDocument(t *testing.T) {
	a := attachment.New("deck.pptx", "deck.pptx", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindDocument}
	coll, err := splitPagesHandler.Split(ctxBg(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for a nil Document", coll.Len())
	}
}

func TestSplitSlidesHandlerIsPagesAlias(t *testing.T) {
	a := documentAttachment([]string{"slide one", "slide two"})
	coll, err := splitSlidesHandler.Split(ctxBg(), a, registry.Params{})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 2 {
		t.Errorf("Len() = %d, want 2", coll.Len())
	}
}

func TestSplitSectionsHandlerSplitsOnHeadingLevel(t *testing.T) {
	html := "intro text<h2>First</h2>body one<h2>Second</h2>body two<h3>ignored sub</h3>"
	a := textAttachment(html)
	params := bindDefaults(t, splitSectionsHandler.Params, nil)
	coll, err := splitSectionsHandler.Split(ctxBg(), a, params)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	texts := objTexts(coll)
	if len(texts) != 3 {
		t.Fatalf("objTexts() = %v, want 3 sections (leading + 2 h2 sections)", texts)
	}
	if texts[0] != "intro text" {
		t.Errorf("objTexts()[0] = %q, want leading content before the first heading", texts[0])
	}
}

func TestSplitSectionsHandlerCustomLevel(t *testing.T) {
	html := "<h1>Title</h1>one<h3>Sub</h3>two"
	a := textAttachment(html)
	params := bindDefaults(t, splitSectionsHandler.Params, map[string]string{"level": "1"})
	coll, err := splitSectionsHandler.Split(ctxBg(), a, params)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if coll.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 section split on h1 only", coll.Len())
	}
}
