// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"testing"

	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

func TestMorphHandlerCSVByContentType(t *testing.T) {
	a := attachment.New("https://example.com/export", "https://example.com/export", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindResponse, Response: &attachment.HTTPResponse{
		URL:         "https://example.com/export",
		ContentType: "text/csv; charset=utf-8",
		Body:        []byte("a,b\n1,2\n"),
	}}

	if err := morphHandler.Modify(ctxBg(), a, registry.Params{}); err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
	if a.Obj.Kind != attachment.ObjectKindTable {
		t.Fatalf("Obj.Kind = %v, want Table", a.Obj.Kind)
	}
	if a.Path != "export.csv" {
		t.Errorf("Path = %q, want export.csv (basename + detected extension)", a.Path)
	}
	if a.Metadata["detected_extension"] != ".csv" {
		t.Errorf("detected_extension = %v, want .csv", a.Metadata["detected_extension"])
	}
}

func TestMorphHandlerTextDefault(t *testing.T) {
	a := attachment.New("https://example.com/note", "https://example.com/note", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindResponse, Response: &attachment.HTTPResponse{
		URL:  "https://example.com/note",
		Body: []byte("plain body text that is definitely not a recognized binary format"),
	}}
	if err := morphHandler.Modify(ctxBg(), a, registry.Params{}); err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
	if a.Obj.Kind != attachment.ObjectKindText {
		t.Errorf("Obj.Kind = %v, want Text when content-type is unrecognized", a.Obj.Kind)
	}
}

func TestMorphHandlerImageByContentType(t *testing.T) {
	a := attachment.New("https://example.com/pic", "https://example.com/pic", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindResponse, Response: &attachment.HTTPResponse{
		URL:         "https://example.com/pic",
		ContentType: "image/png",
		Body:        []byte{0x89, 0x50, 0x4E, 0x47},
	}}
	if err := morphHandler.Modify(ctxBg(), a, registry.Params{}); err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
	if a.Obj.Kind != attachment.ObjectKindImage || a.Obj.Img.Format != "png" {
		t.Errorf("Obj = %+v, want a png RasterImage", a.Obj)
	}
}

func TestMorphHandlerNilResponseErrors(t *testing.T) {
	a := attachment.New("https://example.com/x", "https://example.com/x", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindResponse}
	if err := morphHandler.Modify(ctxBg(), a, registry.Params{}); err == nil {
		t.Error("Modify() should error when Response is nil")
	}
}

func TestMorphHandlerBaseNameFallback(t *testing.T) {
	a := attachment.New("https://example.com/", "https://example.com/", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindResponse, Response: &attachment.HTTPResponse{
		URL:         "https://example.com/",
		ContentType: "text/plain",
		Body:        []byte("hi"),
	}}
	if err := morphHandler.Modify(ctxBg(), a, registry.Params{}); err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
	if a.Path != "download.txt" {
		t.Errorf("Path = %q, want download.txt when the URL has no basename", a.Path)
	}
}
