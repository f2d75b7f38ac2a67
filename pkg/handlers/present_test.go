// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/registry"
)

func TestCategoryEnabled(t *testing.T) {
	a := attachment.New("x", "x", nil)
	if !categoryEnabled(a, registry.CategoryText) {
		t.Error("categoryEnabled should default to true when no DSL override is present")
	}
	if !categoryEnabled(a, "") {
		t.Error("categoryEnabled should always be true for an empty category")
	}

	a.Commands.Set("text", "false")
	if categoryEnabled(a, registry.CategoryText) {
		t.Error("categoryEnabled should honor an explicit [text:false] override")
	}

	a.Commands.Set("text", "true")
	if !categoryEnabled(a, registry.CategoryText) {
		t.Error("categoryEnabled should honor an explicit [text:true] override")
	}
}

func TestPresentTextHandlerAppendsAndRespectsFilter(t *testing.T) {
	a := attachment.New("x", "x", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindText, Text: "hello"}
	if err := presentTextHandler.Present(context.Background(), a, registry.Params{}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if a.Text != "hello" {
		t.Errorf("Text = %q, want %q", a.Text, "hello")
	}

	b := attachment.New("x", "x", nil)
	b.Obj = attachment.Object{Kind: attachment.ObjectKindText, Text: "hidden"}
	b.Commands.Set("text", "false")
	if err := presentTextHandler.Present(context.Background(), b, registry.Params{}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if b.Text != "" {
		t.Errorf("Text = %q, want empty when [text:false]", b.Text)
	}
}

func TestPresentTableHandlerRendersCSV(t *testing.T) {
	a := attachment.New("x", "x", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindTable, Table: &attachment.Table{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"1", "2"}},
	}}
	if err := presentTableHandler.Present(context.Background(), a, registry.Params{}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if !strings.Contains(a.Text, "a") || !strings.Contains(a.Text, "1") {
		t.Errorf("Text = %q, want it to contain rendered table content", a.Text)
	}
}

func TestPresentDocumentHandlerJoinsUnitsWithPageBreaks(t *testing.T) {
	a := attachment.New("x", "x", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindDocument, Document: &attachment.Document{
		Units: []string{"page one", "page two"},
	}}
	if err := presentDocumentHandler.Present(context.Background(), a, registry.Params{}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if !strings.Contains(a.Text, "page one") || !strings.Contains(a.Text, "page two") || !strings.Contains(a.Text, "---") {
		t.Errorf("Text = %q, want both units joined with a page-break marker", a.Text)
	}
}

func TestPresentDocumentHandlerNilDocumentIsNoop(t *testing.T) {
	a := attachment.New("x", "x", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindDocument}
	if err := presentDocumentHandler.Present(context.Background(), a, registry.Params{}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if a.Text != "" {
		t.Errorf("Text = %q, want empty when Document is nil", a.Text)
	}
}

func TestPresentImageHandlerAppendsDataURL(t *testing.T) {
	a := attachment.New("x", "x", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindImage, Img: &attachment.RasterImage{
		Format: "png",
		Pixels: []byte{1, 2, 3},
	}}
	if err := presentImageHandler.Present(context.Background(), a, registry.Params{}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if len(a.Images) != 1 || a.Images[0].MIME != "image/png" {
		t.Errorf("Images = %+v, want one image/png entry", a.Images)
	}
}

func TestPresentImageHandlerJPGNormalizesMIME(t *testing.T) {
	a := attachment.New("x", "x", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindImage, Img: &attachment.RasterImage{
		Format: "jpg",
		Pixels: []byte{1},
	}}
	if err := presentImageHandler.Present(context.Background(), a, registry.Params{}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if a.Images[0].MIME != "image/jpeg" {
		t.Errorf("MIME = %q, want image/jpeg for a jpg raster", a.Images[0].MIME)
	}
}

func TestPresentMetadataHandlerJSONBody(t *testing.T) {
	a := attachment.New("x", "x", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindResponse, Response: &attachment.HTTPResponse{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        []byte(`{"ok":true}`),
	}}
	if err := presentMetadataHandler.Present(context.Background(), a, registry.Params{}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if a.Metadata["response_status"] != 200 {
		t.Errorf("response_status = %v, want 200", a.Metadata["response_status"])
	}
	if !strings.Contains(a.Text, "```json") {
		t.Errorf("Text = %q, want a fenced json block for a JSON body", a.Text)
	}
}

func TestPresentMetadataHandlerPlainBody(t *testing.T) {
	a := attachment.New("x", "x", nil)
	a.Obj = attachment.Object{Kind: attachment.ObjectKindResponse, Response: &attachment.HTTPResponse{
		StatusCode: 200,
		Body:       []byte("plain text body"),
	}}
	if err := presentMetadataHandler.Present(context.Background(), a, registry.Params{}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if a.Text != "plain text body" {
		t.Errorf("Text = %q, want the raw body for a non-JSON response", a.Text)
	}
}
