// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"errors"
	"strings"
	"testing"
)

func TestImageDataURL(t *testing.T) {
	img := Image{MIME: "image/png", Payload: "QUJD"}
	if got, want := img.DataURL(), "data:image/png;base64,QUJD"; got != want {
		t.Errorf("DataURL() = %q, want %q", got, want)
	}
}

func TestObjectKindString(t *testing.T) {
	tests := []struct {
		kind ObjectKind
		want string
	}{
		{ObjectKindNone, "none"},
		{ObjectKindBytes, "bytes"},
		{ObjectKindText, "text"},
		{ObjectKindTable, "table"},
		{ObjectKindDocument, "document"},
		{ObjectKindImage, "image"},
		{ObjectKindResponse, "response"},
		{ObjectKind(99), "none"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ObjectKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestObjectTypeNameMatchesKind(t *testing.T) {
	o := Object{Kind: ObjectKindTable}
	if got := o.TypeName(); got != "table" {
		t.Errorf("TypeName() = %q, want %q", got, "table")
	}
}

func TestNewFillsDefaults(t *testing.T) {
	a := New("./a.txt[foo:bar]", "./a.txt", nil)
	if a.Input != "./a.txt[foo:bar]" || a.Path != "./a.txt" {
		t.Errorf("New() did not preserve Input/Path: %+v", a)
	}
	if a.Commands == nil {
		t.Fatal("New(nil commands) should allocate an empty Commands set")
	}
	if a.Commands.Len() != 0 {
		t.Errorf("expected empty Commands, got %d entries", a.Commands.Len())
	}
	if a.Metadata == nil {
		t.Error("New() should initialize Metadata")
	}
}

func TestAppendTextBlankLineSeparation(t *testing.T) {
	a := New("x", "x", nil)
	a.AppendText("")
	if a.Text != "" {
		t.Errorf("appending empty string should be a no-op, got %q", a.Text)
	}

	a.AppendText("first")
	if a.Text != "first" {
		t.Errorf("first AppendText should set Text directly, got %q", a.Text)
	}

	a.AppendText("second")
	if a.Text != "first\n\nsecond" {
		t.Errorf("AppendText should join with a blank line, got %q", a.Text)
	}

	a.Text = "trailing\n\n\n"
	a.AppendText("third")
	if a.Text != "trailing\n\nthird" {
		t.Errorf("AppendText should trim trailing newlines before joining, got %q", a.Text)
	}
}

func TestAppendImagesAccumulates(t *testing.T) {
	a := New("x", "x", nil)
	a.AppendImages(Image{MIME: "image/png", Payload: "a"})
	a.AppendImages(Image{MIME: "image/jpeg", Payload: "b"}, Image{MIME: "image/gif", Payload: "c"})
	if len(a.Images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(a.Images))
	}
	if a.Images[0].MIME != "image/png" || a.Images[2].MIME != "image/gif" {
		t.Errorf("images out of order: %+v", a.Images)
	}
}

func TestAddErrorAndErrors(t *testing.T) {
	a := New("x", "x", nil)
	if got := a.Errors(); got != nil {
		t.Errorf("Errors() on fresh Attachment should be nil, got %v", got)
	}

	a.AddError(ErrorEntry{Step: "load:text", Kind: "IOError", Message: "file not found"})
	a.AddError(ErrorEntry{Step: "split:tokens", Kind: "DSLValueError", Message: "bad size"})

	errs := a.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 captured errors, got %d", len(errs))
	}
	if errs[0].Step != "load:text" || errs[1].Kind != "DSLValueError" {
		t.Errorf("captured errors in unexpected order/shape: %+v", errs)
	}
}

func TestTraceIsAppendOnly(t *testing.T) {
	a := New("x", "x", nil)
	a.Trace("load:text")
	a.Trace("split:paragraphs")
	if got := strings.Join(a.PipelineTrace, ">>"); got != "load:text>>split:paragraphs" {
		t.Errorf("PipelineTrace = %q, want %q", got, "load:text>>split:paragraphs")
	}
}

func TestCloneIsIndependentCopy(t *testing.T) {
	cmds := NewCommands()
	cmds.Set("strip-html", "true")

	a := New("src[strip-html:true]", "src", cmds)
	a.Text = "hello"
	a.AppendImages(Image{MIME: "image/png", Payload: "x"})
	a.AddError(ErrorEntry{Step: "load", Kind: "IOError", Message: "oops"})
	a.Trace("load:url")

	cp := a.Clone()

	// Mutating the clone must not affect the original.
	cp.Text = "changed"
	cp.Images[0].Payload = "mutated"
	cp.Commands.Set("strip-html", "false")
	cp.Trace("split:lines")
	cp.AddError(ErrorEntry{Step: "split", Kind: "DSLValueError", Message: "new"})

	if a.Text != "hello" {
		t.Errorf("mutating clone.Text affected original: %q", a.Text)
	}
	if a.Images[0].Payload != "x" {
		t.Errorf("mutating clone.Images affected original: %q", a.Images[0].Payload)
	}
	if v, _ := a.Commands.Get("strip-html"); v != "true" {
		t.Errorf("mutating clone.Commands affected original: %q", v)
	}
	if len(a.PipelineTrace) != 1 {
		t.Errorf("mutating clone.PipelineTrace affected original: %v", a.PipelineTrace)
	}
	if len(a.Errors()) != 1 {
		t.Errorf("mutating clone errors affected original: %v", a.Errors())
	}
}

func TestTempPathsRoundTrip(t *testing.T) {
	a := New("x", "x", nil)
	if got := a.TempPaths(); got != nil {
		t.Errorf("TempPaths() on fresh Attachment should be nil, got %v", got)
	}
	a.AddTempPath("/tmp/one")
	a.AddTempPath("/tmp/two")
	if got := a.TempPaths(); len(got) != 2 || got[0] != "/tmp/one" || got[1] != "/tmp/two" {
		t.Errorf("TempPaths() = %v, want [/tmp/one /tmp/two]", got)
	}
}

func TestCleanupRemovesAndClearsTempPaths(t *testing.T) {
	a := New("x", "x", nil)
	a.AddTempPath("/tmp/one")
	a.AddTempPath("/tmp/two")

	var removed []string
	a.Cleanup(func(p string) error {
		removed = append(removed, p)
		return nil
	})

	if len(removed) != 2 {
		t.Fatalf("expected Cleanup to invoke remove for 2 paths, got %d", len(removed))
	}
	if got := a.TempPaths(); got != nil {
		t.Errorf("Cleanup should clear temp_paths, got %v", got)
	}

	// Calling Cleanup again must be a safe no-op.
	a.Cleanup(func(p string) error {
		t.Errorf("remove should not be called when there are no temp paths, got %q", p)
		return nil
	})
}

func TestCleanupToleratesRemoveErrors(t *testing.T) {
	a := New("x", "x", nil)
	a.AddTempPath("/tmp/gone")
	a.Cleanup(func(p string) error { return errors.New("already removed") })
	if got := a.TempPaths(); got != nil {
		t.Errorf("Cleanup should still clear temp_paths even when remove fails, got %v", got)
	}
}

func TestDebugStringIncludesKeyFields(t *testing.T) {
	cmds := NewCommands()
	cmds.Set("strip-html", "true")
	a := New("src", "src", cmds)
	a.Text = "hello world"
	a.Obj = Object{Kind: ObjectKindText}
	a.Trace("load:text")
	a.Trace("refine:clean")

	got := a.DebugString()
	for _, want := range []string{`path="src"`, "obj=text", "text=11 chars", "images=0", "commands=1", "load:text>>refine:clean"} {
		if !strings.Contains(got, want) {
			t.Errorf("DebugString() = %q, want it to contain %q", got, want)
		}
	}
}
