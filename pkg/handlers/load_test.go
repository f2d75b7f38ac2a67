// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"http://example.com/a.txt", true},
		{"https://example.com/a.txt", true},
		{"./local/path.txt", false},
		{"/abs/path.txt", false},
		{"ftp://example.com/a.txt", false},
	}
	for _, tt := range tests {
		if got := isURL(tt.in); got != tt.want {
			t.Errorf("isURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestURLLoaderMatch(t *testing.T) {
	a := attachment.New("https://example.com/a", "https://example.com/a", nil)
	if !urlLoader.Match(a) {
		t.Error("urlLoader.Match should match an http(s) path")
	}
	b := attachment.New("./local.txt", "./local.txt", nil)
	if urlLoader.Match(b) {
		t.Error("urlLoader.Match should not match a local path")
	}
}

func TestTextLoaderAlwaysMatchesAndReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := attachment.New(path, path, nil)
	if !textLoader.Match(a) {
		t.Error("textLoader.Match should always return true")
	}
	if err := textLoader.Load(context.Background(), a); err != nil {
		t.Fatalf("textLoader.Load() error = %v", err)
	}
	if a.Obj.Kind != attachment.ObjectKindText || a.Obj.Text != "hello world" {
		t.Errorf("Obj = %+v, want Text=%q", a.Obj, "hello world")
	}
}

func TestTextLoaderMissingFile(t *testing.T) {
	a := attachment.New("/nonexistent/does-not-exist.txt", "/nonexistent/does-not-exist.txt", nil)
	if err := textLoader.Load(context.Background(), a); err == nil {
		t.Error("textLoader.Load() should error on a missing file")
	}
}

func TestTextLoaderRejectsURLInput(t *testing.T) {
	a := attachment.New("https://example.com/a", "https://example.com/a", nil)
	if err := textLoader.Load(context.Background(), a); err == nil {
		t.Error("textLoader.Load() should refuse to read a URL-shaped path")
	}
}

func TestDirectoryLoaderMatch(t *testing.T) {
	dir := t.TempDir()
	a := attachment.New(dir, dir, nil)
	if !directoryLoader.Match(a) {
		t.Error("directoryLoader.Match should match a directory path")
	}

	file := filepath.Join(dir, "f.txt")
	os.WriteFile(file, []byte("x"), 0o644)
	b := attachment.New(file, file, nil)
	if directoryLoader.Match(b) {
		t.Error("directoryLoader.Match should not match a plain file path")
	}
}

func TestCSVLoaderMatchAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	os.WriteFile(path, []byte("a,b\n1,2\n3,4\n"), 0o644)

	a := attachment.New(path, path, nil)
	if !csvLoader.Match(a) {
		t.Error("csvLoader.Match should match a .csv path")
	}

	other := attachment.New(path+".txt", path+".txt", nil)
	if csvLoader.Match(other) {
		t.Error("csvLoader.Match should not match a non-.csv path")
	}

	if err := csvLoader.Load(context.Background(), a); err != nil {
		t.Fatalf("csvLoader.Load() error = %v", err)
	}
	if a.Obj.Kind != attachment.ObjectKindTable {
		t.Fatalf("Obj.Kind = %v, want Table", a.Obj.Kind)
	}
	if got, want := a.Obj.Table.Header, []string{"a", "b"}; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Header = %v, want %v", got, want)
	}
	if len(a.Obj.Table.Rows) != 2 {
		t.Errorf("Rows = %v, want 2 rows", a.Obj.Table.Rows)
	}
}

func TestCSVLoaderEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	os.WriteFile(path, []byte(""), 0o644)

	a := attachment.New(path, path, nil)
	if err := csvLoader.Load(context.Background(), a); err != nil {
		t.Fatalf("csvLoader.Load() error = %v", err)
	}
	if a.Obj.Table == nil || len(a.Obj.Table.Header) != 0 {
		t.Errorf("expected an empty Table, got %+v", a.Obj.Table)
	}
}

func TestPDFLoaderMatch(t *testing.T) {
	a := attachment.New("report.pdf", "report.pdf", nil)
	if !pdfLoader.Match(a) {
		t.Error("pdfLoader.Match should match a .pdf path")
	}
	b := attachment.New("report.txt", "report.txt", nil)
	if pdfLoader.Match(b) {
		t.Error("pdfLoader.Match should not match a non-pdf path")
	}
}

func TestPDFLoaderDegradesWithDependencyMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 fake body"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := attachment.New(path, path, nil)
	err := pdfLoader.Load(context.Background(), a)
	if err == nil {
		t.Fatal("pdfLoader.Load() should report DependencyMissing")
	}
	tagged, ok := err.(*errs.TaggedError)
	if !ok || tagged.Kind != errs.KindDependencyMissing {
		t.Fatalf("err = %v, want a KindDependencyMissing TaggedError", err)
	}
	if tagged.Step != "pdf" {
		t.Errorf("tagged.Step = %q, want %q", tagged.Step, "pdf")
	}
	if !strings.Contains(tagged.Fix, "PDF parsing library") {
		t.Errorf("tagged.Fix = %q, want an install hint naming a PDF parsing library", tagged.Fix)
	}
	if a.Obj.Kind != attachment.ObjectKindText || a.Obj.Text == "" {
		t.Error("pdfLoader should still degrade to a readable text object")
	}
}

func TestLoadersRegistrationOrder(t *testing.T) {
	got := Loaders()
	want := []string{"url", "directory", "csv", "pdf", "text"}
	if len(got) != len(want) {
		t.Fatalf("Loaders() returned %d handlers, want %d", len(got), len(want))
	}
	for i, h := range got {
		if h.Name != want[i] {
			t.Errorf("Loaders()[%d].Name = %q, want %q", i, h.Name, want[i])
		}
	}
	if got[len(got)-1].Name != "text" {
		t.Error("the universal text loader must be registered last")
	}
}
