// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachment defines the data model the pipeline engine operates
// on: Attachment (a single in-flight content item) and AttachmentCollection
// (the ordered sequence a SPLIT produces).
package attachment

import (
	"fmt"
	"strings"
	"sync"
)

// Image is a self-contained base64-encoded image: a MIME type and a
// data-URL payload, never an external reference.
type Image struct {
	MIME    string
	Payload string // base64, without the "data:<mime>;base64," prefix
}

// DataURL renders the image as a self-contained data URL.
func (img Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIME, img.Payload)
}

// ErrorEntry is one row of metadata.errors[]: a per-step non-fatal failure
// captured by the pipeline engine instead of aborting (§4.3, §7).
type ErrorEntry struct {
	Step    string `json:"step"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Object is the sum type over concrete loaded-object variants an
// Attachment's obj field may hold. Concrete LOAD handlers populate exactly
// one field; Kind names which one is live. This models "obj is an
// exclusively-owned opaque handle" (§3) as a tagged variant instead of an
// `any` escape hatch, per the systems-design note in spec.md §9.
type Object struct {
	Kind ObjectKind

	Bytes    []byte      // ObjectKindBytes: raw undecoded payload
	Text     string      // ObjectKindText: decoded plain text
	Table    *Table      // ObjectKindTable: rows/columns
	Document *Document   // ObjectKindDocument: paginated structure (pages/slides/sections)
	Img      *RasterImage // ObjectKindImage: a decoded in-memory raster
	Response *HTTPResponse // ObjectKindResponse: an unmorphed URL download
}

// ObjectKind tags which field of Object is populated.
type ObjectKind int

const (
	ObjectKindNone ObjectKind = iota
	ObjectKindBytes
	ObjectKindText
	ObjectKindTable
	ObjectKindDocument
	ObjectKindImage
	ObjectKindResponse
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectKindBytes:
		return "bytes"
	case ObjectKindText:
		return "text"
	case ObjectKindTable:
		return "table"
	case ObjectKindDocument:
		return "document"
	case ObjectKindImage:
		return "image"
	case ObjectKindResponse:
		return "response"
	default:
		return "none"
	}
}

// TypeName returns the class-name-equivalent string dispatch matches
// against for the "unqualified class-name" precedence tier (§4.2).
func (o Object) TypeName() string {
	return o.Kind.String()
}

// Table is a loaded tabular object (CSV, spreadsheet sheet, …).
type Table struct {
	Header []string
	Rows   [][]string
}

// Document is a loaded paginated object (PDF, slide deck, long HTML page).
// Units holds one opaque text blob per page/slide/section in order;
// concrete loaders populate it however fits their format.
type Document struct {
	Units []string
}

// RasterImage is a decoded in-memory image plus the metadata MODIFY
// handlers (rotate, crop) need.
type RasterImage struct {
	Format string // "PNG", "JPEG", …
	Width  int
	Height int
	Pixels []byte // format-agnostic payload handed to the concrete codec
}

// HTTPResponse is an unmorphed URL download: the morph MODIFY handler
// sniffs it and replaces the Attachment's path/obj with a canonical,
// extension-dispatchable form (§4.5).
type HTTPResponse struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Attachment is the single unit of data flowing through the pipeline.
// All fields described in spec.md §3; invariants enforced by the methods
// below rather than left to caller discipline.
type Attachment struct {
	// Input is the original source string including any DSL suffix.
	Input string

	// Path has the DSL stripped: a file path, URL, or chunk id like
	// "file#chunk-3". Never contains an unescaped '[' or ']'.
	Path string

	// Commands is the ordered, last-wins mapping parsed from the DSL.
	Commands *Commands

	// Obj is the exclusively-owned loaded object, or the zero Object
	// (Kind == ObjectKindNone) before LOAD runs.
	Obj Object

	// Text is the ordered UTF-8 extracted text. Additive composition
	// appends; sequential composition may replace.
	Text string

	// Images is the ordered sequence of self-contained base64 images.
	Images []Image

	// Metadata is untyped by design: string keys, heterogeneous values
	// (string, int, bool, map, slice) per spec.md §3.
	Metadata map[string]any

	// PipelineTrace is the append-only sequence of handler names applied.
	PipelineTrace []string

	mu sync.Mutex
}

// New constructs an Attachment from an already-parsed path and command
// set. Callers normally go through dsl.Parse then this constructor, or
// use the high-level Attachments(...) API which does both.
func New(input, path string, cmds *Commands) *Attachment {
	if cmds == nil {
		cmds = NewCommands()
	}
	return &Attachment{
		Input:    input,
		Path:     path,
		Commands: cmds,
		Metadata: make(map[string]any),
	}
}

// Trace appends a handler name to the pipeline trace. Only the pipeline
// engine should call this; it is exported so handler glue in pkg/handlers
// (which executes inside the engine's call frame) can record sub-steps.
func (a *Attachment) Trace(step string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.PipelineTrace = append(a.PipelineTrace, step)
}

// AppendText appends to Text with a blank-line separator when both sides
// are non-empty, satisfying the additive-append contract presenters must
// honor (§4.8).
func (a *Attachment) AppendText(s string) {
	if s == "" {
		return
	}
	if a.Text == "" {
		a.Text = s
		return
	}
	a.Text = strings.TrimRight(a.Text, "\n") + "\n\n" + s
}

// AppendImages pushes images onto the end of Images, additive-safe.
func (a *Attachment) AppendImages(imgs ...Image) {
	a.Images = append(a.Images, imgs...)
}

// AddError records a non-fatal per-step failure into metadata.errors[],
// per the error-capture contract in §4.3 and §7.
func (a *Attachment) AddError(e ErrorEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	existing, _ := a.Metadata["errors"].([]ErrorEntry)
	a.Metadata["errors"] = append(existing, e)
}

// Errors returns the captured metadata.errors[] slice, or nil.
func (a *Attachment) Errors() []ErrorEntry {
	errs, _ := a.Metadata["errors"].([]ErrorEntry)
	return errs
}

// Clone makes a field-for-field copy suitable for fallback-chain retries:
// the pipeline re-applies a fallback to the *original* input, never to a
// partially-mutated attempt from a failed primary (§4.3).
func (a *Attachment) Clone() *Attachment {
	cp := &Attachment{
		Input:  a.Input,
		Path:   a.Path,
		Obj:    a.Obj,
		Text:   a.Text,
		Images: append([]Image(nil), a.Images...),
	}
	cp.Commands = a.Commands.Clone()
	cp.Metadata = make(map[string]any, len(a.Metadata))
	for k, v := range a.Metadata {
		cp.Metadata[k] = v
	}
	cp.PipelineTrace = append([]string(nil), a.PipelineTrace...)
	return cp
}

// TempPaths returns the temporary file paths tracked in
// metadata.temp_paths (URL downloads, extracted archives, …), per the
// shared-resource policy in §5.
func (a *Attachment) TempPaths() []string {
	paths, _ := a.Metadata["temp_paths"].([]string)
	return paths
}

// AddTempPath records a temporary path for later cleanup.
func (a *Attachment) AddTempPath(p string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	paths, _ := a.Metadata["temp_paths"].([]string)
	a.Metadata["temp_paths"] = append(paths, p)
}

// Cleanup releases any temporary files tracked during LOAD (URL downloads,
// extracted archives). Safe to call multiple times; the host may also call
// it explicitly when it opts into a scoped acquisition (§5).
func (a *Attachment) Cleanup(remove func(path string) error) {
	a.mu.Lock()
	paths := a.Metadata["temp_paths"]
	delete(a.Metadata, "temp_paths")
	a.mu.Unlock()

	ps, _ := paths.([]string)
	for _, p := range ps {
		_ = remove(p)
	}
}

// DebugString renders a one-line human summary of the Attachment's state,
// used by `attach explain` and test failure messages (SUPP-4).
func (a *Attachment) DebugString() string {
	return fmt.Sprintf(
		"Attachment(path=%q, obj=%s, text=%d chars, images=%d, commands=%d, trace=%s)",
		a.Path, a.Obj.TypeName(), len(a.Text), len(a.Images), a.Commands.Len(),
		strings.Join(a.PipelineTrace, ">>"),
	)
}
