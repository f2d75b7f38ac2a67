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

// Package registry holds the six keyed handler tables (C3) and the
// type-dispatch resolver (C5): exact match, unqualified class-name match,
// subtype match, and regex match over a handler's declared dispatch
// descriptor, resolved in that precedence order (§4.2).
//
// Dispatch is realized as a scanned slice of (predicate, handler) records
// rather than reflection, per the systems-design note in spec.md §9:
// handler authors declare their descriptor explicitly at registration.
package registry

import (
	"context"
	"regexp"

	"github.com/kraklabs/attachments/pkg/attachment"
)

// Kind is one of the six verb kinds a handler belongs to.
type Kind string

const (
	KindLoad     Kind = "load"
	KindModify   Kind = "modify"
	KindSplit    Kind = "split"
	KindPresent  Kind = "present"
	KindRefine   Kind = "refine"
	KindAdapt    Kind = "adapt"
)

// Category is a presenter's content-filter sub-kind, driving DSL commands
// like [text:false] and [images:false] (§4.8).
type Category string

const (
	CategoryText     Category = "text"
	CategoryImage    Category = "image"
	CategoryMetadata Category = "metadata"
	CategoryAudio    Category = "audio"
)

// DispatchKind names one of the four tiers of the resolution precedence.
type DispatchKind int

const (
	// DispatchExact matches att.Obj.Kind exactly.
	DispatchExact DispatchKind = iota
	// DispatchName matches att.Obj's class-name, att.Obj.TypeName().
	DispatchName
	// DispatchSubtype matches via a registered type-hierarchy lookup.
	DispatchSubtype
	// DispatchRegex matches a regex pattern against the class-name,
	// att.Obj.TypeName().
	DispatchRegex
)

// Dispatch is a handler's declared object-type descriptor for
// MODIFY/SPLIT/PRESENT/REFINE handlers. LOAD handlers use Match instead,
// because at LOAD time att.Obj is absent (§4.2).
type Dispatch struct {
	Kind DispatchKind

	// ExactKind is consulted when Kind == DispatchExact.
	ExactKind attachment.ObjectKind

	// ClassName is consulted when Kind == DispatchName: matched against
	// att.Obj.TypeName().
	ClassName string

	// SubtypeOf is consulted when Kind == DispatchSubtype: matched
	// against the registered ancestry of att.Obj.TypeName() via
	// IsSubtype.
	SubtypeOf string

	// Pattern is consulted when Kind == DispatchRegex: matched against
	// att.Obj.TypeName().
	Pattern *regexp.Regexp
}

// Exact builds an exact-kind dispatch descriptor.
func Exact(k attachment.ObjectKind) Dispatch { return Dispatch{Kind: DispatchExact, ExactKind: k} }

// Name builds an unqualified-class-name dispatch descriptor.
func Name(className string) Dispatch { return Dispatch{Kind: DispatchName, ClassName: className} }

// Subtype builds a subtype dispatch descriptor.
func Subtype(of string) Dispatch { return Dispatch{Kind: DispatchSubtype, SubtypeOf: of} }

// Regex builds a regex dispatch descriptor over att.Obj.TypeName().
func Regex(pattern string) Dispatch { return Dispatch{Kind: DispatchRegex, Pattern: regexp.MustCompile(pattern)} }

// ParamKind is the coercion type a declared DSL-consumable parameter uses.
type ParamKind int

const (
	ParamString ParamKind = iota
	ParamInt
	ParamFloat
	ParamBool
	ParamEnum
)

// Param is one entry of a handler's declared parameter manifest (§4.2,
// and the "Auto-parameter binding" design note in spec.md §9: an explicit
// manifest rather than runtime signature introspection).
type Param struct {
	Name       string
	Kind       ParamKind
	Default    any
	EnumValues []string // only meaningful when Kind == ParamEnum
}

// LoadFunc is the LOAD verb contract (§4.5): populate att.Obj in place,
// or return an error (which the pipeline engine classifies per §7).
type LoadFunc func(ctx context.Context, att *attachment.Attachment) error

// ModifyFunc is the MODIFY verb contract (§4.6): transform att.Obj in
// place, returning the same concrete type.
type ModifyFunc func(ctx context.Context, att *attachment.Attachment, params Params) error

// SplitFunc is the SPLIT verb contract (§4.7): derive an
// AttachmentCollection from att.Obj or att.Text.
type SplitFunc func(ctx context.Context, att *attachment.Attachment, params Params) (*attachment.Collection, error)

// PresentFunc is the PRESENT verb contract (§4.8): append to
// att.Text/att.Images, never overwrite, honoring the content-filter DSL.
type PresentFunc func(ctx context.Context, att *attachment.Attachment, params Params) error

// RefineFunc is the REFINE verb contract (§4.9). Non-reducer refiners
// receive and return a single Attachment; reducer refiners (image tiling,
// merging) receive the full Collection and emit a single Attachment —
// non-reducer handler bodies read item.Single, reducers item.Attachments(),
// with IsReducer on the record declaring which shape the Refine func expects.
type RefineFunc func(ctx context.Context, item attachment.Item, params Params) (*attachment.Attachment, error)

// AdaptFunc is the ADAPT verb contract (§4.10): always a reducer, accepts
// singular or collection input and a prompt, and emits a provider
// envelope (opaque `any` here; pkg/envelope defines the concrete shapes).
type AdaptFunc func(ctx context.Context, item attachment.Item, prompt string, params Params) (any, error)

// HandlerRecord is one registration in a verb table, mirroring the
// "Handler registration record" in spec.md §3.
type HandlerRecord struct {
	Kind      Kind
	Name      string
	Match     func(*attachment.Attachment) bool // LOAD + processors only
	Dispatch  Dispatch                           // MODIFY/SPLIT/PRESENT/REFINE
	Category  Category                           // PRESENT only, optional
	Params    []Param
	IsReducer bool

	Load    LoadFunc
	Modify  ModifyFunc
	Split   SplitFunc
	Present PresentFunc
	Refine  RefineFunc
	Adapt   AdaptFunc

	// order is the registration sequence number, used to break ties
	// within a dispatch precedence tier (first-registered wins, §4.2).
	order int
}
