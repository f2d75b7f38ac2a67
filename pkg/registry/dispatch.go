// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"github.com/kraklabs/attachments/pkg/attachment"
)

// tierOrder is the global resolution precedence (§4.2): every handler's
// tier-1 (exact) descriptor is checked, in registration order, before any
// handler's tier-2 (class-name) descriptor is checked, and so on. This is
// why Resolve scans tierOrder in the outer loop and the handler slice in
// the inner loop, rather than picking each handler's own best tier first.
var tierOrder = [...]DispatchKind{DispatchExact, DispatchName, DispatchSubtype, DispatchRegex}

// Resolve finds the first handler of kind whose Dispatch descriptor
// accepts att.Obj, scanning the four precedence tiers in order and, within
// a tier, handlers in registration order. Returns nil if none match.
func (r *Registry) Resolve(kind Kind, att *attachment.Attachment) *HandlerRecord {
	handlers := r.All(kind)
	for _, tier := range tierOrder {
		for _, h := range handlers {
			if matches(h.Dispatch, att.Obj, tier) {
				return h
			}
		}
	}
	return nil
}

// ResolveAll finds every handler of kind whose Dispatch descriptor accepts
// att.Obj, in the same tiered precedence order Resolve uses. MODIFY steps
// in the universal pipeline (§4.11) apply every DSL-triggered match rather
// than stopping at the first, since distinct MODIFY handlers commonly
// share an ExactKind (rotate and crop both dispatch on images).
func (r *Registry) ResolveAll(kind Kind, att *attachment.Attachment) []*HandlerRecord {
	handlers := r.All(kind)
	var out []*HandlerRecord
	for _, tier := range tierOrder {
		for _, h := range handlers {
			if matches(h.Dispatch, att.Obj, tier) {
				out = append(out, h)
			}
		}
	}
	return out
}

// ResolveLoad finds the first LOAD handler whose Match predicate accepts
// att, in registration order (LOAD has no Dispatch descriptor because
// att.Obj doesn't exist yet, §4.2).
func (r *Registry) ResolveLoad(att *attachment.Attachment) *HandlerRecord {
	for _, h := range r.All(KindLoad) {
		if h.Match != nil && h.Match(att) {
			return h
		}
	}
	return nil
}

// ProcessorRecord is a registered, precomposed pipeline (§4.11): a Match
// predicate selects it for a given Attachment, and Primary marks the
// record Select prefers over other matching records. Selection is by
// Match alone; no DSL command names a processor.
type ProcessorRecord struct {
	Name          string
	Match         func(*attachment.Attachment) bool
	Primary       bool
	StrictCommand []string // DSL keys this processor's pipeline consumes (SUPP-5); not checked by Select or any other code
	Build         func() Pipeline
}

// Pipeline is the minimal surface pkg/registry needs from pkg/pipeline's
// composed step chains, to avoid an import cycle (pkg/pipeline depends on
// pkg/registry's HandlerRecord types, not the reverse).
type Pipeline interface {
	Run(att *attachment.Attachment) *attachment.Attachment
}

// ProcessorTable holds registered ProcessorRecords, separate from the verb
// tables because processors are looked up by Match/name rather than by
// object-type dispatch.
type ProcessorTable struct {
	records []*ProcessorRecord
}

// NewProcessorTable returns an empty ProcessorTable.
func NewProcessorTable() *ProcessorTable {
	return &ProcessorTable{}
}

// Register adds a ProcessorRecord, in registration order.
func (t *ProcessorTable) Register(rec *ProcessorRecord) {
	t.records = append(t.records, rec)
}

// ByName returns the processor registered under name, or nil.
func (t *ProcessorTable) ByName(name string) *ProcessorRecord {
	for _, p := range t.records {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Select returns the first matching processor for att, preferring the
// first Primary match and falling back to the first non-primary match;
// returns nil if no registered processor's Match predicate accepts att
// (the caller falls back to the universal text-extraction pipeline).
func (t *ProcessorTable) Select(att *attachment.Attachment) *ProcessorRecord {
	var firstNonPrimary *ProcessorRecord
	for _, p := range t.records {
		if p.Match == nil || !p.Match(att) {
			continue
		}
		if p.Primary {
			return p
		}
		if firstNonPrimary == nil {
			firstNonPrimary = p
		}
	}
	return firstNonPrimary
}

// Names returns all registered processor names, in registration order.
func (t *ProcessorTable) Names() []string {
	out := make([]string, len(t.records))
	for i, p := range t.records {
		out[i] = p.Name
	}
	return out
}
