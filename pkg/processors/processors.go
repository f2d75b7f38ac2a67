// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package processors builds the universal fallback pipeline (§4.11) and
// the processor table that serves it (Default), wiring
// pkg/handlers' concrete HandlerRecords into pkg/pipeline Steps. Kept
// separate from pkg/registry to avoid a cycle: this package imports both
// pkg/registry (for HandlerRecord/ProcessorTable) and pkg/pipeline (for
// Step/Pipeline), neither of which may import the other.
package processors

import (
	"context"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/pipeline"
	"github.com/kraklabs/attachments/pkg/registry"
	"github.com/kraklabs/attachments/pkg/suggest"
)

// Table is the processor lookup surface the high-level API consults.
type Table = registry.ProcessorTable

// paramSubset narrows cmds to only the keys a handler's manifest
// declares, before binding. The DSL is a single flat namespace shared by
// every handler in the chain (rotate, limit, split, truncate, … may all
// appear on one Attachment); per §4.12 an unrecognized *key* is
// forward-compatible and never fatal, so each handler only validates
// (and only ever sees) its own slice of the command set rather than
// rejecting keys that belong to a sibling handler.
func paramSubset(cmds *attachment.Commands, manifest []registry.Param) *attachment.Commands {
	out := attachment.NewCommands()
	for _, p := range manifest {
		if v, ok := cmds.Get(p.Name); ok {
			out.Set(p.Name, v)
		}
	}
	return out
}

// triggered reports whether any of a handler's declared parameters has a
// corresponding DSL command set, i.e. the caller actually asked for this
// handler's effect rather than it matching by accident on object type.
// Handlers with no declared parameters (e.g. morph) always run when their
// dispatch matches.
func triggered(h *registry.HandlerRecord, cmds *attachment.Commands) bool {
	if len(h.Params) == 0 {
		return true
	}
	for _, p := range h.Params {
		if cmds.Has(p.Name) {
			return true
		}
	}
	return false
}

// loadStep runs whichever registered LOAD handler's Match predicate first
// accepts the Attachment, falling back through the registry's declared
// order (§4.5). Populates att.Obj or returns a non-fatal
// LoaderUnavailable, which the pipeline engine captures and lets the
// universal pipeline continue with an empty obj/text.
func loadStep(reg *registry.Registry) pipeline.Step {
	return pipeline.Step{
		Name: "load",
		Apply: func(item attachment.Item) (attachment.Item, error) {
			a := item.Single
			if a == nil {
				return item, nil
			}
			h := reg.ResolveLoad(a)
			if h == nil {
				return item, errs.New(errs.KindLoaderUnavailable, "no loader matched this input", "", "", nil)
			}
			if err := h.Load(context.Background(), a); err != nil {
				return item, err
			}
			return attachment.Of(a), nil
		},
	}
}

// modifyStep applies every registered MODIFY handler whose Dispatch
// matches the loaded object's kind AND whose declared parameters are
// present in the DSL (§4.6), in registry precedence order. This lets
// e.g. both rotate and crop apply to one image Attachment when the DSL
// names both, rather than stopping at the first match.
func modifyStep(reg *registry.Registry) pipeline.Step {
	return pipeline.Step{
		Name: "modify",
		Apply: func(item attachment.Item) (attachment.Item, error) {
			a := item.Single
			if a == nil {
				return item, nil
			}
			for _, h := range reg.ResolveAll(registry.KindModify, a) {
				if !triggered(h, a.Commands) {
					continue
				}
				params, err := registry.Bind(h.Params, paramSubset(a.Commands, h.Params))
				if err != nil {
					return item, err
				}
				if err := h.Modify(context.Background(), a, params); err != nil {
					return item, err
				}
			}
			return attachment.Of(a), nil
		},
	}
}

// splitStep runs the SPLIT handler explicitly named by the DSL "split"
// command, turning a single Attachment into an AttachmentCollection
// (§4.7). A no-op (passes the single Attachment through unchanged) when
// the DSL names no splitter, since SPLIT is opt-in rather than part of
// every universal run.
func splitStep(reg *registry.Registry) pipeline.Step {
	return pipeline.Step{
		Name: "split",
		Apply: func(item attachment.Item) (attachment.Item, error) {
			a := item.Single
			if a == nil {
				return item, nil
			}
			name, ok := a.Commands.Get("split")
			if !ok || name == "" {
				return item, nil
			}
			h := reg.ByName(registry.KindSplit, name)
			if h == nil {
				return item, errs.DSLValue("split", name, suggestSplit(reg, name))
			}
			params, err := registry.Bind(h.Params, paramSubset(a.Commands, h.Params))
			if err != nil {
				return item, err
			}
			coll, err := h.Split(context.Background(), a, params)
			if err != nil {
				return item, err
			}
			return attachment.OfCollection(coll), nil
		},
	}
}

func suggestSplit(reg *registry.Registry, name string) string {
	return suggest.Nearest(name, reg.Names(registry.KindSplit))
}

// presentStep runs every registered PRESENT handler whose Dispatch
// matches the (possibly per-member) object, honoring the additive-append
// contract (§4.8): each presenter appends to text/images, never replaces.
func presentStep(reg *registry.Registry) pipeline.Step {
	return pipeline.Step{
		Name: "present",
		Apply: func(item attachment.Item) (attachment.Item, error) {
			a := item.Single
			if a == nil {
				return item, nil
			}
			for _, h := range reg.ResolveAll(registry.KindPresent, a) {
				params, err := registry.Bind(h.Params, paramSubset(a.Commands, h.Params))
				if err != nil {
					return item, err
				}
				if err := h.Present(context.Background(), a, params); err != nil {
					return item, err
				}
			}
			return attachment.Of(a), nil
		},
	}
}

// refineStep runs clean/header/truncate/resize REFINE handlers whose
// Dispatch matches (§4.9). Only truncate is gated on its DSL parameter
// ("chars"); the others run whenever their Dispatch matches. tile is
// excluded here — it is a reducer only meaningful across a whole
// collection and is wired separately as an explicit opt-in step.
func refineStep(reg *registry.Registry) pipeline.Step {
	return pipeline.Step{
		Name: "refine",
		Apply: func(item attachment.Item) (attachment.Item, error) {
			a := item.Single
			if a == nil {
				return item, nil
			}
			cur := a
			for _, h := range reg.ResolveAll(registry.KindRefine, a) {
				if h.IsReducer {
					continue
				}
				if h.Name == "truncate" && !triggered(h, cur.Commands) {
					continue
				}
				params, err := registry.Bind(h.Params, paramSubset(cur.Commands, h.Params))
				if err != nil {
					return item, err
				}
				out, err := h.Refine(context.Background(), attachment.Of(cur), params)
				if err != nil {
					return item, err
				}
				cur = out
			}
			return attachment.Of(cur), nil
		},
	}
}

// tileStep wires the reducer REFINE handler named "tile" as an opt-in
// collection-merging stage: a no-op unless the item is a collection whose
// first member's DSL requested tiling, since IsReducer steps otherwise
// always receive the whole collection rather than being elementwise-lifted
// by the pipeline engine (§4.4).
func tileStep(reg *registry.Registry) pipeline.Step {
	return pipeline.Step{
		Name:      "tile",
		IsReducer: true,
		Apply: func(item attachment.Item) (attachment.Item, error) {
			if !item.IsCollection() || item.Multi.Len() == 0 {
				return item, nil
			}
			first := item.Multi.Items[0]
			if !first.Commands.Has("tile") {
				return item, nil
			}
			h := reg.ByName(registry.KindRefine, "tile")
			if h == nil {
				return item, nil
			}
			params, err := registry.Bind(h.Params, paramSubset(first.Commands, h.Params))
			if err != nil {
				return item, err
			}
			out, err := h.Refine(context.Background(), item, params)
			if err != nil {
				return item, err
			}
			return attachment.Of(out), nil
		},
	}
}

// Universal builds the DSL-driven fallback pipeline every Attachment runs
// through when no processor's Match claims it (§4.11): load, modify,
// split (opt-in), present, refine.
func Universal(reg *registry.Registry) *pipeline.Pipeline {
	return pipeline.New().
		Then(loadStep(reg)).
		Then(modifyStep(reg)).
		Then(splitStep(reg)).
		Then(tileStep(reg)).
		Then(presentStep(reg)).
		Then(refineStep(reg))
}

// Default builds the processor table for a registry: one primary
// processor, "universal", running the universal pipeline against every
// input (§4.11, §8). No other processors are registered, and no
// `[processor:name]` command is read.
func Default(reg *registry.Registry) *registry.ProcessorTable {
	table := registry.NewProcessorTable()
	universal := Universal(reg)

	table.Register(&registry.ProcessorRecord{
		Name:    "universal",
		Match:   func(*attachment.Attachment) bool { return true },
		Primary: true,
		Build:   func() registry.Pipeline { return universal },
	})

	return table
}
