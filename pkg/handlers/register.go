// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package handlers holds the concrete LOAD/MODIFY/SPLIT/PRESENT/REFINE/ADAPT
// handler sets (§4.5-§4.10), each a *registry.HandlerRecord built from the
// verb-specific func type the registry package declares. Register wires
// them all into one *registry.Registry, in the precedence order each verb
// requires.
package handlers

import "github.com/kraklabs/attachments/pkg/registry"

// Register builds a fresh registry and populates every verb table with the
// handlers defined in this package, in registration order. Registration
// order matters: it is the tiebreaker within a dispatch precedence tier
// (§4.2), and for LOAD it is the fallback-selection order (§4.5, §4.11).
func Register() *registry.Registry {
	r := registry.New()

	// LOAD: URL → directory → csv → pdf → text fallback. The universal
	// text loader's Match always returns true, so it must be registered
	// last.
	for _, h := range Loaders() {
		r.Register(h)
	}

	// MODIFY.
	for _, h := range []*registry.HandlerRecord{
		morphHandler,
		pageRangeHandler,
		rowLimitHandler,
		rotateHandler,
		cropHandler,
	} {
		r.Register(h)
	}

	// SPLIT.
	for _, h := range []*registry.HandlerRecord{
		splitParagraphsHandler,
		splitSentencesHandler,
		splitTokensHandler,
		splitCharactersHandler,
		splitLinesHandler,
		splitCustomHandler,
		splitCodeBlocksHandler,
		splitPagesHandler,
		splitSlidesHandler,
		splitSectionsHandler,
		splitRowsHandler,
		splitColumnsHandler,
	} {
		r.Register(h)
	}

	// PRESENT.
	for _, h := range []*registry.HandlerRecord{
		presentTextHandler,
		presentTableHandler,
		presentDocumentHandler,
		presentImageHandler,
		presentMetadataHandler,
	} {
		r.Register(h)
	}

	// REFINE.
	for _, h := range []*registry.HandlerRecord{
		cleanHandler,
		headerHandler,
		truncateHandler,
		resizeHandler,
		tileHandler,
	} {
		r.Register(h)
	}

	// ADAPT.
	for _, h := range []*registry.HandlerRecord{chatAdapter, responsesAdapter, claudeAdapter} {
		r.Register(h)
	}

	registerSubtypes()
	return r
}

// registerSubtypes declares the object-kind ancestry used by the subtype
// dispatch tier (§4.2): a raster image is a subtype of "bytes", and a
// table/document are subtypes of the generic "bytes" carrier too, so a
// handler that wants "anything byte-shaped" can dispatch via
// registry.Subtype("bytes") without enumerating every concrete kind.
func registerSubtypes() {
	registry.RegisterSubtype("image", "bytes")
	registry.RegisterSubtype("table", "bytes")
	registry.RegisterSubtype("document", "bytes")
	registry.RegisterSubtype("response", "bytes")
}
