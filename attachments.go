// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachments is the user-facing entry point (C9): given one or
// more source strings, construct an Attachment per source, run each
// through the engine's processor selection (primary match, or the
// universal fallback pipeline), and expose the combined text/images plus
// per-provider adapter convenience methods (§4.11).
package attachments

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kraklabs/attachments/internal/bootstrap"
	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/internal/metrics"
	"github.com/kraklabs/attachments/pkg/attachment"
	"github.com/kraklabs/attachments/pkg/dsl"
	"github.com/kraklabs/attachments/pkg/registry"
)

// SourceError pairs a source string with the fatal DSL error its
// processing raised (§7: DSLSyntaxError and DSLValueError are the only
// two kinds the high-level API surfaces as Go errors rather than
// capturing into metadata.errors). Other sources in the same Attachments
// call still complete and appear in the returned Collection.
type SourceError struct {
	Source string
	Err    *errs.TaggedError
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Collection is the result of running Attachments(...): every source that
// completed without a fatal DSL error, in input order, plus the combined
// text/image surface and per-provider adapter access §4.11 describes.
type Collection struct {
	engine *bootstrap.Engine
	Items  []*attachment.Attachment
}

var (
	defaultEngineOnce sync.Once
	defaultEngine     *bootstrap.Engine
	defaultEngineErr  error
)

func sharedEngine() (*bootstrap.Engine, error) {
	defaultEngineOnce.Do(func() {
		defaultEngine, defaultEngineErr = bootstrap.BuildEngine("", nil)
	})
	return defaultEngine, defaultEngineErr
}

// Attachments constructs one Attachment per source and runs each to
// completion against the process-wide default Engine (built once, lazily,
// from the built-in handler registry plus any plugin manifests discovered
// on the environment's plugin search paths). Returns a non-nil error only
// when at least one source hit a fatal DSLSyntaxError or DSLValueError;
// the Collection still carries every source that completed (§7).
func Attachments(sources ...string) (*Collection, error) {
	engine, err := sharedEngine()
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return WithEngine(engine, sources...)
}

// WithEngine runs Attachments against an explicitly built Engine rather
// than the process-wide default — for hosts that need plugin discovery
// rooted at a specific project directory via bootstrap.BuildEngine.
func WithEngine(engine *bootstrap.Engine, sources ...string) (*Collection, error) {
	items := make([]*attachment.Attachment, 0, len(sources))
	var fatal []error

	for _, src := range sources {
		result, ferr := runOne(engine, src)
		if ferr != nil {
			fatal = append(fatal, ferr)
			continue
		}
		items = append(items, result)
	}

	coll := &Collection{engine: engine, Items: items}
	if len(fatal) == 0 {
		return coll, nil
	}
	return coll, joinErrors(fatal)
}

func joinErrors(sourceErrs []error) error {
	if len(sourceErrs) == 1 {
		return sourceErrs[0]
	}
	msgs := make([]string, len(sourceErrs))
	for i, e := range sourceErrs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%d sources failed: %s", len(sourceErrs), strings.Join(msgs, "; "))
}

// runOne constructs and runs a single source's Attachment, returning the
// SourceError wrapping the fatal DSL taxonomy kind if one occurred either
// at parse time or within the pipeline.
func runOne(engine *bootstrap.Engine, src string) (*attachment.Attachment, *SourceError) {
	parsed, perr := dsl.Parse(src)
	if perr != nil {
		if se, ok := perr.(*dsl.SyntaxError); ok {
			return nil, &SourceError{Source: src, Err: se.Tagged()}
		}
		return nil, &SourceError{Source: src, Err: errs.New(errs.KindDSLSyntax, perr.Error(), "", "", perr)}
	}

	att := attachment.New(src, parsed.Path, parsed.Commands)

	rec := engine.Processors.Select(att)
	if rec == nil {
		// The universal processor's Match is unconditional, so Select
		// only returns nil against an empty/misconfigured table.
		return att, nil
	}
	result := rec.Build().Run(att)

	if tagged := fatalCapturedError(result); tagged != nil {
		return nil, &SourceError{Source: src, Err: tagged}
	}
	metrics.RecordAttachmentProcessed()
	return result, nil
}

// fatalCapturedError reports the first DSLSyntaxError/DSLValueError the
// pipeline captured into metadata.errors, since the engine itself never
// raises a Go error for a fatal step failure — it records one and
// surfaces the original input (pipeline.recordFatal). The high-level API
// promotes that capture back into a raised error per the §7 surfacing
// rule, for this source only.
func fatalCapturedError(a *attachment.Attachment) *errs.TaggedError {
	for _, e := range a.Errors() {
		k := errs.Kind(e.Kind)
		if k.Fatal() {
			return errs.New(k, e.Message, "", "", nil)
		}
	}
	return nil
}

// Text concatenates every completed Attachment's text, joined by a blank
// line, per §4.11.
func (c *Collection) Text() string {
	var parts []string
	for _, a := range c.Items {
		if a.Text != "" {
			parts = append(parts, a.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Images concatenates every completed Attachment's base64 image list, in
// order, per §4.11.
func (c *Collection) Images() []attachment.Image {
	var out []attachment.Image
	for _, a := range c.Items {
		out = append(out, a.Images...)
	}
	return out
}

// Errors returns every captured non-fatal error across all completed
// Attachments, in Items order. Entries do not record which source
// produced them.
func (c *Collection) Errors() []attachment.ErrorEntry {
	var out []attachment.ErrorEntry
	for _, a := range c.Items {
		out = append(out, a.Errors()...)
	}
	return out
}

// asItem presents the Collection's Items as the attachment.Item shape
// ADAPT handlers expect (§4.10): a one-member Item.Single when there is
// exactly one source, otherwise a Collection so adapters concatenate text
// with chunk headers and flatten images the same way they do for a SPLIT
// result.
func (c *Collection) asItem() attachment.Item {
	if len(c.Items) == 1 {
		return attachment.Of(c.Items[0])
	}
	return attachment.OfCollection(&attachment.Collection{Items: c.Items})
}

// adapt runs the named registered ADAPT handler (chat/responses/claude)
// against the combined content, honoring call-site text/images overrides
// which take precedence over both process defaults and the DSL (§4.10).
func (c *Collection) adapt(name, prompt string, opts ...AdaptOption) (any, error) {
	h := c.engine.Registry.ByName(registry.KindAdapt, name)
	if h == nil {
		return nil, fmt.Errorf("attachments: no %q adapter registered", name)
	}
	cfg := adaptConfig{includeText: true, includeImages: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	cmds := attachment.NewCommands()
	if len(c.Items) > 0 {
		// Bind only the keys this adapter declares: the DSL is a flat
		// namespace shared by every handler in the chain, and an
		// unrelated key (e.g. [rotate:90]) must not fail binding here.
		for _, p := range h.Params {
			if v, ok := c.Items[0].Commands.Get(p.Name); ok {
				cmds.Set(p.Name, v)
			}
		}
	}
	params, err := registry.Bind(h.Params, cmds)
	if err != nil {
		return nil, err
	}
	if cfg.textSet {
		params = params.WithOverride("text", cfg.includeText)
	}
	if cfg.imagesSet {
		params = params.WithOverride("images", cfg.includeImages)
	}
	metrics.RecordAdapterCall(name)
	return h.Adapt(context.Background(), c.asItem(), prompt, params)
}

// AdaptOption is a call-site override for an ADAPT handler's content
// filter, taking precedence over both the DSL and process defaults
// (§4.10).
type AdaptOption func(*adaptConfig)

type adaptConfig struct {
	includeText   bool
	includeImages bool
	textSet       bool
	imagesSet     bool
}

// WithText forces the text category on or off for this adapter call.
func WithText(include bool) AdaptOption {
	return func(c *adaptConfig) { c.includeText = include; c.textSet = true }
}

// WithImages forces the image category on or off for this adapter call.
func WithImages(include bool) AdaptOption {
	return func(c *adaptConfig) { c.includeImages = include; c.imagesSet = true }
}

// Chat renders the Chat-style provider envelope (§6.1).
func (c *Collection) Chat(prompt string, opts ...AdaptOption) (any, error) {
	return c.adapt("chat", prompt, opts...)
}

// Responses renders the Responses-style provider envelope (§6.2).
func (c *Collection) Responses(prompt string, opts ...AdaptOption) (any, error) {
	return c.adapt("responses", prompt, opts...)
}

// Claude renders the Claude-style provider envelope (§6.3).
func (c *Collection) Claude(prompt string, opts ...AdaptOption) (any, error) {
	return c.adapt("claude", prompt, opts...)
}
