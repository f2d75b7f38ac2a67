// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline implements the composition algebra (C6, C7): Sequential
// (>>) and Additive (++) combinators over Attachment/AttachmentCollection,
// vectorized lift over collections, reducer short-circuit, per-step error
// capture, and fallback chains.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/internal/metrics"
	"github.com/kraklabs/attachments/pkg/attachment"
)

// Host is the cooperative-cancellation hook the engine polls between
// steps (§5): if non-nil and it returns true, the pipeline stops and
// returns the last successful result with metadata.cancelled=true.
type Host struct {
	Cancelled func() bool
}

// Step is a single pipeline stage: an Item in, an Item out, or an error.
// Op wraps verb handlers of every kind into this common shape (C4).
type Step struct {
	Name      string
	IsReducer bool
	Apply     func(item attachment.Item) (attachment.Item, error)
}

// Pipeline is a composed chain of Steps plus optional fallback Pipelines
// (§4.3). A Pipeline is itself immutable once built; >> and ++ return new
// Pipelines rather than mutating in place.
type Pipeline struct {
	steps     []compiledStep
	fallbacks []*Pipeline
	host      *Host
	logger    *slog.Logger
}

// compiledStep tags a Step with how it composes with the step before it:
// additive steps append to text/images instead of fully replacing.
type compiledStep struct {
	step     Step
	additive bool
}

// New returns an empty Pipeline that is the identity when run.
func New() *Pipeline {
	return &Pipeline{}
}

// WithHost attaches cancellation polling to the pipeline.
func (p *Pipeline) WithHost(h *Host) *Pipeline {
	cp := p.clone()
	cp.host = h
	return cp
}

// WithLogger attaches a structured logger the engine uses to emit one
// Debug line per step and one Warn line per captured non-fatal error,
// the way the teacher's pkg/ingestion logs its own pipeline stages. A
// nil logger (the zero value New() produces) falls back to slog.Default()
// at run time.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	cp := p.clone()
	cp.logger = l
	return cp
}

func (p *Pipeline) effectiveLogger() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// WithFallbacks appends alternative pipelines tried, in order, against the
// original input if this pipeline's run fails (§4.3).
func (p *Pipeline) WithFallbacks(fallbacks ...*Pipeline) *Pipeline {
	cp := p.clone()
	cp.fallbacks = append(append([]*Pipeline(nil), cp.fallbacks...), fallbacks...)
	return cp
}

func (p *Pipeline) clone() *Pipeline {
	return &Pipeline{
		steps:     append([]compiledStep(nil), p.steps...),
		fallbacks: append([]*Pipeline(nil), p.fallbacks...),
		host:      p.host,
		logger:    p.logger,
	}
}

// Then is the Sequential operator (a >> b): run p, then step, over the
// same running value; step may replace any field.
func (p *Pipeline) Then(step Step) *Pipeline {
	cp := p.clone()
	cp.steps = append(cp.steps, compiledStep{step: step, additive: false})
	return cp
}

// Add is the Additive operator (a ++ b): run p, then step, over p's
// result but treated as additive — step is expected to append to
// text/images rather than replace (§4.3). Left-associative by
// construction: calling Add repeatedly folds left.
func (p *Pipeline) Add(step Step) *Pipeline {
	cp := p.clone()
	cp.steps = append(cp.steps, compiledStep{step: step, additive: true})
	return cp
}

// Run executes the pipeline against a single Attachment, trying
// fallbacks in order on failure, per §4.3. The returned Attachment always
// carries a complete pipeline_trace and any captured non-fatal errors.
func (p *Pipeline) Run(att *attachment.Attachment) *attachment.Attachment {
	start := time.Now()
	defer func() { metrics.ObservePipelineDuration(time.Since(start).Seconds()) }()

	result, err := p.run(attachment.Of(att))
	if err == nil {
		if result.Single != nil {
			return result.Single
		}
		if result.IsCollection() && result.Multi.Len() > 0 {
			// A terminal reducer turned the collection into one
			// Attachment; callers that Run a Pipeline expect a single
			// Attachment back, so surface the first (only) member.
			return result.Multi.Items[0]
		}
	}

	for _, fb := range p.fallbacks {
		metrics.RecordFallbackTried()
		clone := att.Clone()
		out, ferr := fb.run(attachment.Of(clone))
		if ferr == nil {
			if out.Single != nil {
				return out.Single
			}
		}
	}

	// All fallbacks exhausted (or none declared): surface the original
	// input carrying the fatal error, so the caller can inspect
	// att.Errors() and decide exit behavior (§7 surfacing rule).
	failed := att.Clone()
	if err != nil {
		recordFatal(failed, err)
	}
	return failed
}

// RunItem executes the pipeline against an Item (single or collection)
// and is the entry point used by the high-level API when a SPLIT has
// already produced a Collection upstream.
func (p *Pipeline) RunItem(item attachment.Item) attachment.Item {
	out, err := p.run(item)
	if err == nil {
		return out
	}
	for _, fb := range p.fallbacks {
		out, ferr := fb.run(item)
		if ferr == nil {
			return out
		}
	}
	return item
}

func (p *Pipeline) run(item attachment.Item) (attachment.Item, error) {
	logger := p.effectiveLogger()
	cur := item
	for _, cs := range p.steps {
		if p.host != nil && p.host.Cancelled != nil && p.host.Cancelled() {
			logger.Debug("pipeline.step.cancelled", "step", cs.step.Name)
			markCancelled(cur, logger)
			return cur, nil
		}

		stepStart := time.Now()
		next, err := apply(cs, cur, logger)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		logger.Debug("pipeline.step", "step", cs.step.Name, "additive", cs.additive,
			"reducer", cs.step.IsReducer, "outcome", outcome, "elapsed", time.Since(stepStart).String())
		if err != nil {
			if tagged, ok := err.(*errs.TaggedError); ok && tagged.Kind.Fatal() {
				logger.Warn("pipeline.step.fatal", "step", cs.step.Name, "err", err)
				return cur, err
			}
			captureNonFatal(cur, cs.step.Name, err, logger)
			continue
		}
		cur = next
	}
	return cur, nil
}

// apply dispatches a compiled step across a single Attachment or a
// Collection, implementing the C7 vectorization law: reducers consume the
// whole collection once; non-reducers lift elementwise, dropping members
// for which the step returns a zero Item (§4.4).
func apply(cs compiledStep, item attachment.Item, logger *slog.Logger) (attachment.Item, error) {
	if !item.IsCollection() {
		metrics.RecordHandlerInvocation(cs.step.Name)
		out, err := cs.step.Apply(item)
		if err == nil {
			traceStep(out, cs)
		}
		return out, err
	}

	coll := item.Multi
	if cs.step.IsReducer {
		metrics.RecordHandlerInvocation(cs.step.Name)
		out, err := cs.step.Apply(item)
		if err == nil {
			traceStep(out, cs)
		}
		return out, err
	}

	var kept []*attachment.Attachment
	for _, member := range coll.Items {
		metrics.RecordHandlerInvocation(cs.step.Name)
		out, err := cs.step.Apply(attachment.Of(member))
		if err != nil {
			if tagged, ok := err.(*errs.TaggedError); ok && tagged.Kind.Fatal() {
				return item, err
			}
			captureNonFatal(member, cs.step.Name, err, logger)
			kept = append(kept, member)
			continue
		}
		if out.IsZero() {
			continue // dropped per §4.4
		}
		traceStep(out, cs)
		if out.Single != nil {
			kept = append(kept, out.Single)
		} else if out.IsCollection() {
			kept = append(kept, out.Multi.Items...)
		}
	}
	return attachment.OfCollection(&attachment.Collection{Items: kept}), nil
}

// traceStep appends the step's name to every resulting Attachment's
// pipeline_trace, marking additive steps with a "++" suffix so
// `attach explain` can show which steps accumulated versus replaced.
func traceStep(item attachment.Item, cs compiledStep) {
	name := cs.step.Name
	if cs.additive {
		name += "++"
	}
	for _, a := range item.Attachments() {
		a.Trace(name)
	}
}

func captureNonFatal(item attachment.Item, step string, err error, logger *slog.Logger) {
	for _, a := range item.Attachments() {
		captureOne(a, step, err, logger)
	}
}

// captureOne records a non-fatal failure into metadata.errors and, per the
// §7 surfacing rule, synthesizes an explanatory artifact into a.Text when
// the Attachment otherwise has nothing to show for itself — so a source
// that failed to load still returns an Attachment whose text explains the
// condition rather than one that is silently empty.
func captureOne(a *attachment.Attachment, step string, err error, logger *slog.Logger) {
	if a == nil {
		return
	}
	kind := "HandlerFailure"
	msg := err.Error()
	var tagged *errs.TaggedError
	if te, ok := err.(*errs.TaggedError); ok {
		tagged = te
		kind = string(te.Kind)
		msg = te.Message
	}
	a.AddError(attachment.ErrorEntry{Step: step, Kind: kind, Message: msg})
	a.Trace(step + ":error")
	metrics.RecordError(kind)
	if logger != nil {
		logger.Warn("pipeline.step.error", "step", step, "kind", kind, "err", msg)
	}
	if a.Text == "" {
		a.AppendText(explanationText(step, kind, msg, tagged))
	}
}

// explanationText renders the graceful-degradation artifact for a captured
// non-fatal error: a line naming the taxonomy Kind (the classification
// keyword callers match on) plus the Fix/install-hint and the responsible
// handler's name when the error carries them.
func explanationText(step, kind, msg string, tagged *errs.TaggedError) string {
	text := fmt.Sprintf("[%s] handler %q could not complete: %s", kind, step, msg)
	if tagged != nil && tagged.Fix != "" {
		text += fmt.Sprintf(" (%s)", tagged.Fix)
	}
	return text
}

func recordFatal(a *attachment.Attachment, err error) {
	captureOne(a, "pipeline", err, slog.Default())
}

func markCancelled(item attachment.Item, logger *slog.Logger) {
	metrics.RecordCancelled()
	for _, a := range item.Attachments() {
		a.Metadata["cancelled"] = true
		if logger != nil {
			logger.Warn("pipeline.cancelled", "path", a.Path)
		}
	}
}
