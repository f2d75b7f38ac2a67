// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/attachments/internal/errs"
	"github.com/kraklabs/attachments/pkg/attachment"
)

func appendStep(name, text string) Step {
	return Step{Name: name, Apply: func(item attachment.Item) (attachment.Item, error) {
		a := item.Single
		a.AppendText(text)
		return attachment.Of(a), nil
	}}
}

func replaceStep(name, text string) Step {
	return Step{Name: name, Apply: func(item attachment.Item) (attachment.Item, error) {
		a := item.Single
		a.Text = text
		return attachment.Of(a), nil
	}}
}

func newAtt() *attachment.Attachment {
	return attachment.New("a.txt", "a.txt", attachment.NewCommands())
}

func TestSequentialReplaces(t *testing.T) {
	p := New().Then(replaceStep("r1", "one")).Then(replaceStep("r2", "two"))
	out := p.Run(newAtt())
	assert.Equal(t, "two", out.Text)
	assert.Equal(t, []string{"r1", "r2"}, out.PipelineTrace)
}

func TestAdditiveAppends(t *testing.T) {
	p := New().Then(appendStep("p1", "first")).Add(appendStep("p2", "second"))
	out := p.Run(newAtt())
	assert.Equal(t, "first\n\nsecond", out.Text)
}

func TestAdditiveDistributesOverSequentialResult(t *testing.T) {
	// a >> (b ++ c): b and c both accumulate onto a's result.
	p := New().
		Then(appendStep("a", "base")).
		Add(appendStep("b", "extra-b")).
		Add(appendStep("c", "extra-c"))
	out := p.Run(newAtt())
	assert.Equal(t, "base\n\nextra-b\n\nextra-c", out.Text)
}

func TestVectorizationLiftsOverCollection(t *testing.T) {
	members := []*attachment.Attachment{newAtt(), newAtt(), newAtt()}
	coll := attachment.NewCollection(newAtt(), "paragraphs", members)

	p := New().Then(appendStep("tag", "x"))
	out := p.RunItem(attachment.OfCollection(coll))

	require.True(t, out.IsCollection())
	require.Equal(t, 3, out.Multi.Len())
	for _, m := range out.Multi.Items {
		assert.Equal(t, "x", m.Text)
	}
}

func TestReducerConsumesWholeCollectionOnce(t *testing.T) {
	members := []*attachment.Attachment{newAtt(), newAtt()}
	coll := attachment.NewCollection(newAtt(), "paragraphs", members)

	calls := 0
	reduce := Step{Name: "merge", IsReducer: true, Apply: func(item attachment.Item) (attachment.Item, error) {
		calls++
		merged := newAtt()
		merged.Text = "merged"
		return attachment.Of(merged), nil
	}}

	p := New().Then(reduce)
	out := p.RunItem(attachment.OfCollection(coll))

	assert.Equal(t, 1, calls)
	require.NotNil(t, out.Single)
	assert.Equal(t, "merged", out.Single.Text)
}

func TestNonFatalErrorIsCapturedAndPreviousValueFlows(t *testing.T) {
	failing := Step{Name: "boom", Apply: func(item attachment.Item) (attachment.Item, error) {
		return attachment.Item{}, errs.HandlerFailure("boom", assertErr{})
	}}
	p := New().Then(appendStep("pre", "kept")).Then(failing)
	out := p.Run(newAtt())

	assert.Equal(t, "kept", out.Text)
	errsOut := out.Errors()
	require.Len(t, errsOut, 1)
	assert.Equal(t, "HandlerFailure", errsOut[0].Kind)
}

func TestNonFatalErrorSynthesizesExplanatoryTextWhenEmpty(t *testing.T) {
	failing := Step{Name: "fetch", Apply: func(item attachment.Item) (attachment.Item, error) {
		return attachment.Item{}, errs.DependencyMissing("fetch", "could not satisfy an optional dependency", "install the missing library", nil)
	}}
	p := New().Then(failing)
	out := p.Run(newAtt())

	assert.Contains(t, out.Text, "DependencyMissing")
	assert.Contains(t, out.Text, "fetch")
	assert.Contains(t, out.Text, "install the missing library")
}

func TestFallbackTriedOnFatalError(t *testing.T) {
	failing := Step{Name: "primary", Apply: func(item attachment.Item) (attachment.Item, error) {
		return attachment.Item{}, errs.DSLSyntax("x[bad", 1, "broken")
	}}
	fallback := New().Then(replaceStep("fallback-loader", "fallback text"))

	p := New().Then(failing).WithFallbacks(fallback)
	out := p.Run(newAtt())

	assert.Equal(t, "fallback text", out.Text)
}

func TestDroppedCollectionMembersAreOmitted(t *testing.T) {
	members := []*attachment.Attachment{newAtt(), newAtt()}
	coll := attachment.NewCollection(newAtt(), "paragraphs", members)

	dropSecond := 0
	dropper := Step{Name: "filter", Apply: func(item attachment.Item) (attachment.Item, error) {
		dropSecond++
		if dropSecond == 2 {
			return attachment.Item{}, nil
		}
		return item, nil
	}}

	p := New().Then(dropper)
	out := p.RunItem(attachment.OfCollection(coll))
	require.True(t, out.IsCollection())
	assert.Equal(t, 1, out.Multi.Len())
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
