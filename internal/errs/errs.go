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

// Package errs provides structured error handling for the attachments engine.
//
// Every failure the pipeline can produce belongs to one of seven taxonomy
// kinds (Kind). Two kinds are fatal for the affected Attachment
// (DSLSyntaxError, DSLValueError); the rest are non-fatal and are either
// downgraded to a fallback or captured into the Attachment's metadata as a
// content-carrying artifact. TaggedError carries the Kind alongside the
// same Message/Cause/Fix shape the CLI uses for user-facing output.
package errs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Kind identifies one of the seven taxonomy classes from the error model.
type Kind string

const (
	// KindDSLSyntax is an unparseable bracket group. Fatal for the Attachment.
	KindDSLSyntax Kind = "DSLSyntaxError"

	// KindDSLValue is a known DSL key with an unrecognized enum value. Fatal.
	KindDSLValue Kind = "DSLValueError"

	// KindLoaderUnavailable means no loader's match predicate accepted the
	// Attachment; downgraded to the text-fallback loader. Non-fatal.
	KindLoaderUnavailable Kind = "LoaderUnavailable"

	// KindDependencyMissing means a handler aborted for want of an optional
	// external library. Non-fatal: replaced by an explanatory artifact.
	KindDependencyMissing Kind = "DependencyMissing"

	// KindHandlerFailure is any other exception raised inside a handler.
	// Non-fatal: captured in metadata.errors, previous value flows forward.
	KindHandlerFailure Kind = "HandlerFailure"

	// KindSizeBudgetExceeded means a repository or response exceeded the
	// configured byte budget without a force override. Non-fatal.
	KindSizeBudgetExceeded Kind = "SizeBudgetExceeded"

	// KindCancelled means a host-provided cancellation flag was observed
	// between pipeline steps. Non-fatal: returns the partial result.
	KindCancelled Kind = "Cancelled"
)

// Fatal reports whether a Kind aborts the affected Attachment outright
// rather than being captured or downgraded.
func (k Kind) Fatal() bool {
	return k == KindDSLSyntax || k == KindDSLValue
}

// Exit codes for the CLI surface. The library surface never exits the
// process; these are consulted only by cmd/attach.
const (
	ExitSuccess  = 0
	ExitDSL      = 2
	ExitIO       = 3
	ExitInternal = 10
)

// ExitCode returns the process exit code for a Kind: ExitDSL for the two
// fatal DSL kinds, ExitIO for LoaderUnavailable, and ExitSuccess for the
// remaining kinds, which are surfaced as content rather than as a nonzero
// exit.
func (k Kind) ExitCode() int {
	switch k {
	case KindDSLSyntax, KindDSLValue:
		return ExitDSL
	case KindLoaderUnavailable:
		return ExitIO
	default:
		return ExitSuccess
	}
}

// TaggedError is a structured error with a taxonomy Kind plus the
// Message/Cause/Fix triad used for both terminal and JSON output.
type TaggedError struct {
	// Kind is the taxonomy class this error belongs to.
	Kind Kind

	// Message describes what went wrong in user-facing language.
	Message string

	// Cause explains why it happened (diagnostic detail).
	Cause string

	// Fix is an actionable suggestion, often an install hint for
	// KindDependencyMissing.
	Fix string

	// Step is the handler name active when the error occurred, if any.
	Step string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *TaggedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap enables errors.Is/errors.As against the wrapped error.
func (e *TaggedError) Unwrap() error {
	return e.Err
}

// New constructs a TaggedError of the given kind.
func New(kind Kind, message, cause, fix string, err error) *TaggedError {
	return &TaggedError{Kind: kind, Message: message, Cause: cause, Fix: fix, Err: err}
}

// DependencyMissing builds the content-carrying explanatory error used when
// a loader or presenter aborts for want of an optional library. fix should
// read as an install hint, e.g. "pip install pypdf" translated to this
// module's Go dependency equivalents where applicable.
func DependencyMissing(handler, message, fix string, err error) *TaggedError {
	return &TaggedError{
		Kind:    KindDependencyMissing,
		Message: message,
		Cause:   fmt.Sprintf("handler %q could not satisfy an optional dependency", handler),
		Fix:     fix,
		Step:    handler,
		Err:     err,
	}
}

// HandlerFailure wraps an arbitrary panic/error raised inside a handler.
func HandlerFailure(handler string, err error) *TaggedError {
	return &TaggedError{
		Kind:    KindHandlerFailure,
		Message: fmt.Sprintf("handler %q failed", handler),
		Cause:   err.Error(),
		Step:    handler,
		Err:     err,
	}
}

// SizeBudgetExceeded builds the warning artifact for an oversized repository
// or HTTP response, naming the discovered size and the force override.
func SizeBudgetExceeded(handler string, discovered, budget int64) *TaggedError {
	return &TaggedError{
		Kind: KindSizeBudgetExceeded,
		Message: fmt.Sprintf("content size %d bytes exceeds the configured budget of %d bytes",
			discovered, budget),
		Cause: "eager size probe ran before reading contents",
		Fix:   "pass [force:true] in the DSL to override the budget",
		Step:  handler,
	}
}

// Format renders the error for terminal display, colorized unless noColor.
func (e *TaggedError) Format(noColor bool) string {
	prevNoColor := color.NoColor
	color.NoColor = noColor
	defer func() { color.NoColor = prevNoColor }()

	var sb strings.Builder
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	_, _ = red.Fprintf(&sb, "Error [%s]: %s\n", e.Kind, e.Message)
	if e.Cause != "" {
		_, _ = yellow.Fprintf(&sb, "Cause: %s\n", e.Cause)
	}
	if e.Fix != "" {
		fmt.Fprintf(&sb, "Fix:   %s\n", e.Fix)
	}
	return sb.String()
}

// ToJSON renders the error as a map suitable for json.Marshal.
func (e *TaggedError) ToJSON() map[string]any {
	m := map[string]any{
		"kind":      string(e.Kind),
		"message":   e.Message,
		"exit_code": e.Kind.ExitCode(),
	}
	if e.Cause != "" {
		m["cause"] = e.Cause
	}
	if e.Fix != "" {
		m["fix"] = e.Fix
	}
	if e.Step != "" {
		m["step"] = e.Step
	}
	return m
}

// MarshalJSON implements json.Marshaler directly so TaggedError values can
// be embedded in metadata.errors[] without an extra ToJSON() call.
func (e *TaggedError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// DSLSyntax builds a fatal DSLSyntaxError carrying the byte offset of the
// unparseable content, per the DSL grammar in the spec.
func DSLSyntax(input string, offset int, reason string) *TaggedError {
	return &TaggedError{
		Kind:    KindDSLSyntax,
		Message: fmt.Sprintf("malformed DSL at offset %d: %s", offset, reason),
		Cause:   input,
	}
}

// DSLValue builds a fatal DSLValueError for a known key with an
// unrecognized enum value, optionally carrying a suggested correction.
func DSLValue(key, value, suggestion string) *TaggedError {
	fix := ""
	if suggestion != "" {
		fix = fmt.Sprintf("did you mean %q?", suggestion)
	}
	return &TaggedError{
		Kind:    KindDSLValue,
		Message: fmt.Sprintf("unrecognized value %q for command %q", value, key),
		Fix:     fix,
	}
}
