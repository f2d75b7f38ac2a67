// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	attachments "github.com/kraklabs/attachments"
	"github.com/kraklabs/attachments/internal/errors"
	"github.com/kraklabs/attachments/internal/ui"
)

// runExplain executes `attach explain <source>`: resolve exactly one
// source and print its pipeline trace, resulting object shape, and any
// captured errors, for debugging which handlers ran and why (SUPP-4).
func runExplain(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("explain", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: attach explain <source> [options]

Resolve a single source and print the handler chain that ran against
it (pipeline_trace), the resulting text/image counts, and any captured
errors.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Invalid arguments",
			"attach explain takes exactly one source",
			"Run: attach explain ./file.txt[chars:200]",
		), globals.JSON)
	}

	source := fs.Arg(0)
	coll, err := attachments.Attachments(source)
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Failed to resolve source",
			err.Error(),
			"Check the source for syntax errors in its bracket-DSL commands",
		), globals.JSON)
	}
	if len(coll.Items) != 1 {
		errors.FatalError(errors.NewInternalError(
			"Unexpected attachment count",
			fmt.Sprintf("expected 1 resolved attachment, got %d", len(coll.Items)),
			"This is a bug; please report it",
			nil,
		), globals.JSON)
	}

	a := coll.Items[0]
	ui.Header("Attachment Explain")
	fmt.Println(a.DebugString())
	fmt.Println()
	fmt.Println(ui.Label("Trace:"))
	fmt.Println("  " + strings.Join(a.PipelineTrace, "\n  "))

	if errs := a.Errors(); len(errs) > 0 {
		fmt.Println()
		fmt.Println(ui.Label("Captured errors:"))
		for _, e := range errs {
			ui.Warningf("%s: %s: %s", e.Step, e.Kind, e.Message)
		}
	}
}
