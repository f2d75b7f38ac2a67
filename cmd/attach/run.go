// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	attachments "github.com/kraklabs/attachments"
	"github.com/kraklabs/attachments/internal/errors"
	"github.com/kraklabs/attachments/internal/ui"
)

// runResult is the --json shape for `attach run`.
type runResult struct {
	Sources    int      `json:"sources"`
	Text       string   `json:"text"`
	ImageCount int      `json:"image_count"`
	Errors     []string `json:"errors,omitempty"`
}

// runRun executes `attach run <source...>`: resolve every source against
// the default engine and print the combined text, a count of images, and
// any non-fatal errors captured along the way (§4.11, §7).
func runRun(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: attach run <source...> [options]

Resolve one or more sources (file paths, URLs, or bracket-DSL commands)
into a combined text/image bundle and print the result.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	sources := fs.Args()
	if len(sources) == 0 {
		errors.FatalError(errors.NewInputError(
			"No sources given",
			"attach run requires at least one source argument",
			"Run: attach run ./file.txt",
		), globals.JSON)
	}

	progress := NewProgressConfig(globals)
	spinner := NewSpinner(progress, fmt.Sprintf("%s (%d source(s))", phaseDescription("load"), len(sources)))
	coll, err := attachments.Attachments(sources...)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if err != nil && coll == nil {
		errors.FatalError(errors.NewInputError(
			"Failed to resolve sources",
			err.Error(),
			"Check the source paths/URLs and any bracket-DSL commands for typos",
		), globals.JSON)
	}

	var errMsgs []string
	if err != nil {
		errMsgs = append(errMsgs, err.Error())
	}
	for _, e := range coll.Errors() {
		errMsgs = append(errMsgs, fmt.Sprintf("%s: %s: %s", e.Step, e.Kind, e.Message))
	}

	if globals.JSON {
		result := runResult{
			Sources:    len(coll.Items),
			Text:       coll.Text(),
			ImageCount: len(coll.Images()),
			Errors:     errMsgs,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}

	if !globals.Quiet {
		ui.Header("Attachment Run")
		fmt.Printf("Resolved %d of %d source(s)\n", len(coll.Items), len(sources))
		fmt.Printf("Images: %d\n\n", len(coll.Images()))
	}
	fmt.Println(coll.Text())

	for _, m := range errMsgs {
		ui.Warning(m)
	}
}
