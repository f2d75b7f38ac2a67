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

// Package main implements the attach CLI: a thin driver over the
// attachments module for turning file paths, URLs, and bracket-DSL
// sources into text/image bundles or provider-ready envelopes.
//
// Usage:
//
//	attach run <source...>                Print combined text/image summary
//	attach explain <source>                Show one Attachment's pipeline trace
//	attach ask <source...> --prompt "..."  Send sources + a prompt to a live provider
//	attach completion <bash|zsh|fish>      Print a shell completion script
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/attachments/internal/ui"
	"github.com/kraklabs/attachments/internal/version"
)

// GlobalFlags are options every subcommand reads before doing its own
// flag parsing, mirroring the teacher's cie CLI convention.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
	Verbose int
}

func main() {
	fs := flag.NewFlagSet("attach", flag.ContinueOnError)
	var globals GlobalFlags
	fs.BoolVar(&globals.JSON, "json", false, "Output machine-readable JSON")
	fs.BoolVarP(&globals.Quiet, "quiet", "q", false, "Suppress progress and informational output")
	fs.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	fs.CountVarP(&globals.Verbose, "verbose", "v", "Increase log verbosity (stackable)")
	showVersion := fs.Bool("version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `attach - content ingestion pipeline CLI

Usage:
  attach <command> [options] [args]

Commands:
  run         Resolve sources into a combined text/image bundle
  explain     Show one source's pipeline trace and captured errors
  ask         Resolve sources and send them to a live provider with a prompt
  completion  Print a shell completion script

Global Options:
`)
		fs.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  attach run ./report.pdf[pages:1-3]
  attach explain "https://example.com/data.csv[limit:10]"
  attach ask ./diagram.png --prompt "what does this show?" --provider ollama
`)
	}

	// pflag stops at the first non-flag argument only with fs.SetInterspersed(false);
	// global flags are parsed from the full argument list, then the remainder
	// (command + its own flags) is handled by the subcommand's own FlagSet.
	fs.SetInterspersed(false)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if globals.JSON {
		globals.Quiet = true
	}

	ui.InitColors(globals.NoColor)

	if *showVersion {
		fmt.Print(version.String())
		os.Exit(0)
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	command, rest := args[0], args[1:]
	switch command {
	case "run":
		runRun(rest, globals)
	case "explain":
		runExplain(rest, globals)
	case "ask":
		runAsk(rest, globals)
	case "completion":
		runCompletion(rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fs.Usage()
		os.Exit(1)
	}
}
