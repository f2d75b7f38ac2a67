// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/attachments/internal/errors"
)

// bashCompletionTemplate is the bash completion script for attach.
const bashCompletionTemplate = `#!/bin/bash

# Bash completion script for attach
# Installation:
#   source <(attach completion bash)
#   Or add to ~/.bashrc:
#   echo 'source <(attach completion bash)' >> ~/.bashrc

_attach_completion() {
    local cur prev commands
    commands="run explain ask completion"

    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [[ ${cur} == -* ]] ; then
        COMPREPLY=( $(compgen -W "--json --quiet --no-color --verbose --version" -- ${cur}) )
        return 0
    fi

    if [ $COMP_CWORD -eq 1 ]; then
        COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        return 0
    fi

    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
        ask)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--prompt --provider --model --base-url --api-key" -- ${cur}) )
            fi
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            ;;
    esac
}

complete -F _attach_completion attach
`

// zshCompletionTemplate is the zsh completion script for attach.
const zshCompletionTemplate = `#compdef attach

_attach() {
    local -a commands
    commands=(
        'run:Resolve sources into a text/image bundle'
        'explain:Show one source'"'"'s pipeline trace'
        'ask:Resolve sources and prompt a live provider'
        'completion:Print a shell completion script'
    )

    if (( CURRENT == 2 )); then
        _describe 'command' commands
        return
    fi

    case "${words[2]}" in
        ask)
            _arguments '--prompt[prompt text]:prompt:' \
                '--provider[backend]:provider:(ollama openai anthropic mock)' \
                '--model[model name]:model:' \
                '--base-url[base URL]:url:' \
                '--api-key[API key]:key:'
            ;;
        completion)
            _values 'shell' bash zsh fish
            ;;
    esac
}

_attach
`

// fishCompletionTemplate is the fish completion script for attach.
const fishCompletionTemplate = `# Fish completion script for attach
complete -c attach -f
complete -c attach -n '__fish_use_subcommand' -a run -d 'Resolve sources into a text/image bundle'
complete -c attach -n '__fish_use_subcommand' -a explain -d "Show one source's pipeline trace"
complete -c attach -n '__fish_use_subcommand' -a ask -d 'Resolve sources and prompt a live provider'
complete -c attach -n '__fish_use_subcommand' -a completion -d 'Print a shell completion script'
complete -c attach -n '__fish_seen_subcommand_from ask' -l prompt -d 'Prompt text'
complete -c attach -n '__fish_seen_subcommand_from ask' -l provider -a 'ollama openai anthropic mock'
complete -c attach -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'
`

// runCompletion executes `attach completion <shell>`, printing the
// matching shell completion script to stdout.
func runCompletion(args []string) {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: attach completion <bash|zsh|fish>

Print a shell completion script for the requested shell.

Examples:
  source <(attach completion bash)
  attach completion zsh > "${fpath[1]}/_attach"
  attach completion fish | source
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Invalid arguments",
			"attach completion requires exactly one argument: the shell name",
			"Run 'attach completion bash', 'attach completion zsh', or 'attach completion fish'",
		), false)
	}

	switch fs.Arg(0) {
	case "bash":
		fmt.Print(bashCompletionTemplate)
	case "zsh":
		fmt.Print(zshCompletionTemplate)
	case "fish":
		fmt.Print(fishCompletionTemplate)
	default:
		errors.FatalError(errors.NewInputError(
			"Unsupported shell",
			fmt.Sprintf("shell %q is not supported. Valid options: bash, zsh, fish", fs.Arg(0)),
			"Run 'attach completion bash', 'attach completion zsh', or 'attach completion fish'",
		), false)
	}
}
