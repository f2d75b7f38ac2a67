// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	attachments "github.com/kraklabs/attachments"
	"github.com/kraklabs/attachments/internal/errors"
	"github.com/kraklabs/attachments/internal/ui"
	"github.com/kraklabs/attachments/pkg/envelope"
	"github.com/kraklabs/attachments/pkg/provider"
)

// runAsk executes `attach ask <source...> --prompt "..."`: resolve the
// sources into a Chat-style envelope (§6.1), flatten it through
// provider.FromChat, and dispatch it to a live backend.
func runAsk(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	prompt := fs.String("prompt", "", "The question or instruction to send alongside the sources")
	providerType := fs.String("provider", "ollama", "Backend: ollama, openai, anthropic, or mock")
	model := fs.String("model", "", "Model name override (falls back to the provider's default)")
	baseURL := fs.String("base-url", "", "Override the provider's base URL")
	apiKey := fs.String("api-key", "", "API key, when the provider requires one")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: attach ask <source...> --prompt "..." [options]

Resolve one or more sources and send them, together with a prompt, to a
live provider backend.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	sources := fs.Args()
	if len(sources) == 0 || *prompt == "" {
		errors.FatalError(errors.NewInputError(
			"Missing sources or prompt",
			"attach ask requires at least one source and a non-empty --prompt",
			`Run: attach ask ./file.txt --prompt "summarize this"`,
		), globals.JSON)
	}

	coll, err := attachments.Attachments(sources...)
	if err != nil && coll == nil {
		errors.FatalError(errors.NewInputError(
			"Failed to resolve sources",
			err.Error(),
			"Check the source paths/URLs for typos",
		), globals.JSON)
	}

	rendered, err := coll.Chat(*prompt)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Failed to render the chat envelope",
			err.Error(),
			"This is a bug; please report it",
			err,
		), globals.JSON)
	}
	chat, ok := rendered.(envelope.Chat)
	if !ok {
		errors.FatalError(errors.NewInternalError(
			"Unexpected envelope type",
			fmt.Sprintf("chat adapter returned %T, want envelope.Chat", rendered),
			"This is a bug; please report it",
			nil,
		), globals.JSON)
	}

	p, err := provider.New(provider.Config{
		Type:         *providerType,
		BaseURL:      *baseURL,
		APIKey:       *apiKey,
		DefaultModel: *model,
	})
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot create provider",
			err.Error(),
			"Check --provider, --base-url, and --api-key",
			err,
		), globals.JSON)
	}

	req := provider.FromChat(chat)
	req.Model = *model

	if !globals.Quiet {
		ui.Infof("Asking %s (%s)...", p.Name(), *model)
	}

	resp, err := p.Chat(context.Background(), req)
	if err != nil {
		errors.FatalError(errors.NewNetworkError(
			"Provider request failed",
			err.Error(),
			"Check the provider is reachable and the model name is valid",
			err,
		), globals.JSON)
	}

	fmt.Println(resp.Message.Content)
}
