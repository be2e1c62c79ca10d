// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	attachmentcmd "github.com/bureau-foundation/helpdesk/cmd/helpdesk/attachment"
	"github.com/bureau-foundation/helpdesk/cmd/helpdesk/cli"
	"github.com/bureau-foundation/helpdesk/lib/version"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like delete on a
		// cache miss) return an ExitError with the desired exit code.
		// Don't print a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return rootCommand().Execute(os.Args[1:])
}

// rootCommand builds the helpdesk CLI command tree.
func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "helpdesk",
		Description: `Helpdesk: ticket attachment tooling.

Cache ticket attachments locally, extract archive bundles, and list,
read, and search their contents through the attachment service.`,
		Subcommands: []*cli.Command{
			attachmentcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("helpdesk %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Cache a ticket attachment",
				Command:     "helpdesk attachment store 9000142",
			},
			{
				Description: "Extract a support bundle and list its logs",
				Command:     "helpdesk attachment extract 9000142 && helpdesk attachment files 9000142 --pattern '**/*.log'",
			},
			{
				Description: "Search an extracted bundle for errors",
				Command:     "helpdesk attachment search 9000142 'ERROR|FATAL' --glob '*.log'",
			},
			{
				Description: "Check the attachment service",
				Command:     "helpdesk attachment status",
			},
		},
	}
}
