// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import "github.com/bureau-foundation/helpdesk/cmd/helpdesk/cli"

// Command returns the "attachment" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "attachment",
		Summary: "Ticket attachment cache operations",
		Description: `Cache and inspect ticket attachments.

Attachments are downloaded from the upstream ticketing system once,
stored by their attachment id, and served from the local cache on
every later access. Archives (tar, tar.gz, tar.bz2, tar.zst, tar.lz4,
zip) can be extracted in place, after which files, read, and search
operate on the extracted tree.`,
		Subcommands: []*cli.Command{
			storeCommand(),
			extractCommand(),
			filesCommand(),
			readCommand(),
			searchCommand(),
			deleteCommand(),
			statusCommand(),
		},
	}
}
