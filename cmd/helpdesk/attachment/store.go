// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/helpdesk/cmd/helpdesk/cli"
	"github.com/bureau-foundation/helpdesk/lib/attachment"
)

// --- store ---

type storeParams struct {
	serviceConnection
	outputJSON bool
}

func storeCommand() *cli.Command {
	var params storeParams

	return &cli.Command{
		Name:    "store",
		Summary: "Download an attachment into the cache",
		Description: `Fetch an attachment from the upstream ticketing system and store it
in the local cache. If the attachment is already cached, nothing is
downloaded and the cached metadata is reported.`,
		Usage: "helpdesk attachment store <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Cache an attachment by id",
				Command:     "helpdesk attachment store 9000142",
			},
			{
				Description: "Cache and print the entry metadata as JSON",
				Command:     "helpdesk attachment store 9000142 --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("store", pflag.ContinueOnError)
			params.addFlags(flagSet)
			flagSet.BoolVar(&params.outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one attachment id")
			}
			id, err := parseAttachmentID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := callContext()
			defer cancel()

			var outcome attachment.StoreOutcome
			if err := params.connect().Call(ctx, "store_attachment", map[string]any{"id": id}, &outcome); err != nil {
				return err
			}

			if params.outputJSON {
				return cli.WriteJSON(outcome)
			}
			return writeStoreLine(os.Stdout, outcome.Entry, outcome.FromCache)
		},
	}
}

// --- extract ---

type extractParams struct {
	serviceConnection
	outputJSON bool
}

func extractCommand() *cli.Command {
	var params extractParams

	return &cli.Command{
		Name:    "extract",
		Summary: "Download an archive attachment and extract it",
		Description: `Fetch an archive attachment, store it, and extract its contents next
to the original. Supported formats: tar, tar.gz, tar.bz2, tar.zst,
tar.lz4, and zip. After extraction, the files, read, and search
subcommands operate on the extracted tree.

Both steps are idempotent: a cached download or an existing extracted
tree is reused rather than redone. Non-archive attachments are
refused, but the download itself stays cached.`,
		Usage: "helpdesk attachment extract <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Extract a support bundle",
				Command:     "helpdesk attachment extract 9000142",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			params.addFlags(flagSet)
			flagSet.BoolVar(&params.outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one attachment id")
			}
			id, err := parseAttachmentID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := callContext()
			defer cancel()

			var outcome attachment.StoreAndExtractOutcome
			if err := params.connect().Call(ctx, "store_and_extract_attachment", map[string]any{"id": id}, &outcome); err != nil {
				return err
			}

			if params.outputJSON {
				return cli.WriteJSON(outcome)
			}
			if err := writeStoreLine(os.Stdout, outcome.Entry, outcome.DownloadFromCache); err != nil {
				return err
			}
			if outcome.Extraction.FromCache {
				_, err = fmt.Printf("already extracted (%d files)\n", outcome.Extraction.FileCount)
			} else {
				_, err = fmt.Printf("extracted %d files\n", outcome.Extraction.FileCount)
			}
			return err
		},
	}
}

// --- delete ---

type deleteParams struct {
	serviceConnection
	outputJSON bool
}

func deleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Remove an attachment from the cache",
		Description: `Remove a cached attachment, including any extracted tree. The
attachment can be stored again later; deletion only discards the
local copy.

Exits 1 (without an error message) when the attachment was not
cached, so scripts can distinguish "removed" from "nothing to do".`,
		Usage: "helpdesk attachment delete <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Evict one attachment",
				Command:     "helpdesk attachment delete 9000142",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("delete", pflag.ContinueOnError)
			params.addFlags(flagSet)
			flagSet.BoolVar(&params.outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one attachment id")
			}
			id, err := parseAttachmentID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := callContext()
			defer cancel()

			var outcome attachment.DeleteOutcome
			if err := params.connect().Call(ctx, "delete_cached_attachment", map[string]any{"id": id}, &outcome); err != nil {
				return err
			}

			if params.outputJSON {
				return cli.WriteJSON(outcome)
			}
			if !outcome.Deleted {
				fmt.Printf("not cached: %d\n", id)
				return &cli.ExitError{Code: 1}
			}
			fmt.Printf("deleted %d\n", id)
			return nil
		},
	}
}
