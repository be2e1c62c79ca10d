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

// --- files ---

type filesParams struct {
	serviceConnection
	pattern    string
	outputJSON bool
}

func filesCommand() *cli.Command {
	var params filesParams

	return &cli.Command{
		Name:    "files",
		Summary: "List files inside a cached attachment",
		Description: `List the files and directories of a cached attachment. For extracted
archives this walks the extracted tree; for plain attachments it
shows the single stored file.

The optional --pattern flag filters by glob, where * stays within a
path segment and ** crosses segments (e.g. '**/*.log').`,
		Usage: "helpdesk attachment files <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "List everything in an extracted bundle",
				Command:     "helpdesk attachment files 9000142",
			},
			{
				Description: "Only log files, anywhere in the tree",
				Command:     "helpdesk attachment files 9000142 --pattern '**/*.log'",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("files", pflag.ContinueOnError)
			params.addFlags(flagSet)
			flagSet.StringVarP(&params.pattern, "pattern", "p", "", "glob pattern to filter paths")
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

			fields := map[string]any{"id": id}
			if params.pattern != "" {
				fields["pattern"] = params.pattern
			}

			var files []attachment.FileInfo
			if err := params.connect().Call(ctx, "list_attachment_files", fields, &files); err != nil {
				return err
			}

			if params.outputJSON {
				return cli.WriteJSON(files)
			}
			if len(files) == 0 {
				fmt.Println("no matching files")
				return nil
			}
			return writeFileTable(os.Stdout, files)
		},
	}
}

// --- read ---

type readParams struct {
	serviceConnection
	offset     int
	limit      int
	outputJSON bool
}

func readCommand() *cli.Command {
	var params readParams

	return &cli.Command{
		Name:    "read",
		Summary: "Read one file from a cached attachment",
		Description: `Print a file from a cached attachment. Text files are printed as
numbered lines; --offset and --limit page through large files. Binary
files are reported with their size and type; use --json to get the
base64-encoded content.`,
		Usage: "helpdesk attachment read <id> <path> [flags]",
		Examples: []cli.Example{
			{
				Description: "Read a log from an extracted bundle",
				Command:     "helpdesk attachment read 9000142 logs/app.log",
			},
			{
				Description: "Page through a large file",
				Command:     "helpdesk attachment read 9000142 logs/app.log --offset 2000 --limit 500",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("read", pflag.ContinueOnError)
			params.addFlags(flagSet)
			flagSet.IntVar(&params.offset, "offset", 0, "first line to return (0-indexed)")
			flagSet.IntVar(&params.limit, "limit", 0, "maximum lines to return (0 = service default)")
			flagSet.BoolVar(&params.outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected an attachment id and a file path")
			}
			id, err := parseAttachmentID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := callContext()
			defer cancel()

			fields := map[string]any{"id": id, "path": args[1]}
			if params.offset > 0 {
				fields["offset"] = params.offset
			}
			if params.limit > 0 {
				fields["limit"] = params.limit
			}

			var result attachment.ReadResult
			if err := params.connect().Call(ctx, "read_attachment_file", fields, &result); err != nil {
				return err
			}

			if params.outputJSON {
				return cli.WriteJSON(result)
			}
			if result.ContentBase64 != "" {
				fmt.Printf("binary file (%s, %s); use --json for base64 content\n",
					result.ContentType, formatBytes(result.Size))
				return nil
			}
			if result.Content != "" {
				fmt.Println(result.Content)
			}
			if result.HasMore {
				fmt.Fprintf(os.Stderr, "%d of %d lines shown; continue with --offset %d\n",
					result.LinesReturned, result.TotalLines, params.offset+result.LinesReturned)
			}
			return nil
		},
	}
}

// --- search ---

type searchParams struct {
	serviceConnection
	glob         string
	contextLines int
	maxResults   int
	outputJSON   bool
}

func searchCommand() *cli.Command {
	var params searchParams

	return &cli.Command{
		Name:    "search",
		Summary: "Search text files inside a cached attachment",
		Description: `Run a regular expression over the text files of a cached attachment.
Binary files are skipped. Matches print in grep style with context
lines; --context 0 disables context capture.

The regular expression uses Go (RE2) syntax.`,
		Usage: "helpdesk attachment search <id> <pattern> [flags]",
		Examples: []cli.Example{
			{
				Description: "Find errors anywhere in an extracted bundle",
				Command:     "helpdesk attachment search 9000142 'ERROR|FATAL'",
			},
			{
				Description: "Search only log files, with more context",
				Command:     "helpdesk attachment search 9000142 'panic' --glob '*.log' --context 5",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("search", pflag.ContinueOnError)
			params.addFlags(flagSet)
			flagSet.StringVarP(&params.glob, "glob", "g", "", "only search files matching this glob")
			flagSet.IntVarP(&params.contextLines, "context", "C", attachment.DefaultContextLines,
				"context lines around each match")
			flagSet.IntVarP(&params.maxResults, "max-results", "m", 0,
				"cap on returned matches (0 = service default)")
			flagSet.BoolVar(&params.outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected an attachment id and a search pattern")
			}
			id, err := parseAttachmentID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := callContext()
			defer cancel()

			fields := map[string]any{
				"id":            id,
				"pattern":       args[1],
				"context_lines": params.contextLines,
			}
			if params.glob != "" {
				fields["glob"] = params.glob
			}
			if params.maxResults > 0 {
				fields["max_results"] = params.maxResults
			}

			var result attachment.SearchResult
			if err := params.connect().Call(ctx, "search_attachment_files", fields, &result); err != nil {
				return err
			}

			if params.outputJSON {
				return cli.WriteJSON(result)
			}
			return writeSearchResult(os.Stdout, &result)
		},
	}
}

// --- status ---

type statusParams struct {
	serviceConnection
	outputJSON bool
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show attachment service status",
		Description: `Report the attachment service's uptime, entry count, and total cache
size. Also serves as a connectivity check: a connection error means
the service is not reachable on the resolved socket.`,
		Usage: "helpdesk attachment status [flags]",
		Examples: []cli.Example{
			{
				Description: "Check the local attachment service",
				Command:     "helpdesk attachment status",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			params.addFlags(flagSet)
			flagSet.BoolVar(&params.outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("status takes no arguments")
			}

			ctx, cancel := callContext()
			defer cancel()

			var status statusResult
			if err := params.connect().Call(ctx, "status", nil, &status); err != nil {
				return err
			}

			if params.outputJSON {
				return cli.WriteJSON(status)
			}
			fmt.Printf("Uptime:      %s\n", formatUptime(status.UptimeSeconds))
			fmt.Printf("Entries:     %d\n", status.Entries)
			fmt.Printf("Cache size:  %s\n", formatBytes(status.TotalBytes))
			fmt.Printf("Cache root:  %s\n", status.CacheRoot)
			return nil
		},
	}
}
