// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bureau-foundation/helpdesk/lib/attachment"
)

// statusResult mirrors the service's status response. The service
// type lives in package main and cannot be imported; the field names
// must match the service's wire encoding. CBOR decoding reads the
// json tags, which also drive --json output.
type statusResult struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	Entries       int     `json:"entries"`
	TotalBytes    int64   `json:"total_bytes"`
	CacheRoot     string  `json:"cache_root"`
}

// writeStoreLine prints the one-line summary of a stored entry,
// shared by the store and extract commands.
func writeStoreLine(w io.Writer, entry *attachment.Metadata, fromCache bool) error {
	state := "stored"
	if fromCache {
		state = "cached"
	}
	_, err := fmt.Fprintf(w, "%s %d: %s (%s, %s)\n",
		state, entry.ID, entry.Filename, formatBytes(entry.Size), entry.ContentType)
	return err
}

// writeFileTable renders a file listing as an aligned table.
func writeFileTable(w io.Writer, files []attachment.FileInfo) error {
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "PATH\tTYPE\tSIZE")
	for _, file := range files {
		size := ""
		if file.Size != nil {
			size = formatBytes(*file.Size)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", file.Path, file.Type, size)
	}
	return tw.Flush()
}

// writeSearchResult renders matches in grep style: context lines with
// a "-" separator, match lines with ":". Context line numbers are
// derived from the match line, since the service sends context as
// bare text.
func writeSearchResult(w io.Writer, result *attachment.SearchResult) error {
	if result.TotalMatches == 0 {
		_, err := fmt.Fprintln(w, "no matches")
		return err
	}

	for i, match := range result.Matches {
		if i > 0 && (len(match.ContextBefore) > 0 || len(match.ContextAfter) > 0) {
			fmt.Fprintln(w, "--")
		}
		firstContext := match.Line - len(match.ContextBefore)
		for j, line := range match.ContextBefore {
			fmt.Fprintf(w, "%s:%d- %s\n", match.Path, firstContext+j, line)
		}
		fmt.Fprintf(w, "%s:%d: %s\n", match.Path, match.Line, match.Content)
		for j, line := range match.ContextAfter {
			fmt.Fprintf(w, "%s:%d- %s\n", match.Path, match.Line+1+j, line)
		}
	}

	summary := fmt.Sprintf("%d matches in %d files", result.TotalMatches, result.FilesSearched)
	if result.Truncated {
		summary += fmt.Sprintf(" (showing first %d)", len(result.Matches))
	}
	_, err := fmt.Fprintf(w, "\n%s\n", summary)
	return err
}

// formatUptime formats seconds as a human-readable uptime string.
func formatUptime(seconds float64) string {
	duration := time.Duration(seconds * float64(time.Second))
	hours := int(duration / time.Hour)
	minutes := int((duration % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
