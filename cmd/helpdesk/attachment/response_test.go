// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bureau-foundation/helpdesk/lib/attachment"
)

func TestWriteStoreLine(t *testing.T) {
	entry := &attachment.Metadata{
		ID:          9000142,
		Filename:    "bundle.tar.gz",
		Size:        2 << 20,
		ContentType: "application/gzip",
	}

	var buffer bytes.Buffer
	if err := writeStoreLine(&buffer, entry, false); err != nil {
		t.Fatalf("writeStoreLine: %v", err)
	}
	if got, want := buffer.String(), "stored 9000142: bundle.tar.gz (2.0 MB, application/gzip)\n"; got != want {
		t.Errorf("fresh store: got %q, want %q", got, want)
	}

	buffer.Reset()
	if err := writeStoreLine(&buffer, entry, true); err != nil {
		t.Fatalf("writeStoreLine: %v", err)
	}
	if !strings.HasPrefix(buffer.String(), "cached 9000142:") {
		t.Errorf("cached store: got %q, want 'cached' prefix", buffer.String())
	}
}

func TestWriteFileTable(t *testing.T) {
	logSize := int64(1024)
	files := []attachment.FileInfo{
		{Path: "logs", Type: "directory"},
		{Path: "logs/app.log", Type: "file", Size: &logSize},
	}

	var buffer bytes.Buffer
	if err := writeFileTable(&buffer, files); err != nil {
		t.Fatalf("writeFileTable: %v", err)
	}
	output := buffer.String()

	for _, want := range []string{"PATH", "TYPE", "SIZE", "logs/app.log", "directory", "1.0 KB"} {
		if !strings.Contains(output, want) {
			t.Errorf("table missing %q:\n%s", want, output)
		}
	}

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("got %d lines, want header + 2 rows:\n%s", len(lines), output)
	}
}

func TestWriteSearchResult(t *testing.T) {
	result := &attachment.SearchResult{
		Matches: []attachment.SearchMatch{
			{
				Path:          "logs/app.log",
				Line:          3,
				Content:       "ERROR disk full",
				ContextBefore: []string{"INFO boot", "WARN disk low"},
				ContextAfter:  []string{"INFO shutdown"},
			},
		},
		TotalMatches:  1,
		FilesSearched: 2,
	}

	var buffer bytes.Buffer
	if err := writeSearchResult(&buffer, result); err != nil {
		t.Fatalf("writeSearchResult: %v", err)
	}
	output := buffer.String()

	// Context lines get "-" separators and derived line numbers; the
	// match line gets ":".
	for _, want := range []string{
		"logs/app.log:1- INFO boot",
		"logs/app.log:2- WARN disk low",
		"logs/app.log:3: ERROR disk full",
		"logs/app.log:4- INFO shutdown",
		"1 matches in 2 files",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("search output missing %q:\n%s", want, output)
		}
	}
}

func TestWriteSearchResultTruncated(t *testing.T) {
	result := &attachment.SearchResult{
		Matches: []attachment.SearchMatch{
			{Path: "a.log", Line: 1, Content: "ERROR one"},
		},
		TotalMatches:  250,
		FilesSearched: 4,
		Truncated:     true,
	}

	var buffer bytes.Buffer
	if err := writeSearchResult(&buffer, result); err != nil {
		t.Fatalf("writeSearchResult: %v", err)
	}
	if !strings.Contains(buffer.String(), "250 matches in 4 files (showing first 1)") {
		t.Errorf("truncation note missing:\n%s", buffer.String())
	}
}

func TestWriteSearchResultNoMatches(t *testing.T) {
	var buffer bytes.Buffer
	if err := writeSearchResult(&buffer, &attachment.SearchResult{FilesSearched: 3}); err != nil {
		t.Fatalf("writeSearchResult: %v", err)
	}
	if got := buffer.String(); got != "no matches\n" {
		t.Errorf("got %q, want 'no matches'", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{2 << 20, "2.0 MB"},
		{3 << 30, "3.0 GB"},
	}

	for _, test := range tests {
		if got := formatBytes(test.bytes); got != test.want {
			t.Errorf("formatBytes(%d) = %q, want %q", test.bytes, got, test.want)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{30, "0m"},
		{90, "1m"},
		{3600, "1h 0m"},
		{3725, "1h 2m"},
		{90000, "25h 0m"},
	}

	for _, test := range tests {
		if got := formatUptime(test.seconds); got != test.want {
			t.Errorf("formatUptime(%v) = %q, want %q", test.seconds, got, test.want)
		}
	}
}
