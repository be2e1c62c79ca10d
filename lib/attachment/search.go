// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// Search defaults. Search applies DefaultSearchGlob and
// DefaultMaxResults when the option is zero; DefaultContextLines is
// for callers that distinguish an omitted context_lines from an
// explicit zero, which is meaningful (no context).
const (
	DefaultSearchGlob   = "*"
	DefaultContextLines = 2
	DefaultMaxResults   = 100
)

// SearchOptions bound a content search.
type SearchOptions struct {
	// Glob selects which files to scan. A pattern without a slash
	// or ** matches against file basenames, so "*.log" finds log
	// files at any depth; a pattern containing either matches
	// against the full slash-separated relative path. Empty means
	// DefaultSearchGlob.
	Glob string

	// ContextLines is how many raw lines to capture immediately
	// before and after each match, clipped at file boundaries.
	ContextLines int

	// MaxResults caps collected matches. Counting continues past
	// the cap so TotalMatches stays accurate. Zero means
	// DefaultMaxResults.
	MaxResults int
}

// SearchMatch is one matching line with its surrounding context.
type SearchMatch struct {
	// Path is the slash-separated path of the file, relative to
	// the entry's listable root.
	Path string `json:"path"`

	// Line is the 1-indexed line number of the match.
	Line int `json:"line"`

	// Content is the matching line, without line terminator.
	Content string `json:"content"`

	// ContextBefore and ContextAfter hold the raw lines
	// immediately surrounding the match. Shorter near file
	// boundaries, never padded.
	ContextBefore []string `json:"context_before"`
	ContextAfter  []string `json:"context_after"`
}

// SearchResult is the payload of [Store.Search].
type SearchResult struct {
	Matches []SearchMatch `json:"matches"`

	// TotalMatches counts every matching line found, including
	// those beyond the MaxResults cap.
	TotalMatches int `json:"total_matches"`

	// FilesSearched counts files whose lines were scanned. Binary
	// and unreadable files are skipped and not counted.
	FilesSearched int `json:"files_searched"`

	// Truncated reports that the cap cut off match collection.
	Truncated bool `json:"truncated"`
}

// Search runs a line-oriented regex search across the entry's files.
// pattern is matched per line; matches never span lines, and a line
// with several occurrences counts once. Binary files are skipped
// without counting toward FilesSearched, and files that fail to read
// are silently excluded: only total inability to access the entry's
// storage is an error.
func (s *Store) Search(id int64, pattern string, opts SearchOptions) (*SearchResult, error) {
	if opts.Glob == "" {
		opts.Glob = DefaultSearchGlob
	}
	if opts.MaxResults == 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.MaxResults < 0 {
		return nil, fmt.Errorf("max results %d: %w", opts.MaxResults, ErrInvalidArgument)
	}
	if opts.ContextLines < 0 {
		return nil, fmt.Errorf("context lines %d: %w", opts.ContextLines, ErrInvalidArgument)
	}
	if !doublestar.ValidatePattern(opts.Glob) {
		return nil, fmt.Errorf("glob pattern %q: %w", opts.Glob, ErrInvalidArgument)
	}
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidArgument)
	}
	if _, err := s.ReadMetadata(id); err != nil {
		return nil, err
	}

	matchBasename := !strings.Contains(opts.Glob, "/") && !strings.Contains(opts.Glob, "**")
	root := s.listableRoot(id)
	result := &SearchResult{Matches: []SearchMatch{}}

	walkErr := filepath.WalkDir(root, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			if walkPath == root && !os.IsNotExist(err) {
				return err
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, walkPath)
		if err != nil {
			return nil
		}
		slashPath := filepath.ToSlash(rel)
		candidate := slashPath
		if matchBasename {
			candidate = path.Base(slashPath)
		}
		matched, _ := doublestar.Match(opts.Glob, candidate) // glob validated above
		if !matched {
			return nil
		}

		data, err := os.ReadFile(walkPath)
		if err != nil {
			return nil
		}
		if isBinaryContent(data) {
			return nil
		}
		result.FilesSearched++

		lines := splitLines(strings.ToValidUTF8(string(data), string(utf8.RuneError)))
		for i, line := range lines {
			if !regex.MatchString(line) {
				continue
			}
			result.TotalMatches++
			if len(result.Matches) >= opts.MaxResults {
				continue
			}
			result.Matches = append(result.Matches, SearchMatch{
				Path:          slashPath,
				Line:          i + 1,
				Content:       line,
				ContextBefore: lines[max(0, i-opts.ContextLines):i],
				ContextAfter:  lines[i+1 : min(len(lines), i+1+opts.ContextLines)],
			})
		}
		return nil
	})
	if walkErr != nil {
		return nil, &StorageError{Op: "walk entry files", Err: walkErr}
	}

	result.Truncated = result.TotalMatches > len(result.Matches)
	return result, nil
}
