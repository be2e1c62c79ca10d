// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultReadLimit is the number of lines returned when the caller
// does not specify a limit.
const DefaultReadLimit = 2000

// binarySniffLen is how many leading bytes are examined to decide
// whether a file is text or binary.
const binarySniffLen = 8000

// ReadResult is the payload of [Store.ReadFile]. Text files populate
// Content through HasMore; binary files populate ContentBase64, Size,
// and ContentType. The two field sets never mix, and the unused set
// is omitted from serialized output.
type ReadResult struct {
	// Content holds the requested line window, one line per row,
	// each prefixed with its 1-indexed line number and a tab.
	Content       string `json:"content,omitempty"`
	LinesReturned int    `json:"lines_returned,omitempty"`
	TotalLines    int    `json:"total_lines,omitempty"`
	HasMore       bool   `json:"has_more,omitempty"`

	// ContentBase64 holds the whole file, base64-encoded.
	ContentBase64 string `json:"content_base64,omitempty"`
	Size          int64  `json:"size,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
}

// ReadFile reads one file from the entry. relPath is resolved against
// the entry's listable root with the same confinement rule as
// extraction, so a crafted path cannot reach outside the entry. Text
// files come back as a window of at most limit lines starting at the
// 0-indexed line offset; binary files come back whole, base64
// encoded. A limit of 0 means [DefaultReadLimit].
func (s *Store) ReadFile(id int64, relPath string, offset, limit int) (*ReadResult, error) {
	if offset < 0 {
		return nil, fmt.Errorf("offset %d: %w", offset, ErrInvalidArgument)
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, ErrInvalidArgument)
	}
	if limit == 0 {
		limit = DefaultReadLimit
	}
	meta, err := s.ReadMetadata(id)
	if err != nil {
		return nil, err
	}

	target, err := resolveWithin(s.listableRoot(id), relPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %q: %w", relPath, ErrNotFound)
		}
		return nil, &StorageError{Op: "stat file", Err: err}
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path %q is a directory: %w", relPath, ErrInvalidArgument)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, &StorageError{Op: "read file", Err: err}
	}

	if isBinaryContent(data) {
		contentType := mime.TypeByExtension(filepath.Ext(target))
		if contentType == "" && target == filepath.Join(s.originalDir(id), meta.Filename) {
			// The original file keeps the MIME type upstream reported
			// when its extension resolves to nothing.
			contentType = meta.ContentType
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return &ReadResult{
			ContentBase64: base64.StdEncoding.EncodeToString(data),
			Size:          int64(len(data)),
			ContentType:   contentType,
		}, nil
	}

	lines := splitLines(strings.ToValidUTF8(string(data), string(utf8.RuneError)))
	total := len(lines)
	start := min(offset, total)
	end := min(start+limit, total)
	window := lines[start:end]

	var builder strings.Builder
	for i, line := range window {
		if i > 0 {
			builder.WriteByte('\n')
		}
		fmt.Fprintf(&builder, "%d\t%s", start+i+1, line)
	}

	return &ReadResult{
		Content:       builder.String(),
		LinesReturned: len(window),
		TotalLines:    total,
		HasMore:       offset+len(window) < total,
	}, nil
}

// resolveWithin resolves relPath against root and enforces
// confinement: the result must remain a strict descendant of root.
// Backslashes count as separators too, so crafted Windows-style paths
// cannot slip through the check.
func resolveWithin(root, relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("empty path: %w", ErrInvalidPath)
	}
	clean := path.Clean(strings.ReplaceAll(relPath, `\`, "/"))
	if clean == "." || clean == "/" {
		return "", fmt.Errorf("path %q does not name a file: %w", relPath, ErrInvalidPath)
	}
	if path.IsAbs(clean) {
		return "", fmt.Errorf("path %q is absolute: %w", relPath, ErrInvalidPath)
	}
	target := filepath.Join(root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes entry storage: %w", relPath, ErrInvalidPath)
	}
	return target, nil
}

// isBinaryContent reports whether data looks binary rather than text:
// a NUL byte or invalid UTF-8 within the sniff window. When the
// window truncates a larger file, an incomplete multi-byte rune at
// the window edge is not held against the file.
func isBinaryContent(data []byte) bool {
	sample := data
	truncated := false
	if len(sample) > binarySniffLen {
		sample = sample[:binarySniffLen]
		truncated = true
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	if truncated {
		for range utf8.UTFMax - 1 {
			r, size := utf8.DecodeLastRune(sample)
			if r == utf8.RuneError && size == 1 {
				sample = sample[:len(sample)-1]
				continue
			}
			break
		}
	}
	return !utf8.Valid(sample)
}

// splitLines splits content into lines the way line-oriented tools
// do: lines end at \n, a preceding \r is stripped, and a trailing
// newline does not produce a final empty line. Empty content has no
// lines.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
