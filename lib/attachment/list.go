// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultListPattern matches every file and directory in an entry.
const DefaultListPattern = "**/*"

const (
	fileType      = "file"
	directoryType = "directory"
)

// FileInfo describes one file or directory in an entry listing.
type FileInfo struct {
	// Path is the slash-separated path relative to the entry's
	// listable root.
	Path string `json:"path"`

	// Type is "file" or "directory".
	Type string `json:"type"`

	// Size is the file size in bytes. Unset for directories.
	Size *int64 `json:"size,omitempty"`
}

// listableRoot returns the directory that list, read, and search
// operate on: the extracted tree when present, else the original
// directory holding the single downloaded file.
func (s *Store) listableRoot(id int64) string {
	extractedDir := s.extractedDir(id)
	if info, err := os.Stat(extractedDir); err == nil && info.IsDir() {
		return extractedDir
	}
	return s.originalDir(id)
}

// List enumerates files and directories in the entry whose relative
// paths match pattern, sorted lexicographically by path. Pattern uses
// glob semantics where * stays within a path segment and ** crosses
// segments; empty means [DefaultListPattern]. Directories carry no
// size.
func (s *Store) List(id int64, pattern string) ([]FileInfo, error) {
	if pattern == "" {
		pattern = DefaultListPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("glob pattern %q: %w", pattern, ErrInvalidArgument)
	}
	if _, err := s.ReadMetadata(id); err != nil {
		return nil, err
	}

	root := s.listableRoot(id)
	infos := []FileInfo{}
	err := filepath.WalkDir(root, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			if walkPath == root && os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if walkPath == root {
			return nil
		}
		rel, err := filepath.Rel(root, walkPath)
		if err != nil {
			return err
		}
		slashPath := filepath.ToSlash(rel)
		matched, _ := doublestar.Match(pattern, slashPath) // pattern validated above
		if !matched {
			return nil
		}
		if d.IsDir() {
			infos = append(infos, FileInfo{Path: slashPath, Type: directoryType})
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size := info.Size()
		infos = append(infos, FileInfo{Path: slashPath, Type: fileType, Size: &size})
		return nil
	})
	if err != nil {
		return nil, &StorageError{Op: "walk entry files", Err: err}
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}
