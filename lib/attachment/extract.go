// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"archive/tar"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

var errEscapesRoot = errors.New("path escapes extraction root")

// Extract unpacks the entry's original archive into its extracted
// subtree, streaming member by member so archives larger than memory
// are fine. It returns the number of regular files in the tree and
// whether the tree already existed: a second call is a no-op reported
// as fromCache.
//
// Extraction is fail-closed. Members are unpacked into a staging
// directory that becomes visible only through a final rename; any
// failure, including a single member path escaping the extraction
// root, abandons the staging directory and leaves the entry with no
// extracted subtree at all. Symlink, hardlink, and device members are
// failures, not skips. File modes are normalized (0644 files, 0755
// directories); the cache serves reads, not execution.
func (s *Store) Extract(ctx context.Context, id int64) (int, bool, error) {
	meta, err := s.ReadMetadata(id)
	if err != nil {
		return 0, false, err
	}

	extractedDir := s.extractedDir(id)
	if info, statErr := os.Stat(extractedDir); statErr == nil && info.IsDir() {
		count, countErr := countFiles(extractedDir)
		if countErr != nil {
			return 0, false, &StorageError{Op: "scan extracted tree", Err: countErr}
		}
		return count, true, nil
	}

	format := detectFormat(meta.Filename)
	if format == formatUnknown {
		return 0, false, fmt.Errorf("attachment %d (%s): %w", id, meta.Filename, ErrNotArchive)
	}

	originalPath := filepath.Join(s.originalDir(id), meta.Filename)
	if _, err := os.Stat(originalPath); err != nil {
		if os.IsNotExist(err) {
			return 0, false, fmt.Errorf("attachment %d: original file missing: %w", id, ErrNotFound)
		}
		return 0, false, &StorageError{Op: "stat original file", Err: err}
	}

	staging, err := os.MkdirTemp(s.tmpDir, fmt.Sprintf("extract-%d-*", id))
	if err != nil {
		return 0, false, &StorageError{Op: "create extraction staging", Err: err}
	}
	success := false
	defer func() {
		if !success {
			os.RemoveAll(staging)
		}
	}()

	var fileCount int
	if format == formatZip {
		fileCount, err = extractZip(ctx, originalPath, staging)
	} else {
		fileCount, err = extractTar(ctx, format, originalPath, staging)
	}
	if err != nil {
		return 0, false, err
	}

	if err := os.Rename(staging, extractedDir); err != nil {
		return 0, false, &StorageError{Op: "publish extracted tree", Err: err}
	}
	success = true
	return fileCount, false, nil
}

// extractTar unpacks a tar stream (optionally compressed) into dest
// and returns the number of regular files written.
func extractTar(ctx context.Context, format archiveFormat, archivePath, dest string) (int, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return 0, &StorageError{Op: "open original file", Err: err}
	}
	defer file.Close()

	stream, closeStream, err := newDecompressor(format, bufio.NewReader(file))
	if err != nil {
		return 0, &ExtractionError{Err: err}
	}
	if closeStream != nil {
		defer closeStream()
	}

	reader := tar.NewReader(stream)
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("extraction canceled: %w", err)
		}
		header, err := reader.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return 0, &ExtractionError{Err: err}
		}

		switch header.Typeflag {
		case tar.TypeDir:
			target, ok, err := memberTarget(dest, header.Name)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return 0, &StorageError{Op: "create extracted directory", Err: err}
			}
		case tar.TypeReg:
			target, ok, err := memberTarget(dest, header.Name)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			if err := writeMember(target, header.Name, reader); err != nil {
				return 0, err
			}
			count++
		case tar.TypeXGlobalHeader:
			// Metadata pseudo-entry (git archive emits these); no
			// content to place.
			continue
		default:
			return 0, &ExtractionError{
				Member: header.Name,
				Err:    fmt.Errorf("unsupported member type %q", header.Typeflag),
			}
		}
	}
}

// extractZip unpacks a zip archive into dest and returns the number
// of regular files written.
func extractZip(ctx context.Context, archivePath, dest string) (int, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		// OpenReader can hand back a usable reader alongside an
		// insecure-path error; extraction still fails, but the
		// handle must not leak.
		if reader != nil {
			reader.Close()
		}
		return 0, &ExtractionError{Err: err}
	}
	defer reader.Close()

	count := 0
	for _, member := range reader.File {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("extraction canceled: %w", err)
		}

		mode := member.Mode()
		switch {
		case mode.IsDir():
			target, ok, err := memberTarget(dest, member.Name)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return 0, &StorageError{Op: "create extracted directory", Err: err}
			}
		case mode.IsRegular():
			target, ok, err := memberTarget(dest, member.Name)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			content, err := member.Open()
			if err != nil {
				return 0, &ExtractionError{Member: member.Name, Err: err}
			}
			err = writeMember(target, member.Name, content)
			content.Close()
			if err != nil {
				return 0, err
			}
			count++
		default:
			return 0, &ExtractionError{
				Member: member.Name,
				Err:    fmt.Errorf("unsupported member mode %v", mode),
			}
		}
	}
	return count, nil
}

// memberTarget computes the on-disk destination for an archive member
// and enforces confinement: the member path is cleaned, joined to
// root, and the result must be a strict descendant of root. ok is
// false for members naming the root itself (the "./" entry most tar
// writers emit), which carry nothing to place. An escaping member
// fails the whole extraction.
func memberTarget(root, name string) (string, bool, error) {
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if clean == "." || clean == "/" {
		return "", false, nil
	}
	if path.IsAbs(clean) {
		return "", false, &ExtractionError{Member: name, Err: errEscapesRoot}
	}
	target := filepath.Join(root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false, &ExtractionError{Member: name, Err: errEscapesRoot}
	}
	return target, true, nil
}

// writeMember streams one archive member to target.
func writeMember(target, memberName string, content io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &StorageError{Op: "create extracted directory", Err: err}
	}
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &StorageError{Op: "create extracted file", Err: err}
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		return &ExtractionError{Member: memberName, Err: err}
	}
	if err := file.Close(); err != nil {
		return &StorageError{Op: "close extracted file", Err: err}
	}
	return nil
}

// countFiles counts regular files under root.
func countFiles(root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	return count, err
}
