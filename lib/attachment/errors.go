// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"errors"
	"fmt"
)

// Wire codes for the attachment error taxonomy. The daemon places
// these in the structured error payload so remote callers can branch
// on the failure class without parsing message text.
const (
	CodeNotFound         = "not_found"
	CodeNotArchive       = "not_archive"
	CodeExtractionFailed = "extraction_failed"
	CodeInvalidPath      = "invalid_path"
	CodeStorage          = "storage"
	CodeUpstreamFetch    = "upstream_fetch"
	CodeInvalidArgument  = "invalid_argument"
	CodeInternal         = "internal"
)

// Sentinel errors for conditions that carry no structure beyond the
// condition itself. Call sites wrap them with context via fmt.Errorf
// and %w.
var (
	// ErrNotFound reports that an entry, or a file within an entry,
	// is not in the cache.
	ErrNotFound = errors.New("not found in cache")

	// ErrNotArchive reports an extraction request for a file whose
	// name carries no recognized archive suffix.
	ErrNotArchive = errors.New("not a recognized archive")

	// ErrInvalidPath reports a relative path that is malformed or
	// escapes its entry's storage.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidArgument reports a request parameter that fails
	// validation: a bad glob, a bad regex, a negative offset.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ExtractionError reports a failed archive extraction: a corrupt
// archive, a member of a disallowed type, or a member path escaping
// the extraction root. Extraction is fail-closed, so by the time this
// error is returned any partially extracted files have been removed.
type ExtractionError struct {
	// Member is the offending archive member path. Empty when the
	// archive itself could not be read.
	Member string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("extracting member %q: %v", e.Member, e.Err)
	}
	return fmt.Sprintf("extracting archive: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ErrorCode returns the wire code for extraction failures.
func (e *ExtractionError) ErrorCode() string { return CodeExtractionFailed }

// StorageError reports a cache filesystem failure: disk full,
// permission denied, or any other I/O error underneath the store.
type StorageError struct {
	// Op names the store operation that failed.
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("attachment storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrorCode returns the wire code for storage failures.
func (e *StorageError) ErrorCode() string { return CodeStorage }

// UpstreamError reports a failure from the upstream fetch
// collaborator. The underlying error is preserved untouched and
// reachable through Unwrap; the cache never reinterprets it.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("fetching attachment from upstream: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ErrorCode returns the wire code for upstream fetch failures.
func (e *UpstreamError) ErrorCode() string { return CodeUpstreamFetch }

// ErrorCode maps err to its wire code. Errors outside the attachment
// taxonomy map to CodeInternal.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrNotArchive):
		return CodeNotArchive
	case errors.Is(err, ErrInvalidPath):
		return CodeInvalidPath
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	}
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return CodeInternal
}
