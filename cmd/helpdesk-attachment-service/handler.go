// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bureau-foundation/helpdesk/lib/attachment"
	"github.com/bureau-foundation/helpdesk/lib/clock"
	"github.com/bureau-foundation/helpdesk/lib/codec"
	"github.com/bureau-foundation/helpdesk/lib/service"
)

// attachmentService is the daemon's core state.
type attachmentService struct {
	store     *attachment.Store
	manager   *attachment.Manager
	clock     clock.Clock
	startedAt time.Time
	cacheRoot string
}

// registerActions registers all socket API actions on the server.
func (svc *attachmentService) registerActions(server *service.SocketServer) {
	server.Handle("store_attachment", svc.handleStore)
	server.Handle("store_and_extract_attachment", svc.handleStoreAndExtract)
	server.Handle("list_attachment_files", svc.handleListFiles)
	server.Handle("read_attachment_file", svc.handleReadFile)
	server.Handle("search_attachment_files", svc.handleSearchFiles)
	server.Handle("delete_cached_attachment", svc.handleDelete)
	server.Handle("status", svc.handleStatus)
}

// --- Request types ---
//
// Each action decodes its specific fields from the CBOR request. The
// "action" field is handled by the socket server framework and is not
// included here.

// idRequest is used by actions that take only an attachment identifier.
type idRequest struct {
	ID int64 `cbor:"id"`
}

// listRequest selects files within one entry by glob pattern.
type listRequest struct {
	ID      int64  `cbor:"id"`
	Pattern string `cbor:"pattern,omitempty"`
}

// readRequest pages through one file's lines.
type readRequest struct {
	ID     int64  `cbor:"id"`
	Path   string `cbor:"path"`
	Offset int    `cbor:"offset,omitempty"`
	Limit  int    `cbor:"limit,omitempty"`
}

// searchRequest runs a regular expression across an entry's text
// files. ContextLines is a pointer so an omitted field gets the
// default while an explicit zero disables context capture.
type searchRequest struct {
	ID           int64  `cbor:"id"`
	Pattern      string `cbor:"pattern"`
	Glob         string `cbor:"glob,omitempty"`
	ContextLines *int   `cbor:"context_lines,omitempty"`
	MaxResults   int    `cbor:"max_results,omitempty"`
}

// --- Error coding ---

// actionError pairs a failure with the wire code its envelope carries.
type actionError struct {
	err  error
	code string
}

func (e *actionError) Error() string     { return e.err.Error() }
func (e *actionError) Unwrap() error     { return e.err }
func (e *actionError) ErrorCode() string { return e.code }

// coded maps err through the attachment error taxonomy so every
// failure response carries a code.
func coded(err error) error {
	if err == nil {
		return nil
	}
	return &actionError{err: err, code: attachment.ErrorCode(err)}
}

// badRequest builds an invalid_argument failure for malformed or
// incomplete requests.
func badRequest(format string, args ...any) error {
	return &actionError{
		err:  fmt.Errorf(format, args...),
		code: attachment.CodeInvalidArgument,
	}
}

// --- Handlers ---

func (svc *attachmentService) handleStore(ctx context.Context, raw []byte) (any, error) {
	var request idRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, badRequest("decoding request: %v", err)
	}
	if request.ID <= 0 {
		return nil, badRequest("missing or invalid attachment id")
	}

	outcome, err := svc.manager.Store(ctx, request.ID)
	if err != nil {
		return nil, coded(err)
	}
	return outcome, nil
}

func (svc *attachmentService) handleStoreAndExtract(ctx context.Context, raw []byte) (any, error) {
	var request idRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, badRequest("decoding request: %v", err)
	}
	if request.ID <= 0 {
		return nil, badRequest("missing or invalid attachment id")
	}

	outcome, err := svc.manager.StoreAndExtract(ctx, request.ID)
	if err != nil {
		return nil, coded(err)
	}
	return outcome, nil
}

func (svc *attachmentService) handleListFiles(ctx context.Context, raw []byte) (any, error) {
	var request listRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, badRequest("decoding request: %v", err)
	}
	if request.ID <= 0 {
		return nil, badRequest("missing or invalid attachment id")
	}

	files, err := svc.store.List(request.ID, request.Pattern)
	if err != nil {
		return nil, coded(err)
	}
	return files, nil
}

func (svc *attachmentService) handleReadFile(ctx context.Context, raw []byte) (any, error) {
	var request readRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, badRequest("decoding request: %v", err)
	}
	if request.ID <= 0 {
		return nil, badRequest("missing or invalid attachment id")
	}

	result, err := svc.store.ReadFile(request.ID, request.Path, request.Offset, request.Limit)
	if err != nil {
		return nil, coded(err)
	}
	return result, nil
}

func (svc *attachmentService) handleSearchFiles(ctx context.Context, raw []byte) (any, error) {
	var request searchRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, badRequest("decoding request: %v", err)
	}
	if request.ID <= 0 {
		return nil, badRequest("missing or invalid attachment id")
	}
	if request.Pattern == "" {
		return nil, badRequest("missing required field: pattern")
	}

	options := attachment.SearchOptions{
		Glob:         request.Glob,
		ContextLines: attachment.DefaultContextLines,
		MaxResults:   request.MaxResults,
	}
	if request.ContextLines != nil {
		options.ContextLines = *request.ContextLines
	}

	result, err := svc.store.Search(request.ID, request.Pattern, options)
	if err != nil {
		return nil, coded(err)
	}
	return result, nil
}

func (svc *attachmentService) handleDelete(ctx context.Context, raw []byte) (any, error) {
	var request idRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, badRequest("decoding request: %v", err)
	}
	if request.ID <= 0 {
		return nil, badRequest("missing or invalid attachment id")
	}

	outcome, err := svc.manager.Delete(request.ID)
	if err != nil {
		return nil, coded(err)
	}
	return outcome, nil
}

// statusResponse is the response to the "status" action.
type statusResponse struct {
	// UptimeSeconds is how long the service has been running.
	UptimeSeconds float64 `cbor:"uptime_seconds"`

	// Entries is the number of committed cache entries.
	Entries int `cbor:"entries"`

	// TotalBytes is the cache's total on-disk size across all entries.
	TotalBytes int64 `cbor:"total_bytes"`

	// CacheRoot is the cache root directory.
	CacheRoot string `cbor:"cache_root"`
}

func (svc *attachmentService) handleStatus(ctx context.Context, raw []byte) (any, error) {
	stats, err := svc.store.Stats()
	if err != nil {
		return nil, coded(err)
	}
	var totalBytes int64
	for _, entry := range stats {
		totalBytes += entry.Bytes
	}
	return statusResponse{
		UptimeSeconds: svc.clock.Now().Sub(svc.startedAt).Seconds(),
		Entries:       len(stats),
		TotalBytes:    totalBytes,
		CacheRoot:     svc.cacheRoot,
	}, nil
}
