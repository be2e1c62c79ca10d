// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/bureau-foundation/helpdesk/lib/clock"
)

// FetchResult carries one attachment's bytes and descriptive metadata
// back from the upstream fetch collaborator.
type FetchResult struct {
	// Body streams the attachment content. The manager closes it.
	Body io.ReadCloser

	// Filename is the upstream filename hint.
	Filename string

	// ContentType is the upstream MIME type.
	ContentType string

	// Locator is the opaque string the bytes were fetched from,
	// recorded in entry metadata.
	Locator string
}

// FetchFunc downloads one attachment from the upstream ticketing
// system. The manager calls it at most once per identifier for as
// long as the entry stays cached, and never retries on its failures.
type FetchFunc func(ctx context.Context, id int64) (*FetchResult, error)

// Manager orchestrates the attachment lifecycle: fetch-once
// downloads, idempotent extraction, deletion, and eviction sweeps.
// Mutations of the same identifier are serialized through a
// per-identifier lock table; mutations of different identifiers and
// all read operations proceed without coordination.
type Manager struct {
	store  *Store
	fetch  FetchFunc
	clock  clock.Clock
	logger *slog.Logger
	locks  *lockTable
}

// NewManager wires a lifecycle manager over store, downloading cache
// misses through fetch.
func NewManager(store *Store, fetch FetchFunc, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		fetch:  fetch,
		clock:  clk,
		logger: logger,
		locks:  newLockTable(),
	}
}

// StoreOutcome reports a store operation: the entry metadata and
// whether it was served from cache without an upstream fetch.
type StoreOutcome struct {
	Entry     *Metadata `json:"entry"`
	FromCache bool      `json:"from_cache"`
}

// ExtractionOutcome reports one extraction: how many files the
// extracted tree holds and whether the tree already existed.
type ExtractionOutcome struct {
	FileCount int  `json:"file_count"`
	FromCache bool `json:"from_cache"`
}

// StoreAndExtractOutcome reports a combined store-and-extract. The
// download and extraction steps carry separate from-cache signals;
// FromCache is their conjunction.
type StoreAndExtractOutcome struct {
	Entry             *Metadata         `json:"entry"`
	DownloadFromCache bool              `json:"download_from_cache"`
	Extraction        ExtractionOutcome `json:"extraction"`
	FromCache         bool              `json:"from_cache"`
}

// DeleteOutcome reports whether a delete removed an entry.
type DeleteOutcome struct {
	Deleted bool `json:"deleted"`
}

// Store ensures the attachment is cached, fetching from upstream only
// when the entry does not exist. Concurrent calls for the same
// identifier serialize, so exactly one of them fetches and the rest
// observe the committed entry.
func (m *Manager) Store(ctx context.Context, id int64) (*StoreOutcome, error) {
	unlock := m.locks.acquire(id)
	defer unlock()
	return m.storeLocked(ctx, id)
}

// storeLocked is Store's body, split out so StoreAndExtract can run
// both steps under one lock acquisition.
func (m *Manager) storeLocked(ctx context.Context, id int64) (*StoreOutcome, error) {
	meta, err := m.store.ReadMetadata(id)
	switch {
	case err == nil:
		return &StoreOutcome{Entry: meta, FromCache: true}, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	fetched, err := m.fetch(ctx, id)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer fetched.Body.Close()

	meta, err = m.store.WriteEntry(id, fetched.Body, fetched.Filename, fetched.ContentType, fetched.Locator)
	if err != nil {
		return nil, err
	}
	m.logger.Info("attachment stored",
		"attachment_id", id,
		"filename", meta.Filename,
		"size", meta.Size,
		"content_type", meta.ContentType)
	return &StoreOutcome{Entry: meta, FromCache: false}, nil
}

// StoreAndExtract ensures the attachment is cached and its archive
// content extracted. Both steps are idempotent and each reports
// from-cache separately, so a caller can tell a fresh extraction of
// an already-downloaded archive from a full cache hit.
func (m *Manager) StoreAndExtract(ctx context.Context, id int64) (*StoreAndExtractOutcome, error) {
	unlock := m.locks.acquire(id)
	defer unlock()

	stored, err := m.storeLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	fileCount, extractionCached, err := m.store.Extract(ctx, id)
	if err != nil {
		return nil, err
	}
	if !extractionCached {
		m.logger.Info("attachment extracted",
			"attachment_id", id,
			"filename", stored.Entry.Filename,
			"file_count", fileCount)
	}
	return &StoreAndExtractOutcome{
		Entry:             stored.Entry,
		DownloadFromCache: stored.FromCache,
		Extraction:        ExtractionOutcome{FileCount: fileCount, FromCache: extractionCached},
		FromCache:         stored.FromCache && extractionCached,
	}, nil
}

// Delete removes the entry and everything under it. Deleting an
// absent entry reports Deleted false without error.
func (m *Manager) Delete(id int64) (*DeleteOutcome, error) {
	unlock := m.locks.acquire(id)
	defer unlock()

	deleted, err := m.store.Delete(id)
	if err != nil {
		return nil, err
	}
	if deleted {
		m.logger.Info("attachment deleted", "attachment_id", id)
	}
	return &DeleteOutcome{Deleted: deleted}, nil
}
