// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// The helpdesk-attachment-service daemon caches ticket attachments on
// local disk and serves read access to them over a CBOR Unix socket
// protocol.
//
// Attachments are downloaded from the upstream ticketing API at most
// once per identifier, stored under the attachment id, optionally
// extracted when the filename carries a recognized archive suffix, and
// then listed, read (with line pagination), and regex-searched without
// further upstream traffic. A background sweeper applies the eviction
// policies configured in helpdesk.yaml.
//
// Socket actions: store_attachment, store_and_extract_attachment,
// list_attachment_files, read_attachment_file, search_attachment_files,
// delete_cached_attachment, status.
package main
