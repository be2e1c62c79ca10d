// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package attachment implements the helpdesk attachment cache: a
// filesystem store that downloads ticket attachments once, keeps them
// under their numeric attachment ID, optionally unpacks archives, and
// serves glob listing, paginated reads, and regex search over the
// cached files.
//
// [Store] owns every byte under the cache root. An entry is committed
// by the atomic publication of its metadata record; until then the
// entry does not exist as far as readers are concerned, and after
// that it is immutable until deleted. [Manager] layers lifecycle
// semantics on top: fetch-once downloads through a caller-supplied
// [FetchFunc], idempotent extraction, deletion, and periodic eviction
// sweeps driven by pluggable [EvictionPolicy] implementations.
//
// Writes to the same attachment ID are serialized through a
// per-identifier lock table so concurrent first-time requests trigger
// a single upstream fetch. Entries are independent: operations on
// different IDs never contend, and read operations take no locks at
// all.
package attachment
