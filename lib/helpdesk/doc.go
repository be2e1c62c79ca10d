// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package helpdesk provides a typed Go client for the upstream ticketing
// REST API.
//
// The client authenticates via API token (email/token basic auth) or an
// OAuth bearer token. It handles rate limiting (a single retry honoring
// Retry-After) and structured error mapping. Attachment metadata lookups
// decode into typed structs; attachment content downloads stream, so a
// multi-gigabyte support bundle never sits in memory.
//
// All requests are made over HTTPS. The client refuses non-HTTPS base URLs.
//
// The attachment cache daemon composes [Client.ShowAttachment] and
// [Client.Download] into its fetch collaborator; nothing in this package
// knows about the cache.
package helpdesk
