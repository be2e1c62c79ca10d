// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package attachment implements the "helpdesk attachment" command
// group: caching ticket attachments through the attachment service,
// extracting archives, and listing, reading, and searching the cached
// content.
//
// Every subcommand talks to the attachment service over its Unix
// socket. The socket path comes from --socket, then the
// HELPDESK_ATTACHMENT_SOCKET environment variable, then the service's
// standard path. Responses render as human-readable text by default;
// --json emits the raw service payload for scripting.
package attachment
