// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Helpdesk is the CLI for the helpdesk attachment service. It provides
// subcommands for caching ticket attachments (store, extract), browsing
// cached content (files, read, search), and cache administration
// (delete, status).
package main
