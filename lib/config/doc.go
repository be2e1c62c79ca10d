// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the helpdesk
// attachment service.
//
// Configuration is loaded from a single file specified by either the
// HELPDESK_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values. The one deliberate
// exception lives outside this package: when cache.directory is left
// empty, the service resolves the cache root itself, consulting
// HELPDESK_ATTACHMENT_CACHE_DIR before settling on the system temp
// directory.
//
// Key exports:
//
//   - [Config] -- master struct with Upstream, Cache, Service
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other helpdesk packages.
package config
