// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"os"
	"path/filepath"
)

// EnvCacheDir is the environment variable consulted when the daemon
// configuration leaves the cache directory unset.
const EnvCacheDir = "HELPDESK_ATTACHMENT_CACHE_DIR"

// defaultCacheSubdir is the directory created under the platform temp
// directory when neither configuration nor environment names a cache
// root.
const defaultCacheSubdir = "helpdesk-attachments"

// DefaultCacheDirectory resolves the cache root for a process whose
// configuration does not name one: the HELPDESK_ATTACHMENT_CACHE_DIR
// environment variable if set, else a fixed subdirectory of the
// platform temp directory. The directory is not created here; that
// happens in [NewStore], and its failure is fatal to all cache
// operations.
func DefaultCacheDirectory() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), defaultCacheSubdir)
}
