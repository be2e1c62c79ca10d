// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, Version) {
		t.Errorf("Info() = %q, want prefix %q", info, Version)
	}
	// Test binaries are built without VCS stamping in some
	// environments; either a commit hash or the placeholder is fine,
	// but the parenthesized detail section must be present.
	if !strings.Contains(info, "(") || !strings.HasSuffix(info, ")") {
		t.Errorf("Info() = %q, want parenthesized build details", info)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.Contains(full, Info()) {
		t.Errorf("Full() = %q, want it to contain Info() = %q", full, Info())
	}
	if !strings.Contains(full, runtime.Version()) {
		t.Errorf("Full() = %q, want Go version %q", full, runtime.Version())
	}
	if !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q, want platform %s/%s", full, runtime.GOOS, runtime.GOARCH)
	}
}

func TestReadVCSTruncatesCommit(t *testing.T) {
	// Whatever the build environment provides, the commit field is
	// never longer than the 12-character short form.
	vcs := readVCS()
	if len(vcs.commit) > 12 {
		t.Errorf("commit %q longer than 12 characters", vcs.commit)
	}
}
