// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build version information for helpdesk
// binaries.
//
// Release builds inject the semantic version via -ldflags:
//
//	go build -ldflags "-X github.com/bureau-foundation/helpdesk/lib/version.Version=1.2.0"
//
// Commit, dirty-tree, and build-time details come from the VCS
// metadata the Go toolchain embeds in the binary, so development
// builds carry accurate provenance without any ldflags.
//
// Formatting functions produce human-readable version strings:
//
//   - [Info] -- "0.1.0-dev (abc1234def567, 2026-02-10T...)" for --version
//   - [Full] -- Info plus Go version and GOOS/GOARCH
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the semantic version string, set via -ldflags for
// releases. The default marks development builds.
var Version = "0.1.0-dev"

type vcsInfo struct {
	commit string
	dirty  bool
	time   string
}

// readVCS extracts the VCS metadata embedded by the Go toolchain.
// Binaries built outside a checkout (module zips, some CI setups)
// have no metadata; those fields stay "unknown".
func readVCS() vcsInfo {
	info := vcsInfo{commit: "unknown", time: "unknown"}
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if setting.Value != "" {
				info.commit = setting.Value
				if len(info.commit) > 12 {
					info.commit = info.commit[:12]
				}
			}
		case "vcs.modified":
			info.dirty = setting.Value == "true"
		case "vcs.time":
			if setting.Value != "" {
				info.time = setting.Value
			}
		}
	}
	return info
}

// Info returns a one-line version string for --version output and
// startup logs.
func Info() string {
	vcs := readVCS()
	dirty := ""
	if vcs.dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, vcs.commit, dirty, vcs.time)
}

// Full returns detailed version information including the Go
// toolchain version and target platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
