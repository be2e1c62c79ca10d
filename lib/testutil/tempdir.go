// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"
)

// SocketDir creates a short-pathed temporary directory for Unix
// domain sockets and removes it when the test completes.
//
// The directory lives directly under /tmp rather than t.TempDir()
// because socket paths are capped at 108 bytes (sun_path in
// sockaddr_un) and nested test temp roots can exceed that.
func SocketDir(t *testing.T) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "helpdesk-test-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(directory)
	})
	return directory
}
