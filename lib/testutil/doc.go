// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for helpdesk packages.
//
// [SocketDir] creates a temporary directory directly under /tmp for
// Unix domain sockets. Unix sockets carry a 108-byte path limit
// (sun_path in sockaddr_un), and test runners that nest TMPDIR deeply
// can push t.TempDir() past it. The directory is removed when the
// test completes.
//
// [RequireReceive] and [RequireClosed] wrap channel operations with a
// wall-clock timeout so a broken goroutine fails the test instead of
// hanging it. They are the only sanctioned use of time.After in the
// test suite; everything else drives a fake clock.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
