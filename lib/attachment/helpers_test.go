// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/helpdesk/lib/clock"
)

// epoch is the fake clock's starting time in store tests.
var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestStore returns a store rooted in a fresh temp directory,
// driven by a fake clock starting at epoch.
func newTestStore(t *testing.T) (*Store, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(epoch)
	store, err := NewStore(t.TempDir(), clk)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, clk
}

// newTestLogger returns a logger that stays quiet unless something
// goes wrong.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// seedEntry writes a committed entry with the given original file.
func seedEntry(t *testing.T, store *Store, id int64, filename, content string) *Metadata {
	t.Helper()
	meta, err := store.WriteEntry(id, strings.NewReader(content), filename, "application/octet-stream", "https://upstream.example/"+filename)
	if err != nil {
		t.Fatalf("WriteEntry(%d, %q): %v", id, filename, err)
	}
	return meta
}

// seedTree writes a committed entry and fabricates an extracted tree
// from the given relative path to content mapping, bypassing the
// extractor. Parent directories are created as needed.
func seedTree(t *testing.T, store *Store, id int64, files map[string]string) {
	t.Helper()
	seedEntry(t, store, id, "bundle.tar.gz", "placeholder archive bytes")
	root := store.extractedDir(id)
	for rel, content := range files {
		target := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("MkdirAll(%q): %v", rel, err)
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%q): %v", rel, err)
		}
	}
}
