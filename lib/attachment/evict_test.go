// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/helpdesk/lib/testutil"
)

func TestMaxAgePolicy(t *testing.T) {
	now := epoch.Add(4 * time.Hour)
	entries := []EntryStat{
		{ID: 1, StoredAt: epoch, Bytes: 10},
		{ID: 2, StoredAt: epoch.Add(3 * time.Hour), Bytes: 10},
		{ID: 3, StoredAt: epoch.Add(2 * time.Hour), Bytes: 10},
	}

	evict, err := MaxAgePolicy{MaxAge: 2 * time.Hour}.Evict(now, entries)
	if err != nil {
		t.Fatalf("Evict: %v", err)
	}
	// Entry 3 sits exactly at the cutoff and stays.
	if !slices.Equal(evict, []int64{1}) {
		t.Errorf("evict = %v, want [1]", evict)
	}
}

func TestMaxTotalBytesPolicy(t *testing.T) {
	entries := []EntryStat{
		{ID: 3, StoredAt: epoch.Add(2 * time.Hour), Bytes: 300},
		{ID: 1, StoredAt: epoch, Bytes: 100},
		{ID: 2, StoredAt: epoch.Add(time.Hour), Bytes: 200},
	}

	evict, err := MaxTotalBytesPolicy{MaxBytes: 450}.Evict(epoch.Add(3*time.Hour), entries)
	if err != nil {
		t.Fatalf("Evict: %v", err)
	}
	// 600 total: dropping the two oldest reaches 300 <= 450.
	if !slices.Equal(evict, []int64{1, 2}) {
		t.Errorf("evict = %v, want [1 2]", evict)
	}

	evict, err = MaxTotalBytesPolicy{MaxBytes: 600}.Evict(epoch.Add(3*time.Hour), entries)
	if err != nil {
		t.Fatalf("Evict under cap: %v", err)
	}
	if len(evict) != 0 {
		t.Errorf("evict under cap = %v, want none", evict)
	}
}

func TestMinFreeBytesPolicy(t *testing.T) {
	policy := MinFreeBytesPolicy{Root: t.TempDir(), MinFree: 1}
	evict, err := policy.Evict(epoch, []EntryStat{{ID: 1, StoredAt: epoch, Bytes: 10}})
	if err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if len(evict) != 0 {
		t.Errorf("evict = %v, want none with 1 byte minimum free", evict)
	}

	missing := MinFreeBytesPolicy{Root: filepath.Join(t.TempDir(), "missing"), MinFree: 1}
	if _, err := missing.Evict(epoch, nil); err == nil {
		t.Error("Evict on a missing root returned nil error")
	}
}

func TestSweepAppliesPoliciesInOrder(t *testing.T) {
	store, clk := newTestStore(t)
	manager := NewManager(store, newFakeFetcher().fetch, clk, newTestLogger())

	bulk := strings.Repeat("x", 10000)
	seedEntry(t, store, 1, "a.txt", bulk)
	clk.Advance(time.Hour)
	seedEntry(t, store, 2, "b.txt", bulk)
	clk.Advance(time.Hour)
	seedEntry(t, store, 3, "c.txt", bulk)

	// Max-age takes entry 1; max-total-bytes then sees only 2 and 3
	// and takes the older of those.
	manager.sweep([]EvictionPolicy{
		MaxAgePolicy{MaxAge: 90 * time.Minute},
		MaxTotalBytesPolicy{MaxBytes: 11000},
	})

	if store.Exists(1) {
		t.Error("entry 1 survived the max-age policy")
	}
	if store.Exists(2) {
		t.Error("entry 2 survived the max-total-bytes policy")
	}
	if !store.Exists(3) {
		t.Error("entry 3 was evicted")
	}
}

func TestRunSweeper(t *testing.T) {
	store, clk := newTestStore(t)
	manager := NewManager(store, newFakeFetcher().fetch, clk, newTestLogger())

	seedEntry(t, store, 1, "old.txt", "old content")
	clk.Advance(150 * time.Minute)
	seedEntry(t, store, 2, "new.txt", "new content")

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		manager.RunSweeper(ctx, time.Hour, MaxAgePolicy{MaxAge: 2 * time.Hour})
		close(done)
	}()

	clk.WaitForTimers(1)
	clk.Advance(time.Hour)

	deadline := time.Now().Add(5 * time.Second)
	for store.Exists(1) {
		if time.Now().After(deadline) {
			t.Fatal("entry 1 not evicted after the sweep interval elapsed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !store.Exists(2) {
		t.Error("entry 2 evicted before reaching max age")
	}

	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "sweeper shutdown")
	if got := clk.PendingCount(); got != 0 {
		t.Errorf("%d timers still pending after shutdown, want 0", got)
	}
}

func TestRunSweeperNoPolicies(t *testing.T) {
	store, clk := newTestStore(t)
	manager := NewManager(store, newFakeFetcher().fetch, clk, newTestLogger())

	done := make(chan struct{})
	go func() {
		manager.RunSweeper(context.Background(), time.Hour)
		close(done)
	}()
	testutil.RequireClosed(t, done, 5*time.Second, "sweeper with no policies")
}
