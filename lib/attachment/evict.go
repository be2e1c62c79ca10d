// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"golang.org/x/sys/unix"
)

// EntryStat summarizes one cache entry for eviction decisions.
type EntryStat struct {
	// ID is the attachment identifier.
	ID int64

	// StoredAt is when the entry was committed.
	StoredAt time.Time

	// Bytes is the entry's total on-disk size: metadata, original
	// file, and any extracted tree.
	Bytes int64
}

// EvictionPolicy decides which cache entries to remove. The cache
// itself mandates no eviction; the sweeper applies whatever
// combination of policies the operator configures, in order.
type EvictionPolicy interface {
	// Name identifies the policy in logs.
	Name() string

	// Evict returns the identifiers of entries that should be
	// removed, given the current time and a snapshot of all
	// committed entries.
	Evict(now time.Time, entries []EntryStat) ([]int64, error)
}

// MaxAgePolicy evicts entries stored longer than MaxAge ago.
type MaxAgePolicy struct {
	MaxAge time.Duration
}

func (p MaxAgePolicy) Name() string { return "max-age" }

func (p MaxAgePolicy) Evict(now time.Time, entries []EntryStat) ([]int64, error) {
	cutoff := now.Add(-p.MaxAge)
	var evict []int64
	for _, entry := range entries {
		if entry.StoredAt.Before(cutoff) {
			evict = append(evict, entry.ID)
		}
	}
	return evict, nil
}

// MaxTotalBytesPolicy evicts oldest entries first until the cache's
// total size is at most MaxBytes.
type MaxTotalBytesPolicy struct {
	MaxBytes int64
}

func (p MaxTotalBytesPolicy) Name() string { return "max-total-bytes" }

func (p MaxTotalBytesPolicy) Evict(now time.Time, entries []EntryStat) ([]int64, error) {
	var total int64
	for _, entry := range entries {
		total += entry.Bytes
	}
	if total <= p.MaxBytes {
		return nil, nil
	}

	var evict []int64
	for _, entry := range oldestFirst(entries) {
		if total <= p.MaxBytes {
			break
		}
		evict = append(evict, entry.ID)
		total -= entry.Bytes
	}
	return evict, nil
}

// MinFreeBytesPolicy evicts oldest entries first while the filesystem
// holding Root has less than MinFree bytes available.
type MinFreeBytesPolicy struct {
	// Root is a path on the filesystem to measure, normally the
	// cache root.
	Root string

	MinFree uint64
}

func (p MinFreeBytesPolicy) Name() string { return "min-free-bytes" }

func (p MinFreeBytesPolicy) Evict(now time.Time, entries []EntryStat) ([]int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(p.Root, &stat); err != nil {
		return nil, fmt.Errorf("statfs %s: %w", p.Root, err)
	}
	free := uint64(stat.Bsize) * stat.Bavail
	if free >= p.MinFree {
		return nil, nil
	}

	var evict []int64
	for _, entry := range oldestFirst(entries) {
		if free >= p.MinFree {
			break
		}
		evict = append(evict, entry.ID)
		free += uint64(entry.Bytes)
	}
	return evict, nil
}

// oldestFirst returns a copy of entries sorted by ascending StoredAt.
func oldestFirst(entries []EntryStat) []EntryStat {
	byAge := slices.Clone(entries)
	sort.Slice(byAge, func(i, j int) bool { return byAge[i].StoredAt.Before(byAge[j].StoredAt) })
	return byAge
}

// RunSweeper applies the eviction policies every interval until ctx
// is canceled. Evicted entries are deleted through the manager so
// per-identifier locks are honored; a sweep racing an in-flight store
// of the same identifier waits its turn like any other writer. A
// non-positive interval or an empty policy chain disables sweeping.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration, policies ...EvictionPolicy) {
	if len(policies) == 0 || interval <= 0 {
		return
	}
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(policies)
		}
	}
}

// sweep runs one eviction pass. Policy failures are logged and skip
// to the next policy; they never stop the sweeper.
func (m *Manager) sweep(policies []EvictionPolicy) {
	entries, err := m.store.Stats()
	if err != nil {
		m.logger.Error("cache sweep: reading entry stats", "error", err)
		return
	}

	now := m.clock.Now()
	for _, policy := range policies {
		ids, err := policy.Evict(now, entries)
		if err != nil {
			m.logger.Error("cache sweep: policy failed",
				"policy", policy.Name(),
				"error", err)
			continue
		}
		if len(ids) == 0 {
			continue
		}

		evicted := make(map[int64]bool, len(ids))
		for _, id := range ids {
			outcome, err := m.Delete(id)
			if err != nil {
				m.logger.Error("cache sweep: deleting entry",
					"policy", policy.Name(),
					"attachment_id", id,
					"error", err)
				continue
			}
			if outcome.Deleted {
				m.logger.Info("cache entry evicted",
					"policy", policy.Name(),
					"attachment_id", id)
			}
			evicted[id] = true
		}

		// Later policies see the cache as this one left it.
		remaining := entries[:0]
		for _, entry := range entries {
			if !evicted[entry.ID] {
				remaining = append(remaining, entry)
			}
		}
		entries = remaining
	}
}
