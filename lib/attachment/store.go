// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/helpdesk/lib/clock"
	"github.com/bureau-foundation/helpdesk/lib/codec"
)

const (
	metadataFilename = "metadata.cbor"
	originalDirName  = "original"
	extractedDirName = "extracted"
)

// Metadata is the persistent record for one cached attachment. Its
// presence on disk is the commit signal: an entry exists exactly when
// its metadata decodes, and the original bytes are always published
// before the metadata is.
type Metadata struct {
	// ID is the upstream attachment identifier.
	ID int64 `json:"id"`

	// Filename is the stored filename, reduced to its base name.
	Filename string `json:"filename"`

	// Size is the original file's size in bytes.
	Size int64 `json:"size"`

	// ContentType is the MIME type reported by upstream.
	ContentType string `json:"content_type"`

	// SourceLocator is the opaque string the bytes were fetched
	// from. Kept only so the entry could be refetched after
	// deletion; the cache never dereferences it.
	SourceLocator string `json:"source_locator"`

	// ContentHash is the lowercase hex BLAKE3 hash of the original
	// bytes, computed while they streamed to disk.
	ContentHash string `json:"content_hash"`

	// StoredAt is when the entry was committed.
	StoredAt time.Time `json:"stored_at"`
}

// Store maps attachment IDs to on-disk entries under a single cache
// root. An entry's location is a pure function of its ID; there is no
// in-memory index to go stale across restarts. The layout per entry:
//
//	<root>/entries/<id>/metadata.cbor
//	<root>/entries/<id>/original/<filename>
//	<root>/entries/<id>/extracted/...
//
// All writes stage under <root>/tmp and publish with a rename, so the
// two directories must live on one filesystem (guaranteed by both
// being under the root).
type Store struct {
	root       string
	tmpDir     string
	entriesDir string
	clock      clock.Clock
}

// NewStore opens the attachment store rooted at root, creating the
// directory tree if needed. A store that cannot create its root is
// unusable, so callers should treat an error here as fatal.
func NewStore(root string, clk clock.Clock) (*Store, error) {
	store := &Store{
		root:       root,
		tmpDir:     filepath.Join(root, "tmp"),
		entriesDir: filepath.Join(root, "entries"),
		clock:      clk,
	}
	for _, dir := range []string{store.root, store.tmpDir, store.entriesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
		}
	}
	return store, nil
}

// Root returns the cache root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) entryDir(id int64) string {
	return filepath.Join(s.entriesDir, strconv.FormatInt(id, 10))
}

func (s *Store) metadataPath(id int64) string {
	return filepath.Join(s.entryDir(id), metadataFilename)
}

func (s *Store) originalDir(id int64) string {
	return filepath.Join(s.entryDir(id), originalDirName)
}

func (s *Store) extractedDir(id int64) string {
	return filepath.Join(s.entryDir(id), extractedDirName)
}

// Exists reports whether the entry is committed: metadata present and
// well-formed.
func (s *Store) Exists(id int64) bool {
	_, err := s.ReadMetadata(id)
	return err == nil
}

// ReadMetadata loads the entry's metadata record. It returns
// [ErrNotFound] for entries that are absent or whose metadata does
// not decode; only a filesystem-level read failure is reported as a
// [StorageError].
func (s *Store) ReadMetadata(id int64) (*Metadata, error) {
	raw, err := os.ReadFile(s.metadataPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("attachment %d: %w", id, ErrNotFound)
		}
		return nil, &StorageError{Op: "read metadata", Err: err}
	}
	var meta Metadata
	if err := codec.Unmarshal(raw, &meta); err != nil {
		// Undecodable metadata means the entry is not well-formed;
		// report it as absent rather than surfacing codec noise.
		return nil, fmt.Errorf("attachment %d: corrupt metadata: %w", id, ErrNotFound)
	}
	return &meta, nil
}

// WriteEntry streams content into the entry for id and commits it.
// The content file is published first, the metadata record last, each
// with an atomic rename; a crash in between leaves an uncommitted
// entry that Exists does not report. The filename is reduced to its
// base name before use. Callers serialize writes per identifier; the
// store itself does not lock.
func (s *Store) WriteEntry(id int64, content io.Reader, filename, contentType, locator string) (*Metadata, error) {
	name := sanitizeFilename(filename)

	hasher := blake3.New()
	size, err := s.publishFile(io.TeeReader(content, hasher), filepath.Join(s.originalDir(id), name))
	if err != nil {
		return nil, &StorageError{Op: "store attachment content", Err: err}
	}

	meta := &Metadata{
		ID:            id,
		Filename:      name,
		Size:          size,
		ContentType:   contentType,
		SourceLocator: locator,
		ContentHash:   hex.EncodeToString(hasher.Sum(nil)),
		StoredAt:      s.clock.Now().UTC(),
	}
	encoded, err := codec.Marshal(meta)
	if err != nil {
		return nil, &StorageError{Op: "encode metadata", Err: err}
	}
	if _, err := s.publishFile(bytes.NewReader(encoded), s.metadataPath(id)); err != nil {
		return nil, &StorageError{Op: "store metadata", Err: err}
	}
	return meta, nil
}

// publishFile stages content in the tmp directory and renames it into
// place, creating parent directories as needed. Readers see either
// nothing or the complete file. Returns the number of bytes written.
func (s *Store) publishFile(content io.Reader, final string) (int64, error) {
	tmpFile, err := os.CreateTemp(s.tmpDir, "publish-*")
	if err != nil {
		return 0, fmt.Errorf("creating staging file: %w", err)
	}
	tmpPath := tmpFile.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, content)
	if err != nil {
		tmpFile.Close()
		return 0, fmt.Errorf("writing staging file: %w", err)
	}
	// Flush to stable storage before the rename. Metadata presence is
	// the commit signal, so the content bytes must not be allowed to
	// evaporate in a crash after the metadata rename lands.
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return 0, fmt.Errorf("syncing staging file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("closing staging file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return 0, fmt.Errorf("creating parent directory: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		return 0, fmt.Errorf("publishing %s: %w", filepath.Base(final), err)
	}
	success = true
	return written, nil
}

// Delete removes the entire entry subtree. It reports false, without
// error, when the entry does not exist; a second delete of the same
// ID is a no-op. The entry is renamed out of the entries tree before
// removal so a concurrent reader sees either the complete entry or
// none of it, never a half-deleted one.
func (s *Store) Delete(id int64) (bool, error) {
	entryDir := s.entryDir(id)
	if _, err := os.Stat(entryDir); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &StorageError{Op: "stat entry", Err: err}
	}

	trash, err := os.MkdirTemp(s.tmpDir, fmt.Sprintf("delete-%d-*", id))
	if err != nil {
		return false, &StorageError{Op: "create deletion staging", Err: err}
	}
	if err := os.Rename(entryDir, filepath.Join(trash, "entry")); err != nil {
		os.Remove(trash)
		if os.IsNotExist(err) {
			// Lost a race with another delete.
			return false, nil
		}
		return false, &StorageError{Op: "unlink entry", Err: err}
	}
	if err := os.RemoveAll(trash); err != nil {
		return false, &StorageError{Op: "remove entry", Err: err}
	}
	return true, nil
}

// Stats summarizes every committed entry for eviction decisions.
// Entries whose metadata does not decode are skipped.
func (s *Store) Stats() ([]EntryStat, error) {
	dirEntries, err := os.ReadDir(s.entriesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Op: "list entries", Err: err}
	}

	var stats []EntryStat
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() {
			continue
		}
		id, err := strconv.ParseInt(dirEntry.Name(), 10, 64)
		if err != nil {
			continue
		}
		meta, err := s.ReadMetadata(id)
		if err != nil {
			continue
		}
		size, err := dirSize(s.entryDir(id))
		if err != nil {
			continue
		}
		stats = append(stats, EntryStat{ID: id, StoredAt: meta.StoredAt, Bytes: size})
	}
	return stats, nil
}

// dirSize sums the sizes of all regular files under root.
func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// sanitizeFilename reduces an upstream filename hint to a safe base
// name. Upstream systems occasionally send names with directory
// components; only the final component is kept, and a name with
// nothing usable left falls back to a fixed placeholder.
func sanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "attachment.bin"
	}
	return name
}
