// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"compress/bzip2"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// archiveFormat identifies how an attachment's original file is
// unpacked.
type archiveFormat int

const (
	formatUnknown archiveFormat = iota
	formatZip
	formatTar
	formatTarGzip
	formatTarBzip2
	formatTarZstd
	formatTarLz4
)

// detectFormat maps a filename to its archive format by suffix,
// case-insensitively. Compound suffixes are checked before ".tar"
// alone so "logs.tar.gz" reads as gzip-compressed tar, not plain tar.
func detectFormat(filename string) archiveFormat {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return formatTarGzip
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"):
		return formatTarBzip2
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return formatTarZstd
	case strings.HasSuffix(lower, ".tar.lz4"):
		return formatTarLz4
	case strings.HasSuffix(lower, ".tar"):
		return formatTar
	case strings.HasSuffix(lower, ".zip"):
		return formatZip
	default:
		return formatUnknown
	}
}

// IsArchive reports whether filename carries a recognized archive
// suffix: .zip, .tar, or a compressed tar variant (.tar.gz, .tgz,
// .tar.bz2, .tbz2, .tar.zst, .tzst, .tar.lz4).
func IsArchive(filename string) bool {
	return detectFormat(filename) != formatUnknown
}

// newDecompressor wraps r in the decompression layer the tar variant
// calls for. The returned close function releases decompressor state
// and is nil for formats that hold none.
func newDecompressor(format archiveFormat, r io.Reader) (io.Reader, func(), error) {
	switch format {
	case formatTar:
		return r, nil, nil
	case formatTarGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return gz, func() { gz.Close() }, nil
	case formatTarBzip2:
		return bzip2.NewReader(r), nil, nil
	case formatTarZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return zr, zr.Close, nil
	case formatTarLz4:
		return lz4.NewReader(r), nil, nil
	default:
		return nil, nil, fmt.Errorf("format %d is not a tar variant", format)
	}
}
