// Copyright 2023 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sys/unix"
)

// Backend selects how the book's bytes are accessed.
type Backend uint8

const (
	// BackendAuto reads with pread(2), which reports a file that shrinks
	// after Open as a short read.
	BackendAuto Backend = iota
	// BackendMmap memory-maps the whole file read-only.  Reads that fault
	// because the file shrank fail with a FormatError, but a file cut
	// short inside its last page reads back as zeros: only use it for
	// books nobody rewrites in place.
	BackendMmap
	// BackendFile issues a pread(2) for every record.
	BackendFile
	// BackendMemory holds the whole (decompressed) book on the heap.
	// It is always used for compressed books.
	BackendMemory
)

func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return "auto"
	case BackendMmap:
		return "mmap"
	case BackendFile:
		return "file"
	case BackendMemory:
		return "memory"
	default:
		return fmt.Sprintf("Backend(%d)", uint8(b))
	}
}

// ParseBackend is the inverse of Backend.String.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "", "auto":
		return BackendAuto, nil
	case "mmap":
		return BackendMmap, nil
	case "file":
		return BackendFile, nil
	case "memory":
		return BackendMemory, nil
	}
	return BackendAuto, fmt.Errorf("unknown backend %q (want auto, mmap, file or memory)", s)
}

// Compression is a whole-file compression wrapper around a book.
type Compression uint8

const (
	// CompressionDetect picks a codec from the file extension.
	CompressionDetect Compression = iota
	CompressionNone
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionDetect:
		return "detect"
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

func detectCompression(path string) Compression {
	switch filepath.Ext(path) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// backend is what a Reader reads records from.  Every read names its
// offset explicitly; there is no shared cursor.
type backend interface {
	io.ReaderAt
	Size() int64
	Close() error
}

// sliceBackend serves reads out of a byte slice: either an mmap'd file
// or a heap buffer holding a decompressed book.
type sliceBackend struct {
	data    []byte
	release func([]byte) error
	once    sync.Once
	// mapped is set for mmap'd files, whose pages can disappear if the
	// file is truncated.
	mapped bool
}

func (s *sliceBackend) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	if s.mapped {
		defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
		defer func() {
			if r := recover(); r != nil {
				n, err = 0, fmt.Errorf("fault reading mapping at offset %d: %v: %w", off, r, io.ErrUnexpectedEOF)
			}
		}()
	}
	n = copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *sliceBackend) Size() int64 {
	return int64(len(s.data))
}

// Bytes returns the backing slice.  It MUST NOT be written to and is
// invalid after Close.  Reading a mapped slice directly is not protected
// against truncation faults; use ReadAt.
func (s *sliceBackend) Bytes() []byte {
	return s.data
}

func (s *sliceBackend) Close() error {
	var err error
	s.once.Do(func() {
		if s.release != nil {
			err = s.release(s.data)
		}
		s.data = nil
	})
	return err
}

type fileBackend struct {
	f    *os.File
	size int64
}

func (b *fileBackend) ReadAt(p []byte, off int64) (int, error) {
	return b.f.ReadAt(p, off)
}

func (b *fileBackend) Size() int64 {
	return b.size
}

func (b *fileBackend) Close() error {
	return b.f.Close()
}

// newBackend takes ownership of f: it is either handed to the returned
// backend or closed before newBackend returns.
func newBackend(f *os.File, opts *options) (backend, Backend, error) {
	path := f.Name()
	compression := opts.compression
	if compression == CompressionDetect {
		compression = detectCompression(path)
	}
	if compression != CompressionNone {
		defer func() { _ = f.Close() }()
		data, err := decompress(f, compression, opts.maxSize)
		if err != nil {
			return nil, 0, err
		}
		opts.logger.Debug("decompressed book", "path", path, "compression", compression.String(), "bytes", len(data))
		return &sliceBackend{data: data}, BackendMemory, nil
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("f.Stat: %w", err)
	}
	size := stat.Size()

	switch opts.backend {
	case BackendAuto, BackendFile:
		return &fileBackend{f: f, size: size}, BackendFile, nil
	case BackendMemory:
		defer func() { _ = f.Close() }()
		data := make([]byte, size)
		if _, err := io.ReadFull(f, data); err != nil {
			return nil, 0, fmt.Errorf("io.ReadFull: %w", err)
		}
		return &sliceBackend{data: data}, BackendMemory, nil
	}

	// mmap(2) rejects zero-length mappings
	if size == 0 {
		return &fileBackend{f: f, size: size}, BackendFile, nil
	}

	// the mapping outlives the descriptor
	defer func() { _ = f.Close() }()
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, 0, fmt.Errorf("unix.Mmap(%s, len: %d): %w", path, size, err)
	}
	// lookups are binary searches: readahead only wastes page cache
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil {
		opts.logger.Warn("madvise failed, continuing anyway", "path", path, "err", err)
	}
	return &sliceBackend{data: data, release: unix.Munmap, mapped: true}, BackendMmap, nil
}

// decompress inflates a whole compressed book, refusing to produce more
// than maxSize bytes.
func decompress(r io.Reader, c Compression, maxSize int64) ([]byte, error) {
	var src io.Reader
	switch c {
	case CompressionZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderMaxMemory(uint64(maxSize)))
		if err != nil {
			return nil, fmt.Errorf("zstd.NewReader: %w", err)
		}
		defer dec.Close()
		src = dec
	case CompressionLZ4:
		src = lz4.NewReader(r)
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s decode: %w", c, err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%s book decompresses to more than %d bytes", c, maxSize)
	}
	return data, nil
}
