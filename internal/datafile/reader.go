// Copyright 2023 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/bpowers/polybook/internal/bookerr"
	"github.com/bpowers/polybook/internal/entry"
)

// Option configures a Reader.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	backend     Backend
	compression Compression
	maxSize     int64
}

// DefaultMaxSize bounds how large a compressed book may grow when it is
// decompressed into memory.
const DefaultMaxSize = 1 << 30

// WithLogger sets an optional logger.  If not provided, no logging
// output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithBackend chooses how records are read.  The default is BackendAuto.
func WithBackend(b Backend) Option {
	return func(opts *options) {
		opts.backend = b
	}
}

// WithCompression overrides compression detection from the file extension.
func WithCompression(c Compression) Option {
	return func(opts *options) {
		opts.compression = c
	}
}

// WithMaxSize caps the decompressed size of a compressed book.  The
// default is DefaultMaxSize.
func WithMaxSize(n int64) Option {
	return func(opts *options) {
		opts.maxSize = n
	}
}

// Reader provides random and sequential access to the records of a book
// file.  All reads are positioned explicitly, so a Reader may be shared
// between goroutines.  Close waits for reads already in flight, and
// reads started after Close fail with an IOError wrapping os.ErrClosed.
type Reader struct {
	path   string
	b      backend
	kind   Backend
	n      int64
	logger *slog.Logger

	// mu is held shared by every read of b and exclusively by Close, so
	// a mapping is never unmapped under a concurrent copy.
	mu       sync.RWMutex
	isClosed atomic.Bool
}

// Open opens the book at path.  The file's size must be an exact
// multiple of entry.Size.
func Open(path string, opts ...Option) (*Reader, error) {
	var options options
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	options.maxSize = DefaultMaxSize
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if options.maxSize <= 0 {
		options.maxSize = DefaultMaxSize
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, bookerr.IO("datafile.Open", path, err)
	}
	// newBackend owns f from here on
	b, kind, err := newBackend(f, &options)
	if err != nil {
		return nil, bookerr.IO("datafile.Open", path, err)
	}

	size := b.Size()
	if size%entry.Size != 0 {
		_ = b.Close()
		return nil, &bookerr.Error{
			Kind:  bookerr.KindFormat,
			Op:    "datafile.Open",
			Path:  path,
			Index: -1,
			Want:  entry.Size,
			Got:   size % entry.Size,
			Err:   fmt.Errorf("size %d is not a multiple of the %d-byte record size", size, entry.Size),
		}
	}

	r := &Reader{
		path:   path,
		b:      b,
		kind:   kind,
		n:      size / entry.Size,
		logger: options.logger,
	}
	r.logger.Debug("opened book", "path", path, "backend", kind.String(), "records", r.n)
	return r, nil
}

// Len returns the number of records in the book.
func (r *Reader) Len() int64 {
	return r.n
}

// Path returns the path the Reader was opened with.
func (r *Reader) Path() string {
	return r.path
}

// Backend returns the backend actually in use.
func (r *Reader) Backend() Backend {
	return r.kind
}

// readSlot fills buf from the start of record i.  len(buf) must be at
// most entry.Size.
func (r *Reader) readSlot(op string, i int64, buf []byte) error {
	if i < 0 || i >= r.n {
		return bookerr.OutOfRange(op, i, r.n)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.isClosed.Load() {
		return bookerr.IO(op, r.path, os.ErrClosed)
	}
	n, err := r.b.ReadAt(buf, i*entry.Size)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		// the file shrank underneath us
		return bookerr.Format(op, i, int64(len(buf)), int64(n))
	}
	return bookerr.IO(op, r.path, fmt.Errorf("ReadAt(%d, len: %d): %w", i*entry.Size, len(buf), err))
}

// ReadAt decodes the record at index i.
func (r *Reader) ReadAt(i int64) (entry.Entry, error) {
	var buf [entry.Size]byte
	if err := r.readSlot("datafile.ReadAt", i, buf[:]); err != nil {
		return entry.Entry{}, err
	}
	e, err := entry.Decode(buf[:])
	if err != nil {
		var be *bookerr.Error
		if errors.As(err, &be) {
			be.Index = i
		}
		return entry.Entry{}, err
	}
	return e, nil
}

// KeyAt reads only the key of the record at index i.
func (r *Reader) KeyAt(i int64) (uint64, error) {
	var buf [entry.KeySize]byte
	if err := r.readSlot("datafile.KeyAt", i, buf[:]); err != nil {
		return 0, err
	}
	return entry.DecodeKey(buf[:])
}

// Bytes returns the raw contents of the book.  For memory-backed
// readers this is the backing slice and MUST NOT be written to; otherwise
// the file (or mapping) is read into a fresh buffer.
func (r *Reader) Bytes() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.isClosed.Load() {
		return nil, bookerr.IO("datafile.Bytes", r.path, os.ErrClosed)
	}
	if sb, ok := r.b.(*sliceBackend); ok && !sb.mapped {
		return sb.Bytes(), nil
	}
	size := r.n * entry.Size
	buf := make([]byte, size)
	n, err := r.b.ReadAt(buf, 0)
	if int64(n) != size {
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, bookerr.Format("datafile.Bytes", -1, size, int64(n))
		}
		return nil, bookerr.IO("datafile.Bytes", r.path, err)
	}
	return buf, nil
}

// Close releases the underlying file or mapping.  It is safe to call
// more than once.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isClosed.Swap(true) {
		return nil
	}
	if err := r.b.Close(); err != nil {
		return bookerr.IO("datafile.Close", r.path, err)
	}
	return nil
}
