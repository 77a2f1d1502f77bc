// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package polybook reads Polyglot opening books: flat files of 16-byte
// records sorted by a 64-bit position key, where each record suggests a
// move for that position along with a relative weight.
//
// A Book never picks a move itself; it returns every recorded
// alternative and leaves the selection policy to the caller.
package polybook

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgryski/go-farm"

	"github.com/bpowers/polybook/internal/bookerr"
	"github.com/bpowers/polybook/internal/datafile"
	"github.com/bpowers/polybook/internal/entry"
	"github.com/bpowers/polybook/internal/index"
)

// Entry is a decoded book record.
type Entry = entry.Entry

// Move is the packed move field of an Entry.
type Move = entry.Move

// Backend selects how a Book reads its file.
type Backend = datafile.Backend

const (
	BackendAuto   = datafile.BackendAuto
	BackendMmap   = datafile.BackendMmap
	BackendFile   = datafile.BackendFile
	BackendMemory = datafile.BackendMemory
)

// ParseBackend parses a backend name: auto, mmap, file or memory.
func ParseBackend(s string) (Backend, error) {
	return datafile.ParseBackend(s)
}

// Compression is a whole-file compression wrapper around a book.
type Compression = datafile.Compression

const (
	CompressionDetect = datafile.CompressionDetect
	CompressionNone   = datafile.CompressionNone
	CompressionZstd   = datafile.CompressionZstd
	CompressionLZ4    = datafile.CompressionLZ4
)

// Option configures a Book.
type Option func(*[]datafile.Option)

// WithLogger sets an optional logger.  If not provided, no logging
// output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *[]datafile.Option) {
		*opts = append(*opts, datafile.WithLogger(logger))
	}
}

// WithBackend chooses how records are read from disk.  The default
// reads with pread(2); BackendMmap is faster for heavy lookup loads but
// can't always detect a book file that is truncated while open.
func WithBackend(b Backend) Option {
	return func(opts *[]datafile.Option) {
		*opts = append(*opts, datafile.WithBackend(b))
	}
}

// WithCompression overrides detection of compressed books by file
// extension (".zst", ".lz4").
func WithCompression(c Compression) Option {
	return func(opts *[]datafile.Option) {
		*opts = append(*opts, datafile.WithCompression(c))
	}
}

// WithMaxSize caps how large a compressed book may be once
// decompressed.  The default is 1 GiB.
func WithMaxSize(n int64) Option {
	return func(opts *[]datafile.Option) {
		*opts = append(*opts, datafile.WithMaxSize(n))
	}
}

// Book is an open opening book.  Reads never share a file position, so
// a Book may be queried from multiple goroutines; individual iterators
// may not.  Close blocks until in-flight reads finish; later reads fail
// with a KindIO error.
type Book struct {
	r *datafile.Reader
}

// Open opens the book at path.  It fails with a KindIO error if the
// file can't be read and a KindFormat error if its size isn't a multiple
// of 16 bytes.
func Open(path string, opts ...Option) (*Book, error) {
	var dopts []datafile.Option
	for _, opt := range opts {
		opt(&dopts)
	}
	r, err := datafile.Open(path, dopts...)
	if err != nil {
		return nil, err
	}
	return &Book{r: r}, nil
}

// Close releases the book's file.  It is safe to call more than once.
func (b *Book) Close() error {
	return b.r.Close()
}

// Len returns the number of records in the book.
func (b *Book) Len() int64 {
	return b.r.Len()
}

// Path returns the path the book was opened from.
func (b *Book) Path() string {
	return b.r.Path()
}

// Backend returns the backend in use.
func (b *Book) Backend() Backend {
	return b.r.Backend()
}

// At returns the record at index i.
func (b *Book) At(i int64) (Entry, error) {
	return b.r.ReadAt(i)
}

// Iter returns a fresh iterator over every record in file order.
func (b *Book) Iter() *Iter {
	return &Iter{it: b.r.Iter()}
}

// ReverseIter returns a fresh iterator over every record in reverse
// file order.
func (b *Book) ReverseIter() *Iter {
	return &Iter{it: b.r.ReverseIter()}
}

// FindFirst returns the index of the first record with the given key.
// It fails with a KindNotFound error if there is none.
func (b *Book) FindFirst(key uint64) (int64, error) {
	return index.FindFirst(b.r, key)
}

// EntriesFor returns an iterator over every record for key, in file
// order.  A key with no records yields an empty iterator, not an error.
func (b *Book) EntriesFor(key uint64) *Iter {
	first, err := index.FindFirst(b.r, key)
	if err != nil {
		if errors.Is(err, bookerr.ErrNotFound) {
			return &Iter{}
		}
		return &Iter{err: err}
	}
	return &Iter{it: b.r.IterFrom(first), key: key, matchKey: true}
}

// Lookup collects the records for key.  A key with no records returns
// an empty slice and a nil error.
func (b *Book) Lookup(key uint64) ([]Entry, error) {
	return b.EntriesFor(key).Collect()
}

// Verify checks that keys are sorted ascending, which every lookup
// assumes.  It returns a KindFormat error naming the first record that
// sorts before its predecessor.
func (b *Book) Verify() error {
	n := b.r.Len()
	var prev uint64
	for i := int64(0); i < n; i++ {
		k, err := b.r.KeyAt(i)
		if err != nil {
			return err
		}
		if i > 0 && k < prev {
			return &bookerr.Error{
				Kind:  bookerr.KindFormat,
				Op:    "polybook.Verify",
				Path:  b.r.Path(),
				Index: i,
				Err:   fmt.Errorf("key %#016x sorts before previous key %#016x", k, prev),
			}
		}
		prev = k
	}
	return nil
}

// Stats summarizes a book.
type Stats struct {
	Records    int64
	Positions  int64  // distinct keys
	LongestRun int64  // most records sharing one key
	LongestKey uint64 // the key with the longest run
}

// Stats walks the whole book once.
func (b *Book) Stats() (Stats, error) {
	var s Stats
	var run int64
	var prev uint64
	it := b.r.Iter()
	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		if s.Records == 0 || e.Key != prev {
			s.Positions++
			run = 0
		}
		run++
		if run > s.LongestRun {
			s.LongestRun = run
			s.LongestKey = e.Key
		}
		prev = e.Key
		s.Records++
	}
	return s, it.Err()
}

// Digest returns a farmhash fingerprint of the book's contents,
// suitable for telling two book files apart.
func (b *Book) Digest() (uint64, error) {
	data, err := b.r.Bytes()
	if err != nil {
		return 0, err
	}
	return farm.Fingerprint64(data), nil
}

// Iter is a lazy sequence of records.  It must not be shared between
// goroutines.
type Iter struct {
	it       *datafile.Iter
	key      uint64
	matchKey bool
	done     bool
	err      error
}

// Next returns the next record, or false when the sequence is exhausted
// or an error occurred (see Err).
func (i *Iter) Next() (Entry, bool) {
	if i.done || i.err != nil || i.it == nil {
		return Entry{}, false
	}
	e, ok := i.it.Next()
	if !ok {
		i.done = true
		i.err = i.it.Err()
		return Entry{}, false
	}
	if i.matchKey && e.Key != i.key {
		i.done = true
		return Entry{}, false
	}
	return e, true
}

// Err returns the error that stopped iteration, if any.
func (i *Iter) Err() error {
	return i.err
}

// Collect drains the iterator into a slice.  The slice is non-nil even
// when empty.
func (i *Iter) Collect() ([]Entry, error) {
	entries := []Entry{}
	for {
		e, ok := i.Next()
		if !ok {
			break
		}
		entries = append(entries, e)
	}
	return entries, i.Err()
}
