// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bookerr defines the closed set of error kinds returned when
// reading an opening book.
package bookerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind uint8

const (
	// KindIO means the backing file could not be opened or read.
	KindIO Kind = iota + 1
	// KindFormat means the file is not a well-formed book: its size is
	// not a multiple of the record size, or a record was truncated.
	KindFormat
	// KindOutOfRange means an index fell outside [0, Len()).
	KindOutOfRange
	// KindNotFound means no record has the requested key.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io error"
	case KindFormat:
		return "format error"
	case KindOutOfRange:
		return "index out of range"
	case KindNotFound:
		return "not found"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Error is the concrete error type for all book failures.  Fields that
// don't apply to a given failure are left at their zero value (Index is
// -1 when unset).
type Error struct {
	Kind  Kind
	Op    string
	Path  string
	Index int64
	Key   uint64
	Want  int64
	Got   int64
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	switch e.Kind {
	case KindOutOfRange:
		fmt.Fprintf(&b, ": index %d (len %d)", e.Index, e.Got)
	case KindNotFound:
		fmt.Fprintf(&b, ": key %#016x", e.Key)
	case KindFormat:
		if e.Want != 0 || e.Got != 0 {
			fmt.Fprintf(&b, ": want %d bytes, got %d", e.Want, e.Got)
		}
		if e.Index >= 0 {
			fmt.Fprintf(&b, " at index %d", e.Index)
		}
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's Kind, so callers can
// write errors.Is(err, bookerr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrIO         = &Error{Kind: KindIO, Index: -1}
	ErrFormat     = &Error{Kind: KindFormat, Index: -1}
	ErrOutOfRange = &Error{Kind: KindOutOfRange, Index: -1}
	ErrNotFound   = &Error{Kind: KindNotFound, Index: -1}
)

// IO wraps an underlying I/O failure.
func IO(op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Path: path, Index: -1, Err: err}
}

// Format reports a size mismatch: want bytes were expected, got were available.
func Format(op string, index, want, got int64) *Error {
	return &Error{Kind: KindFormat, Op: op, Index: index, Want: want, Got: got}
}

// OutOfRange reports an index outside [0, n).
func OutOfRange(op string, index, n int64) *Error {
	return &Error{Kind: KindOutOfRange, Op: op, Index: index, Got: n}
}

// NotFound reports a missing key.
func NotFound(op string, key uint64) *Error {
	return &Error{Kind: KindNotFound, Op: op, Index: -1, Key: key}
}

// KindOf returns the Kind of err, or 0 if err is not (and does not wrap)
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
