// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package polybook

import (
	"github.com/bpowers/polybook/internal/bookerr"
)

// Error is returned by every fallible operation on a Book.  Use
// errors.Is with one of the Err* sentinels, or KindOf, to classify it.
type Error = bookerr.Error

// Kind classifies an Error.
type Kind = bookerr.Kind

const (
	KindIO         = bookerr.KindIO
	KindFormat     = bookerr.KindFormat
	KindOutOfRange = bookerr.KindOutOfRange
	KindNotFound   = bookerr.KindNotFound
)

var (
	ErrIO         = bookerr.ErrIO
	ErrFormat     = bookerr.ErrFormat
	ErrOutOfRange = bookerr.ErrOutOfRange
	ErrNotFound   = bookerr.ErrNotFound
)

// KindOf returns the Kind of err, or 0 if err is not a book error.
func KindOf(err error) Kind {
	return bookerr.KindOf(err)
}
