// Copyright 2023 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"github.com/bpowers/polybook/internal/bookerr"
	"github.com/bpowers/polybook/internal/entry"
)

// Iter walks the records of a Reader in index order (or reverse index
// order).  Each Iter has its own position; an Iter must not be shared
// between goroutines.
type Iter struct {
	r    *Reader
	next int64
	end  int64
	step int64
	err  error
}

// Iter returns a fresh iterator over every record, from index 0.
func (r *Reader) Iter() *Iter {
	return &Iter{r: r, next: 0, end: r.n, step: 1}
}

// ReverseIter returns a fresh iterator over every record, from the last
// index down to 0.
func (r *Reader) ReverseIter() *Iter {
	return &Iter{r: r, next: r.n - 1, end: -1, step: -1}
}

// IterFrom returns a forward iterator starting at index i.  i == Len()
// yields an empty iterator; anything outside [0, Len()] is an error
// reported by Err.
func (r *Reader) IterFrom(i int64) *Iter {
	it := &Iter{r: r, next: i, end: r.n, step: 1}
	if i < 0 || i > r.n {
		it.err = bookerr.OutOfRange("datafile.IterFrom", i, r.n)
	}
	return it
}

// Next returns the next record.  It returns false at the end of the
// sequence or after an error; check Err to tell the two apart.
func (i *Iter) Next() (entry.Entry, bool) {
	if i.err != nil || i.next == i.end {
		return entry.Entry{}, false
	}
	e, err := i.r.ReadAt(i.next)
	if err != nil {
		i.err = err
		return entry.Entry{}, false
	}
	i.next += i.step
	return e, true
}

// Err returns the first error encountered, if any.
func (i *Iter) Err() error {
	return i.err
}

// Collect drains the iterator into a slice.
func (i *Iter) Collect() ([]entry.Entry, error) {
	var entries []entry.Entry
	for {
		e, ok := i.Next()
		if !ok {
			break
		}
		entries = append(entries, e)
	}
	return entries, i.Err()
}
