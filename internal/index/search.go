// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package index locates keys in a book whose records are sorted
// ascending by key.
package index

import (
	"github.com/bpowers/polybook/internal/bookerr"
)

// Source is a sorted, randomly accessible sequence of keys.
type Source interface {
	Len() int64
	KeyAt(i int64) (uint64, error)
}

// LowerBound returns the smallest index i in [0, src.Len()] such that
// every key before i is < key.  Keys must be sorted ascending; this is
// assumed, not checked.
func LowerBound(src Source, key uint64) (int64, error) {
	lo, hi := int64(0), src.Len()
	// invariant: keys in [0, lo) are < key, keys in [hi, n) are >= key
	for lo < hi {
		mid := int64(uint64(lo+hi) >> 1)
		k, err := src.KeyAt(mid)
		if err != nil {
			return 0, err
		}
		if k < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// FindFirst returns the lowest index whose key equals key, which is the
// start of that key's duplicate run no matter how long the run is.  It
// returns a bookerr.KindNotFound error if no record has the key.
func FindFirst(src Source, key uint64) (int64, error) {
	i, err := LowerBound(src, key)
	if err != nil {
		return 0, err
	}
	if i == src.Len() {
		return 0, bookerr.NotFound("index.FindFirst", key)
	}
	k, err := src.KeyAt(i)
	if err != nil {
		return 0, err
	}
	if k != key {
		return 0, bookerr.NotFound("index.FindFirst", key)
	}
	return i, nil
}
