// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package index

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/polybook/internal/bookerr"
)

type keySlice struct {
	keys   []uint64
	probes int
	failAt int64
}

func (s *keySlice) Len() int64 {
	return int64(len(s.keys))
}

func (s *keySlice) KeyAt(i int64) (uint64, error) {
	s.probes++
	if i == s.failAt {
		return 0, errors.New("read failed")
	}
	return s.keys[i], nil
}

func newKeySlice(keys ...uint64) *keySlice {
	return &keySlice{keys: keys, failAt: -1}
}

// linearFirst is the oracle: the lowest index holding key, or -1.
func linearFirst(keys []uint64, key uint64) int64 {
	for i, k := range keys {
		if k == key {
			return int64(i)
		}
	}
	return -1
}

func TestFindFirst_Small(t *testing.T) {
	src := newKeySlice(10, 10, 20)

	i, err := FindFirst(src, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), i)

	i, err = FindFirst(src, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), i)

	for _, missing := range []uint64{0, 9, 15, 21, ^uint64(0)} {
		_, err = FindFirst(src, missing)
		require.Error(t, err)
		assert.True(t, errors.Is(err, bookerr.ErrNotFound))
		var be *bookerr.Error
		require.True(t, errors.As(err, &be))
		assert.Equal(t, missing, be.Key)
	}
}

func TestFindFirst_Empty(t *testing.T) {
	src := newKeySlice()
	_, err := FindFirst(src, 0)
	assert.True(t, errors.Is(err, bookerr.ErrNotFound))
	assert.Equal(t, 0, src.probes)
}

func TestFindFirst_LongRuns(t *testing.T) {
	// runs of length >= 3 at the start, middle and end of the store,
	// plus a store that is a single run
	for _, keys := range [][]uint64{
		{5, 5, 5, 5, 7, 9},
		{1, 3, 3, 3, 3, 3, 3, 3, 8},
		{1, 2, 4, 4, 4},
		{6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6},
		{0, 0, 0, ^uint64(0), ^uint64(0), ^uint64(0)},
	} {
		src := newKeySlice(keys...)
		for _, key := range keys {
			i, err := FindFirst(src, key)
			require.NoError(t, err)
			assert.Equal(t, linearFirst(keys, key), i, "keys %v key %d", keys, key)
		}
	}
}

func TestFindFirst_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(64)
		keys := make([]uint64, n)
		for i := range keys {
			// a narrow key space forces long duplicate runs
			keys[i] = uint64(rng.Intn(8))
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		src := newKeySlice(keys...)

		for key := uint64(0); key < 9; key++ {
			expected := linearFirst(keys, key)
			i, err := FindFirst(src, key)
			if expected < 0 {
				assert.True(t, errors.Is(err, bookerr.ErrNotFound))
				continue
			}
			require.NoError(t, err)
			assert.Equal(t, expected, i)
		}
	}
}

func TestFindFirst_LogarithmicProbes(t *testing.T) {
	keys := make([]uint64, 1<<16)
	for i := range keys {
		keys[i] = 42
	}
	src := newKeySlice(keys...)
	i, err := FindFirst(src, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), i)
	// 16 halvings plus the final equality check
	assert.LessOrEqual(t, src.probes, 18)
}

func TestFindFirst_PropagatesReadErrors(t *testing.T) {
	src := newKeySlice(1, 2, 3, 4, 5)
	src.failAt = 2
	_, err := FindFirst(src, 4)
	require.Error(t, err)
	assert.False(t, errors.Is(err, bookerr.ErrNotFound))
	assert.EqualError(t, err, "read failed")
}

func TestLowerBound(t *testing.T) {
	src := newKeySlice(10, 10, 20, 30, 30, 30)
	for key, expected := range map[uint64]int64{
		0:  0,
		10: 0,
		11: 2,
		20: 2,
		25: 3,
		30: 3,
		31: 6,
	} {
		i, err := LowerBound(src, key)
		require.NoError(t, err)
		assert.Equal(t, expected, i, "key %d", key)
	}
}
