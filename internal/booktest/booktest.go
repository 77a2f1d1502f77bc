// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package booktest builds book files for tests and benchmarks.
package booktest

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/polybook/internal/entry"
)

// Record is an undecoded book record.
type Record struct {
	Key    uint64
	Move   entry.Move
	Weight uint16
	Learn  uint32
}

// AppendRecord appends the 16-byte big-endian encoding of r to b.
func AppendRecord(b []byte, r Record) []byte {
	var buf [entry.Size]byte
	binary.BigEndian.PutUint64(buf[0:8], r.Key)
	binary.BigEndian.PutUint16(buf[8:10], uint16(r.Move))
	binary.BigEndian.PutUint16(buf[10:12], r.Weight)
	binary.BigEndian.PutUint32(buf[12:16], r.Learn)
	return append(b, buf[:]...)
}

// Encode encodes records in the order given.  Callers wanting a valid
// book should pass them sorted by key (see Sort).
func Encode(records []Record) []byte {
	b := make([]byte, 0, len(records)*entry.Size)
	for _, r := range records {
		b = AppendRecord(b, r)
	}
	return b
}

// Sort sorts records by key, keeping the relative order of duplicates.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Key < records[j].Key
	})
}

// Keys builds one record per key with weight equal to its position in
// keys and a fixed e2e4 move.
func Keys(keys ...uint64) []Record {
	records := make([]Record, len(keys))
	for i, k := range keys {
		records[i] = Record{
			Key:    k,
			Move:   entry.NewMove(4, 1, 4, 3, entry.NoPiece),
			Weight: uint16(i),
			Learn:  uint32(i),
		}
	}
	return records
}

// Random returns n records sorted by key, drawn from nKeys distinct
// keys so that most keys have duplicate runs.
func Random(rng *rand.Rand, n, nKeys int) []Record {
	keys := make([]uint64, nKeys)
	for i := range keys {
		keys[i] = rng.Uint64()
	}
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			Key: keys[rng.Intn(nKeys)],
			Move: entry.NewMove(rng.Intn(8), rng.Intn(8), rng.Intn(8), rng.Intn(8),
				entry.Piece(rng.Intn(int(entry.Queen)+1))),
			Weight: uint16(rng.Intn(1 << 16)),
			Learn:  rng.Uint32(),
		}
	}
	Sort(records)
	return records
}

// WriteFile writes raw bytes into a new file under t.TempDir().
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0444))
	return path
}

// WriteBook encodes records into a new book file and returns its path.
func WriteBook(t testing.TB, records []Record) string {
	t.Helper()
	return WriteFile(t, "book.bin", Encode(records))
}

// WriteZstdBook writes records as a zstd-compressed book.
func WriteZstdBook(t testing.TB, records []Record) string {
	t.Helper()
	return WriteFile(t, "book.bin.zst", Zstd(t, Encode(records)))
}

// WriteLZ4Book writes records as an lz4-framed book.
func WriteLZ4Book(t testing.TB, records []Record) string {
	t.Helper()
	return WriteFile(t, "book.bin.lz4", LZ4(t, Encode(records)))
}

// Zstd compresses data as a single zstd stream.
func Zstd(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	require.NoError(t, err)
	_, err = enc.Write(data)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

// LZ4 compresses data in the lz4 frame format.
func LZ4(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}
