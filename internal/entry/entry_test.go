// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package entry

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/polybook/internal/bookerr"
)

func TestMoveText(t *testing.T) {
	for _, tc := range []struct {
		fromFile, fromRank, toFile, toRank int
		promotion                          Piece
		expected                           string
	}{
		{4, 1, 4, 3, NoPiece, "e2e4"},
		{4, 6, 4, 7, Queen, "e7e8q"},
		{0, 0, 7, 7, NoPiece, "a1h8"},
		{1, 6, 0, 7, Knight, "b7a8n"},
		{6, 1, 6, 0, Bishop, "g2g1b"},
		{7, 6, 7, 7, Rook, "h7h8r"},
	} {
		actual := MoveText(tc.fromFile, tc.fromRank, tc.toFile, tc.toRank, tc.promotion)
		assert.Equal(t, tc.expected, actual)

		m := NewMove(tc.fromFile, tc.fromRank, tc.toFile, tc.toRank, tc.promotion)
		assert.Equal(t, tc.expected, m.String())
		fromFile, fromRank := m.From()
		toFile, toRank := m.To()
		assert.Equal(t, tc.fromFile, fromFile)
		assert.Equal(t, tc.fromRank, fromRank)
		assert.Equal(t, tc.toFile, toFile)
		assert.Equal(t, tc.toRank, toRank)
		assert.Equal(t, tc.promotion, m.Promotion())
	}
}

func TestMoveBitLayout(t *testing.T) {
	// e2e4: from (4,1), to (4,3)
	m := Move(4<<9 | 1<<6 | 4<<3 | 3)
	assert.Equal(t, "e2e4", m.String())
	assert.True(t, m.Valid())

	// e7e8q
	m = Move(4<<12 | 4<<9 | 6<<6 | 4<<3 | 7)
	assert.Equal(t, "e7e8q", m.String())

	// the top bit isn't part of the move
	assert.Equal(t, "e7e8q", (m | 1<<15).String())

	for code := 5; code < 8; code++ {
		assert.False(t, Move(code<<12).Valid())
	}
}

func encode(key uint64, move Move, weight uint16, learn uint32) []byte {
	var b [Size]byte
	binary.BigEndian.PutUint64(b[0:8], key)
	binary.BigEndian.PutUint16(b[8:10], uint16(move))
	binary.BigEndian.PutUint16(b[10:12], weight)
	binary.BigEndian.PutUint32(b[12:16], learn)
	return b[:]
}

func TestDecode(t *testing.T) {
	const key = 0x463b96181691fc9c
	b := encode(key, NewMove(4, 1, 4, 3, NoPiece), 0xBEEF, 0xDEADC0DE)

	e, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, Entry{
		Key:      key,
		Move:     NewMove(4, 1, 4, 3, NoPiece),
		MoveText: "e2e4",
		Weight:   0xBEEF,
		Learn:    0xDEADC0DE,
	}, e)

	k, err := DecodeKey(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(key), k)

	// trailing bytes are ignored
	e2, err := Decode(append(b, 1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, e, e2)
}

func TestDecode_Truncated(t *testing.T) {
	b := encode(1, 0, 0, 0)
	for _, n := range []int{0, 1, KeySize, Size - 1} {
		_, err := Decode(b[:n])
		require.Error(t, err)
		assert.True(t, errors.Is(err, bookerr.ErrFormat))

		var be *bookerr.Error
		require.True(t, errors.As(err, &be))
		assert.Equal(t, int64(Size), be.Want)
		assert.Equal(t, int64(n), be.Got)
	}

	_, err := DecodeKey(b[:KeySize-1])
	assert.True(t, errors.Is(err, bookerr.ErrFormat))
}

func TestDecode_UndefinedPromotion(t *testing.T) {
	b := encode(1, Move(6<<12)|NewMove(0, 6, 0, 7, NoPiece), 1, 1)
	_, err := Decode(b)
	require.Error(t, err)
	assert.Equal(t, bookerr.KindFormat, bookerr.KindOf(err))
}

func BenchmarkDecode(b *testing.B) {
	buf := encode(0x463b96181691fc9c, NewMove(4, 6, 4, 7, Queen), 10, 20)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}
