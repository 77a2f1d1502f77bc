// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package entry

// Move is the packed 16-bit move field of a book entry:
//
//	 15  14 13 12  11 10  9   8  7  6   5  4  3   2  1  0
//	+---+--------+---------+---------+---------+---------+
//	| - | promo  | from f  | from r  |  to f   |  to r   |
//	+---+--------+---------+---------+---------+---------+
type Move uint16

// Piece is a promotion piece code.
type Piece uint8

const (
	NoPiece Piece = iota
	Knight
	Bishop
	Rook
	Queen
)

const (
	files = "abcdefgh"
	ranks = "12345678"
	// indexed by Piece
	promotionLetters = " nbrq"
)

func (m Move) To() (file, rank int) {
	return int(m>>3) & 0x7, int(m) & 0x7
}

func (m Move) From() (file, rank int) {
	return int(m>>9) & 0x7, int(m>>6) & 0x7
}

func (m Move) Promotion() Piece {
	return Piece(m>>12) & 0x7
}

// Valid reports whether the promotion code is one of the defined pieces.
func (m Move) Valid() bool {
	return m.Promotion() <= Queen
}

// String returns the move in long algebraic form, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	fromFile, fromRank := m.From()
	toFile, toRank := m.To()
	return MoveText(fromFile, fromRank, toFile, toRank, m.Promotion())
}

// MoveText renders a move from its square coordinates.  File and rank
// indexes must be in [0, 7]; the promotion letter is only appended for
// a defined promotion piece.
func MoveText(fromFile, fromRank, toFile, toRank int, promotion Piece) string {
	var buf [5]byte
	buf[0] = files[fromFile]
	buf[1] = ranks[fromRank]
	buf[2] = files[toFile]
	buf[3] = ranks[toRank]
	if promotion == NoPiece || promotion > Queen {
		return string(buf[:4])
	}
	buf[4] = promotionLetters[promotion]
	return string(buf[:])
}

// NewMove packs square coordinates into a Move.
func NewMove(fromFile, fromRank, toFile, toRank int, promotion Piece) Move {
	return Move(uint16(promotion&0x7)<<12 |
		uint16(fromFile&0x7)<<9 |
		uint16(fromRank&0x7)<<6 |
		uint16(toFile&0x7)<<3 |
		uint16(toRank&0x7))
}
