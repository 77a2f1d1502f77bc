// Copyright 2021 The polybook Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package entry decodes the fixed-width records of a Polyglot opening
// book.  Each record is 16 big-endian bytes:
//
//	 0    1    2    3    4    5    6    7
//	+----+----+----+----+----+----+----+----+
//	| key (position fingerprint)            |
//	+----+----+----+----+----+----+----+----+
//	| move    | weight  | learn             |
//	+----+----+----+----+----+----+----+----+
package entry

import (
	"encoding/binary"
	"fmt"

	"github.com/bpowers/polybook/internal/bookerr"
)

const (
	Size    = 16
	KeySize = 8

	moveOff   = 8
	weightOff = 10
	learnOff  = 12
)

// Entry is a single decoded book record.
type Entry struct {
	Key      uint64
	Move     Move
	MoveText string
	Weight   uint16
	Learn    uint32
}

func (e Entry) String() string {
	return fmt.Sprintf("%016x %s weight=%d learn=%d", e.Key, e.MoveText, e.Weight, e.Learn)
}

// Decode decodes the first Size bytes of b.
func Decode(b []byte) (Entry, error) {
	if len(b) < Size {
		return Entry{}, bookerr.Format("entry.Decode", -1, Size, int64(len(b)))
	}
	// bounds check elimination
	_ = b[Size-1]

	m := Move(binary.BigEndian.Uint16(b[moveOff : moveOff+2]))
	if !m.Valid() {
		return Entry{}, &bookerr.Error{
			Kind:  bookerr.KindFormat,
			Op:    "entry.Decode",
			Index: -1,
			Err:   fmt.Errorf("undefined promotion code %d in move %#04x", m.Promotion(), uint16(m)),
		}
	}

	return Entry{
		Key:      binary.BigEndian.Uint64(b[:KeySize]),
		Move:     m,
		MoveText: m.String(),
		Weight:   binary.BigEndian.Uint16(b[weightOff : weightOff+2]),
		Learn:    binary.BigEndian.Uint32(b[learnOff : learnOff+4]),
	}, nil
}

// DecodeKey decodes only the key prefix of a record.
func DecodeKey(b []byte) (uint64, error) {
	if len(b) < KeySize {
		return 0, bookerr.Format("entry.DecodeKey", -1, KeySize, int64(len(b)))
	}
	return binary.BigEndian.Uint64(b[:KeySize]), nil
}
