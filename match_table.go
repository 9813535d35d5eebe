// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

import (
	"encoding/binary"
	"math/bits"
)

// Match is one candidate from the match finder. Dist is the raw backward
// distance: 0 means one byte back. A Length below matchLenMin means no
// match.
type Match struct {
	Length uint32
	Dist   uint32
}

// DataBlock is the caller-owned input region to encode. Data may extend
// past End; positions in [Start, End) are encoded.
type DataBlock struct {
	Data  []byte
	Start int
	End   int
}

// MatchTable is the read-only match-finder oracle, indexed by absolute
// position. Candidates never exceed 273 bytes, and once LimitLengths has
// been called their length never exceeds End-pos.
type MatchTable interface {
	// BestMatch returns the table's candidate at pos, extended to its
	// full length.
	BestMatch(pos int) Match
	// NextMatch returns the candidate at pos during lazy lookahead.
	NextMatch(pos int) Match
	// RawMatch exposes the stored link at pos for the compressibility
	// probe; ok is false for a null link.
	RawMatch(pos int) (m Match, ok bool)
	// LimitLengths caps stored match lengths so no match crosses end.
	LimitLengths(end int)
	// OutputBuffer returns the destination the encoder writes compressed
	// chunks into, aliasing the table's backing storage from start
	// onward.
	OutputBuffer(start int) []byte
}

// le16 reads two little-endian bytes, used for quick 2-byte prefix tests.
func le16(data []byte, pos int) uint16 {
	return binary.LittleEndian.Uint16(data[pos:])
}

// count returns the length of the common prefix of data[ip:] and data[mp:],
// stopping when ip reaches end.
func count(data []byte, ip, mp, end int) int {
	n := 0
	for ip < end && data[ip] == data[mp] {
		ip++
		mp++
		n++
	}
	return n
}

// highbit32 returns the bit index of the highest set bit. v must not be 0.
func highbit32(v uint32) int {
	return bits.Len32(v) - 1
}
