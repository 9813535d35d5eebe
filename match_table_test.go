package fastlzma2

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// testMatchTable is a small hash-chain match finder implementing the
// MatchTable contract for tests. Matches are precomputed per position,
// extended to their full length, with the raw links kept for the
// compressibility probe.
type testMatchTable struct {
	data    []byte
	matches []Match
	out     []byte
}

const (
	testHashBits = 15
	testMaxChain = 32
)

func testHash4(data []byte, pos int) uint32 {
	return binary.LittleEndian.Uint32(data[pos:]) * 2654435761 >> (32 - testHashBits)
}

// newTestMatchTable builds the table over data[0:end].
func newTestMatchTable(data []byte, end int) *testMatchTable {
	tbl := &testMatchTable{
		data:    data,
		matches: make([]Match, end),
		out:     make([]byte, end+end/2+8192),
	}
	var heads [1 << testHashBits]int32
	for i := range heads {
		heads[i] = -1
	}
	chain := make([]int32, end)

	for pos := 0; pos+4 <= end; pos++ {
		hash := testHash4(data, pos)
		best := Match{}
		candidate := heads[hash]
		for steps := 0; candidate >= 0 && steps < testMaxChain; steps++ {
			length := 0
			limit := min(end-pos, matchLenMax)
			cp := int(candidate)
			for length < limit && data[cp+length] == data[pos+length] {
				length++
			}
			if length >= matchLenMin && length > int(best.Length) {
				best = Match{Length: uint32(length), Dist: uint32(pos - cp - 1)}
				if length >= limit {
					break
				}
			}
			candidate = chain[cp]
		}
		tbl.matches[pos] = best
		chain[pos] = heads[hash]
		heads[hash] = int32(pos)
	}
	return tbl
}

func (t *testMatchTable) BestMatch(pos int) Match { return t.matches[pos] }
func (t *testMatchTable) NextMatch(pos int) Match { return t.matches[pos] }

func (t *testMatchTable) RawMatch(pos int) (Match, bool) {
	m := t.matches[pos]
	if m.Length < matchLenMin {
		return Match{}, false
	}
	return m, true
}

func (t *testMatchTable) LimitLengths(end int) {
	for pos := range t.matches {
		if limit := end - pos; int(t.matches[pos].Length) > limit {
			t.matches[pos].Length = uint32(max(limit, 0))
		}
	}
}

func (t *testMatchTable) OutputBuffer(start int) []byte { return t.out[start:] }

func TestTestMatchTable_CandidatesAreValid(t *testing.T) {
	data := append(bytes.Repeat([]byte("abcdefgh"), 512), bytes.Repeat([]byte("abcdefgi"), 512)...)
	tbl := newTestMatchTable(data, len(data))
	tbl.LimitLengths(len(data))

	for pos := 0; pos < len(data); pos++ {
		m := tbl.BestMatch(pos)
		if m.Length < matchLenMin {
			continue
		}
		src := pos - int(m.Dist) - 1
		if src < 0 {
			t.Fatalf("pos %d: match source %d before block start", pos, src)
		}
		if pos+int(m.Length) > len(data) {
			t.Fatalf("pos %d: match length %d crosses block end", pos, m.Length)
		}
		for i := 0; i < int(m.Length); i++ {
			if data[src+i] != data[pos+i] {
				t.Fatalf("pos %d: mismatch at offset %d of claimed match", pos, i)
			}
		}
	}
}
