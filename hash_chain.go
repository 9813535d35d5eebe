// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

import "encoding/binary"

// Secondary hash chain for hybrid mode. A 14-bit hash of the next three
// bytes maps to the most recent position with that hash; older positions
// chain through an array indexed by pos & chainMask3. Positions the parser
// skips are back-filled before each query so the chain stays valid.

type hashChains struct {
	table3 [1 << hash3Bits]int32
	chain3 []int32
}

func hash3(data []byte, pos int) uint32 {
	return binary.LittleEndian.Uint32(data[pos:]) << 8 * 506832829 >> (32 - hash3Bits)
}

func (e *Encoder) hashReset(dictionaryBits3 int) {
	e.hashDict3 = 1 << dictionaryBits3
	e.chainMask3 = e.hashDict3 - 1
	for i := range e.hashBuf.table3 {
		e.hashBuf.table3[i] = nullLink
	}
}

func (e *Encoder) hashCreate(dictionaryBits3 int) {
	e.hashAlloc3 = 1 << dictionaryBits3
	e.hashBuf = &hashChains{chain3: make([]int32, e.hashAlloc3)}
	e.hashReset(dictionaryBits3)
}

// hashGetMatches walks the chain at pos, recording candidates of strictly
// increasing length into e.matches, then appends the match-table candidate
// if it is longer still. Returns the longest length found.
func (e *Encoder) hashGetMatches(block DataBlock, pos int, lengthLimit int, match Match) int {
	data := block.Data
	tbl := e.hashBuf
	chainMask3 := e.chainMask3

	e.matchCount = 0
	e.hashPrevIndex = max(e.hashPrevIndex, pos-e.hashDict3)
	// Update hash table and chain for any positions that were skipped.
	for e.hashPrevIndex++; e.hashPrevIndex < pos; e.hashPrevIndex++ {
		hash := hash3(data, e.hashPrevIndex)
		tbl.chain3[e.hashPrevIndex&chainMask3] = tbl.table3[hash]
		tbl.table3[hash] = int32(e.hashPrevIndex)
	}

	hash := hash3(data, pos)
	first3 := int(tbl.table3[hash])
	tbl.table3[hash] = int32(pos)

	maxLen := 2

	if first3 >= 0 {
		cycles := e.matchCycles
		endIndex := pos - min(int(match.Dist), e.hashDict3)
		match3 := first3
		if match3 >= endIndex {
			for {
				cycles--
				lenTest := count(data, pos+1, match3+1, pos+lengthLimit) + 1
				if lenTest > maxLen {
					e.matches[e.matchCount] = Match{Length: uint32(lenTest), Dist: uint32(pos - match3 - 1)}
					e.matchCount++
					maxLen = lenTest
					if lenTest >= lengthLimit {
						break
					}
				}
				if cycles <= 0 {
					break
				}
				match3 = int(tbl.chain3[match3&chainMask3])
				if match3 < endIndex {
					break
				}
			}
		}
	}
	tbl.chain3[pos&chainMask3] = int32(first3)
	if maxLen < int(match.Length) {
		e.matches[e.matchCount] = match
		e.matchCount++
		return int(match.Length)
	}
	return maxLen
}
