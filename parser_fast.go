// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

// Greedy/lazy parser. At each position the match-table candidate competes
// with the four rep distances, then a 1-2 byte lazy lookahead may move the
// emit position forward. Distances below numReps select a rep; normal
// distances are stored offset by numReps.

// Distance restrictions for short matches: a length-3 match is only worth
// coding within 64 bytes, a length-4 match within 16 KiB.
var maxDistTable = [5]uint32{0, 0, 0, 1 << 6, 1 << 14}

func (e *Encoder) encodeChunkFast(block DataBlock, tbl MatchTable, index, uncompressedEnd int) int {
	posMask := e.posMask
	prev := index
	for index < uncompressedEnd && e.rc.outIndex < e.rc.chunkSize {
		bestMatch := tbl.BestMatch(index)
		if bestMatch.Length < matchLenMin {
			index++
			continue
		}
		if bestMatch.Length >= 5 || bestMatch.Dist < maxDistTable[bestMatch.Length] {
			bestMatch.Dist += numReps
		} else {
			bestMatch.Length = 0
		}
		maxLen := min(matchLenMax, block.End-index)
		pos := index

		var bestRep Match
		emit := false
		for repIndex := uint32(0); repIndex < numReps; repIndex++ {
			repData := pos - int(e.states.reps[repIndex]) - 1
			if le16(block.Data, pos) != le16(block.Data, repData) {
				continue
			}
			repLen := count(block.Data, pos+2, repData+2, pos+maxLen) + 2
			if repLen >= maxLen {
				bestMatch = Match{Length: uint32(repLen), Dist: repIndex}
				emit = true
				break
			}
			if repLen > int(bestRep.Length) {
				bestRep = Match{Length: uint32(repLen), Dist: repIndex}
			}
		}
		if !emit {
			if int(bestMatch.Length) >= maxLen {
				emit = true
			}
		}
		if !emit {
			if bestRep.Length >= 2 {
				gain2 := int(bestRep.Length)*3 - int(bestRep.Dist)
				gain1 := int(bestMatch.Length)*3 - highbit32(bestMatch.Dist+1) + 1
				if gain2 > gain1 {
					bestMatch = bestRep
				}
			}

			if bestMatch.Length < matchLenMin {
				index++
				continue
			}

			for next := index + 1; bestMatch.Length < matchLenMax && next < uncompressedEnd; next++ {
				// Lazy matching scheme from ZSTD.
				nextMatch := tbl.NextMatch(next)
				if nextMatch.Length >= matchLenMin {
					bestRep.Length = 0
					pos = next
					maxLen = min(matchLenMax, block.End-next)
					for repIndex := uint32(0); repIndex < numReps; repIndex++ {
						repData := pos - int(e.states.reps[repIndex]) - 1
						if le16(block.Data, pos) != le16(block.Data, repData) {
							continue
						}
						repLen := count(block.Data, pos+2, repData+2, pos+maxLen) + 2
						if repLen > int(bestRep.Length) {
							bestRep = Match{Length: uint32(repLen), Dist: repIndex}
						}
					}
					if bestRep.Length >= 3 {
						gain2 := int(bestRep.Length)*3 - int(bestRep.Dist)
						gain1 := int(bestMatch.Length)*3 - highbit32(bestMatch.Dist+1) + 1
						if gain2 > gain1 {
							bestMatch = bestRep
							index = next
						}
					}
					if nextMatch.Length >= 3 && nextMatch.Dist != bestMatch.Dist {
						gain2 := int(nextMatch.Length)*4 - highbit32(nextMatch.Dist+1)
						gain1 := int(bestMatch.Length)*4 - highbit32(bestMatch.Dist+1) + 4
						if gain2 > gain1 {
							bestMatch = nextMatch
							bestMatch.Dist += numReps
							index = next
							continue
						}
					}
				}
				if next < uncompressedEnd-4 {
					next++
					nextMatch = tbl.NextMatch(next)
					if nextMatch.Length < 4 {
						break
					}
					pos = next
					maxLen = min(matchLenMax, block.End-next)
					bestRep.Length = 0
					for repIndex := uint32(0); repIndex < numReps; repIndex++ {
						repData := pos - int(e.states.reps[repIndex]) - 1
						if le16(block.Data, pos) != le16(block.Data, repData) {
							continue
						}
						repLen := count(block.Data, pos+2, repData+2, pos+maxLen) + 2
						if repLen > int(bestRep.Length) {
							bestRep = Match{Length: uint32(repLen), Dist: repIndex}
						}
					}
					if bestRep.Length >= 4 {
						gain2 := int(bestRep.Length)*4 - int(bestRep.Dist>>1)
						gain1 := int(bestMatch.Length)*4 - highbit32(bestMatch.Dist+1) + 1
						if gain2 > gain1 {
							bestMatch = bestRep
							index = next
						}
					}
					if nextMatch.Length >= 4 && nextMatch.Dist != bestMatch.Dist {
						gain2 := int(nextMatch.Length)*4 - highbit32(nextMatch.Dist+1)
						gain1 := int(bestMatch.Length)*4 - highbit32(bestMatch.Dist+1) + 7
						if gain2 > gain1 {
							bestMatch = nextMatch
							bestMatch.Dist += numReps
							index = next
							continue
						}
					}
				}
				break
			}
		}

		for prev < index && e.rc.outIndex < e.rc.chunkSize {
			if block.Data[prev] == block.Data[prev-int(e.states.reps[0])-1] {
				e.encodeRepMatch(1, 0, prev&posMask)
			} else {
				e.encodeLiteralBuf(block.Data, prev)
			}
			prev++
		}
		if e.rc.outIndex >= e.rc.chunkSize {
			break
		}
		if bestMatch.Length >= matchLenMin {
			if bestMatch.Dist < numReps {
				e.encodeRepMatch(int(bestMatch.Length), int(bestMatch.Dist), index&posMask)
			} else {
				e.encodeNormalMatch(int(bestMatch.Length), bestMatch.Dist-numReps, index&posMask)
			}
			index += int(bestMatch.Length)
			prev = index
		}
	}
	for prev < index && e.rc.outIndex < e.rc.chunkSize {
		if block.Data[prev] == block.Data[prev-int(e.states.reps[0])-1] {
			e.encodeRepMatch(1, 0, prev&posMask)
		} else {
			e.encodeLiteralBuf(block.Data, prev)
		}
		prev++
	}
	return prev
}
