// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

import "sync/atomic"

// Progress carries the counters shared with the outer driver. In and Out
// are advanced after each chunk; Canceled is checked between chunks.
type Progress struct {
	In       atomic.Int64
	Out      atomic.Int64
	Canceled atomic.Bool
}

// isqrt is a digit-by-digit integer square root, used only by the
// compressibility probe.
func isqrt(op uint32) uint32 {
	if op == 0 {
		return 0
	}
	res := uint32(0)
	// one starts at the highest power of four not above the argument.
	one := uint32(1) << (highbit32(op) & ^1)

	for one != 0 {
		if op >= res+one {
			op -= res + one
			res += 2 * one
		}
		res >>= 1
		one >>= 2
	}
	return res
}

// Distance restrictions for short matches during probing, per strategy.
var probeMaxDistTable = [3][5]uint32{
	{0, 0, 0, 1 << 6, 1 << 14},       // fast
	{0, 0, 1 << 6, 1 << 14, 1 << 22}, // opt
	{0, 0, 1 << 6, 1 << 14, 1 << 22}, // ultra
}

var probeMarginDivisor = [3]int{60, 45, 120}

var probeDevTable = [3]uint32{24, 24, 20}

// isChunkIncompressible scans the raw match table over the next chunk and
// reports whether it looks like random data that should be stored
// uncompressed. Null links count as one incompressible position; short
// matches count one inside the allowed distances and their length outside
// them; longer matches count one, or nothing when they reuse the previous
// distance. A byte-frequency deviation test confirms the verdict.
func isChunkIncompressible(tbl MatchTable, block DataBlock, start int, strategy Strategy) bool {
	if block.End-start < minTestChunkSize {
		return false
	}
	end := min(start+chunkSize, block.End)
	testChunkSize := end - start
	cnt := 0
	margin := testChunkSize / probeMarginDivisor[strategy]
	terminator := start + margin

	prevDist := 0
	for index := start; index < end; {
		m, ok := tbl.RawMatch(index)
		if !ok {
			index++
			cnt++
			prevDist = 0
		} else {
			length := int(m.Length)
			dist := int(m.Dist) + 1
			if length > 4 {
				if dist != prevDist {
					cnt++
				}
			} else if uint32(dist) < probeMaxDistTable[strategy][length] {
				cnt++
			} else {
				cnt += length
			}
			index += length
			prevDist = dist
		}
		if cnt+terminator <= index {
			return false
		}
	}

	var charCount [256]uint32
	charTotal := uint32(0)
	// Expected normal character count.
	avg := uint32(testChunkSize / 64)

	for index := start; index < end; index++ {
		charCount[block.Data[index]] += 4
	}
	// Sum the deviations.
	for i := 0; i < 256; i++ {
		delta := charCount[i] - avg
		charTotal += delta * delta
	}
	sqrtChunk := uint32(sqrtChunkSize)
	if testChunkSize != chunkSize {
		sqrtChunk = isqrt(uint32(testChunkSize))
	}
	return isqrt(charTotal)/sqrtChunk <= probeDevTable[strategy]
}

// DictSizeProp returns the 5-bit dictionary size code used by container
// formats: the smallest b with (2<<b) >= size maps to (b-11)<<1, or
// (3<<b) >= size to ((b-11)<<1)|1.
func DictSizeProp(dictionarySize int) byte {
	for bit := 11; bit < 32; bit++ {
		if 2<<bit >= dictionarySize {
			return byte((bit - 11) << 1)
		}
		if 3<<bit >= dictionarySize {
			return byte((bit-11)<<1 | 1)
		}
	}
	return 0
}

// encodeChunk dispatches one chunk to the configured parser.
func (e *Encoder) encodeChunk(tbl MatchTable, block DataBlock, index, end int) int {
	if e.strategy == StrategyFast {
		return e.encodeChunkFast(block, tbl, index, end)
	}
	return e.encodeChunkBest(block, tbl, index, end)
}

// Encode compresses block into a stream of LZMA2 chunks written to the
// buffer returned by tbl.OutputBuffer(block.Start), and returns the number
// of bytes written. streamProp, when non-negative, is prepended as a single
// byte before the first chunk. prog may be nil.
//
// The first chunk is staged through a private scratch buffer until the
// coder trails the match-table read position by a safe margin; compressed
// output therefore never overtakes the live table.
func (e *Encoder) Encode(tbl MatchTable, block DataBlock, params *Parameters, streamProp int, prog *Progress) (int, error) {
	start := block.Start
	if block.End <= block.Start {
		return 0, nil
	}
	if params == nil {
		params = DefaultParameters()
	}
	opts := *params
	opts.clamp()

	e.lc = opts.LC
	e.lp = opts.LP
	e.pb = opts.PB
	e.strategy = opts.Strategy
	e.fastLength = opts.FastLength
	e.matchCycles = opts.MatchCycles

	e.reset(block.End)

	if e.strategy == StrategyUltra {
		// Create a hash chain to put the encoder into hybrid mode.
		if e.hashAlloc3 < 1<<opts.SecondDictBits {
			e.hashCreate(opts.SecondDictBits)
		} else {
			e.hashReset(opts.SecondDictBits)
		}
		e.hashPrevIndex = start - e.hashDict3
		if e.hashPrevIndex < 0 {
			e.hashPrevIndex = -1
		}
	}
	e.lenEndMax = optBufSize - 1
	tbl.LimitLengths(block.End)

	// Each block writes a properties byte because the upstream encoder(s)
	// could write only uncompressed chunks with no properties.
	encodeProperties := true
	nextIsRandom := false

	outDest := e.outBuf[:]
	usingTemp := true
	totalOut := 0

	for index := start; index < block.End; {
		headerSize := chunkHeaderSize
		if encodeProperties {
			headerSize++
		}
		if streamProp >= 0 {
			headerSize++
		}
		var nextIndex int
		e.rc.reset()
		e.rc.setOutputBuffer(outDest[headerSize:], chunkSize)
		if !nextIsRandom {
			cur := index
			var end int
			if e.strategy == StrategyFast {
				end = min(block.End, index+maxChunkUncompressedSize)
			} else {
				end = min(block.End, index+maxChunkUncompressedSize-optBufSize)
			}
			if index == 0 {
				e.encodeLiteral(0, uint32(block.Data[0]), 0)
				cur++
			}
			if usingTemp {
				// After a few dozen bytes the compressed stream can no
				// longer catch up with the table position being read, so
				// switch from the scratch buffer to the table storage.
				e.rc.chunkSize = tempMinOutput
				cur = e.encodeChunk(tbl, block, cur, end)
				e.rc.chunkSize = chunkSize
				buf := tbl.OutputBuffer(start)
				copy(buf, e.outBuf[:headerSize+e.rc.outIndex])
				outDest = buf
				e.rc.outBuffer = outDest[headerSize:]
				usingTemp = false
			}
			nextIndex = e.encodeChunk(tbl, block, cur, end)
			e.rc.flush()
		} else {
			nextIndex = min(index+chunkSize, block.End)
		}
		compressedSize := e.rc.outIndex
		uncompressedSize := nextIndex - index
		if compressedSize > maxChunkCompressedSize {
			return 0, ErrInternal
		}
		header := outDest
		if streamProp >= 0 {
			header[0] = byte(streamProp)
			header = header[1:]
		}
		streamProp = -1
		header[1] = byte((uncompressedSize - 1) >> 8)
		header[2] = byte(uncompressedSize - 1)
		// Output an uncompressed chunk if necessary.
		if nextIsRandom || uncompressedSize+3 <= compressedSize+headerSize {
			if index == 0 {
				header[0] = chunkUncompressedDictReset
			} else {
				header[0] = chunkUncompressed
			}
			copy(header[3:3+uncompressedSize], block.Data[index:nextIndex])
			compressedSize = uncompressedSize
			headerSize = 3 + (len(outDest) - len(header))
			// The raw chunk resets the decoder's LZMA state, so the next
			// compressed chunk must start from reset models and resend
			// properties.
			e.states.reset(e.lc, e.lp, e.fastLength)
			encodeProperties = true
		} else {
			if index == 0 {
				header[0] = chunkCompressedFlag | chunkAllReset
			} else if encodeProperties {
				header[0] = chunkCompressedFlag | chunkStatePropertiesReset
			} else {
				header[0] = chunkCompressedFlag | chunkNothingReset
			}
			header[0] |= byte((uncompressedSize - 1) >> 16)
			header[3] = byte((compressedSize - 1) >> 8)
			header[4] = byte(compressedSize - 1)
			if encodeProperties {
				header[5] = e.lcLpPbCode()
				encodeProperties = false
			}
		}
		if nextIsRandom ||
			uncompressedSize+3 <= compressedSize+(compressedSize>>randomFilterMarginBits)+headerSize {
			// Test the next chunk for compressibility.
			nextIsRandom = isChunkIncompressible(tbl, block, nextIndex, e.strategy)
		}
		outDest = outDest[compressedSize+headerSize:]
		totalOut += compressedSize + headerSize
		if prog != nil {
			prog.In.Add(int64(nextIndex - index))
			prog.Out.Add(int64(compressedSize + headerSize))
			if prog.Canceled.Load() {
				return 0, ErrCanceled
			}
		}
		index = nextIndex
	}
	return totalOut, nil
}
