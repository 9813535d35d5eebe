// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

import "unsafe"

// Encoder is one LZMA2 encoding context. It owns all probability tables,
// the range coder scratch, the optimizer node array and the optional hash
// chain; one context serves one worker. Contexts are reusable across
// blocks.
type Encoder struct {
	lc         int
	lp         int
	pb         int
	fastLength int
	lenEndMax  int
	litPosMask int
	posMask    int

	matchCycles int
	strategy    Strategy

	rc rangeEncoder

	states encoderStates

	matchPriceCount    int
	repLenPriceCount   int
	distPriceTableSize int
	alignPrices        [alignTableSize]uint32
	distSlotPrices     [numLenToDistStates][distTableSizeMax]uint32
	distancePrices     [numLenToDistStates][numFullDistances]uint32

	matches    [matchLenMax - matchLenMin]Match
	matchCount int

	optBuf [optBufSize]optimalNode

	hashBuf       *hashChains
	chainMask3    int
	hashDict3     int
	hashPrevIndex int
	hashAlloc3    int

	outBuf [tempBufferSize]byte
}

// NewEncoder returns a context with the default parameters applied.
func NewEncoder() *Encoder {
	enc := &Encoder{
		lc:                 3,
		lp:                 0,
		pb:                 2,
		fastLength:         48,
		lenEndMax:          optBufSize - 1,
		matchCycles:        1,
		strategy:           StrategyUltra,
		distPriceTableSize: distTableSizeMax,
	}
	enc.litPosMask = (1 << enc.lp) - 1
	enc.posMask = (1 << enc.pb) - 1
	return enc
}

// reset prepares the context for a block whose distances never exceed
// maxDistance.
func (e *Encoder) reset(maxDistance int) {
	e.rc.reset()
	e.states.reset(e.lc, e.lp, e.fastLength)
	e.posMask = (1 << e.pb) - 1
	e.litPosMask = (1 << e.lp) - 1
	i := 0
	for maxDistance > 1<<i {
		i++
	}
	e.distPriceTableSize = i * 2
	e.repLenPriceCount = 0
	e.matchPriceCount = 0
}

// ReserveHashChain pre-allocates the hybrid-mode hash chain so the first
// ultra-strategy Encode does not pay the allocation.
func (e *Encoder) ReserveHashChain(secondDictBits int) {
	secondDictBits = min(max(secondDictBits, 4), hash3Bits)
	if e.hashAlloc3 < 1<<secondDictBits {
		e.hashCreate(secondDictBits)
	}
}

// lcLpPbCode packs the literal/position parameters into the LZMA properties
// byte.
func (e *Encoder) lcLpPbCode() byte {
	return byte((e.pb*5+e.lp)*9 + e.lc)
}

// MemoryUsage estimates the footprint of threadCount contexts with the
// given hash chain size.
func MemoryUsage(chainLog int, strategy Strategy, threadCount int) int {
	size := int(unsafe.Sizeof(Encoder{}))
	if strategy == StrategyUltra {
		size += int(unsafe.Sizeof(hashChains{})) + 4<<chainLog
	}
	return size * threadCount
}
