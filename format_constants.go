// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

// LZMA model constants: states, rep distances, literal tables, length and
// distance code layout. These mirror the LZMA bitstream definition and must
// not be changed independently of each other.

const (
	numReps   = 4
	numStates = 12

	numLiterals  = 0x100
	numLitTables = 3

	numLenToDistStates = 4
	distSlotBits       = 6
	distTableSizeMax   = 31 * 2

	alignBits      = 4
	alignTableSize = 1 << alignBits
	alignMask      = alignTableSize - 1

	startDistModelIndex = 4
	endDistModelIndex   = 14

	numFullDistancesBits = endDistModelIndex >> 1
	numFullDistances     = 1 << numFullDistancesBits

	numPositionBitsMax   = 4
	numPositionStatesMax = 1 << numPositionBitsMax
	lcLpMax              = 4
)

// Length code layout: 8 low symbols, 8 mid symbols, 256 high symbols,
// yielding match lengths 2..273.
const (
	lenLowBits     = 3
	lenLowSymbols  = 1 << lenLowBits
	lenHighBits    = 8
	lenHighSymbols = 1 << lenHighBits

	lenTotalSymbols = lenLowSymbols*2 + lenHighSymbols

	matchLenMin = 2
	matchLenMax = matchLenMin + lenTotalSymbols - 1
)

// Price cache refresh cadence (counters of encoded matches).
const (
	matchRepriceFrequency  = 64
	repLenRepriceFrequency = 64
)

// Optimal parser buffer.
const (
	optBufSize    = 1 << 11
	optEndSize    = 64
	infinityPrice = 1 << 30
	nullDist      = ^uint32(0)
)

// LZMA2 chunk framing.
const (
	chunkSize     = (1 << 16) - 8192
	sqrtChunkSize = 239 // isqrt(chunkSize), precomputed for the probe

	// The first chunk is written to a private scratch buffer until the
	// coder trails the match-table read position by a safe margin.
	requiredInputMax = 20
	tempMinOutput    = requiredInputMax * 4
	tempBufferSize   = tempMinOutput + optBufSize + optBufSize/16

	maxChunkUncompressedSize = (1 << 21) - matchLenMax
	maxChunkCompressedSize   = 1 << 16

	chunkHeaderSize = 5

	chunkResetShift            = 5
	chunkUncompressedDictReset = 1
	chunkUncompressed          = 2
	chunkCompressedFlag        = 0x80
	chunkNothingReset          = 0 << chunkResetShift
	chunkStateReset            = 1 << chunkResetShift
	chunkStatePropertiesReset  = 2 << chunkResetShift
	chunkAllReset              = 3 << chunkResetShift
)

// Secondary hash chain (hybrid parser).
const (
	hash3Bits = 14
	nullLink  = -1
)

// Compressibility probe.
const (
	minTestChunkSize       = 0x4000
	randomFilterMarginBits = 8
)

// Context states reached after specific event pairs, used by the optimal
// parser when reconstructing composite edges.
const (
	stateLitAfterMatch = 4
	stateLitAfterRep   = 5
	stateMatchAfterLit = 7
	stateRepAfterLit   = 8
)

// State transition tables keyed by the previous state.
var (
	literalNextStates  = [numStates]byte{0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 4, 5}
	matchNextStates    = [numStates]byte{7, 7, 7, 7, 7, 7, 7, 10, 10, 10, 10, 10}
	repNextStates      = [numStates]byte{8, 8, 8, 8, 8, 8, 8, 11, 11, 11, 11, 11}
	shortRepNextStates = [numStates]byte{9, 9, 9, 9, 9, 9, 9, 11, 11, 11, 11, 11}
)

// isLitState reports whether the last event recorded in state was a literal
// (states 0-6); those states select the plain literal coder.
func isLitState(state int) bool {
	return state < 7
}

// lenToDistState selects the distance-slot model for a match length.
func lenToDistState(length int) int {
	if length < numLenToDistStates+1 {
		return length - 2
	}
	return numLenToDistStates - 1
}
