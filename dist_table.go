// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

import "math/bits"

// Distance slots bucket a distance by floor(log2): slot = 2*log2(d) plus the
// next bit down for d >= 4. Slots 0-3 are the literal distances 0-3. Lookup
// uses a precomputed table for d < 2^fastDistBits and shifts for larger
// values; the result is exact over all uint32 distances.

const fastDistBits = 12

var distanceTable = buildDistanceTable()

func buildDistanceTable() [1 << fastDistBits]byte {
	var table [1 << fastDistBits]byte
	table[0] = 0
	table[1] = 1
	for d := 2; d < len(table); d++ {
		high := bits.Len32(uint32(d)) - 1
		table[d] = byte(2*high + int((d>>(high-1))&1))
	}
	return table
}

func fastDistShift(n int) int {
	return n * (fastDistBits - 1)
}

func fastDistResult(dist uint32, n int) int {
	return int(distanceTable[dist>>fastDistShift(n)]) + 2*fastDistShift(n)
}

func getDistSlot(distance uint32) int {
	limit := uint32(1) << fastDistBits
	if distance < limit {
		return int(distanceTable[distance])
	}
	limit <<= fastDistShift(1)
	if distance < limit {
		return fastDistResult(distance, 1)
	}
	return fastDistResult(distance, 2)
}
