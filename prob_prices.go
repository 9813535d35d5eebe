// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

// Bit prices are 11-bit fixed-point estimates of -log2(probability) with
// bitPriceShiftBits fractional bits, so one whole bit costs 1<<bitPriceShiftBits
// price units. The table is indexed by probability>>moveReducingBits.

const (
	moveReducingBits  = 4
	bitPriceShiftBits = 4
	priceTableSize    = bitModelTotal >> moveReducingBits

	// minLitPrice is the lower bound the optimal parser uses to prune
	// literal evaluation.
	minLitPrice = 8
)

var probPrices = buildProbPrices()

func buildProbPrices() [priceTableSize]uint32 {
	var table [priceTableSize]uint32
	for i := (1 << moveReducingBits) / 2; i < bitModelTotal; i += 1 << moveReducingBits {
		w := uint32(i)
		bitCount := uint32(0)
		for j := 0; j < bitPriceShiftBits; j++ {
			w *= w
			bitCount <<= 1
			for w >= 1<<16 {
				w >>= 1
				bitCount++
			}
		}
		table[i>>moveReducingBits] = bitModelTotalBits<<bitPriceShiftBits - 15 - bitCount
	}
	return table
}

// price0 is the cost of encoding a 0 bit with model p.
func price0(p probability) uint32 {
	return probPrices[p>>moveReducingBits]
}

// price1 is the cost of encoding a 1 bit with model p.
func price1(p probability) uint32 {
	return probPrices[(p^(bitModelTotal-1))>>moveReducingBits]
}

// price is the cost of encoding bit (0 or 1) with model p.
func price(p probability, bit uint32) uint32 {
	return probPrices[(uint32(p)^(-bit&(bitModelTotal-1)))>>moveReducingBits]
}
