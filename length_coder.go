// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

// lengthStates codes a match length in [2, 273] as len-2 over three tiers:
// 3 low bits (prefix 0), 3 mid bits (prefix 10), 8 high bits (prefix 11).
// Low and mid trees are per position state; the high tree is shared. Each
// pos-state block in low holds 16 slots: the low tree in [1,7] and the mid
// tree in [9,15], leaving slot 0 free to serve as the second choice bit.
type lengthStates struct {
	tableSize int
	prices    [numPositionStatesMax][lenTotalSymbols]uint32
	choice    probability
	low       [numPositionStatesMax << (lenLowBits + 1)]probability
	high      [lenHighSymbols]probability
}

func (ls *lengthStates) reset(fastLength int) {
	ls.choice = probInitValue
	for i := range ls.low {
		ls.low[i] = probInitValue
	}
	for i := range ls.high {
		ls.high[i] = probInitValue
	}
	ls.tableSize = fastLength + 1 - matchLenMin
}

// encodeLength writes length (matchLenMin-based) for the given pos state.
func (e *Encoder) encodeLength(ls *lengthStates, length, posState int) {
	length -= matchLenMin
	if length < lenLowSymbols {
		e.rc.encodeBit0(&ls.choice)
		e.rc.encodeBitTree(ls.low[posState<<(1+lenLowBits):], lenLowBits, uint32(length))
		return
	}
	e.rc.encodeBit1(&ls.choice)
	if length < lenLowSymbols*2 {
		e.rc.encodeBit0(&ls.low[0])
		e.rc.encodeBitTree(ls.low[lenLowSymbols+posState<<(1+lenLowBits):], lenLowBits, uint32(length-lenLowSymbols))
	} else {
		e.rc.encodeBit1(&ls.low[0])
		e.rc.encodeBitTree(ls.high[:], lenHighBits, uint32(length-lenLowSymbols*2))
	}
}

// setLengthPrices fills 8 prices for one 3-bit subtree rooted at probs[1].
func setLengthPrices(probs []probability, startPrice uint32, prices []uint32) {
	for i := 0; i < 8; i += 2 {
		prob := probs[4+(i>>1)]
		p := startPrice + price(probs[1], uint32(i>>2)) +
			price(probs[2+(i>>2)], uint32((i>>1)&1))
		prices[i] = p + price0(prob)
		prices[i+1] = p + price1(prob)
	}
}

// updateLengthPrices refreshes the cached length prices for every position
// state. The high tier is priced once and copied across position states.
func (e *Encoder) updateLengthPrices(ls *lengthStates) {
	var b uint32
	{
		prob := ls.choice
		b = price1(prob)
		a := price0(prob)
		c := b + price0(ls.low[0])
		for posState := 0; posState <= e.posMask; posState++ {
			prices := ls.prices[posState][:]
			probs := ls.low[posState<<(1+lenLowBits):]
			setLengthPrices(probs, a, prices)
			setLengthPrices(probs[lenLowSymbols:], c, prices[lenLowSymbols:])
		}
	}

	i := ls.tableSize
	if i <= lenLowSymbols*2 {
		return
	}
	probs := &ls.high
	prices := ls.prices[0][lenLowSymbols*2:]
	i = (i - (lenLowSymbols*2 - 1)) >> 1
	b += price1(ls.low[0])
	for i > 0 {
		i--
		sym := i + 1<<(lenHighBits-1)
		p := b
		for sym >= 2 {
			bit := uint32(sym) & 1
			sym >>= 1
			p += price(probs[sym], bit)
		}
		prob := probs[i+1<<(lenHighBits-1)]
		prices[i*2] = p + price0(prob)
		prices[i*2+1] = p + price1(prob)
	}

	size := ls.tableSize - lenLowSymbols*2
	for posState := 1; posState <= e.posMask; posState++ {
		copy(ls.prices[posState][lenLowSymbols*2:lenLowSymbols*2+size], ls.prices[0][lenLowSymbols*2:lenLowSymbols*2+size])
	}
}
