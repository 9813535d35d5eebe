// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

// Cached distance-side price tables. fillDistancesPrices rebuilds the slot
// and full-distance tables and clears the reprice counter; fillAlignPrices
// rebuilds the 16 align-bit prices.

func (e *Encoder) fillAlignPrices() {
	probs := &e.states.distAlignEncoders
	for i := uint32(0); i < alignTableSize/2; i++ {
		p := uint32(0)
		sym := i
		m := uint32(1)
		for j := 0; j < 3; j++ {
			bit := sym & 1
			sym >>= 1
			p += price(probs[m], bit)
			m = m<<1 + bit
		}
		prob := probs[m]
		e.alignPrices[i] = p + price0(prob)
		e.alignPrices[i+8] = p + price1(prob)
	}
}

func (e *Encoder) fillDistancesPrices() {
	// distancePrices[3] doubles as scratch for the footer-tree prices; it
	// is rewritten last in the slot loop below.
	tempPrices := &e.distancePrices[numLenToDistStates-1]

	e.matchPriceCount = 0

	for i := startDistModelIndex / 2; i < numFullDistances/2; i++ {
		distSlot := int(distanceTable[i])
		footerBits := distSlot>>1 - 1
		base := (2 | distSlot&1) << footerBits
		probs := e.states.distEncoders[:]
		probBase := base*2 - int(distanceTable[base+i]) - 1
		base += i
		p := uint32(0)
		m := 1
		sym := i
		offset := 1 << footerBits

		for ; footerBits != 0; footerBits-- {
			bit := uint32(sym & 1)
			sym >>= 1
			p += price(probs[probBase+m], bit)
			m = m<<1 + int(bit)
		}

		prob := probs[probBase+m]
		tempPrices[base] = p + price0(prob)
		tempPrices[base+offset] = p + price1(prob)
	}

	for lps := 0; lps < numLenToDistStates; lps++ {
		distTableSize2 := (e.distPriceTableSize + 1) >> 1
		distSlotPrices := e.distSlotPrices[lps][:]
		probs := &e.states.distSlotEncoders[lps]

		for slot := 0; slot < distTableSize2; slot++ {
			p := uint32(0)
			sym := slot + 1<<(distSlotBits-1)
			for j := 0; j < 5; j++ {
				bit := uint32(sym & 1)
				sym >>= 1
				p += price(probs[sym], bit)
			}
			prob := probs[slot+1<<(distSlotBits-1)]
			distSlotPrices[slot*2] = p + price0(prob)
			distSlotPrices[slot*2+1] = p + price1(prob)
		}

		// Slots above the footer-tree cutoff pay a linearly growing count
		// of direct bits.
		delta := uint32(endDistModelIndex/2-1-alignBits) << bitPriceShiftBits
		for slot := endDistModelIndex / 2; slot < distTableSize2; slot++ {
			distSlotPrices[slot*2] += delta
			distSlotPrices[slot*2+1] += delta
			delta += 1 << bitPriceShiftBits
		}

		dp := e.distancePrices[lps][:]
		dp[0] = distSlotPrices[0]
		dp[1] = distSlotPrices[1]
		dp[2] = distSlotPrices[2]
		dp[3] = distSlotPrices[3]
		for i := 4; i < numFullDistances; i += 2 {
			slotPrice := distSlotPrices[distanceTable[i]]
			dp[i] = slotPrice + tempPrices[i]
			dp[i+1] = slotPrice + tempPrices[i+1]
		}
	}
}
