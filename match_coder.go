// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

// Rep and normal match encoding, plus the rep-side price helpers the
// parsers use. Rep index 0 with length 1 is the short rep.

// encodeRepMatch writes a rep match and applies the move-to-front rule to
// the rep distances.
func (e *Encoder) encodeRepMatch(length, rep, posState int) {
	e.rc.encodeBit1(&e.states.isMatch[e.states.state][posState])
	e.rc.encodeBit1(&e.states.isRep[e.states.state])
	if rep == 0 {
		e.rc.encodeBit0(&e.states.isRepG0[e.states.state])
		bit := uint32(1)
		if length == 1 {
			bit = 0
		}
		e.rc.encodeBit(&e.states.isRep0Long[e.states.state][posState], bit)
	} else {
		distance := e.states.reps[rep]
		e.rc.encodeBit1(&e.states.isRepG0[e.states.state])
		if rep == 1 {
			e.rc.encodeBit0(&e.states.isRepG1[e.states.state])
		} else {
			e.rc.encodeBit1(&e.states.isRepG1[e.states.state])
			e.rc.encodeBit(&e.states.isRepG2[e.states.state], uint32(rep)-2)
			if rep == 3 {
				e.states.reps[3] = e.states.reps[2]
			}
			e.states.reps[2] = e.states.reps[1]
		}
		e.states.reps[1] = e.states.reps[0]
		e.states.reps[0] = distance
	}
	if length != 1 {
		e.encodeLength(&e.states.repLenStates, length, posState)
		e.states.state = int(repNextStates[e.states.state])
		e.repLenPriceCount++
	} else {
		e.states.state = int(shortRepNextStates[e.states.state])
	}
}

// encodeNormalMatch writes a match with an explicit distance: slot tree,
// then footer bits (reverse tree below the model cutoff, direct bits plus
// align tree above it).
func (e *Encoder) encodeNormalMatch(length int, dist uint32, posState int) {
	e.rc.encodeBit1(&e.states.isMatch[e.states.state][posState])
	e.rc.encodeBit0(&e.states.isRep[e.states.state])
	e.states.state = int(matchNextStates[e.states.state])
	e.encodeLength(&e.states.lenStates, length, posState)

	distSlot := getDistSlot(dist)
	e.rc.encodeBitTree(e.states.distSlotEncoders[lenToDistState(length)][:], distSlotBits, uint32(distSlot))
	if distSlot >= startDistModelIndex {
		footerBits := distSlot>>1 - 1
		base := (2 | distSlot&1) << footerBits
		distReduced := dist - uint32(base)
		if distSlot < endDistModelIndex {
			// The footer trees overlap in one shared pool; the first live
			// index is probBase+1, which stays in range even when probBase
			// itself is -1.
			probBase := base - distSlot - 1
			m := uint32(1)
			sym := distReduced
			for i := 0; i < footerBits; i++ {
				bit := sym & 1
				sym >>= 1
				e.rc.encodeBit(&e.states.distEncoders[probBase+int(m)], bit)
				m = m<<1 + bit
			}
		} else {
			e.rc.encodeDirect(distReduced>>alignBits, footerBits-alignBits)
			e.rc.encodeBitTreeReverse(e.states.distAlignEncoders[:], alignBits, distReduced&alignMask)
		}
	}
	e.states.reps[3] = e.states.reps[2]
	e.states.reps[2] = e.states.reps[1]
	e.states.reps[1] = e.states.reps[0]
	e.states.reps[0] = dist
	e.matchPriceCount++
}

// repLen1Price is the cost of the short-rep flags (after is_match/is_rep).
func (e *Encoder) repLen1Price(state, posState int) uint32 {
	repG0Prob := e.states.isRepG0[state]
	rep0LongProb := e.states.isRep0Long[state][posState]
	return price0(repG0Prob) + price0(rep0LongProb)
}

// repPrice is the cost of selecting rep index repIndex (excluding length).
func (e *Encoder) repPrice(repIndex, state, posState int) uint32 {
	repG0Prob := e.states.isRepG0[state]
	if repIndex == 0 {
		rep0LongProb := e.states.isRep0Long[state][posState]
		return price0(repG0Prob) + price1(rep0LongProb)
	}
	repG1Prob := e.states.isRepG1[state]
	p := price1(repG0Prob)
	if repIndex == 1 {
		return p + price0(repG1Prob)
	}
	repG2Prob := e.states.isRepG2[state]
	p += price1(repG1Prob)
	p += price(repG2Prob, uint32(repIndex)-2)
	return p
}

// repMatch0Price is the full cost of a rep0 match of the given length.
func (e *Encoder) repMatch0Price(length, state, posState int) uint32 {
	repG0Prob := e.states.isRepG0[state]
	rep0LongProb := e.states.isRep0Long[state][posState]
	return e.states.repLenStates.prices[posState][length-matchLenMin] +
		price0(repG0Prob) +
		price1(rep0LongProb)
}
