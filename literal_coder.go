// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

// Literal coding walks the 8 symbol bits MSB-first through a 256-entry
// prefix tree. After a match state the parallel match byte selects one of
// two probability sub-slices per bit until it disagrees with the symbol,
// then coding collapses to the plain subtable.

// literalProbs returns the 768-probability table selected by the low bits of
// the position and the high bits of the previous byte.
func (e *Encoder) literalProbs(pos int, prevSymbol uint32) []probability {
	i := ((uint32(pos)&uint32(e.litPosMask))<<e.lc + prevSymbol>>(8-e.lc)) * numLiterals * numLitTables
	return e.states.literalProbs[i:]
}

func (e *Encoder) encodeLiteral(pos int, symbol, prevSymbol uint32) {
	e.rc.encodeBit0(&e.states.isMatch[e.states.state][pos&e.posMask])
	e.states.state = int(literalNextStates[e.states.state])

	probTable := e.literalProbs(pos, prevSymbol)
	symbol |= 0x100
	for symbol < 0x10000 {
		e.rc.encodeBit(&probTable[symbol>>8], symbol&(1<<7))
		symbol <<= 1
	}
}

func (e *Encoder) encodeLiteralMatched(data []byte, pos int, symbol uint32) {
	e.rc.encodeBit0(&e.states.isMatch[e.states.state][pos&e.posMask])
	e.states.state = int(literalNextStates[e.states.state])

	matchSymbol := uint32(data[pos-int(e.states.reps[0])-1])
	probTable := e.literalProbs(pos, uint32(data[pos-1]))
	offset := uint32(0x100)
	symbol |= 0x100
	for symbol < 0x10000 {
		matchSymbol <<= 1
		probIndex := offset + (matchSymbol & offset) + (symbol >> 8)
		e.rc.encodeBit(&probTable[probIndex], symbol&(1<<7))
		symbol <<= 1
		offset &= ^(matchSymbol ^ symbol)
	}
}

// encodeLiteralBuf picks plain or matched mode from the current state.
func (e *Encoder) encodeLiteralBuf(data []byte, pos int) {
	symbol := uint32(data[pos])
	if isLitState(e.states.state) {
		e.encodeLiteral(pos, symbol, uint32(data[pos-1]))
	} else {
		e.encodeLiteralMatched(data, pos, symbol)
	}
}

func literalPriceMatched(probTable []probability, symbol, matchByte uint32) uint32 {
	p := uint32(0)
	offs := uint32(0x100)
	symbol |= 0x100
	for symbol < 0x10000 {
		matchByte <<= 1
		p += price(probTable[offs+(matchByte&offs)+(symbol>>8)], (symbol>>7)&1)
		symbol <<= 1
		offs &= ^(matchByte ^ symbol)
	}
	return p
}

func (e *Encoder) literalPrice(pos, state int, prevSymbol, symbol, matchByte uint32) uint32 {
	probTable := e.literalProbs(pos, prevSymbol)
	if isLitState(state) {
		p := uint32(0)
		symbol |= 0x100
		for symbol < 0x10000 {
			p += price(probTable[symbol>>8], (symbol>>7)&1)
			symbol <<= 1
		}
		return p
	}
	return literalPriceMatched(probTable, symbol, matchByte)
}
