// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

// Optimal parser: dynamic-programming shortest path over a fixed buffer of
// per-position candidates, anchored at each parser call. Node dist encodes
// the instruction: nullDist is a literal, below numReps a rep index, else a
// normal distance offset by numReps. extra encodes composite edges: 1 for
// literal-then-rep0, greater for match/rep-then-literal-then-rep0 where the
// first part spans extra-1 bytes plus the literal.

type optimalNode struct {
	state int
	price uint32
	extra int
	len   int
	dist  uint32
	reps  [numReps]uint32
}

func (node *optimalNode) makeAsLiteral() {
	node.dist = nullDist
	node.extra = 0
}

func (node *optimalNode) makeAsShortRep() {
	node.dist = 0
	node.extra = 0
}

// optimalParse relaxes every encoding choice at node cur: a literal, a
// 1-byte rep0, all rep lengths, all match lengths at the available
// distances, and the composite sequences literal+rep0, rep+literal+rep0 and
// match+literal+rep0. In hybrid mode the hash chain supplies shorter
// matches at near distances. Returns the updated end of the live region.
func (e *Encoder) optimalParse(block DataBlock, match Match,
	index, cur, lenEnd int, isHybrid bool, reps *[numReps]uint32) int {

	curOpt := &e.optBuf[cur]
	posMask := e.posMask
	posState := index & posMask
	data := block.Data
	fastLength := e.fastLength
	prevIndex := cur - curOpt.len
	var state int

	if curOpt.len == 1 {
		if curOpt.dist == 0 {
			state = int(shortRepNextStates[e.optBuf[prevIndex].state])
		} else {
			state = int(literalNextStates[e.optBuf[prevIndex].state])
		}
	} else {
		dist := curOpt.dist

		if curOpt.extra != 0 {
			prevIndex -= curOpt.extra
			state = stateRepAfterLit
			if dist >= numReps && curOpt.extra == 1 {
				state = stateMatchAfterLit
			}
		} else {
			state = e.optBuf[prevIndex].state
			if dist < numReps {
				state = int(matchNextStates[state]) + 1
			} else {
				state = int(matchNextStates[state])
			}
		}
		prevOpt := &e.optBuf[prevIndex]
		if dist < numReps {
			reps[0] = prevOpt.reps[dist]
			j := 1
			for i := uint32(0); i < numReps; i++ {
				if i != dist {
					reps[j] = prevOpt.reps[i]
					j++
				}
			}
		} else {
			reps[0] = dist - numReps
			reps[1] = prevOpt.reps[0]
			reps[2] = prevOpt.reps[1]
			reps[3] = prevOpt.reps[2]
		}
	}
	curOpt.state = state
	curOpt.reps = *reps
	isRepProb := e.states.isRep[state]

	var bytesAvail int
	var matchPrice, repMatchPrice uint32
	{
		isMatchProb := e.states.isMatch[state][posState]
		curByte := uint32(data[index])
		matchByte := uint32(data[index-int(reps[0])-1])
		curPrice := curOpt.price
		nextOpt := &e.optBuf[cur+1]
		nextIsLit := false
		curAndLitPrice := curPrice + price0(isMatchProb)
		if curAndLitPrice+minLitPrice/2 > nextOpt.price {
			curAndLitPrice = 0
		} else {
			curAndLitPrice += e.literalPrice(index, state, uint32(data[index-1]), curByte, matchByte)
			// Try literal.
			if curAndLitPrice < nextOpt.price {
				nextOpt.price = curAndLitPrice
				nextOpt.len = 1
				nextOpt.makeAsLiteral()
				nextIsLit = true
			}
		}
		matchPrice = curPrice + price1(isMatchProb)
		repMatchPrice = matchPrice + price1(isRepProb)
		if matchByte == curByte {
			// Try 1-byte rep0.
			shortRepPrice := repMatchPrice + e.repLen1Price(state, posState)
			if shortRepPrice <= nextOpt.price {
				nextOpt.price = shortRepPrice
				nextOpt.len = 1
				nextOpt.makeAsShortRep()
				nextIsLit = true
			}
		}
		bytesAvail = min(block.End-index, optBufSize-1-cur)
		if bytesAvail < 2 {
			return lenEnd
		}
		if !nextIsLit && matchByte != curByte && curAndLitPrice != 0 {
			// Try literal + rep0.
			limit := min(bytesAvail-1, fastLength)
			lenTest2 := count(data, index+1, index-int(reps[0]), index+1+limit)
			if lenTest2 >= 2 {
				state2 := int(literalNextStates[state])
				posStateNext := (index + 1) & posMask
				nextRepMatchPrice := curAndLitPrice +
					price1(e.states.isMatch[state2][posStateNext]) +
					price1(e.states.isRep[state2])
				curAndLenPrice := nextRepMatchPrice + e.repMatch0Price(lenTest2, state2, posStateNext)
				offset := cur + 1 + lenTest2
				if curAndLenPrice < e.optBuf[offset].price {
					lenEnd = max(lenEnd, offset)
					e.optBuf[offset].price = curAndLenPrice
					e.optBuf[offset].len = lenTest2
					e.optBuf[offset].dist = 0
					e.optBuf[offset].extra = 1
				}
			}
		}
	}

	maxLength := min(bytesAvail, fastLength)
	startLen := 2

	if match.Length > 0 {
		for repIndex := 0; repIndex < numReps; repIndex++ {
			repData := index - int(reps[repIndex]) - 1
			if le16(data, index) != le16(data, repData) {
				continue
			}
			lenTest := count(data, index+2, repData+2, index+maxLength) + 2
			lenEnd = max(lenEnd, cur+lenTest)
			curRepPrice := repMatchPrice + e.repPrice(repIndex, state, posState)
			// Try rep match.
			for length := 2; length <= lenTest; length++ {
				curAndLenPrice := curRepPrice + e.states.repLenStates.prices[posState][length-matchLenMin]
				opt := &e.optBuf[cur+length]
				if curAndLenPrice < opt.price {
					opt.price = curAndLenPrice
					opt.len = length
					opt.dist = uint32(repIndex)
					opt.extra = 0
				}
			}

			if repIndex == 0 {
				// Save time by excluding normal matches not longer than the rep.
				startLen = lenTest + 1
			}
			if isHybrid && lenTest+3 <= bytesAvail &&
				le16(data, index+lenTest+1) == le16(data, repData+lenTest+1) {
				// Try rep + literal + rep0.
				lenTest2 := count(data, index+lenTest+3, repData+lenTest+3,
					index+min(lenTest+1+fastLength, bytesAvail)) + 2
				state2 := int(repNextStates[state])
				posStateNext := (index + lenTest) & posMask
				repLitRepTotalPrice :=
					curRepPrice + e.states.repLenStates.prices[posState][lenTest-matchLenMin] +
						price0(e.states.isMatch[state2][posStateNext]) +
						literalPriceMatched(e.literalProbs(index+lenTest, uint32(data[index+lenTest-1])),
							uint32(data[index+lenTest]), uint32(data[repData+lenTest]))

				state2 = stateLitAfterRep
				posStateNext = (index + lenTest + 1) & posMask
				repLitRepTotalPrice +=
					price1(e.states.isMatch[state2][posStateNext]) +
						price1(e.states.isRep[state2])
				offset := cur + lenTest + 1 + lenTest2
				repLitRepTotalPrice += e.repMatch0Price(lenTest2, state2, posStateNext)
				if repLitRepTotalPrice < e.optBuf[offset].price {
					lenEnd = max(lenEnd, offset)
					e.optBuf[offset].price = repLitRepTotalPrice
					e.optBuf[offset].len = lenTest2
					e.optBuf[offset].dist = uint32(repIndex)
					e.optBuf[offset].extra = lenTest + 1
				}
			}
		}
	}
	if int(match.Length) >= startLen && maxLength >= startLen {
		// Try normal match.
		normalMatchPrice := matchPrice + price0(isRepProb)
		if !isHybrid {
			// Normal mode - single match.
			length := min(int(match.Length), maxLength)
			curDist := match.Dist
			distSlot := getDistSlot(match.Dist)
			lenEnd = max(lenEnd, cur+length)
			for lenTest := length; lenTest >= startLen; lenTest-- {
				curAndLenPrice := normalMatchPrice + e.states.lenStates.prices[posState][lenTest-matchLenMin]
				lenToDist := lenToDistState(lenTest)

				if curDist < numFullDistances {
					curAndLenPrice += e.distancePrices[lenToDist][curDist]
				} else {
					curAndLenPrice += e.distSlotPrices[lenToDist][distSlot] + e.alignPrices[curDist&alignMask]
				}
				opt := &e.optBuf[cur+lenTest]
				if curAndLenPrice < opt.price {
					opt.price = curAndLenPrice
					opt.len = lenTest
					opt.dist = curDist + numReps
					opt.extra = 0
				} else {
					break
				}
			}
		} else {
			// Hybrid mode.
			var mainLen int

			match.Length = uint32(min(int(match.Length), maxLength))
			if match.Length < 3 || maxLength < 4 {
				e.matches[0] = match
				e.matchCount = 1
				mainLen = int(match.Length)
			} else {
				mainLen = e.hashGetMatches(block, index, maxLength, match)
			}
			matchIndex := e.matchCount - 1
			lenEnd = max(lenEnd, cur+mainLen)
			startMatch := 0
			for startLen > int(e.matches[startMatch].Length) {
				startMatch++
			}
			for ; matchIndex >= startMatch; matchIndex-- {
				lenTest := int(e.matches[matchIndex].Length)
				curDist := e.matches[matchIndex].Dist
				distSlot := getDistSlot(curDist)
				baseLen := startLen
				if matchIndex > startMatch {
					baseLen = int(e.matches[matchIndex-1].Length) + 1
				}
				for ; lenTest >= baseLen; lenTest-- {
					curAndLenPrice := normalMatchPrice + e.states.lenStates.prices[posState][lenTest-matchLenMin]
					lenToDist := lenToDistState(lenTest)
					if curDist < numFullDistances {
						curAndLenPrice += e.distancePrices[lenToDist][curDist]
					} else {
						curAndLenPrice += e.distSlotPrices[lenToDist][distSlot] + e.alignPrices[curDist&alignMask]
					}
					opt := &e.optBuf[cur+lenTest]
					if curAndLenPrice < opt.price {
						opt.price = curAndLenPrice
						opt.len = lenTest
						opt.dist = curDist + numReps
						opt.extra = 0
					} else if lenTest < mainLen {
						break
					}
					if lenTest == int(e.matches[matchIndex].Length) {
						rep0Pos := lenTest + 1
						if rep0Pos+2 <= bytesAvail &&
							le16(data, index-int(curDist)+lenTest) == le16(data, index+rep0Pos) {
							// Try match + literal + rep0.
							matchData := index - int(curDist) - 1
							limit := min(rep0Pos+fastLength, bytesAvail)
							lenTest2 := count(data, index+rep0Pos+2, matchData+rep0Pos+2, index+limit) + 2
							state2 := int(matchNextStates[state])
							posStateNext := (index + lenTest) & posMask
							matchLitRepTotalPrice := curAndLenPrice +
								price0(e.states.isMatch[state2][posStateNext]) +
								literalPriceMatched(e.literalProbs(index+lenTest, uint32(data[index+lenTest-1])),
									uint32(data[index+lenTest]), uint32(data[matchData+lenTest]))

							state2 = stateLitAfterMatch
							posStateNext = (posStateNext + 1) & posMask
							matchLitRepTotalPrice +=
								price1(e.states.isMatch[state2][posStateNext]) +
									price1(e.states.isRep[state2])
							offset := cur + rep0Pos + lenTest2
							matchLitRepTotalPrice += e.repMatch0Price(lenTest2, state2, posStateNext)
							if matchLitRepTotalPrice < e.optBuf[offset].price {
								lenEnd = max(lenEnd, offset)
								e.optBuf[offset].price = matchLitRepTotalPrice
								e.optBuf[offset].len = lenTest2
								e.optBuf[offset].extra = rep0Pos
								e.optBuf[offset].dist = curDist + numReps
							}
						}
					}
				}
			}
		}
	}
	return lenEnd
}

// initMatchesPos0 seeds node prices for every length of the single
// match-table candidate at the anchor.
func (e *Encoder) initMatchesPos0(match Match, posState, length int, normalMatchPrice uint32) {
	if length > int(match.Length) {
		return
	}
	distance := match.Dist
	slot := getDistSlot(match.Dist)
	// Test every available length of the match.
	for ; length <= int(match.Length); length++ {
		curAndLenPrice := normalMatchPrice + e.states.lenStates.prices[posState][length-matchLenMin]
		lenToDist := lenToDistState(length)
		if distance < numFullDistances {
			curAndLenPrice += e.distancePrices[lenToDist][distance]
		} else {
			curAndLenPrice += e.alignPrices[distance&alignMask] + e.distSlotPrices[lenToDist][slot]
		}
		if curAndLenPrice < e.optBuf[length].price {
			e.optBuf[length].price = curAndLenPrice
			e.optBuf[length].len = length
			e.optBuf[length].dist = distance + numReps
			e.optBuf[length].extra = 0
		}
	}
}

// initMatchesPos0Best seeds node prices at the anchor from the hash-chain
// candidates, testing every length at the shortest distance providing it.
// The candidate buffer is sorted by increasing length, and therefore
// increasing distance too.
func (e *Encoder) initMatchesPos0Best(block DataBlock, match Match, index, length int, normalMatchPrice uint32) int {
	if length > int(match.Length) {
		return 0
	}
	var mainLen int
	if match.Length < 3 || block.End-index < 4 {
		e.matches[0] = match
		e.matchCount = 1
		mainLen = int(match.Length)
	} else {
		mainLen = e.hashGetMatches(block, index, min(block.End-index, e.fastLength), match)
	}

	matchIndex := 0
	for length > int(e.matches[matchIndex].Length) {
		matchIndex++
	}

	posState := index & e.posMask
	distance := e.matches[matchIndex].Dist
	slot := getDistSlot(distance)
	for ; ; length++ {
		curAndLenPrice := normalMatchPrice + e.states.lenStates.prices[posState][length-matchLenMin]
		lenToDist := lenToDistState(length)
		if distance < numFullDistances {
			curAndLenPrice += e.distancePrices[lenToDist][distance]
		} else {
			curAndLenPrice += e.alignPrices[distance&alignMask] + e.distSlotPrices[lenToDist][slot]
		}
		if curAndLenPrice < e.optBuf[length].price {
			e.optBuf[length].price = curAndLenPrice
			e.optBuf[length].len = length
			e.optBuf[length].dist = distance + numReps
			e.optBuf[length].extra = 0
		}
		if length == int(e.matches[matchIndex].Length) {
			// Run out of length for this match. Get the next if any.
			if length == mainLen {
				break
			}
			matchIndex++
			distance = e.matches[matchIndex].Dist
			slot = getDistSlot(distance)
		}
	}
	return mainLen
}

// initOptimizerPos0 tests all options at the anchor node, whose prices are
// all infinity on entry. If a rep or the given match already reaches
// fast_length the choice is stored in node 0 and 0 is returned so the
// caller emits it directly. Must not be called where no match is available.
func (e *Encoder) initOptimizerPos0(block DataBlock, match Match, index int, isHybrid bool, reps *[numReps]uint32) int {
	maxLength := min(block.End-index, matchLenMax)
	data := block.Data
	repMaxIndex := 0
	var repLens [numReps]int

	// Find any rep matches.
	for i := 0; i < numReps; i++ {
		reps[i] = e.states.reps[i]
		repData := index - int(reps[i]) - 1
		if le16(data, index) != le16(data, repData) {
			repLens[i] = 0
			continue
		}
		repLens[i] = count(data, index+2, repData+2, index+maxLength) + 2
		if repLens[i] > repLens[repMaxIndex] {
			repMaxIndex = i
		}
	}
	if repLens[repMaxIndex] >= e.fastLength {
		e.optBuf[0].len = repLens[repMaxIndex]
		e.optBuf[0].dist = uint32(repMaxIndex)
		return 0
	}
	if int(match.Length) >= e.fastLength {
		e.optBuf[0].len = int(match.Length)
		e.optBuf[0].dist = match.Dist + numReps
		return 0
	}

	curByte := uint32(data[index])
	matchByte := uint32(data[index-int(reps[0])-1])
	state := e.states.state
	posState := index & e.posMask
	isMatchProb := e.states.isMatch[state][posState]
	isRepProb := e.states.isRep[state]

	e.optBuf[0].state = state
	// Set the price for literal.
	e.optBuf[1].price = price0(isMatchProb) +
		e.literalPrice(index, state, uint32(data[index-1]), curByte, matchByte)
	e.optBuf[1].makeAsLiteral()

	matchPrice := price1(isMatchProb)
	repMatchPrice := matchPrice + price1(isRepProb)
	if matchByte == curByte {
		// Try 1-byte rep0.
		shortRepPrice := repMatchPrice + e.repLen1Price(state, posState)
		if shortRepPrice < e.optBuf[1].price {
			e.optBuf[1].price = shortRepPrice
			e.optBuf[1].makeAsShortRep()
		}
	}
	e.optBuf[0].reps = *reps
	e.optBuf[1].len = 1
	// Test the rep match prices.
	for i := 0; i < numReps; i++ {
		repLen := repLens[i]
		if repLen < 2 {
			continue
		}
		p := repMatchPrice + e.repPrice(i, state, posState)
		// Test every available length of the rep.
		for ; repLen >= matchLenMin; repLen-- {
			curAndLenPrice := p + e.states.repLenStates.prices[posState][repLen-matchLenMin]
			if curAndLenPrice < e.optBuf[repLen].price {
				e.optBuf[repLen].price = curAndLenPrice
				e.optBuf[repLen].len = repLen
				e.optBuf[repLen].dist = uint32(i)
				e.optBuf[repLen].extra = 0
			}
		}
	}
	normalMatchPrice := matchPrice + price0(isRepProb)
	length := 2
	if repLens[0] >= 2 {
		length = repLens[0] + 1
	}
	// Test the match prices.
	if !isHybrid {
		e.initMatchesPos0(match, posState, length, normalMatchPrice)
		return max(int(match.Length), repLens[repMaxIndex])
	}
	mainLen := e.initMatchesPos0Best(block, match, index, length, normalMatchPrice)
	return max(mainLen, repLens[repMaxIndex])
}

// reverseOptimalChain reverses the predecessor links written by the parse so
// the buffer reads forward as a sequence of instructions, expanding
// composite edges into their constituents.
func (e *Encoder) reverseOptimalChain(cur int) {
	optBuf := &e.optBuf
	length := optBuf[cur].len
	dist := optBuf[cur].dist

	for {
		extra := optBuf[cur].extra
		cur -= length

		if extra != 0 {
			optBuf[cur].len = length
			length = extra
			if extra == 1 {
				optBuf[cur].dist = dist
				dist = nullDist
				cur--
			} else {
				optBuf[cur].dist = 0
				cur--
				length--
				optBuf[cur].dist = nullDist
				optBuf[cur].len = 1
				cur -= length
			}
		}

		nextLen := optBuf[cur].len
		nextDist := optBuf[cur].dist

		optBuf[cur].dist = dist
		optBuf[cur].len = length

		if cur == 0 {
			break
		}

		length = nextLen
		dist = nextDist
	}
}

// encodeOptimumSequence runs the optimal parse from startIndex, then
// encodes the reversed chain. Repeats while a long match at the tail forces
// another round, because the reps must be checked and the match encoded.
func (e *Encoder) encodeOptimumSequence(block DataBlock, tbl MatchTable,
	isHybrid bool, startIndex, uncompressedEnd int, match Match) int {

	lenEnd := e.lenEndMax
	for {
		posMask := e.posMask

		for i := lenEnd; i > 0; i-- {
			e.optBuf[i].price = infinityPrice
		}

		// Set everything up at position 0.
		index := startIndex
		var reps [numReps]uint32
		lenEnd = e.initOptimizerPos0(block, match, index, isHybrid, &reps)
		match.Length = 0
		cur := 1

		// lenEnd == 0 if a match of fast_length was found.
		if lenEnd > 0 {
			index++
			atEnd := false
			for ; cur < lenEnd; cur, index = cur+1, index+1 {
				if cur >= optBufSize-optEndSize {
					// The buffer is close to full: pick a stopping node
					// with a price-plus-delta scan instead of running off
					// the end.
					p := e.optBuf[cur].price
					delta := p / uint32(cur) / 2
					best := cur
					for j := cur + 1; j <= lenEnd; j++ {
						price2 := e.optBuf[j].price
						if p >= price2 {
							p = price2
							best = j
						}
						p += delta
					}
					cur = best
					break
				}

				end := min(cur+4, lenEnd)
				p := e.optBuf[cur].price
				for j := cur + 1; j <= end; j++ {
					price2 := e.optBuf[j].price
					if p >= price2 {
						p = price2
						index += j - cur
						cur = j
						if cur == lenEnd {
							atEnd = true
							break
						}
					}
				}
				if atEnd {
					break
				}
				match = tbl.BestMatch(index)
				if int(match.Length) >= e.fastLength {
					break
				}

				lenEnd = e.optimalParse(block, match, index, cur, lenEnd, isHybrid, &reps)
			}
			e.reverseOptimalChain(cur)
		}
		// Encode the selections in the buffer.
		i := 0
		for {
			length := e.optBuf[i].len

			if length == 1 && e.optBuf[i].dist == nullDist {
				e.encodeLiteralBuf(block.Data, startIndex+i)
			} else {
				matchIndex := startIndex + i
				dist := e.optBuf[i].dist
				if dist >= numReps {
					e.encodeNormalMatch(length, dist-numReps, matchIndex&posMask)
				} else {
					e.encodeRepMatch(length, int(dist), matchIndex&posMask)
				}
			}
			i += length
			if i >= cur {
				break
			}
		}
		startIndex += i
		// Do another round if there is a long match pending, because the
		// reps must be checked and the match encoded.
		if int(match.Length) < e.fastLength || startIndex >= uncompressedEnd || e.rc.outIndex >= e.rc.chunkSize {
			break
		}
	}
	e.lenEndMax = lenEnd
	return startIndex
}

// encodeChunkBest drives the optimal parser over one chunk, refreshing the
// price caches at the documented counters.
func (e *Encoder) encodeChunkBest(block DataBlock, tbl MatchTable, index, uncompressedEnd int) int {
	e.fillDistancesPrices()
	e.fillAlignPrices()
	e.updateLengthPrices(&e.states.lenStates)
	e.updateLengthPrices(&e.states.repLenStates)
	for index < uncompressedEnd && e.rc.outIndex < e.rc.chunkSize {
		match := tbl.BestMatch(index)
		if match.Length > 1 {
			index = e.encodeOptimumSequence(block, tbl, e.strategy == StrategyUltra, index, uncompressedEnd, match)
		} else {
			if block.Data[index] == block.Data[index-int(e.states.reps[0])-1] {
				e.encodeRepMatch(1, 0, index&e.posMask)
			} else {
				e.encodeLiteralBuf(block.Data, index)
			}
			index++
		}
		if e.matchPriceCount >= matchRepriceFrequency {
			e.fillAlignPrices()
			e.fillDistancesPrices()
			e.updateLengthPrices(&e.states.lenStates)
		}
		if e.repLenPriceCount >= repLenRepriceFrequency {
			e.repLenPriceCount = 0
			e.updateLengthPrices(&e.states.repLenStates)
		}
	}
	return index
}
