package fastlzma2

import (
	"errors"
	"fmt"
)

// Test-only LZMA2 decoder used to verify round trips. It mirrors the
// reference decoder closely enough to consume every chunk this encoder
// can emit: compressed chunks with any reset level and uncompressed chunks.
// A leading stream property byte is not parsed; callers strip it first.

type testRangeDecoder struct {
	in   []byte
	pos  int
	code uint32
	rng  uint32
}

func newTestRangeDecoder(in []byte) (*testRangeDecoder, error) {
	if len(in) < 5 {
		return nil, errors.New("compressed chunk shorter than range coder preamble")
	}
	if in[0] != 0 {
		return nil, errors.New("nonzero first byte in range coder stream")
	}
	rd := &testRangeDecoder{in: in, pos: 5, rng: 0xFFFFFFFF}
	for i := 1; i < 5; i++ {
		rd.code = rd.code<<8 | uint32(in[i])
	}
	return rd, nil
}

func (rd *testRangeDecoder) nextByte() uint32 {
	if rd.pos < len(rd.in) {
		b := rd.in[rd.pos]
		rd.pos++
		return uint32(b)
	}
	rd.pos++
	return 0
}

func (rd *testRangeDecoder) normalize() {
	if rd.rng < topValue {
		rd.rng <<= 8
		rd.code = rd.code<<8 | rd.nextByte()
	}
}

func (rd *testRangeDecoder) decodeBit(p *probability) uint32 {
	bound := (rd.rng >> bitModelTotalBits) * uint32(*p)
	var bit uint32
	if rd.code < bound {
		rd.rng = bound
		*p += (bitModelTotal - *p) >> moveBits
	} else {
		rd.code -= bound
		rd.rng -= bound
		*p -= *p >> moveBits
		bit = 1
	}
	rd.normalize()
	return bit
}

func (rd *testRangeDecoder) decodeDirect(nbits int) uint32 {
	res := uint32(0)
	for ; nbits > 0; nbits-- {
		rd.rng >>= 1
		rd.code -= rd.rng
		t := 0 - (rd.code >> 31)
		rd.code += rd.rng & t
		res = res<<1 + t + 1
		rd.normalize()
	}
	return res
}

func (rd *testRangeDecoder) decodeBitTree(probs []probability, nbits int) uint32 {
	m := uint32(1)
	for i := 0; i < nbits; i++ {
		m = m<<1 | rd.decodeBit(&probs[m])
	}
	return m - 1<<nbits
}

func (rd *testRangeDecoder) decodeBitTreeReverse(probs []probability, nbits int) uint32 {
	m := uint32(1)
	sym := uint32(0)
	for i := 0; i < nbits; i++ {
		bit := rd.decodeBit(&probs[m])
		m = m<<1 + bit
		sym |= bit << i
	}
	return sym
}

// testLzmaState carries the probability models across chunks that do not
// reset state.
type testLzmaState struct {
	lc, lp, pb int

	state int
	reps  [numReps]uint32

	isMatch    [numStates][numPositionStatesMax]probability
	isRep      [numStates]probability
	isRepG0    [numStates]probability
	isRepG1    [numStates]probability
	isRepG2    [numStates]probability
	isRep0Long [numStates][numPositionStatesMax]probability

	lenChoice  probability
	lenChoice2 probability
	lenLow     [numPositionStatesMax][lenLowSymbols]probability
	lenMid     [numPositionStatesMax][lenLowSymbols]probability
	lenHigh    [lenHighSymbols]probability

	repLenChoice  probability
	repLenChoice2 probability
	repLenLow     [numPositionStatesMax][lenLowSymbols]probability
	repLenMid     [numPositionStatesMax][lenLowSymbols]probability
	repLenHigh    [lenHighSymbols]probability

	distSlot   [numLenToDistStates][1 << distSlotBits]probability
	distModels [numFullDistances - endDistModelIndex]probability
	distAlign  [alignTableSize]probability

	literals []probability
}

func (s *testLzmaState) reset() {
	s.state = 0
	s.reps = [numReps]uint32{}
	fill := func(probs []probability) {
		for i := range probs {
			probs[i] = probInitValue
		}
	}
	for i := 0; i < numStates; i++ {
		fill(s.isMatch[i][:])
		fill(s.isRep0Long[i][:])
	}
	fill(s.isRep[:])
	fill(s.isRepG0[:])
	fill(s.isRepG1[:])
	fill(s.isRepG2[:])
	s.lenChoice = probInitValue
	s.lenChoice2 = probInitValue
	s.repLenChoice = probInitValue
	s.repLenChoice2 = probInitValue
	for i := 0; i < numPositionStatesMax; i++ {
		fill(s.lenLow[i][:])
		fill(s.lenMid[i][:])
		fill(s.repLenLow[i][:])
		fill(s.repLenMid[i][:])
	}
	fill(s.lenHigh[:])
	fill(s.repLenHigh[:])
	for i := 0; i < numLenToDistStates; i++ {
		fill(s.distSlot[i][:])
	}
	fill(s.distModels[:])
	fill(s.distAlign[:])
	s.literals = make([]probability, (numLiterals*numLitTables)<<(s.lc+s.lp))
	fill(s.literals)
}

func (s *testLzmaState) setProps(props byte) error {
	if props >= 9*5*5 {
		return fmt.Errorf("invalid properties byte %d", props)
	}
	s.lc = int(props % 9)
	props /= 9
	s.lp = int(props % 5)
	s.pb = int(props / 5)
	return nil
}

func (s *testLzmaState) decodeLength(rd *testRangeDecoder, posState int,
	choice, choice2 *probability,
	low, mid *[numPositionStatesMax][lenLowSymbols]probability,
	high *[lenHighSymbols]probability) int {

	if rd.decodeBit(choice) == 0 {
		return matchLenMin + int(rd.decodeBitTree(low[posState][:], lenLowBits))
	}
	if rd.decodeBit(choice2) == 0 {
		return matchLenMin + lenLowSymbols + int(rd.decodeBitTree(mid[posState][:], lenLowBits))
	}
	return matchLenMin + lenLowSymbols*2 + int(rd.decodeBitTree(high[:], lenHighBits))
}

// decodeChunkBody appends uncompressedSize bytes decoded from rd to out.
func (s *testLzmaState) decodeChunkBody(rd *testRangeDecoder, out []byte, uncompressedSize int) ([]byte, error) {
	posMask := 1<<s.pb - 1
	litPosMask := 1<<s.lp - 1
	end := len(out) + uncompressedSize

	for len(out) < end {
		pos := len(out)
		posState := pos & posMask

		if rd.decodeBit(&s.isMatch[s.state][posState]) == 0 {
			prev := uint32(0)
			if pos > 0 {
				prev = uint32(out[pos-1])
			}
			probs := s.literals[((uint32(pos&litPosMask)<<s.lc)+prev>>(8-s.lc))*numLiterals*numLitTables:]
			var symbol uint32
			if isLitState(s.state) {
				symbol = 1
				for symbol < 0x100 {
					symbol = symbol<<1 | rd.decodeBit(&probs[symbol])
				}
			} else {
				matchByte := uint32(out[pos-int(s.reps[0])-1])
				symbol = 1
				for symbol < 0x100 {
					matchBit := matchByte >> 7 & 1
					matchByte <<= 1
					bit := rd.decodeBit(&probs[(1+matchBit)<<8|symbol])
					symbol = symbol<<1 | bit
					if matchBit != bit {
						// Mismatch: collapse to the plain subtable.
						for symbol < 0x100 {
							symbol = symbol<<1 | rd.decodeBit(&probs[symbol])
						}
					}
				}
			}
			out = append(out, byte(symbol))
			s.state = int(literalNextStates[s.state])
			continue
		}

		var length int
		if rd.decodeBit(&s.isRep[s.state]) == 0 {
			// Normal match: length, then slot and footer bits.
			length = s.decodeLength(rd, posState, &s.lenChoice, &s.lenChoice2, &s.lenLow, &s.lenMid, &s.lenHigh)
			slot := int(rd.decodeBitTree(s.distSlot[lenToDistState(length)][:], distSlotBits))
			var dist uint32
			if slot < startDistModelIndex {
				dist = uint32(slot)
			} else {
				footerBits := slot>>1 - 1
				base := (2 | slot&1) << footerBits
				if slot < endDistModelIndex {
					probBase := base - slot - 1
					m := uint32(1)
					sym := uint32(0)
					for i := 0; i < footerBits; i++ {
						bit := rd.decodeBit(&s.distModels[probBase+int(m)])
						m = m<<1 + bit
						sym |= bit << i
					}
					dist = uint32(base) + sym
				} else {
					dist = uint32(base) + rd.decodeDirect(footerBits-alignBits)<<alignBits
					dist += rd.decodeBitTreeReverse(s.distAlign[:], alignBits)
				}
			}
			s.reps[3], s.reps[2], s.reps[1] = s.reps[2], s.reps[1], s.reps[0]
			s.reps[0] = dist
			s.state = int(matchNextStates[s.state])
		} else {
			if rd.decodeBit(&s.isRepG0[s.state]) == 0 {
				if rd.decodeBit(&s.isRep0Long[s.state][posState]) == 0 {
					// Short rep: one byte at rep0.
					s.state = int(shortRepNextStates[s.state])
					out = append(out, out[pos-int(s.reps[0])-1])
					continue
				}
			} else {
				var dist uint32
				if rd.decodeBit(&s.isRepG1[s.state]) == 0 {
					dist = s.reps[1]
				} else {
					if rd.decodeBit(&s.isRepG2[s.state]) == 0 {
						dist = s.reps[2]
					} else {
						dist = s.reps[3]
						s.reps[3] = s.reps[2]
					}
					s.reps[2] = s.reps[1]
				}
				s.reps[1] = s.reps[0]
				s.reps[0] = dist
			}
			length = s.decodeLength(rd, posState, &s.repLenChoice, &s.repLenChoice2, &s.repLenLow, &s.repLenMid, &s.repLenHigh)
			s.state = int(repNextStates[s.state])
		}

		src := pos - int(s.reps[0]) - 1
		if src < 0 {
			return nil, fmt.Errorf("distance %d exceeds output at position %d", s.reps[0], pos)
		}
		for i := 0; i < length; i++ {
			out = append(out, out[src+i])
		}
	}
	return out, nil
}

// decodeLZMA2 decodes a concatenation of LZMA2 chunks as emitted by
// Encoder.Encode with no stream property byte.
func decodeLZMA2(stream []byte) ([]byte, error) {
	var out []byte
	var state testLzmaState
	haveProps := false

	for len(stream) > 0 {
		control := stream[0]
		switch {
		case control == chunkUncompressedDictReset || control == chunkUncompressed:
			if len(stream) < 3 {
				return nil, errors.New("truncated uncompressed chunk header")
			}
			size := (int(stream[1])<<8 | int(stream[2])) + 1
			if len(stream) < 3+size {
				return nil, errors.New("truncated uncompressed chunk")
			}
			out = append(out, stream[3:3+size]...)
			stream = stream[3+size:]
			// The raw chunk invalidates the LZMA state; the encoder must
			// reset before the next compressed chunk.
			haveProps = false

		case control&chunkCompressedFlag != 0:
			if len(stream) < chunkHeaderSize {
				return nil, errors.New("truncated compressed chunk header")
			}
			uncompressedSize := (int(control&0x1F)<<16 | int(stream[1])<<8 | int(stream[2])) + 1
			compressedSize := (int(stream[3])<<8 | int(stream[4])) + 1
			reset := control >> chunkResetShift & 3
			body := stream[chunkHeaderSize:]
			if reset >= 2 {
				if len(body) < 1 {
					return nil, errors.New("missing properties byte")
				}
				if err := state.setProps(body[0]); err != nil {
					return nil, err
				}
				body = body[1:]
				haveProps = true
			}
			if !haveProps {
				return nil, errors.New("compressed chunk before properties")
			}
			if reset >= 1 {
				state.reset()
			}
			if len(body) < compressedSize {
				return nil, errors.New("truncated compressed chunk")
			}
			rd, err := newTestRangeDecoder(body[:compressedSize])
			if err != nil {
				return nil, err
			}
			out, err = state.decodeChunkBody(rd, out, uncompressedSize)
			if err != nil {
				return nil, err
			}
			stream = body[compressedSize:]

		default:
			return nil, fmt.Errorf("unexpected control byte 0x%02x", control)
		}
	}
	return out, nil
}
