// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

// Strategy selects the parser used for instruction selection.
type Strategy int

const (
	// StrategyFast uses the greedy parser with a short lazy lookahead.
	StrategyFast Strategy = iota
	// StrategyOpt uses the optimal parser over match-table candidates.
	StrategyOpt
	// StrategyUltra adds a secondary hash chain to the optimal parser to
	// find short matches at near distances (hybrid mode).
	StrategyUltra
)

// Parameters configures one encoding pass. Out-of-range values are clamped,
// never rejected.
type Parameters struct {
	// LC is the number of literal context bits (0-4).
	LC int
	// LP is the number of literal position bits (0-4). LC+LP must not
	// exceed 4; LC is reduced if it does.
	LP int
	// PB is the number of position bits (0-4).
	PB int
	// FastLength is the match length that stops the parser searching
	// further (6-273).
	FastLength int
	// MatchCycles bounds the hash-chain walk per position in hybrid mode
	// (1-1000).
	MatchCycles int
	// Strategy selects the parser.
	Strategy Strategy
	// SecondDictBits sizes the hybrid hash chain (4-14, ultra only).
	SecondDictBits int
}

// DefaultParameters returns the encoder defaults (lc=3, lp=0, pb=2,
// fast length 48, ultra strategy).
func DefaultParameters() *Parameters {
	return &Parameters{
		LC:             3,
		LP:             0,
		PB:             2,
		FastLength:     48,
		MatchCycles:    1,
		Strategy:       StrategyUltra,
		SecondDictBits: 9,
	}
}

// clamp corrects out-of-range values in place. LP is clamped before the
// combined LC+LP rule so an oversized LP cannot push LC negative.
func (p *Parameters) clamp() {
	p.LP = min(max(p.LP, 0), lcLpMax)
	p.LC = min(max(p.LC, 0), lcLpMax)
	if p.LC+p.LP > lcLpMax {
		p.LC = lcLpMax - p.LP
	}
	p.PB = min(max(p.PB, 0), numPositionBitsMax)
	p.FastLength = min(max(p.FastLength, 6), matchLenMax)
	p.MatchCycles = min(max(p.MatchCycles, 1), 1000)
	if p.Strategy < StrategyFast || p.Strategy > StrategyUltra {
		p.Strategy = StrategyUltra
	}
	p.SecondDictBits = min(max(p.SecondDictBits, 4), hash3Bits)
}
