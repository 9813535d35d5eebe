// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

import (
	"bytes"
	"fmt"
	"testing"
)

func benchmarkInputSets() map[string][]byte {
	return map[string][]byte{
		"text-128k":    bytes.Repeat([]byte("benchmark corpus sentence with mild repetition 0123456789. "), 2184),
		"pattern-128k": bytes.Repeat([]byte("ABCDEF0123456789"), 8192),
		"random-64k":   testPRNGBench(65536),
	}
}

func testPRNGBench(n int) []byte {
	out := make([]byte, n)
	state := uint64(0x243F6A8885A308D3)
	for i := range out {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		out[i] = byte(state)
	}
	return out
}

func BenchmarkEncode(b *testing.B) {
	strategies := map[string]Strategy{
		"fast":  StrategyFast,
		"opt":   StrategyOpt,
		"ultra": StrategyUltra,
	}
	for inputName, inputData := range benchmarkInputSets() {
		tbl := newTestMatchTable(inputData, len(inputData))
		for stratName, strategy := range strategies {
			name := fmt.Sprintf("%s/%s", inputName, stratName)
			b.Run(name, func(b *testing.B) {
				params := &Parameters{
					LC: 3, PB: 2,
					FastLength:     48,
					MatchCycles:    4,
					Strategy:       strategy,
					SecondDictBits: 12,
				}
				enc := NewEncoder()
				block := DataBlock{Data: inputData, End: len(inputData)}
				b.ReportAllocs()
				b.SetBytes(int64(len(inputData)))
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					if _, err := enc.Encode(tbl, block, params, -1, nil); err != nil {
						b.Fatalf("Encode failed: %v", err)
					}
				}
			})
		}
	}
}

func BenchmarkFillDistancesPrices(b *testing.B) {
	enc := NewEncoder()
	enc.reset(1 << 26)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		enc.fillDistancesPrices()
	}
}
