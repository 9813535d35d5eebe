// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

/*
Package fastlzma2 implements the core of an LZMA2 encoder: an adaptive
binary range coder over several hundred context-dependent probability
models, greedy/lazy and optimal parsers, and the LZMA2 chunk framer with
uncompressed-chunk fallback.

Match finding is external. The encoder consumes a read-only MatchTable
oracle indexed by absolute position; a radix match finder or any other
producer can implement it. One Encoder context serves one worker; contexts
share nothing but the input block, the match table and the optional
Progress counters.

	enc := fastlzma2.NewEncoder()
	n, err := enc.Encode(tbl, block, fastlzma2.DefaultParameters(), -1, nil)
	// n bytes of LZMA2 chunks are in tbl.OutputBuffer(block.Start)[:n]

The output is a concatenation of LZMA2 chunks, optionally prefixed with a
caller-supplied stream property byte. Dictionary management across blocks,
container framing and the multi-threaded driver are out of scope.
*/
package fastlzma2
