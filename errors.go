// SPDX-License-Identifier: 0BSD
// Source: github.com/cpenaranda/fast-lzma2

package fastlzma2

import "errors"

// Sentinel errors raised by the encoder. All failures are synchronous.
var (
	// ErrAllocation names the hash-chain allocation failure. No function in
	// this package returns it: the hash chain is allocated with make, which
	// does not report failure.
	ErrAllocation = errors.New("fastlzma2: allocation failed")
	// ErrInternal is returned when a chunk exceeds the maximum compressed
	// size. The parser guards against this, so it indicates a bug. Callers
	// can use errors.Is(err, fastlzma2.ErrInternal).
	ErrInternal = errors.New("fastlzma2: internal encoder error")
	// ErrCanceled is returned when the caller sets the cancel flag. Chunks
	// emitted before the flag was observed remain valid.
	ErrCanceled = errors.New("fastlzma2: encoding canceled")
)
