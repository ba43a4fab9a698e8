package legacycodec

import (
	"math"

	"github.com/cocosip/wavebuffer/internal/bitio"
)

// expJumpBorders and zeroRunBorders are the two static border tables
// sf_compressor.cc's constructor builds once, Pool[0] (the exponent-jump
// family, 16 entries) and Pool[1] (the zero-run family, 63 entries).
// Every payload's dynamic code-length pools (Pool[2]/Pool[3] in the
// reference, rebuilt here by reconstructPool) are expressed relative to
// these fixed boundaries, so both sides of a legacy payload agree on them
// without either needing to transmit them.
var (
	expJumpBorders = buildStaticBorders(16, true)
	zeroRunBorders = buildStaticBorders(63, false)
)

// buildStaticBorders reproduces sf_compressor.cc's constructor loop for
// Pool[0] (expFamily=true) and Pool[1] (expFamily=false): both start at
// Last[t]=t for t=0..2, the exponent-jump family bends to 2*(t-1) at t=3
// and t=4 while the zero-run family stays linear through t=4, and from
// t=5 on both double the border two steps back.
func buildStaticBorders(count int, expFamily bool) []uint32 {
	last := make([]uint32, count)
	for t := 0; t < count && t < 5; t++ {
		if expFamily && t > 2 {
			last[t] = uint32(2 * (t - 1))
		} else {
			last[t] = uint32(t)
		}
	}
	for t := 5; t < count; t++ {
		last[t] = 2 * last[t-2]
	}
	return last
}

// pow2dbl returns 2^n as a float64, standing in for sf_compressor.cc's
// Pow2Dbl129 lookup table.
func pow2dbl(n int) float64 { return math.Ldexp(1, n) }

// codePool is a reconstructed Pool[2]/Pool[3]: a small set of rungs, each
// covering codes of length codeLen[t] whose decoded value runs up to
// last[t] once shifted back into the pool's native value range by
// codeOffset[t].
type codePool struct {
	codeLen    []int
	last       []uint32
	codeOffset []int64
}

// reconstructPool rebuilds a dynamic code-length pool purely from
// bitstream-transmitted boundary markers (sf_compressor.cc's Decompress,
// the PNr in {2,3} loop): firstCodeLen is the header's transmitted first
// rung length (ExpJump1stCodeLen or Zeros1stCodeLen) and borders is the
// matching static family (expJumpBorders for the exponent pool,
// zeroRunBorders for the zero-run pool). A decoder never sees the
// encoder's sample histogram — every rung boundary it needs is read back
// with readUniversal against zeroRunBorders, which the reference hardcodes
// for this inner search regardless of which family is being rebuilt.
func reconstructPool(r *bitio.Reader, firstCodeLen uint32, borders []uint32) (codePool, error) {
	var p codePool
	if firstCodeLen == 0 {
		return p, nil
	}
	lastDefinedCodeLen := int(firstCodeLen) - 1

	freeCodes := 1.0
	lastDefinedCode := int64(-1)
	lastDefinedPool := -1

	for t := 0; t < len(borders); t++ {
		var gelesen uint32
		for {
			lastDefinedCodeLen++
			maxPossCode := lastDefinedCode + int64(freeCodes*pow2dbl(lastDefinedCodeLen))
			maxPossPool := findPoolNr(zeroRunBorders, clampToUint32(maxPossCode))
			var err error
			gelesen, err = readUniversal(r, uint32(maxPossPool-lastDefinedPool+1))
			if err != nil {
				return codePool{}, err
			}
			if gelesen != 0 {
				break
			}
		}

		codeLen := lastDefinedCodeLen
		poolNr := lastDefinedPool + int(gelesen)
		if poolNr >= len(borders) {
			return codePool{}, ErrBadPool
		}
		last := borders[poolNr]
		codeOffset := int64((1-freeCodes)*pow2dbl(codeLen)) - lastDefinedCode - 1

		p.codeLen = append(p.codeLen, codeLen)
		p.last = append(p.last, last)
		p.codeOffset = append(p.codeOffset, codeOffset)

		freeCodes -= float64(int64(last)-lastDefinedCode) / pow2dbl(codeLen)
		lastDefinedCode = int64(last)
		lastDefinedPool = poolNr
		if freeCodes <= 0 {
			break
		}
	}
	return p, nil
}

func clampToUint32(v int64) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}

// decodeViaPool reads one value coded against p: a first codeLen[0]-bit
// guess, progressively refined by appending more bits (sf_compressor.cc's
// Decompress per-value loop) until the accumulated value falls at or
// below some rung's last+offset threshold. An empty pool (no code lengths
// ever transmitted, i.e. the field this pool covers never varies) decodes
// to 0 with no bits consumed.
func decodeViaPool(r *bitio.Reader, p codePool) (uint32, error) {
	if len(p.codeLen) == 0 {
		return 0, nil
	}

	v, err := r.ReadBits(p.codeLen[0])
	if err != nil {
		return 0, err
	}
	value := uint32(v)
	if value <= p.last[0] {
		return value, nil
	}

	for t := 1; t < len(p.codeLen); t++ {
		pushLen := p.codeLen[t] - p.codeLen[t-1]
		more, err := r.ReadBits(pushLen)
		if err != nil {
			return 0, err
		}
		value = (value << uint(pushLen)) + uint32(more)
		threshold := int64(p.last[t]) + p.codeOffset[t]
		if int64(value) <= threshold {
			return uint32(int64(value) - p.codeOffset[t]), nil
		}
	}
	return 0, ErrBadPool
}
