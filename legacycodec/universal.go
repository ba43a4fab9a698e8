package legacycodec

import (
	"math/bits"

	"github.com/cocosip/wavebuffer/internal/bitio"
)

// pow2u32 returns 2^n as a uint32, mirroring sf_compressor.cc's Pow2Int32
// lookup table without needing to carry the table itself.
func pow2u32(n int) uint32 { return uint32(1) << uint(n) }

// bitsFor returns findPoolNr(4, n): the number of bits a field with n
// possible values (0..n-1) needs under NineOfSeven/SevenOfNine.
func bitsFor(n uint32) int {
	if n <= 1 {
		return 0
	}
	return bits.Len32(n - 1)
}

// zeroBitsFor returns findPoolNr(5, m): how many of those bits NineOfSeven
// spends narrowing down "is this a short code" before committing to the
// full-width tail.
func zeroBitsFor(m uint32) int {
	return bits.Len32(m) - 1
}

// findPoolNr returns the smallest index i with testNr <= last[i] — the
// bisection sf_compressor.cc runs (BisecStep) over a border table,
// implemented here as a linear scan since every border table this package
// builds has at most 63 entries.
func findPoolNr(last []uint32, testNr uint32) int {
	for i, v := range last {
		if testNr <= v {
			return i
		}
	}
	return len(last) - 1
}

// readUniversal decodes one NineOfSeven-coded field (sf_compressor.cc): a
// value in [0, nrPoss), written in bitsFor(nrPoss) bits, with short codes
// reserved for values near zero whenever nrPoss is not an exact power of
// two. When nrPoss is a power of two the whole scheme collapses to a
// plain fixed-width read.
func readUniversal(r *bitio.Reader, nrPoss uint32) (uint32, error) {
	bitsMax := bitsFor(nrPoss)
	maxMampfen := pow2u32(bitsMax) - nrPoss + 1
	if maxMampfen == 1 {
		v, err := r.ReadBits(bitsMax)
		if err != nil {
			return 0, err
		}
		return uint32(v), nil
	}

	pow2ForZero := zeroBitsFor(maxMampfen)
	v, err := r.ReadBits(bitsMax - pow2ForZero)
	if err != nil {
		return 0, err
	}
	nrSel := uint32(v)
	if nrSel == 0 {
		return 0, nil
	}

	rest, err := r.ReadBits(pow2ForZero - 1)
	if err != nil {
		return 0, err
	}
	nrSel = (nrSel << uint(pow2ForZero-1)) + uint32(rest)
	if nrSel+1-pow2u32(pow2ForZero-1) <= maxMampfen-pow2u32(pow2ForZero) {
		nrSel = nrSel + 1 - pow2u32(pow2ForZero-1)
	} else {
		last, err := r.ReadBits(1)
		if err != nil {
			return 0, err
		}
		nrSel = (nrSel << 1) + uint32(last) - maxMampfen + 1
	}
	return nrSel, nil
}

// writeUniversal is the SevenOfNine write-side counterpart. Spec §4.5
// documents a read-only format; this exists only so this package's tests
// can synthesize legacy bitstreams without a corpus of real payloads.
func writeUniversal(w *bitio.Writer, nrSel, nrPoss uint32) {
	bitsUsed := bitsFor(nrPoss)
	bitsOut := nrSel
	maxMampfen := pow2u32(bitsUsed) - nrPoss + 1
	if maxMampfen > 1 {
		pow2ForZero := zeroBitsFor(maxMampfen)
		switch {
		case nrSel == 0:
			bitsUsed -= pow2ForZero
		case nrSel <= maxMampfen-pow2u32(pow2ForZero):
			bitsOut += pow2u32(pow2ForZero-1) - 1
			bitsUsed--
		default:
			bitsOut += maxMampfen - 1
		}
	}
	w.WriteBits(uint64(bitsOut), bitsUsed)
}
