// Package padding extends a matrix to a target shape and crops it back
// (spec component C2). Two fill modes (Zero, ZeroDerivative) cross two
// placements (Right, Both) to give four combinations; WaveletBuffer's
// Decompose/Compose use ZeroDerivative with Both.
//
// Grounded on the boundary-dimension bookkeeping of
// jpeg2000/wavelet/layout.go (LLDimensions / nextLowpassWindow), rewritten
// here as an explicit extend/crop pair instead of an implicit windowing
// offset, because spec §4.3 requires a materialized padded buffer rather
// than an index transform.
package padding

import "github.com/cocosip/wavebuffer/shape"

// Mode selects how the extension region is filled.
type Mode int

const (
	// Zero fills the extension with zero.
	Zero Mode = iota
	// ZeroDerivative repeats the nearest edge value (rows/columns/corners).
	ZeroDerivative
)

// Placement selects where the extension is added.
type Placement int

const (
	// Right extends on the right/bottom only.
	Right Placement = iota
	// Both splits the extension symmetrically, putting the extra element
	// (on odd deltas) on the right/bottom.
	Both
)

func split(delta int, placement Placement) (before, after int) {
	if placement == Right {
		return 0, delta
	}
	before = delta / 2
	after = delta - before
	return before, after
}

// Extend returns a copy of m extended to targetRows x targetCols. Both
// target extents must be >= the corresponding extent of m.
func Extend(m shape.Matrix, targetRows, targetCols int, mode Mode, placement Placement) shape.Matrix {
	if targetRows < m.Rows || targetCols < m.Cols {
		panic("padding: target shape smaller than input")
	}
	rowBefore, _ := split(targetRows-m.Rows, placement)
	colBefore, _ := split(targetCols-m.Cols, placement)

	out := shape.NewMatrix(targetRows, targetCols)
	for r := 0; r < targetRows; r++ {
		srcR, rowOK := sourceIndex(r, rowBefore, m.Rows, mode)
		for c := 0; c < targetCols; c++ {
			srcC, colOK := sourceIndex(c, colBefore, m.Cols, mode)
			if mode == Zero && (!rowOK || !colOK) {
				continue // already zero
			}
			out.Set(r, c, m.At(srcR, srcC))
		}
	}
	return out
}

// sourceIndex maps an output coordinate back to a source coordinate. ok is
// false when the coordinate falls in the extension region and mode is
// Zero (caller leaves the output at its zero value in that case).
func sourceIndex(out, before, n int, mode Mode) (src int, ok bool) {
	rel := out - before
	if rel >= 0 && rel < n {
		return rel, true
	}
	if mode == Zero {
		return 0, false
	}
	// ZeroDerivative: clamp to the nearest edge.
	if rel < 0 {
		return 0, true
	}
	return n - 1, true
}

// Crop inverts Extend: given a matrix previously extended from
// origRows x origCols with placement, it returns the origRows x origCols
// interior.
func Crop(m shape.Matrix, origRows, origCols int, placement Placement) shape.Matrix {
	rowBefore, _ := split(m.Rows-origRows, placement)
	colBefore, _ := split(m.Cols-origCols, placement)

	out := shape.NewMatrix(origRows, origCols)
	for r := 0; r < origRows; r++ {
		for c := 0; c < origCols; c++ {
			out.Set(r, c, m.At(r+rowBefore, c+colBefore))
		}
	}
	return out
}

// PaddedExtent returns the smallest multiple of 2^steps that is >= n,
// the padded(d) quantity used throughout spec §3's invariants I2/I3.
func PaddedExtent(n, steps int) int {
	block := 1 << uint(steps)
	if n%block == 0 {
		return n
	}
	return (n/block + 1) * block
}
