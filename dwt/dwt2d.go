package dwt

import (
	"github.com/cocosip/wavebuffer/daubechies"
	"github.com/cocosip/wavebuffer/shape"
)

// Forward2D applies fw to every row of x, then fh to every column of the
// row-transformed intermediate, and splits the result into the four
// equal-sized quadrants (spec §4.1): LL (low rows, low cols), LH (low
// rows, high cols — i.e. the row pass produced the high half), HL (high
// rows, low cols), HH (high rows, high cols). fw must be width x width,
// fh must be height x height.
func Forward2D(x shape.Matrix, fw, fh daubechies.SparseMat) (ll, lh, hl, hh shape.Matrix) {
	height, width := x.Rows, x.Cols
	// Row pass: transform every row along its width.
	rowPass := shape.NewMatrix(height, width)
	for r := 0; r < height; r++ {
		low, high := ForwardMat(append([]float32(nil), x.Row(r)...), fw)
		halfW := len(low)
		for c := 0; c < halfW; c++ {
			rowPass.Set(r, c, low[c])
			rowPass.Set(r, halfW+c, high[c])
		}
	}

	// Column pass: transform every column of rowPass along its height.
	halfW := width / 2
	halfH := height / 2
	ll = shape.NewMatrix(halfH, halfW)
	hl = shape.NewMatrix(halfH, halfW)
	lh = shape.NewMatrix(halfH, halfW)
	hh = shape.NewMatrix(halfH, halfW)
	for c := 0; c < width; c++ {
		low, high := ForwardMat(rowPass.Col(c), fh)
		dstLowQuad, dstHighQuad := ll, hl
		if c >= halfW {
			dstLowQuad, dstHighQuad = lh, hh
		}
		col := c
		if c >= halfW {
			col = c - halfW
		}
		dstLowQuad.SetCol(col, low)
		dstHighQuad.SetCol(col, high)
	}
	return
}

// Inverse2D inverts Forward2D: it reassembles the four quadrants, applies
// the height-dimension reconstruction matrix fhR to every column, then the
// width-dimension reconstruction matrix fwR to every row. The output shape
// is rows(fhR) x cols(fwR).
func Inverse2D(ll, lh, hl, hh shape.Matrix, fwR, fhR daubechies.SparseMat) shape.Matrix {
	halfW := ll.Cols
	width := halfW * 2

	// Column pass (inverse of the forward column pass).
	rowPass := shape.NewMatrix(fhR.Rows, width)
	for c := 0; c < halfW; c++ {
		col := InverseMat(ll.Col(c), hl.Col(c), fhR)
		rowPass.SetCol(c, col)
	}
	for c := 0; c < halfW; c++ {
		col := InverseMat(lh.Col(c), hh.Col(c), fhR)
		rowPass.SetCol(halfW+c, col)
	}

	// Row pass (inverse of the forward row pass).
	out := shape.NewMatrix(fhR.Rows, fwR.Cols)
	for r := 0; r < fhR.Rows; r++ {
		rowVec := rowPass.Row(r)
		low := rowVec[:halfW]
		high := rowVec[halfW:]
		rec := InverseMat(low, high, fwR)
		copy(out.Row(r), rec)
	}
	return out
}
