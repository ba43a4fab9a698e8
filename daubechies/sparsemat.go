package daubechies

// Entry is one non-zero tap of a SparseMat row.
type Entry struct {
	Col int
	Val float32
}

// SparseMat is a sparse Rows x Cols matrix stored as a list of non-zero
// entries per row, the representation spec §4.1's DaubechiesMat returns.
// It is built once per (shape, parameters, step) and cached by the filter
// cache in wavebuf/cache.go; MulVec is its hot path.
type SparseMat struct {
	Rows, Cols int
	RowEntries [][]Entry
}

// MulVec computes y = M * x.
func (m SparseMat) MulVec(x []float32) []float32 {
	y := make([]float32, m.Rows)
	for r, entries := range m.RowEntries {
		var sum float32
		for _, e := range entries {
			sum += e.Val * x[e.Col]
		}
		y[r] = sum
	}
	return y
}

// Transpose returns the transposed matrix, used for the compose-path
// cache (spec §4.9: "a parallel cache holds the transposed matrices").
func (m SparseMat) Transpose() SparseMat {
	out := SparseMat{Rows: m.Cols, Cols: m.Rows, RowEntries: make([][]Entry, m.Cols)}
	for r, entries := range m.RowEntries {
		for _, e := range entries {
			out.RowEntries[e.Col] = append(out.RowEntries[e.Col], Entry{Col: r, Val: e.Val})
		}
	}
	return out
}

// ConvPadding selects how DaubechiesMat handles taps that fall outside
// [0, n) for a row near the matrix boundary.
type ConvPadding int

const (
	// Periodized wraps tap positions modulo n.
	Periodized ConvPadding = iota
	// ZeroDerivative folds out-of-range taps onto the first/last column,
	// summing contributions that land on the same column.
	ZeroDerivative
)

// DaubechiesMat builds the sparse n x n convolution matrix for a
// Daubechies filter of the given order (= 2 * wavelet type index): the
// first n/2 rows hold shifted low-pass taps, the remaining n/2 rows hold
// shifted high-pass taps (spec §4.1). The reference lays these taps down
// from Lo_R/Hi_R, not Lo_D/Hi_D (wavelet.cc:DaubechiesMat reverses Lo_D/
// Hi_D before convolving, which is exactly Lo_R/Hi_R) — callers must pass
// daubechies.Filters.LoR/HiR here. Precondition: order is even and
// n >= order; violating it panics since this is only ever called with
// validated WaveletParameters (spec I5 rejects bad combinations earlier).
func DaubechiesMat(n, order int, loR, hiR []float32, padding ConvPadding) SparseMat {
	if order%2 != 0 {
		panic("daubechies: order must be even")
	}
	if n < order {
		panic("daubechies: n must be >= order")
	}
	half := n / 2
	mat := SparseMat{Rows: n, Cols: n, RowEntries: make([][]Entry, n)}
	for i := 0; i < half; i++ {
		mat.RowEntries[i] = convRow(i, loR, n, padding)
		mat.RowEntries[half+i] = convRow(i, hiR, n, padding)
	}
	return mat
}

func convRow(i int, taps []float32, n int, padding ConvPadding) []Entry {
	acc := make(map[int]float32, len(taps))
	order := []int{}
	for j, tap := range taps {
		if tap == 0 {
			continue
		}
		col := 2*i + j
		switch padding {
		case Periodized:
			col = ((col % n) + n) % n
		case ZeroDerivative:
			if col < 0 {
				col = 0
			} else if col >= n {
				col = n - 1
			}
		}
		if _, seen := acc[col]; !seen {
			order = append(order, col)
		}
		acc[col] += tap
	}
	entries := make([]Entry, 0, len(order))
	for _, col := range order {
		entries = append(entries, Entry{Col: col, Val: acc[col]})
	}
	return entries
}
