// Package dwt implements the 1-D and 2-D discrete wavelet transforms
// described in spec §4.1 (component C4): a raw-convolution form used when
// building the full n x n matrix would be wasteful, and a matrix-convolution
// form used everywhere a daubechies.SparseMat is already in hand (always
// true for the 2-D path, per spec's data-flow section, which sources those
// matrices from the filter cache in wavebuf/cache.go).
//
// Grounded on the organization of jpeg2000/wavelet/dwt53.go and dwt97.go:
// one Forward*/Inverse* pair per transform family, a separate *2D wrapper
// that drives the 1-D routine row-then-column. The math itself is
// rewritten: this is an orthogonal Daubechies convolution, not a CDF
// lifting scheme, because spec §4.1 requires the former.
package dwt

import "github.com/cocosip/wavebuffer/daubechies"

func mod(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}

// ForwardRaw performs the forward 1-D transform by direct convolution with
// a periodic-wrap 2-row filter (lo, hi), without materializing an n x n
// matrix (spec §4.1: "Used when n is very large"). The reference builds
// this forward filter pair from Lo_R/Hi_R (not Lo_D/Hi_D, despite the
// "decomposition" framing) — callers must pass daubechies.Filters.LoR/HiR
// here, matching wavelet.cc:DecomposeImpl.
func ForwardRaw(signal, lo, hi []float32) (low, high []float32) {
	n := len(signal)
	half := n / 2
	low = make([]float32, half)
	high = make([]float32, half)
	for i := 0; i < half; i++ {
		var l, h float32
		for j, tap := range lo {
			l += signal[mod(2*i+j, n)] * tap
		}
		for j, tap := range hi {
			h += signal[mod(2*i+j, n)] * tap
		}
		low[i] = l
		high[i] = h
	}
	return
}

// InverseRaw performs the inverse 1-D transform by direct convolution with
// a 2-row filter (lo, hi) (spec §4.1's raw idwt recipe): p = len(lo) - 2,
// i0 = m - p/2, and for each output index i the taps are interleaved
// starting at j0 = 1 if i is even else 0, stepping by 2. The reference
// builds this inverse filter pair from Lo_D/Hi_D (not Lo_R/Hi_R) —
// callers must pass daubechies.Filters.LoD/HiD here, matching
// wavelet.cc:ComposeImpl.
//
// This indexing matches spec §4.1/§9 literally; its behavior at
// non-power-of-two m is documented there as "matches reference", not
// independently re-derived here.
func InverseRaw(low, high, lo, hi []float32) []float32 {
	m := len(low)
	order := len(lo)
	p := order - 2
	i0 := m - p/2
	n := 2 * m
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		j0 := 0
		if i%2 == 0 {
			j0 = 1
		}
		var sum float32
		for j := 0; j0+j < order; j += 2 {
			idx := mod(i0+i/2+j/2, m)
			sum += lo[j0+j]*low[idx] + hi[j0+j]*high[idx]
		}
		out[i] = sum
	}
	return out
}

// ForwardMat performs the forward 1-D transform as a single
// matrix-vector product: encoded = F * signal, low = encoded[:n/2],
// high = encoded[n/2:] (spec §4.1's matrix-convolution form).
func ForwardMat(signal []float32, f daubechies.SparseMat) (low, high []float32) {
	encoded := f.MulVec(signal)
	half := len(encoded) / 2
	return encoded[:half], encoded[half:]
}

// InverseMat performs the inverse 1-D transform by concatenating
// [low; high] and multiplying by the supplied reconstruction matrix.
func InverseMat(low, high []float32, f daubechies.SparseMat) []float32 {
	concat := make([]float32, len(low)+len(high))
	copy(concat, low)
	copy(concat[len(low):], high)
	return f.MulVec(concat)
}
