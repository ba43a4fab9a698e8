package daubechies

// Orthfilt computes the four analysis/synthesis filters from a scaling
// filter W (spec §4.1):
//
//	Lo_R = sqrt(2) * W
//	Hi_R = quadrature mirror of Lo_R
//	Lo_D = reverse(Lo_R)
//	Hi_D = reverse(Hi_R)
func Orthfilt(w []float64) (loR, hiR, loD, hiD []float64) {
	loR = make([]float64, len(w))
	for i, v := range w {
		loR[i] = sqrt2 * v
	}
	hiR = quadratureMirror(loR)
	loD = reverse(loR)
	hiD = reverse(hiR)
	return
}

// quadratureMirror implements spec §4.1's exact recipe: y = reverse(Lo_R);
// start index is 1 for even length, else 2, applied as a 0-based loop
// index per the reference Orthfilt (not shifted down by one); negate
// every second element of y from that start.
func quadratureMirror(loR []float64) []float64 {
	y := reverse(loR)
	start := 1
	if len(y)%2 != 0 {
		start = 2
	}
	out := make([]float64, len(y))
	copy(out, y)
	for i := start; i < len(out); i += 2 {
		out[i] = -out[i]
	}
	return out
}

func reverse(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[len(v)-1-i] = x
	}
	return out
}

// Filters bundles the four filters a WaveletType needs, plus the
// convenience of float32 copies for the transform's element type. Despite
// the "decomposition"/"reconstruction" naming inherited from Orthfilt, the
// reference (wavelet.cc:DecomposeImpl/ComposeImpl) drives the *forward*
// transform from LoR/HiR and the *inverse* transform from LoD/HiD — dwt
// and wavebuf callers follow that convention, not the name.
type Filters struct {
	LoD, HiD []float32 // reverse(LoR)/reverse(HiR); used by the inverse transform
	LoR, HiR []float32 // sqrt(2)*W and its quadrature mirror; used by the forward transform
}

// Build derives the Filters for Daubechies type t, returning ok=false for
// None (which has no filter, per spec I6).
func Build(t Type) (Filters, bool) {
	n := t.Index()
	if n == 0 {
		return Filters{}, false
	}
	w := Dbwavf(n)
	loR, hiR, loD, hiD := Orthfilt(w)
	return Filters{
		LoD: toF32(loD),
		HiD: toF32(hiD),
		LoR: toF32(loR),
		HiR: toF32(hiR),
	}, true
}

func toF32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
