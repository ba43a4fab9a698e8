// Package denoise implements the pluggable element-wise transform applied
// to detail subbands at each decomposition step (spec component C5,
// §4.2). It is applied only to detail subbands, never to the
// approximation (wavebuf enforces that; this package just implements the
// three concrete variants).
//
// Grounded on the teacher's codec.Options / BaseOptions.Validate()
// pattern (codec/codec.go): one small interface plus a handful of structs
// implementing it, each holding its own parameters and doing its own
// validation — no shared base type, because the three variants don't
// share any state beyond the interface.
package denoise

import (
	"math"
	"sort"

	"golang.org/x/exp/slices"
)

// Denoiser is applied element-wise (or rank-preservingly, for the
// relative-threshold variant) to a detail subband at decomposition step
// step. Implementations must be pure and deterministic.
type Denoiser interface {
	// Denoise1D denoises a 1-D detail subband (a single column).
	Denoise1D(x []float32, step int) []float32
	// Denoise2D denoises a 2-D detail subband.
	Denoise2D(x []float32, rows, cols int, step int) []float32
}

// Null is the identity denoiser.
type Null struct{}

func (Null) Denoise1D(x []float32, _ int) []float32 { return append([]float32(nil), x...) }
func (Null) Denoise2D(x []float32, _, _, _ int) []float32 {
	return append([]float32(nil), x...)
}

// AbsoluteThreshold zeroes every element whose absolute value does not
// exceed T(step) = a*step + b (spec §4.2).
type AbsoluteThreshold struct {
	A, B float32
}

func (d AbsoluteThreshold) threshold(step int) float32 {
	return d.A*float32(step) + d.B
}

func (d AbsoluteThreshold) Denoise1D(x []float32, step int) []float32 {
	return thresholdAbs(x, d.threshold(step))
}

func (d AbsoluteThreshold) Denoise2D(x []float32, _, _, step int) []float32 {
	return thresholdAbs(x, d.threshold(step))
}

func thresholdAbs(x []float32, t float32) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		if abs32(v) > t {
			out[i] = v
		}
	}
	return out
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// RelativeThreshold keeps the top ceil((1-C) * len(x)) elements by
// absolute value (ties broken by traversal position) and zeroes the rest
// (spec §4.2's "ratio" denoiser). C must be in [0, 1].
type RelativeThreshold struct {
	C float32
}

func (d RelativeThreshold) Denoise1D(x []float32, _ int) []float32 {
	return keepTopRatio(x, d.C)
}

func (d RelativeThreshold) Denoise2D(x []float32, _, _, _ int) []float32 {
	return keepTopRatio(x, d.C)
}

// keepTopRatio selects the top ceil((1-c) * n) elements of x by absolute
// value using a stable sort over (index, |value|) so ties break by
// row-major traversal position, as spec §4.2 requires.
func keepTopRatio(x []float32, c float32) []float32 {
	n := len(x)
	keep := int(math.Ceil(float64(1-c) * float64(n)))
	if keep >= n {
		return append([]float32(nil), x...)
	}
	if keep <= 0 {
		return make([]float32, n)
	}

	type ranked struct {
		idx int
		mag float32
	}
	order := make([]ranked, n)
	for i, v := range x {
		order[i] = ranked{idx: i, mag: abs32(v)}
	}
	// Stable sort descending by magnitude; ties keep ascending index
	// order (the original traversal order), matching spec's tie-break.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].mag > order[j].mag
	})

	keepIdx := make([]int, keep)
	for i := 0; i < keep; i++ {
		keepIdx[i] = order[i].idx
	}
	slices.Sort(keepIdx)

	out := make([]float32, n)
	for _, idx := range keepIdx {
		out[idx] = x[idx]
	}
	return out
}
