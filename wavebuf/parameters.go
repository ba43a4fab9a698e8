// Package wavebuf owns the multi-channel wavelet pyramid (spec components
// C7/C8): WaveletParameters, the WaveletBuffer that decomposes/composes
// signals, and WaveletBufferView, a non-owning channel-range window over a
// buffer. It also hosts the process-wide filter-matrix cache (spec §4.9);
// see cache.go for why that lives here rather than in waveutil.
//
// Grounded on the teacher's plain-value-type pattern (no pimpl anywhere in
// codec/codec.go or jpeg2000/wavelet): WaveletParameters and WaveletBuffer
// are ordinary structs with exported fields plus validating constructors,
// not opaque handles.
package wavebuf

import (
	"fmt"

	"github.com/cocosip/wavebuffer/daubechies"
	"github.com/cocosip/wavebuffer/shape"
)

// WaveletParameters is the immutable configuration of a WaveletBuffer
// (spec §3). Equality is field-wise; Less gives the lexicographic total
// order spec §3 requires because these values are used as a cache key.
type WaveletParameters struct {
	SignalShape        shape.Shape
	SignalNumber       uint
	DecompositionSteps uint
	WaveletType        daubechies.Type
}

// K returns the number of detail subbands produced per decomposition
// step: 1 for a 1-D signal, 3 for 2-D (spec §3: "K = 1 for 1-D and K = 3
// for 2-D").
func (p WaveletParameters) K() int {
	if p.SignalShape.Is1D() {
		return 1
	}
	return 3
}

// L returns the total decomposition length, steps*K + 1 (spec I1).
func (p WaveletParameters) L() int {
	return int(p.DecompositionSteps)*p.K() + 1
}

// PaddedShape returns the per-dimension padded extent (spec I3): the
// smallest multiple of 2^steps that is >= signal_shape[d].
func (p WaveletParameters) PaddedShape() shape.Shape {
	out := make(shape.Shape, len(p.SignalShape))
	for i, d := range p.SignalShape {
		out[i] = paddedExtent(d, int(p.DecompositionSteps))
	}
	return out
}

func paddedExtent(n, steps int) int {
	block := 1 << uint(steps)
	if n%block == 0 {
		return n
	}
	return (n/block + 1) * block
}

// NewWaveletParameters validates I4, I5, I6 and dimension <= 2 (spec §3),
// returning ok=false on any violation — construction failure is fatal per
// spec §7 ("InvalidParameters" is a fatal init error, not recoverable).
func NewWaveletParameters(sig shape.Shape, signalNumber, steps uint, t daubechies.Type) (WaveletParameters, bool) {
	if !sig.Valid() {
		return WaveletParameters{}, false
	}
	if signalNumber == 0 {
		return WaveletParameters{}, false
	}

	// I6: None disables padding/transform; steps is clamped to 0.
	if t == daubechies.None {
		return WaveletParameters{
			SignalShape:        sig.Clone(),
			SignalNumber:       signalNumber,
			DecompositionSteps: 0,
			WaveletType:        t,
		}, true
	}

	n := t.Index()
	shortest := sig.ShortestDim()

	// I4: shortest_dimension(signal_shape) >= 2 * wavelet_type_index.
	if shortest < 2*n {
		return WaveletParameters{}, false
	}

	// I5: decomposition_steps <= floor(log2(min_side / (2*type - 1))).
	maxSteps := maxDecompositionSteps(shortest, n)
	if int(steps) > maxSteps {
		return WaveletParameters{}, false
	}

	return WaveletParameters{
		SignalShape:        sig.Clone(),
		SignalNumber:       signalNumber,
		DecompositionSteps: steps,
		WaveletType:        t,
	}, true
}

func maxDecompositionSteps(minSide, n int) int {
	denom := 2*n - 1
	if denom <= 0 {
		return 0
	}
	ratio := float64(minSide) / float64(denom)
	if ratio < 1 {
		return 0
	}
	steps := 0
	for (1 << uint(steps+1)) <= int(ratio) {
		steps++
	}
	return steps
}

// Equal reports field-wise equality.
func (p WaveletParameters) Equal(o WaveletParameters) bool {
	return p.SignalShape.Equal(o.SignalShape) &&
		p.SignalNumber == o.SignalNumber &&
		p.DecompositionSteps == o.DecompositionSteps &&
		p.WaveletType == o.WaveletType
}

// Less implements the lexicographic order spec §3 requires on
// (signal_shape, signal_number, decomposition_steps, wavelet_type).
func (p WaveletParameters) Less(o WaveletParameters) bool {
	if !p.SignalShape.Equal(o.SignalShape) {
		return p.SignalShape.Less(o.SignalShape)
	}
	if p.SignalNumber != o.SignalNumber {
		return p.SignalNumber < o.SignalNumber
	}
	if p.DecompositionSteps != o.DecompositionSteps {
		return p.DecompositionSteps < o.DecompositionSteps
	}
	return p.WaveletType < o.WaveletType
}

func (p WaveletParameters) String() string {
	return fmt.Sprintf("WaveletParameters{shape=%s, channels=%d, steps=%d, type=%s}",
		p.SignalShape, p.SignalNumber, p.DecompositionSteps, p.WaveletType)
}
