package wavebuf

import (
	"github.com/cocosip/wavebuffer/denoise"
	"github.com/cocosip/wavebuffer/shape"
)

// WaveletBufferView is a non-owning window over a contiguous channel range
// [start, start+count) of a parent WaveletBuffer (spec component C8). Its
// lifetime is tied to target's; it never frees storage (spec §5 "Resource
// discipline").
type WaveletBufferView struct {
	start, count uint
	target       *WaveletBuffer
}

// Start returns the first channel index covered by the view.
func (v *WaveletBufferView) Start() uint { return v.start }

// Count returns the number of channels covered by the view.
func (v *WaveletBufferView) Count() uint { return v.count }

// viewParameters returns the parent's parameters with SignalNumber
// replaced by the view's channel count, used wherever the view needs to
// reason about shapes/steps as if it were a standalone buffer.
func (v *WaveletBufferView) viewParameters() WaveletParameters {
	p := v.target.Parameters
	p.SignalNumber = v.count
	return p
}

func (v *WaveletBufferView) slice() []WaveletDecomposition {
	return v.target.Decompositions[v.start : v.start+v.count]
}

// Decompose decomposes signal (one matrix per channel in the view, length
// must equal Count()) into the parent buffer's channels [start,
// start+count), leaving every other channel untouched (spec §4.7).
func (v *WaveletBufferView) Decompose(signal []shape.Matrix, denoiser denoise.Denoiser) bool {
	return decomposeChannels(v.viewParameters(), v.slice(), signal, denoiser)
}

// Compose reconstructs the view's channels into out (spec §4.7), reading
// only; it never mutates the parent's storage.
func (v *WaveletBufferView) Compose(out []shape.Matrix, scale uint) bool {
	return composeChannels(v.viewParameters(), v.slice(), out, scale)
}

// Decompositions returns the view's slice of the parent's decomposition
// storage (shared, not copied).
func (v *WaveletBufferView) Decompositions() []WaveletDecomposition {
	return v.slice()
}

// ToBuffer performs the deep copy spec §3 requires when "casting a view to
// an owned buffer": parameters gain SignalNumber := count, and the sliced
// channel decompositions are cloned rather than shared.
func (v *WaveletBufferView) ToBuffer() *WaveletBuffer {
	p := v.viewParameters()
	src := v.slice()
	decomps := make([]WaveletDecomposition, len(src))
	for i, d := range src {
		decomps[i] = d.Clone()
	}
	return &WaveletBuffer{Parameters: p, Decompositions: decomps}
}
