package wavebuf

import (
	"log"
	"math"
	"os"

	"github.com/cocosip/wavebuffer/daubechies"
	"github.com/cocosip/wavebuffer/denoise"
	"github.com/cocosip/wavebuffer/dwt"
	"github.com/cocosip/wavebuffer/padding"
	"github.com/cocosip/wavebuffer/shape"
)

// Logger is where shape-mismatch and other non-fatal diagnostics are
// written (spec §7: "writes diagnostics to a standard error stream and
// returns"). Swappable by callers that want the diagnostics routed
// elsewhere, the way the teacher's example programs configure their own
// loggers rather than reaching for a third-party logging framework.
var Logger = log.New(os.Stderr, "wavebuffer: ", 0)

// WaveletDecomposition is the ordered sequence of subbands for one channel
// (spec §3): positions s*K..s*K+K-1 hold step s's detail subbands, the
// final position holds the coarsest approximation.
type WaveletDecomposition []shape.Matrix

// Clone returns an independent deep copy of d.
func (d WaveletDecomposition) Clone() WaveletDecomposition {
	out := make(WaveletDecomposition, len(d))
	for i, m := range d {
		out[i] = m.Clone()
	}
	return out
}

// Equal reports element-wise equality between two decompositions of equal
// length.
func (d WaveletDecomposition) Equal(o WaveletDecomposition) bool {
	if len(d) != len(o) {
		return false
	}
	for i := range d {
		if !d[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func emptyDecomposition(l int) WaveletDecomposition {
	return make(WaveletDecomposition, l)
}

// WaveletBuffer owns the wavelet parameters and a channel-indexed vector of
// decompositions (spec component C7). It exclusively owns its storage;
// WaveletBufferView only ever borrows it (spec §3 "Ownership").
type WaveletBuffer struct {
	Parameters     WaveletParameters
	Decompositions []WaveletDecomposition
}

// New allocates a buffer of signal_number empty decompositions, each of
// length L (spec §4.6's "new(parameters)"). Parameters must already be
// valid (NewWaveletParameters having returned ok=true); construction
// failure on invalid parameters is fatal per spec §7 and is the caller's
// responsibility to have avoided by checking that constructor's result.
func New(p WaveletParameters) *WaveletBuffer {
	l := p.L()
	decomps := make([]WaveletDecomposition, p.SignalNumber)
	for i := range decomps {
		decomps[i] = emptyDecomposition(l)
	}
	return &WaveletBuffer{Parameters: p, Decompositions: decomps}
}

// NewFrom wraps pre-filled decompositions, validating that their count and
// per-channel length match p (spec §4.6's "new_from"). Returns ok=false on
// mismatch rather than panicking, matching spec §7's ShapeMismatch/false
// contract for constructors fed caller-supplied data.
func NewFrom(p WaveletParameters, decompositions []WaveletDecomposition) (*WaveletBuffer, bool) {
	if uint(len(decompositions)) != p.SignalNumber {
		Logger.Printf("NewFrom: got %d decompositions, want signal_number=%d", len(decompositions), p.SignalNumber)
		return nil, false
	}
	l := p.L()
	for i, d := range decompositions {
		if len(d) != l {
			Logger.Printf("NewFrom: channel %d has %d subbands, want L=%d", i, len(d), l)
			return nil, false
		}
	}
	return &WaveletBuffer{Parameters: p, Decompositions: decompositions}, true
}

// IsEmpty reports whether every subband of every channel has rows*cols==0.
func (b *WaveletBuffer) IsEmpty() bool {
	for _, d := range b.Decompositions {
		for _, m := range d {
			if !m.IsEmpty() {
				return false
			}
		}
	}
	return true
}

// Equal reports whether b and o have equal parameters and element-wise
// equal decompositions (spec §4.6).
func (b *WaveletBuffer) Equal(o *WaveletBuffer) bool {
	if !b.Parameters.Equal(o.Parameters) {
		return false
	}
	if len(b.Decompositions) != len(o.Decompositions) {
		return false
	}
	for i := range b.Decompositions {
		if !b.Decompositions[i].Equal(o.Decompositions[i]) {
			return false
		}
	}
	return true
}

// GetValueRange returns the deterministic (min, max) bounds for subband
// position i, used by downstream quantization (spec §4.6): the
// approximation (position L-1) ranges over (0, 2*2^(steps-1)); every other
// position i ranges over (-2^(i/K), 2^(i/K)).
func (b *WaveletBuffer) GetValueRange(i int) (min, max float32) {
	p := b.Parameters
	l := p.L()
	if i == l-1 {
		v := float32(math.Pow(2, float64(int(p.DecompositionSteps)-1)))
		return 0, 2 * v
	}
	step := i / p.K()
	v := float32(math.Pow(2, float64(step)))
	return -v, v
}

// View constructs a non-owning window over channels [start, start+count)
// (spec §4.7). Returns ok=false when the range runs past signal_number
// (spec §7's OutOfRange).
func (b *WaveletBuffer) View(start, count uint) (*WaveletBufferView, bool) {
	if start+count > b.Parameters.SignalNumber {
		Logger.Printf("View: start=%d count=%d exceeds signal_number=%d", start, count, b.Parameters.SignalNumber)
		return nil, false
	}
	return &WaveletBufferView{start: start, count: count, target: b}, true
}

// Decompose writes the full wavelet pyramid for signal (one matrix per
// channel, already shaped per spec's 1-D/2-D conventions) into b,
// overwriting every subband (spec §4.6). denoiser is applied to every
// detail subband, never to the approximation. Returns false on any shape
// mismatch.
func (b *WaveletBuffer) Decompose(signal []shape.Matrix, denoiser denoise.Denoiser) bool {
	return decomposeChannels(b.Parameters, b.Decompositions, signal, denoiser)
}

// decomposeChannels implements spec §4.6's decompose steps over an
// explicit parameter/storage pair so WaveletBufferView.Decompose can reuse
// it against a channel slice of the parent's storage.
func decomposeChannels(p WaveletParameters, dest []WaveletDecomposition, signal []shape.Matrix, denoiser denoise.Denoiser) bool {
	if len(signal) != len(dest) {
		Logger.Printf("Decompose: got %d channels, want %d", len(signal), len(dest))
		return false
	}
	for i, sig := range signal {
		if !sig.Shape().Equal(p.SignalShape) {
			Logger.Printf("Decompose: channel %d has shape %s, want %s", i, sig.Shape(), p.SignalShape)
			return false
		}
	}

	steps := int(p.DecompositionSteps)
	k := p.K()
	is1D := p.SignalShape.Is1D()

	var filters daubechies.Filters
	if p.WaveletType != daubechies.None {
		var ok bool
		filters, ok = daubechies.Build(p.WaveletType)
		if !ok {
			return false
		}
	}

	var fwdStack matrixStack
	if !is1D && steps > 0 {
		fwdStack = forwardMatrices(p)
	}
	padded := p.PaddedShape()

	for ch, sig := range signal {
		decomp := dest[ch]

		current := padding.Extend(sig, padded[0], lastOr(padded, 1), padding.ZeroDerivative, padding.Both)

		for s := 0; s < steps; s++ {
			if is1D {
				col := current.Col(0)
				low, high := dwt.ForwardRaw(col, filters.LoR, filters.HiR)
				high = denoiser.Denoise1D(high, s)
				detail := shape.NewVector(len(high))
				detail.SetCol(0, high)
				decomp[s*k] = detail
				current = shape.NewVector(len(low))
				current.SetCol(0, low)
				continue
			}

			fh := fwdStack[s][0]
			fw := fwdStack[s][1]
			ll, lh, hl, hh := dwt.Forward2D(current, fw, fh)
			lh.Data = denoiser.Denoise2D(lh.Data, lh.Rows, lh.Cols, s)
			hl.Data = denoiser.Denoise2D(hl.Data, hl.Rows, hl.Cols, s)
			hh.Data = denoiser.Denoise2D(hh.Data, hh.Rows, hh.Cols, s)
			decomp[s*k+0] = lh
			decomp[s*k+1] = hl
			decomp[s*k+2] = hh
			current = ll
		}

		decomp[len(decomp)-1] = current
	}
	return true
}

func lastOr(s shape.Shape, def int) int {
	if len(s) < 2 {
		return def
	}
	return s[1]
}

// Compose reconstructs the signal into out (one pre-shaped-or-empty matrix
// per channel, overwritten in place) at the given scale, 0 meaning full
// resolution (spec §4.6). Returns false on any precondition violation.
func (b *WaveletBuffer) Compose(out []shape.Matrix, scale uint) bool {
	return composeChannels(b.Parameters, b.Decompositions, out, scale)
}

func composeChannels(p WaveletParameters, src []WaveletDecomposition, out []shape.Matrix, scale uint) bool {
	steps := int(p.DecompositionSteps)
	if int(scale) > steps {
		Logger.Printf("Compose: scale=%d exceeds steps=%d", scale, steps)
		return false
	}
	if len(out) != len(src) {
		Logger.Printf("Compose: got %d output channels, want %d", len(out), len(src))
		return false
	}

	k := p.K()
	is1D := p.SignalShape.Is1D()

	var filters daubechies.Filters
	if p.WaveletType != daubechies.None {
		var ok bool
		filters, ok = daubechies.Build(p.WaveletType)
		if !ok {
			return false
		}
	}

	var trStack matrixStack
	if !is1D && steps > 0 {
		trStack = transposedMatrices(p)
	}

	divisor := scaleDivisor(is1D, int(scale))
	targetRows, targetCols := p.SignalShape[0], lastOr(p.SignalShape, 1)
	cropRows := targetRows >> scale
	cropCols := targetCols
	if !is1D {
		cropCols = targetCols >> scale
	}

	for ch, decomp := range src {
		current := decomp[len(decomp)-1]

		for i := steps; i > int(scale); i-- {
			s := i - 1
			if is1D {
				detail := decomp[s*k]
				current = rawInverse1D(current, detail, filters)
				continue
			}
			fh := trStack[s][0]
			fw := trStack[s][1]
			lh := decomp[s*k+0]
			hl := decomp[s*k+1]
			hh := decomp[s*k+2]
			current = dwt.Inverse2D(current, lh, hl, hh, fw, fh)
		}

		cropped := padding.Crop(current, cropRows, cropCols, padding.Both)
		if scale > 0 {
			scaleVector(cropped, divisor)
		}
		out[ch] = cropped
	}
	return true
}

func rawInverse1D(low shape.Matrix, high shape.Matrix, filters daubechies.Filters) shape.Matrix {
	rec := dwt.InverseRaw(low.Col(0), high.Col(0), filters.LoD, filters.HiD)
	out := shape.NewVector(len(rec))
	out.SetCol(0, rec)
	return out
}

func scaleVector(m shape.Matrix, divisor float32) {
	for i := range m.Data {
		m.Data[i] /= divisor
	}
}

// scaleDivisor returns the amplitude-preserving divisor for a coarsened
// compose (spec §4.6): sqrt(2)^scale for 1-D signals, 2^scale for 2-D,
// because a 2-D step is two orthonormal 1-D passes stacked.
func scaleDivisor(is1D bool, scale int) float32 {
	if is1D {
		return float32(math.Sqrt(math.Pow(2, float64(scale))))
	}
	return float32(uint64(1) << uint(scale))
}
