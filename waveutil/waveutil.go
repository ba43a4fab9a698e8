// Package waveutil provides the free-function utilities spec component C10
// names: DecompositionSize, Distance, and EnergyDistribution. The
// filter-matrix cache that spec §4.9 also assigns to C10 lives in
// wavebuf/cache.go instead — see DESIGN.md for why (its key type is
// wavebuf.WaveletParameters itself, so putting the cache here would make
// wavebuf and waveutil import each other).
//
// Grounded on jpeg2000/quantization.go's calcOpenJPEGStepSizes97, which
// returns one value per (level, orientation) subband index — the same
// position-indexed-vector shape EnergyDistribution returns here.
package waveutil

import (
	"math"

	"github.com/cocosip/wavebuffer/wavebuf"
)

// DecompositionSize returns the total element count across every subband
// of every channel a buffer built from p would hold: sum over the L
// subbands of one channel's rows*cols, times signal_number.
func DecompositionSize(p wavebuf.WaveletParameters) int {
	padded := p.PaddedShape()
	steps := int(p.DecompositionSteps)
	k := p.K()

	total := 0
	for s := 0; s < steps; s++ {
		total += k * extentProduct(padded, s+1)
	}
	total += extentProduct(padded, steps)
	return total * int(p.SignalNumber)
}

func extentProduct(padded []int, shiftBy int) int {
	p := 1
	for _, d := range padded {
		p *= d >> uint(shiftBy)
	}
	return p
}

// Distance computes the mean squared subband-wise L2 distance between two
// buffers (spec §4.10). Precondition: equal signal_number and
// signal_shape. Differing decomposition_steps yields NaN rather than a
// precondition failure, per spec's explicit "return NaN" instruction.
func Distance(a, b *wavebuf.WaveletBuffer) float32 {
	pa, pb := a.Parameters, b.Parameters
	if pa.SignalNumber != pb.SignalNumber || !pa.SignalShape.Equal(pb.SignalShape) {
		return float32(math.NaN())
	}
	if pa.DecompositionSteps != pb.DecompositionSteps {
		return float32(math.NaN())
	}

	var sumSq float64
	for ch := range a.Decompositions {
		da, db := a.Decompositions[ch], b.Decompositions[ch]
		for i := range da {
			ma, mb := da[i], db[i]
			for j := range ma.Data {
				diff := float64(ma.Data[j] - mb.Data[j])
				sumSq += diff * diff
			}
		}
	}

	denom := float64(pa.SignalNumber) * float64(pa.SignalShape.Product())
	return float32(sumSq / denom)
}

// EnergyDistribution returns, per channel, per subband, the sum of squared
// element values (spec §4.10).
func EnergyDistribution(buf *wavebuf.WaveletBuffer) [][]float32 {
	out := make([][]float32, len(buf.Decompositions))
	for ch, decomp := range buf.Decompositions {
		energies := make([]float32, len(decomp))
		for i, m := range decomp {
			var sum float32
			for _, v := range m.Data {
				sum += v * v
			}
			energies[i] = sum
		}
		out[ch] = energies
	}
	return out
}
