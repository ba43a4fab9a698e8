package wavebuf

import (
	"sync"

	"github.com/cocosip/wavebuffer/daubechies"
	"github.com/cocosip/wavebuffer/shape"
	"golang.org/x/exp/slices"
)

// cacheKey is a map-key-comparable stand-in for WaveletParameters: Shape is
// a slice and so isn't map-key-comparable on its own. Only 1-D and 2-D
// signal shapes are ever admitted (spec §3), so two ints suffice; dim1 is
// -1 for a 1-D shape.
type cacheKey struct {
	dim0, dim1   int
	signalNumber uint
	steps        uint
	waveletType  daubechies.Type
}

func (p WaveletParameters) cacheKey() cacheKey {
	dim1 := -1
	if p.SignalShape.Is2D() {
		dim1 = p.SignalShape[1]
	}
	return cacheKey{
		dim0:         p.SignalShape[0],
		dim1:         dim1,
		signalNumber: p.SignalNumber,
		steps:        p.DecompositionSteps,
		waveletType:  p.WaveletType,
	}
}

// matrixStack holds, for each decomposition step, one sparse convolution
// matrix per signal dimension (spec §4.9: "a vector (length = dim) of
// sparse DaubechiesMat(...) matrices").
type matrixStack [][]daubechies.SparseMat

var (
	forwardCacheMu sync.RWMutex
	forwardCache   = map[cacheKey]matrixStack{}

	transposedCacheMu sync.RWMutex
	transposedCache   = map[cacheKey]matrixStack{}
)

// forwardMatrices returns the cached forward matrix stack for p's 2-D
// transform, building and installing it on first use. Safe for concurrent
// callers (spec §5: "must tolerate concurrent generate_matrices calls").
func forwardMatrices(p WaveletParameters) matrixStack {
	key := p.cacheKey()

	forwardCacheMu.RLock()
	if m, ok := forwardCache[key]; ok {
		forwardCacheMu.RUnlock()
		return m
	}
	forwardCacheMu.RUnlock()

	built := buildMatrixStack(p)

	forwardCacheMu.Lock()
	defer forwardCacheMu.Unlock()
	if existing, ok := forwardCache[key]; ok {
		return existing
	}
	forwardCache[key] = built
	return built
}

// transposedMatrices returns the cached transposed matrix stack used on
// the compose path (spec §4.9: "a parallel cache holds the transposed
// matrices"). Orthogonal Daubechies matrices are their own inverse under
// transposition, so these are literally Transpose() of the forward stack.
func transposedMatrices(p WaveletParameters) matrixStack {
	key := p.cacheKey()

	transposedCacheMu.RLock()
	if m, ok := transposedCache[key]; ok {
		transposedCacheMu.RUnlock()
		return m
	}
	transposedCacheMu.RUnlock()

	fwd := forwardMatrices(p)
	built := make(matrixStack, len(fwd))
	for s, row := range fwd {
		tr := make([]daubechies.SparseMat, len(row))
		for d, m := range row {
			tr[d] = m.Transpose()
		}
		built[s] = tr
	}

	transposedCacheMu.Lock()
	defer transposedCacheMu.Unlock()
	if existing, ok := transposedCache[key]; ok {
		return existing
	}
	transposedCache[key] = built
	return built
}

// ForwardCacheKeys returns the parameters currently holding a built forward
// matrix stack, sorted by (dim0, dim1, signalNumber, steps, waveletType).
// Diagnostic only — callers should not depend on cache contents for
// correctness, only for inspecting what Decompose/Compose have warmed.
func ForwardCacheKeys() []WaveletParameters {
	forwardCacheMu.RLock()
	keys := make([]cacheKey, 0, len(forwardCache))
	for k := range forwardCache {
		keys = append(keys, k)
	}
	forwardCacheMu.RUnlock()

	slices.SortFunc(keys, func(a, b cacheKey) int {
		if a.dim0 != b.dim0 {
			return a.dim0 - b.dim0
		}
		if a.dim1 != b.dim1 {
			return a.dim1 - b.dim1
		}
		if a.signalNumber != b.signalNumber {
			return int(a.signalNumber) - int(b.signalNumber)
		}
		if a.steps != b.steps {
			return int(a.steps) - int(b.steps)
		}
		return int(a.waveletType) - int(b.waveletType)
	})

	out := make([]WaveletParameters, len(keys))
	for i, k := range keys {
		out[i] = WaveletParameters{
			SignalShape:        shapeFromCacheKey(k),
			SignalNumber:       k.signalNumber,
			DecompositionSteps: k.steps,
			WaveletType:        k.waveletType,
		}
	}
	return out
}

func shapeFromCacheKey(k cacheKey) shape.Shape {
	if k.dim1 < 0 {
		return shape.Shape{k.dim0}
	}
	return shape.Shape{k.dim0, k.dim1}
}

func buildMatrixStack(p WaveletParameters) matrixStack {
	filters, ok := daubechies.Build(p.WaveletType)
	if !ok {
		return nil
	}
	order := 2 * p.WaveletType.Index()
	padded := p.PaddedShape()
	steps := int(p.DecompositionSteps)
	dims := len(padded)

	stack := make(matrixStack, steps)
	for s := 0; s < steps; s++ {
		row := make([]daubechies.SparseMat, dims)
		for d := 0; d < dims; d++ {
			n := padded[d] >> uint(s)
			row[d] = daubechies.DaubechiesMat(n, order, filters.LoR, filters.HiR, daubechies.Periodized)
		}
		stack[s] = row
	}
	return stack
}
