package serialize

import (
	"github.com/cocosip/wavebuffer/daubechies"
	"github.com/cocosip/wavebuffer/shape"
	"github.com/cocosip/wavebuffer/wavebuf"
)

// writeParameters writes signal_shape (a u64 count followed by that many
// u64 extents), signal_number, decomposition_steps, and wavelet_type
// (spec §4.8 item 2). Every field is fixed-width little-endian, including
// the shape sequence: the container's other integer fields (rows, cols,
// nonzero, blob lengths) are all fixed-width u64 too, so the shape
// sequence follows the same convention rather than switching to a LEB128
// varint encoding mid-format (see DESIGN.md for this resolution of spec
// §4.8's ambiguous "varuint" wording).
func writeParameters(w *writer, p wavebuf.WaveletParameters) {
	w.writeU64(uint64(len(p.SignalShape)))
	for _, d := range p.SignalShape {
		w.writeU64(uint64(d))
	}
	w.writeU64(uint64(p.SignalNumber))
	w.writeU64(uint64(p.DecompositionSteps))
	w.writeI32(int32(p.WaveletType))
}

func readParameters(c *cursor) (wavebuf.WaveletParameters, error) {
	dims, err := c.readU64()
	if err != nil {
		return wavebuf.WaveletParameters{}, err
	}
	sig := make(shape.Shape, dims)
	for i := range sig {
		d, err := c.readU64()
		if err != nil {
			return wavebuf.WaveletParameters{}, err
		}
		sig[i] = int(d)
	}

	signalNumber, err := c.readU64()
	if err != nil {
		return wavebuf.WaveletParameters{}, err
	}
	steps, err := c.readU64()
	if err != nil {
		return wavebuf.WaveletParameters{}, err
	}
	waveletType, err := c.readI32()
	if err != nil {
		return wavebuf.WaveletParameters{}, err
	}

	return wavebuf.WaveletParameters{
		SignalShape:        sig,
		SignalNumber:       uint(signalNumber),
		DecompositionSteps: uint(steps),
		WaveletType:        daubechies.Type(waveletType),
	}, nil
}
