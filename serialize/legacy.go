package serialize

import (
	"github.com/cocosip/wavebuffer/legacycodec"
	"github.com/cocosip/wavebuffer/shape"
	"github.com/cocosip/wavebuffer/wavebuf"
)

// Legacy (version 2) container layout — read-only, the library never
// writes this dialect (spec §4.8: "Write only current"). Grounded on
// original_source/sources/wavelet_buffer_serializer.cc's Parse method and
// original_source/wavelet_buffer/cereal_blaze.h's DynamicVector/
// DynamicMatrix framing:
//
//   version(2) u8, parameters (same layout as current), compression u8,
//   then:
//
//   - compression != 0 (legacy-codec payloads, regardless of version): a
//     flat sequence of signal_number*L length-prefixed blobs in position
//     order, each independently decodable via legacycodec.Decode. Loop
//     bounds come from parameters; this path carries no size tags of its
//     own (cereal's DynamicVector<uint8_t> framing is already exactly "u64
//     length + that many raw bytes").
//
//   - compression == 0 and version == legacy: a channel is cereal's
//     generic std::vector<std::vector<Subband>> serialization, which
//     (unlike the current dialect's direct per-subband framing) carries
//     its own size tags: u64 signal_number, then per channel a u64 L, then
//     per subband a DynamicMatrix (u64 rows, u64 cols, row-major f32
//     values) — no shape is derived from parameters on this path.
//
// See DESIGN.md for the original_source/ evidence this framing is grounded
// on.
func parseLegacy(c *cursor) (*wavebuf.WaveletBuffer, error) {
	params, err := readParameters(c)
	if err != nil {
		return nil, err
	}
	compByte, err := c.readU8()
	if err != nil {
		return nil, err
	}
	compression := int(compByte)

	var decomps []wavebuf.WaveletDecomposition
	if compression == 0 {
		decomps, err = parseLegacyDense(c)
	} else {
		decomps, err = parseLegacyCompressed(c, int(params.SignalNumber), params.L())
	}
	if err != nil {
		return nil, err
	}

	buf, ok := wavebuf.NewFrom(params, decomps)
	if !ok {
		return nil, ErrTruncated
	}
	return buf, nil
}

// parseLegacyDense reads the cereal-generic nested-vector framing legacy
// version 2 uses when compression == 0: an outer size tag (signal_number),
// then per channel an inner size tag (L), then per subband an explicit
// DynamicMatrix (rows, cols, row-major values) — nothing here is derived
// from parameters, since this framing carries its own shape fields.
func parseLegacyDense(c *cursor) ([]wavebuf.WaveletDecomposition, error) {
	signalNumber, err := c.readU64()
	if err != nil {
		return nil, err
	}
	decomps := make([]wavebuf.WaveletDecomposition, signalNumber)
	for ch := range decomps {
		l, err := c.readU64()
		if err != nil {
			return nil, err
		}
		decomp := make(wavebuf.WaveletDecomposition, l)
		for i := range decomp {
			m, err := readLegacyDenseMatrix(c)
			if err != nil {
				return nil, err
			}
			decomp[i] = m
		}
		decomps[ch] = decomp
	}
	return decomps, nil
}

func readLegacyDenseMatrix(c *cursor) (shape.Matrix, error) {
	rows, err := c.readU64()
	if err != nil {
		return shape.Matrix{}, err
	}
	cols, err := c.readU64()
	if err != nil {
		return shape.Matrix{}, err
	}
	m := shape.NewMatrix(int(rows), int(cols))
	for i := range m.Data {
		v, err := c.readF32()
		if err != nil {
			return shape.Matrix{}, err
		}
		m.Data[i] = v
	}
	return m, nil
}

// parseLegacyCompressed reads the flat signal_number*L sequence of
// length-prefixed legacy-codec payloads used whenever compression != 0,
// independent of version: loop bounds come directly from parameters, and
// there is no per-channel wrapper around a channel's L payloads.
func parseLegacyCompressed(c *cursor, signalNumber, l int) ([]wavebuf.WaveletDecomposition, error) {
	decomps := make([]wavebuf.WaveletDecomposition, signalNumber)
	for ch := range decomps {
		decomp := make(wavebuf.WaveletDecomposition, l)
		for i := range decomp {
			blob, err := c.readLenPrefixed()
			if err != nil {
				return nil, err
			}
			m, err := legacycodec.Decode(blob)
			if err != nil {
				return nil, err
			}
			decomp[i] = m
		}
		decomps[ch] = decomp
	}
	return decomps, nil
}
