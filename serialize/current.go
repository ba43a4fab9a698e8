package serialize

import (
	"errors"

	"github.com/cocosip/wavebuffer/shape"
	"github.com/cocosip/wavebuffer/sparse"
	"github.com/cocosip/wavebuffer/wavebuf"
)

// CurrentVersion is the version byte this library writes (spec §4.8:
// "currently 3").
const CurrentVersion uint8 = 3

// legacyVersion is the only other version a reader accepts (spec §4.8's
// legacy dialect).
const legacyVersion uint8 = 2

// ErrBadVersion is returned when a container's version byte is neither 3
// (current) nor 2 (legacy) — spec P7: "parse fails ... for any blob whose
// first byte is not in {2, 3}".
var ErrBadVersion = errors.New("serialize: unsupported container version")

// clampCompression applies spec §4.8's compression-byte rule: 0 is
// verbatim, 1..16 selects a precision, anything above 16 clamps to 16.
func clampCompression(c int) int {
	if c < 0 {
		return 0
	}
	if c > 16 {
		return 16
	}
	return c
}

// Serialize encodes buf into the current (version 3) container format at
// the given compression level (spec §4.8). An empty buffer is always
// written with compression forced to 0 regardless of the requested level
// (spec B4).
func Serialize(buf *wavebuf.WaveletBuffer, compression int) []byte {
	comp := clampCompression(compression)
	if buf.IsEmpty() {
		comp = 0
	}

	w := &writer{}
	w.writeU8(CurrentVersion)
	writeParameters(w, buf.Parameters)
	w.writeU8(uint8(comp))

	for _, decomp := range buf.Decompositions {
		for _, sub := range decomp {
			writeSubbandCurrent(w, sub, comp)
		}
	}
	return w.buf
}

// writeSubbandCurrent writes one subband payload (spec §4.8 item 4).
// compression == 0 writes a dense record unconditionally (including
// genuinely empty 0x0 subbands, which simply carry rows=cols=0 and no
// element bytes). compression != 0 always writes the sparse-archive shape
// spec §4.4 defines; a subband with no non-zero entries (including the
// 0x0 case) degenerates to nonzero=0 with empty index/value blobs rather
// than inventing a separate wire-level selector — see DESIGN.md.
func writeSubbandCurrent(w *writer, m shape.Matrix, compression int) {
	if compression == 0 {
		writeDenseRecord(w, m)
		return
	}

	if m.NonZeroCount() == 0 {
		w.writeU64(0)
		w.writeU64(uint64(m.Rows))
		w.writeU64(uint64(m.Cols))
		w.writeLenPrefixed(nil)
		w.writeLenPrefixed(nil)
		return
	}

	arch, err := sparse.Encode(m, compression)
	if err != nil {
		// NonZeroCount() > 0 guarantees Encode cannot fail; unreachable
		// in practice, but fall back to the degenerate record rather
		// than emit a malformed payload.
		w.writeU64(0)
		w.writeU64(uint64(m.Rows))
		w.writeU64(uint64(m.Cols))
		w.writeLenPrefixed(nil)
		w.writeLenPrefixed(nil)
		return
	}
	w.writeU64(uint64(arch.Nonzero))
	w.writeU64(uint64(arch.Rows))
	w.writeU64(uint64(arch.Cols))
	w.writeLenPrefixed(arch.IndexesBlob)
	w.writeLenPrefixed(arch.ValuesBlob)
}

func writeDenseRecord(w *writer, m shape.Matrix) {
	w.writeU64(uint64(m.Rows))
	w.writeU64(uint64(m.Cols))
	for _, v := range m.Data {
		w.writeF32(v)
	}
}

func parseCurrent(c *cursor) (*wavebuf.WaveletBuffer, error) {
	params, err := readParameters(c)
	if err != nil {
		return nil, err
	}
	compByte, err := c.readU8()
	if err != nil {
		return nil, err
	}
	compression := int(compByte)

	l := params.L()
	decomps := make([]wavebuf.WaveletDecomposition, params.SignalNumber)
	for ch := range decomps {
		decomp := make(wavebuf.WaveletDecomposition, l)
		for i := range decomp {
			m, err := readSubbandCurrent(c, compression)
			if err != nil {
				return nil, err
			}
			decomp[i] = m
		}
		decomps[ch] = decomp
	}

	buf, ok := wavebuf.NewFrom(params, decomps)
	if !ok {
		return nil, errors.New("serialize: decoded decompositions do not match parameters")
	}
	return buf, nil
}

func readSubbandCurrent(c *cursor, compression int) (shape.Matrix, error) {
	if compression == 0 {
		return readDenseRecord(c)
	}

	nonzero, err := c.readU64()
	if err != nil {
		return shape.Matrix{}, err
	}
	rows, err := c.readU64()
	if err != nil {
		return shape.Matrix{}, err
	}
	cols, err := c.readU64()
	if err != nil {
		return shape.Matrix{}, err
	}
	idxBlob, err := c.readLenPrefixed()
	if err != nil {
		return shape.Matrix{}, err
	}
	valBlob, err := c.readLenPrefixed()
	if err != nil {
		return shape.Matrix{}, err
	}

	if nonzero == 0 {
		return shape.NewMatrix(int(rows), int(cols)), nil
	}

	arch := sparse.ArchivedMatrix{
		Valid:       true,
		Nonzero:     uint(nonzero),
		Rows:        uint(rows),
		Cols:        uint(cols),
		IndexesBlob: idxBlob,
		ValuesBlob:  valBlob,
	}
	return sparse.Decode(arch)
}

func readDenseRecord(c *cursor) (shape.Matrix, error) {
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
