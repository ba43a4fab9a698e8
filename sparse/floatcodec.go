package sparse

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/cocosip/wavebuffer/internal/bitio"
)

// floatHeader mirrors the fpzip-style header fields spec §4.4 calls out
// explicitly: "type=float, precision, nx=N, ny=1, nz=1, nf=1". nx carries
// the element count; ny/nz/nf are always 1 because this codec only ever
// flattens a matrix into a 1-D array of non-zero values.
type floatHeader struct {
	Type      uint8
	Precision uint8
	Nx        uint32
	Ny        uint32
	Nz        uint32
	Nf        uint32
}

const floatTypeTag uint8 = 1

const headerSize = 1 + 1 + 4 + 4 + 4 + 4

// ErrFloatHeaderMismatch is returned when a values blob's header doesn't
// describe the array the caller expected to decode.
var ErrFloatHeaderMismatch = errors.New("sparse: float header mismatch")

// FragLen maps a serializer compression level (spec §9's quirk) onto the
// number of mantissa bits retained: level 1 is a deliberate special case
// that is lossless (frag_len=23) even though it is not level 0; levels
// 2..16 retain 23-level bits; levels above 16 are clamped to 16; level 0
// (or below) is the plain lossless path and also yields a full mantissa.
// This is spec'd intentional behavior (§9), not collapsed into one
// formula. Exported because legacycodec's frag_len field (spec §4.5)
// draws from this exact same 16-value domain.
func FragLen(precision int) int {
	if precision <= 1 {
		return 23
	}
	if precision > 16 {
		precision = 16
	}
	return 23 - precision
}

// encodeFloats encodes values at the given precision level into a
// self-describing blob (header + bit-packed payload).
func encodeFloats(values []float32, precision int) []byte {
	frag := FragLen(precision)
	shift := uint(23 - frag)

	w := bitio.NewWriter()
	for _, v := range values {
		bits := math.Float32bits(v)
		sign := uint64(bits>>31) & 1
		exp := uint64(bits>>23) & 0xFF
		mantissa := bits & 0x7FFFFF

		var fragBits uint64
		if frag >= 23 {
			fragBits = uint64(mantissa)
		} else {
			half := uint32(1) << (shift - 1)
			rounded := mantissa + half
			fragBits = uint64(rounded >> shift)
			max := uint64(1)<<uint(frag) - 1
			if fragBits > max {
				fragBits = max
			}
		}
		w.WriteBits(sign, 1)
		w.WriteBits(exp, 8)
		w.WriteBits(fragBits, frag)
	}

	hdr := floatHeader{
		Type:      floatTypeTag,
		Precision: uint8(clampPrecision(precision)),
		Nx:        uint32(len(values)),
		Ny:        1,
		Nz:        1,
		Nf:        1,
	}
	out := make([]byte, 0, headerSize+len(w.Bytes()))
	out = appendHeader(out, hdr)
	out = append(out, w.Bytes()...)
	return out
}

func clampPrecision(p int) int {
	if p < 0 {
		return 0
	}
	if p > 16 {
		return 16
	}
	return p
}

func appendHeader(dst []byte, h floatHeader) []byte {
	var buf [headerSize]byte
	buf[0] = h.Type
	buf[1] = h.Precision
	binary.LittleEndian.PutUint32(buf[2:6], h.Nx)
	binary.LittleEndian.PutUint32(buf[6:10], h.Ny)
	binary.LittleEndian.PutUint32(buf[10:14], h.Nz)
	binary.LittleEndian.PutUint32(buf[14:18], h.Nf)
	return append(dst, buf[:]...)
}

func readHeader(src []byte) (floatHeader, error) {
	if len(src) < headerSize {
		return floatHeader{}, ErrFloatHeaderMismatch
	}
	h := floatHeader{
		Type:      src[0],
		Precision: src[1],
		Nx:        binary.LittleEndian.Uint32(src[2:6]),
		Ny:        binary.LittleEndian.Uint32(src[6:10]),
		Nz:        binary.LittleEndian.Uint32(src[10:14]),
		Nf:        binary.LittleEndian.Uint32(src[14:18]),
	}
	if h.Type != floatTypeTag || h.Ny != 1 || h.Nz != 1 || h.Nf != 1 {
		return floatHeader{}, ErrFloatHeaderMismatch
	}
	return h, nil
}

// decodeFloats decodes count values from blob, which must have been
// produced by encodeFloats for the same count.
func decodeFloats(blob []byte, count int) ([]float32, error) {
	hdr, err := readHeader(blob)
	if err != nil {
		return nil, err
	}
	if int(hdr.Nx) != count {
		return nil, ErrFloatHeaderMismatch
	}
	frag := FragLen(int(hdr.Precision))
	shift := uint(23 - frag)

	r := bitio.NewReader(blob[headerSize:])
	out := make([]float32, count)
	for i := range out {
		sign, err := r.ReadBits(1)
		if err != nil {
			return nil, err
		}
		exp, err := r.ReadBits(8)
		if err != nil {
			return nil, err
		}
		fragBits, err := r.ReadBits(frag)
		if err != nil {
			return nil, err
		}
		var mantissa uint32
		if frag >= 23 {
			mantissa = uint32(fragBits)
		} else {
			mantissa = uint32(fragBits) << shift
		}
		bits := uint32(sign)<<31 | uint32(exp)<<23 | mantissa
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}
