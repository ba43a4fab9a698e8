// Package varint implements the stream-varint (group-varint) integer
// coding spec §4.4 asks the sparse matrix codec to use for its delta-coded
// index stream: one control byte per four values (2 bits each selecting a
// 1-4 byte payload length) followed by the packed payload bytes.
//
// Grounded on the fixed-width/control-byte bit-packing style
// jpeg2000/mqc/mqc.go uses for its byte-level MQ register refills — here
// applied to whole integers instead of single probability bits.
package varint

// EndPadding is appended after the encoded stream so a decoder may always
// read up to 4 trailing payload bytes past the true end of a final
// (possibly partial) group without a bounds check (spec §4.4: "fixed-size
// end padding to allow safe scalar fallback on decode").
const EndPadding = 4

// byteLen returns the number of bytes (1-4) needed to hold v.
func byteLen(v uint32) int {
	switch {
	case v < 1<<8:
		return 1
	case v < 1<<16:
		return 2
	case v < 1<<24:
		return 3
	default:
		return 4
	}
}

// Encode appends the group-varint encoding of vals to dst and returns the
// extended slice, including the trailing EndPadding zero bytes.
func Encode(dst []byte, vals []uint32) []byte {
	for i := 0; i < len(vals); i += 4 {
		group := vals[i:min(i+4, len(vals))]
		var ctrl byte
		for k, v := range group {
			ctrl |= byte(byteLen(v)-1) << (uint(k) * 2)
		}
		dst = append(dst, ctrl)
		for _, v := range group {
			n := byteLen(v)
			for b := 0; b < n; b++ {
				dst = append(dst, byte(v>>(uint(b)*8)))
			}
		}
	}
	dst = append(dst, make([]byte, EndPadding)...)
	return dst
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Decode reads exactly count values encoded by Encode from src, returning
// them and the number of bytes consumed (excluding the EndPadding). Every
// read is bounds-checked against src, so Decode does not depend on the
// padding being present: a src that ends before count values are complete
// yields ErrTruncated.
func Decode(src []byte, count int) ([]uint32, int, error) {
	out := make([]uint32, 0, count)
	pos := 0
	for len(out) < count {
		if pos >= len(src) {
			return nil, 0, ErrTruncated
		}
		ctrl := src[pos]
		pos++
		n := count - len(out)
		if n > 4 {
			n = 4
		}
		for k := 0; k < n; k++ {
			l := int((ctrl>>(uint(k)*2))&0x3) + 1
			if pos+l > len(src) {
				return nil, 0, ErrTruncated
			}
			var v uint32
			for b := 0; b < l; b++ {
				v |= uint32(src[pos+b]) << (uint(b) * 8)
			}
			pos += l
			out = append(out, v)
		}
	}
	return out, pos, nil
}
