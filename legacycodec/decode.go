package legacycodec

import (
	"math"

	"github.com/cocosip/wavebuffer/internal/bitio"
	"github.com/cocosip/wavebuffer/shape"
)

// Header holds the decoded fixed-layout fields of a legacy payload, in the
// emission order sf_compressor.cc's Decompress reads them.
type Header struct {
	RowBased     bool
	Rows         int
	Cols         int
	SignUsed     int
	NonzeroCount int
	FragLen      int
}

// Decode parses a legacy sparse-float bitstream payload (spec §4.5) into a
// dense matrix. This is a read-only format: the library never emits it.
func Decode(blob []byte) (shape.Matrix, error) {
	r := bitio.NewReader(blob)

	version, err := r.ReadBits(2)
	if err != nil {
		return shape.Matrix{}, err
	}
	if version != 0 {
		return shape.Matrix{}, ErrUnsupportedVersion
	}

	rowBasedBit, err := r.ReadBit()
	if err != nil {
		return shape.Matrix{}, err
	}

	rowColCodeLen, err := readUniversal(r, 32)
	if err != nil {
		return shape.Matrix{}, err
	}
	if rowColCodeLen == 0 {
		return shape.NewMatrix(0, 0), nil
	}

	rowColDomain := pow2u32(int(rowColCodeLen))
	rowsU, err := readUniversal(r, rowColDomain)
	if err != nil {
		return shape.Matrix{}, err
	}
	colsU, err := readUniversal(r, rowColDomain)
	if err != nil {
		return shape.Matrix{}, err
	}
	rows, cols := int(rowsU), int(colsU)

	signUsed, err := readUniversal(r, 4)
	if err != nil {
		return shape.Matrix{}, err
	}
	hdr := Header{RowBased: rowBasedBit == 1, Rows: rows, Cols: cols, SignUsed: int(signUsed)}
	if signUsed == 0 {
		return shape.NewMatrix(rows, cols), nil
	}

	nonzeroCount, err := readUniversal(r, uint32(rows*cols)+1)
	if err != nil {
		return shape.Matrix{}, err
	}
	hdr.NonzeroCount = int(nonzeroCount)

	fragIdx, err := readUniversal(r, 16)
	if err != nil {
		return shape.Matrix{}, err
	}
	fragLen := int(fragIdx) + 7
	if fragIdx == 15 {
		fragLen = 23
	}
	hdr.FragLen = fragLen

	expInitLen, err := readUniversal(r, 8)
	if err != nil {
		return shape.Matrix{}, err
	}

	// A fully-occupied matrix (nonzero == rows*cols) can never satisfy
	// nonzeroCount < rows*cols+1 being false, since nonzeroCount is capped
	// at rows*cols by construction; sf_compressor.cc's own ZerosAppear
	// comparison is this same always-true expression, so the zero-run pool
	// is present for every payload this decoder will ever see. Kept as an
	// explicit comparison (rather than assumed true) to mirror the
	// reference exactly and to fail closed if that invariant is ever wrong.
	zerosAppear := nonzeroCount < uint32(rows*cols)+1
	var zeroInitLen uint32
	if zerosAppear {
		zeroInitLen, err = readUniversal(r, 32)
		if err != nil {
			return shape.Matrix{}, err
		}
	}

	expPool, err := reconstructPool(r, expInitLen, expJumpBorders)
	if err != nil {
		return shape.Matrix{}, err
	}
	var zeroPool codePool
	if zerosAppear {
		zeroPool, err = reconstructPool(r, zeroInitLen, zeroRunBorders)
		if err != nil {
			return shape.Matrix{}, err
		}
	}

	out := shape.NewMatrix(rows, cols)
	idx := -1
	lastExp := 127
	defaultSign := -1.0
	if signUsed == 1 {
		defaultSign = 1.0
	}

	for i := 0; i < hdr.NonzeroCount; i++ {
		if zerosAppear {
			zc, err := decodeViaPool(r, zeroPool)
			if err != nil {
				return shape.Matrix{}, err
			}
			idx += 1 + int(zc)
		} else {
			idx = i
		}

		jump, err := decodeViaPool(r, expPool)
		if err != nil {
			return shape.Matrix{}, err
		}
		lastExp = applyExpJump(lastExp, int(jump))
		if lastExp < 0 || lastExp > 255 {
			return shape.Matrix{}, ErrExponentOutOfRange
		}

		sign := defaultSign
		if signUsed == 3 {
			bit, err := r.ReadBit()
			if err != nil {
				return shape.Matrix{}, err
			}
			if bit == 1 {
				sign = -1.0
			} else {
				sign = 1.0
			}
		}

		mantissaBits, err := r.ReadBits(hdr.FragLen)
		if err != nil {
			return shape.Matrix{}, err
		}
		value := sign * (1.0 + math.Ldexp(float64(mantissaBits), -hdr.FragLen))
		if lastExp > 0 {
			value = math.Ldexp(value, lastExp-127)
		} else {
			value = 0
		}

		if idx < 0 || idx >= rows*cols {
			return shape.Matrix{}, ErrIndexOutOfRange
		}
		row, col := shape.RowCol(idx, cols)
		out.Set(row, col, float32(value))
	}

	return out, nil
}

// applyExpJump inverts sf_compressor.cc's bidirectional exponent-delta
// transform: jump was computed (on the write side, which this package
// never runs) from lastExp clamped against the distance to whichever
// boundary (0 or 255) lastExp is closer to, so recovering the next
// exponent means mirroring that same clamp.
func applyExpJump(lastExp, jump int) int {
	if lastExp < 128 {
		if jump <= 2*lastExp {
			if jump%2 == 0 {
				return jump/2 + lastExp
			}
			return lastExp - (jump+1)/2
		}
		return jump
	}
	maxJump := 255 - lastExp
	if jump <= 2*maxJump {
		if jump%2 == 0 {
			return jump/2 + lastExp
		}
		return lastExp - (jump+1)/2
	}
	return 255 - jump
}
