// Package sparse implements the archived (compressed) matrix representation
// spec §4.4 requires for non-zero subband data: row-major non-zero indexes
// delta- and group-varint-encoded (internal/varint), values packed one at a
// time as sign bit, 8-bit exponent and a mantissa rounded to a caller-chosen
// width (internal/bitio). No bit-plane, predictive or range coding is done:
// each value costs the same number of bits.
//
// Grounded on jpeg2000/quantization.go's step-size/precision table pattern
// for the idea of a precision knob driving a lossy coder, generalized here
// to the Daubechies subband matrices this module actually compresses.
package sparse

import (
	"errors"

	"github.com/cocosip/wavebuffer/internal/varint"
	"github.com/cocosip/wavebuffer/shape"
)

// ArchivedMatrix is the compressed, self-describing encoding of a matrix's
// non-zero entries. A zero-value ArchivedMatrix (Valid == false) represents
// "no archive" and must never be passed to Decode.
type ArchivedMatrix struct {
	Valid       bool
	Nonzero     uint
	Rows        uint
	Cols        uint
	IndexesBlob []byte
	ValuesBlob  []byte
}

// ErrEmptyMatrix is returned by Encode when m has no non-zero entries:
// archiving an all-zero matrix is never useful, and the caller should skip
// straight to an empty/absent subband representation instead.
var ErrEmptyMatrix = errors.New("sparse: matrix has no non-zero entries")

// ErrInvalidArchive is returned by Decode when a is the zero value or its
// dimensions are inconsistent.
var ErrInvalidArchive = errors.New("sparse: invalid archive")

// Encode compresses the non-zero entries of m at the given precision level
// (0 = lossless, 1..16 = increasingly lossy per fragLen's mapping, anything
// above 16 is clamped to 16, matching spec §9's documented quirk).
func Encode(m shape.Matrix, precision int) (ArchivedMatrix, error) {
	rows, cols := m.Rows, m.Cols
	indexes := make([]uint32, 0)
	values := make([]float32, 0)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			if v == 0 {
				continue
			}
			indexes = append(indexes, uint32(r*cols+c))
			values = append(values, v)
		}
	}
	if len(indexes) == 0 {
		return ArchivedMatrix{}, ErrEmptyMatrix
	}

	deltas := make([]uint32, len(indexes))
	prev := uint32(0)
	for i, idx := range indexes {
		deltas[i] = idx - prev
		prev = idx
	}

	indexesBlob := varint.Encode(nil, deltas)
	valuesBlob := encodeFloats(values, precision)

	return ArchivedMatrix{
		Valid:       true,
		Nonzero:     uint(len(indexes)),
		Rows:        uint(rows),
		Cols:        uint(cols),
		IndexesBlob: indexesBlob,
		ValuesBlob:  valuesBlob,
	}, nil
}

// Decode reconstructs the full dense matrix described by a.
func Decode(a ArchivedMatrix) (shape.Matrix, error) {
	if !a.Valid || a.Rows == 0 || a.Cols == 0 || a.Nonzero == 0 {
		return shape.Matrix{}, ErrInvalidArchive
	}
	rows, cols, n := int(a.Rows), int(a.Cols), int(a.Nonzero)

	deltas, _, err := varint.Decode(a.IndexesBlob, n)
	if err != nil {
		return shape.Matrix{}, err
	}
	values, err := decodeFloats(a.ValuesBlob, n)
	if err != nil {
		return shape.Matrix{}, err
	}

	out := shape.NewMatrix(rows, cols)
	idx := uint32(0)
	for i := 0; i < n; i++ {
		idx += deltas[i]
		if int(idx) >= rows*cols {
			return shape.Matrix{}, ErrInvalidArchive
		}
		out.Data[idx] = values[i]
	}
	return out, nil
}
