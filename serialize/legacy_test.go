package serialize

import (
	"testing"

	"github.com/cocosip/wavebuffer/daubechies"
	"github.com/cocosip/wavebuffer/shape"
	"github.com/cocosip/wavebuffer/wavebuf"
)

// TestParseLegacyDense hand-builds a version-2, compression-0 container
// using the cereal-generic nested-vector framing (spec §4.8, grounded on
// wavelet_buffer_serializer.cc + cereal_blaze.h's DynamicMatrix): an outer
// signal_number size tag, a per-channel L size tag, then a rows/cols pair
// and row-major values per subband.
func TestParseLegacyDense(t *testing.T) {
	p, ok := wavebuf.NewWaveletParameters(shape.Shape{8}, 1, 1, daubechies.D2)
	if !ok {
		t.Fatal("NewWaveletParameters failed")
	}

	detail := []float32{1, -2, 3, -4}
	approx := []float32{5, 6, 7, 8}

	w := &writer{}
	w.writeU8(legacyVersion)
	writeParameters(w, p)
	w.writeU8(0) // compression

	w.writeU64(uint64(p.SignalNumber)) // outer signal_number size tag
	w.writeU64(uint64(p.L()))          // per-channel L size tag

	w.writeU64(1) // detail subband rows
	w.writeU64(4) // detail subband cols
	for _, v := range detail {
		w.writeF32(v)
	}
	w.writeU64(1) // approx subband rows
	w.writeU64(4) // approx subband cols
	for _, v := range approx {
		w.writeF32(v)
	}

	buf, ok := Parse(w.buf)
	if !ok {
		t.Fatal("Parse failed on hand-built legacy dense container")
	}
	if !buf.Parameters.Equal(p) {
		t.Fatalf("parameters mismatch: got %v, want %v", buf.Parameters, p)
	}
	got := buf.Decompositions[0]
	if len(got) != 2 {
		t.Fatalf("len(decomposition) = %d, want 2", len(got))
	}
	for i, want := range detail {
		if got[0].Data[i] != want {
			t.Errorf("detail[%d] = %v, want %v", i, got[0].Data[i], want)
		}
	}
	for i, want := range approx {
		if got[1].Data[i] != want {
			t.Errorf("approx[%d] = %v, want %v", i, got[1].Data[i], want)
		}
	}
}

func TestParseLegacyDenseTruncatedFails(t *testing.T) {
	p, _ := wavebuf.NewWaveletParameters(shape.Shape{8}, 1, 1, daubechies.D2)
	w := &writer{}
	w.writeU8(legacyVersion)
	writeParameters(w, p)
	w.writeU8(0)
	w.writeU64(uint64(p.SignalNumber))
	w.writeU64(uint64(p.L()))
	w.writeU64(1)
	w.writeU64(4)
	w.writeBytes([]byte{1, 2, 3}) // far too short for 4 f32 values

	if _, ok := Parse(w.buf); ok {
		t.Error("Parse should reject a truncated legacy dense subband")
	}
}

// TestParseLegacyCompressed hand-builds a version-2, compression!=0
// container: a flat signal_number*L sequence of length-prefixed
// legacycodec payloads, no per-channel wrapper. Each payload here is one
// of the reference-derived header-only vectors from
// legacycodec/decode_test.go (an all-zero 1x1 subband), pinning the
// framing independently of the pool-reconstruction machinery.
func TestParseLegacyCompressed(t *testing.T) {
	p, ok := wavebuf.NewWaveletParameters(shape.Shape{2}, 1, 1, daubechies.D1)
	if !ok {
		t.Fatal("NewWaveletParameters failed")
	}
	if p.L() != 2 {
		t.Fatalf("L() = %d, want 2", p.L())
	}

	allZero1x1 := []byte{0x21, 0xC0}

	w := &writer{}
	w.writeU8(legacyVersion)
	writeParameters(w, p)
	w.writeU8(5) // compression != 0

	for i := 0; i < int(p.SignalNumber)*p.L(); i++ {
		w.writeLenPrefixed(allZero1x1)
	}

	buf, ok := Parse(w.buf)
	if !ok {
		t.Fatal("Parse failed on hand-built legacy compressed container")
	}
	got := buf.Decompositions[0]
	if len(got) != p.L() {
		t.Fatalf("len(decomposition) = %d, want %d", len(got), p.L())
	}
	for i, sub := range got {
		want := shape.NewMatrix(1, 1)
		if !sub.Equal(want) {
			t.Errorf("subband[%d] = %+v, want all-zero 1x1", i, sub)
		}
	}
}

func TestParseLegacyCompressedTruncatedFails(t *testing.T) {
	p, _ := wavebuf.NewWaveletParameters(shape.Shape{2}, 1, 1, daubechies.D1)
	w := &writer{}
	w.writeU8(legacyVersion)
	writeParameters(w, p)
	w.writeU8(5)
	w.writeLenPrefixed([]byte{0x21, 0xC0})
	// missing the second subband payload entirely

	if _, ok := Parse(w.buf); ok {
		t.Error("Parse should reject a legacy compressed container missing subbands")
	}
}
