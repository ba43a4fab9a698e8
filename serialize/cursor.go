// Package serialize implements the versioned binary container spec
// component C9 describes (§4.8): a one-byte version, a parameters block, a
// compression byte, and a per-channel, per-subband payload sequence. Two
// read dialects are supported (current, for version 3; legacy, for version
// 2); only the current dialect is ever written (spec §4.8: "Write only
// current").
//
// Grounded on jpeg2000/codestream/parser.go's offset-tracking byte cursor
// and its peek-before-branch Parse() loop: Parse here peeks the version
// byte the same way Parser.peekMarker peeks the next marker before
// committing to parseCurrent or parseLegacy.
package serialize

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncated is returned by any cursor read that runs past the end of
// the container.
var ErrTruncated = errors.New("serialize: truncated container")

// cursor is an offset-tracking reader over a container's raw bytes,
// mirroring codestream.Parser's data/offset pair.
type cursor struct {
	data   []byte
	offset int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) need(n int) error {
	if c.offset+n > len(c.data) {
		return ErrTruncated
	}
	return nil
}

func (c *cursor) readU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.offset]
	c.offset++
	return v, nil
}

func (c *cursor) peekU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	return c.data[c.offset], nil
}

func (c *cursor) readU64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.data[c.offset:])
	c.offset += 8
	return v, nil
}

func (c *cursor) readI32() (int32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := int32(binary.LittleEndian.Uint32(c.data[c.offset:]))
	c.offset += 4
	return v, nil
}

func (c *cursor) readF32() (float32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	bits := binary.LittleEndian.Uint32(c.data[c.offset:])
	c.offset += 4
	return math.Float32frombits(bits), nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.data[c.offset:c.offset+n])
	c.offset += n
	return out, nil
}

// readLenPrefixed reads a u64 byte-length followed by that many raw bytes
// (the "length-prefixed bytes" spec §4.8 calls for on the index/values
// blobs).
func (c *cursor) readLenPrefixed() ([]byte, error) {
	n, err := c.readU64()
	if err != nil {
		return nil, err
	}
	return c.readBytes(int(n))
}

// writer is the append-only little-endian counterpart used by Serialize.
type writer struct {
	buf []byte
}

func (w *writer) writeU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) writeU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) writeI32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) writeF32(v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) writeBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) writeLenPrefixed(b []byte) {
	w.writeU64(uint64(len(b)))
	w.writeBytes(b)
}
