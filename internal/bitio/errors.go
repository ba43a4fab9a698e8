package bitio

import "errors"

// ErrEOF is returned when a read runs past the end of the bit stream.
var ErrEOF = errors.New("bitio: unexpected end of stream")
