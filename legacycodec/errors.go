package legacycodec

import "errors"

// ErrUnsupportedVersion is returned when the header's version field is
// anything other than 0, the only version this decoder understands.
var ErrUnsupportedVersion = errors.New("legacycodec: unsupported version")

// ErrBadPool is returned when a reconstructed code-length pool's
// progressive-refinement scan exhausts every transmitted rung without the
// accumulated value ever falling under a rung's threshold, or when a
// transmitted pool table names a rung past the end of its border family,
// indicating a corrupt or non-conformant stream.
var ErrBadPool = errors.New("legacycodec: malformed prefix pool")

// ErrExponentOutOfRange is returned when an exponent-jump prefix would push
// the running exponent outside [0, 255].
var ErrExponentOutOfRange = errors.New("legacycodec: exponent out of range")

// ErrIndexOutOfRange is returned when accumulated zero runs push the
// linear index past rows*cols.
var ErrIndexOutOfRange = errors.New("legacycodec: index out of range")
