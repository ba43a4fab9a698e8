package varint

import "errors"

// ErrTruncated is returned when src runs out of bytes before count values
// have been decoded.
var ErrTruncated = errors.New("varint: truncated group-varint stream")
