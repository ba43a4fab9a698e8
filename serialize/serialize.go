package serialize

import "github.com/cocosip/wavebuffer/wavebuf"

// Parse decodes a container produced by Serialize (version 3) or by the
// legacy writer this library never itself produces (version 2). It peeks
// the version byte and dispatches to parseCurrent or parseLegacy, the same
// way codestream.Parser peeks the next marker before committing to a
// branch (spec §4.8's "Parser selection"). Any other version byte, or any
// truncated/malformed payload, returns ok=false (spec §7: DecodeError is
// "empty option on parse").
func Parse(blob []byte) (*wavebuf.WaveletBuffer, bool) {
	c := newCursor(blob)
	version, err := c.readU8()
	if err != nil {
		return nil, false
	}

	var buf *wavebuf.WaveletBuffer
	switch version {
	case CurrentVersion:
		buf, err = parseCurrent(c)
	case legacyVersion:
		buf, err = parseLegacy(c)
	default:
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	return buf, true
}
