// Package negotiate parses Accept headers into the bitset of extra
// output formats (currently WebP and AVIF) the client declared it can
// render.
package negotiate

import "strings"

// Formats is a bitset of client-accepted extra formats.
type Formats uint8

const (
	WebP Formats = 1 << iota
	AVIF
)

// Has reports whether a format bit is set.
func (f Formats) Has(bit Formats) bool {
	return f&bit != 0
}

var mimeBits = map[string]Formats{
	"image/webp": WebP,
	"image/avif": AVIF,
}

// Parse consumes every Accept header value (callers may have multiple
// Accept headers; pass each), splits each on ',', and sets the
// corresponding bit for every recognized mime token. Parameters like
// ";q=0.8" are ignored — presence in Accept is enough, matching the
// teacher's permissive header handling elsewhere in the pack.
func Parse(acceptHeaders ...string) Formats {
	var f Formats
	for _, header := range acceptHeaders {
		for _, tok := range strings.Split(header, ",") {
			mime := strings.TrimSpace(tok)
			if idx := strings.IndexByte(mime, ';'); idx >= 0 {
				mime = mime[:idx]
			}
			mime = strings.ToLower(strings.TrimSpace(mime))
			if bit, ok := mimeBits[mime]; ok {
				f |= bit
			}
		}
	}
	return f
}
