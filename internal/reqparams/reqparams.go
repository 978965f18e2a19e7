// Package reqparams parses and validates the per-request query knobs
// that drive the image pipeline (resize, crop, quality, blur,
// grayscale/invert, format hints).
package reqparams

import (
	"image/color"
	"strconv"
	"strings"
)

// Query is the parsed, immutable parameter record for one request.
type Query struct {
	Width, Height   uint32
	HasWidth        bool
	HasHeight       bool
	RGB             color.RGBA
	Quality         uint8
	Crop            bool
	Blur            uint8
	Grayscale       bool
	Inverse         bool
	AVIF            bool
	WebP            bool
}

const (
	defaultQuality = 75
	minWidth       = 20
	maxWidth       = 2000
	minHeight      = 20
	maxHeight      = 1000
	blurClampLow   = 10
	blurClampHigh  = 20
)

// defaultRGB is the pad color used when no "rgb" parameter is supplied
// or it fails to parse: (32, 32, 32).
var defaultRGB = color.RGBA{R: 32, G: 32, B: 32, A: 255}

// Getter abstracts over the source of query values (fiber's c.Query,
// url.Values, or a plain map) so Parse doesn't depend on any HTTP
// framework type.
type Getter func(key string) (string, bool)

// Parse builds a Query from a key lookup function, applying defaults for
// anything missing or malformed.
func Parse(get Getter) Query {
	q := Query{
		RGB:     defaultRGB,
		Quality: defaultQuality,
	}

	if w, ok := get("w"); ok {
		if v, err := strconv.ParseUint(w, 10, 32); err == nil {
			q.Width = uint32(v)
			q.HasWidth = true
		}
	}
	if h, ok := get("h"); ok {
		if v, err := strconv.ParseUint(h, 10, 32); err == nil {
			q.Height = uint32(v)
			q.HasHeight = true
		}
	}
	if rgb, ok := get("rgb"); ok {
		if parsed, ok := parseRGB(rgb); ok {
			q.RGB = parsed
		}
	}
	if quality, ok := get("quality"); ok {
		if v, err := strconv.ParseUint(quality, 10, 8); err == nil {
			q.Quality = uint8(v)
		}
	}
	q.Crop = parseBool(get, "crop")
	if blur, ok := get("blur"); ok {
		if v, err := strconv.ParseUint(blur, 10, 8); err == nil {
			q.Blur = clampBlur(uint8(v))
		}
	}
	q.Grayscale = parseBool(get, "grayscale")
	q.Inverse = parseBool(get, "inverse") && !q.Grayscale
	q.AVIF = parseBool(get, "avif")
	q.WebP = parseBool(get, "webp")

	return q
}

func parseBool(get Getter, key string) bool {
	v, ok := get(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// clampBlur clamps any non-zero blur sigma into [10,20], preserving the
// source behavior of silently clamping rather than rejecting.
func clampBlur(v uint8) uint8 {
	if v == 0 {
		return 0
	}
	if v < blurClampLow {
		return blurClampLow
	}
	if v > blurClampHigh {
		return blurClampHigh
	}
	return v
}

func parseRGB(s string) (color.RGBA, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, false
	}
	var vals [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, false
		}
		vals[i] = uint8(v)
	}
	return color.RGBA{R: vals[0], G: vals[1], B: vals[2], A: 255}, true
}

// UnsupportedScaleSize is true iff a present width/height falls outside
// its allowed range: w ∉ [20,2000] or h ∉ [20,1000].
func (q Query) UnsupportedScaleSize() bool {
	if q.HasWidth && (q.Width < minWidth || q.Width > maxWidth) {
		return true
	}
	if q.HasHeight && (q.Height < minHeight || q.Height > maxHeight) {
		return true
	}
	return false
}

// HasDimensions is true iff both width and height were supplied,
// triggering a resize.
func (q Query) HasDimensions() bool {
	return q.HasWidth && q.HasHeight
}

// AsIs is true iff the pipeline shortcut applies: no dimensions, no
// blur, no grayscale/inverse, and no output-format override requested.
func (q Query) AsIs() bool {
	return !q.HasDimensions() && q.Blur == 0 && !q.Grayscale && !q.Inverse && !q.AVIF && !q.WebP
}
