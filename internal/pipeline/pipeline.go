// Package pipeline is the image-processing state machine (C8): it
// decodes origin bytes, applies orientation/color/geometry/filter
// transforms driven by a reqparams.Query, and re-encodes into the
// negotiated output format. GIF and unrecognized/SVG inputs take their
// own dedicated paths instead of the general raster path.
package pipeline

import (
	"bytes"
	"fmt"
	"image"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/livesense-inc/fanlin-go/internal/apperr"
	"github.com/livesense-inc/fanlin-go/internal/colorspace"
	"github.com/livesense-inc/fanlin-go/internal/negotiate"
	"github.com/livesense-inc/fanlin-go/internal/reqparams"
)

// Result is the final encoded asset and the mime type it should be
// served under.
type Result struct {
	MimeType string
	Bytes    []byte
}

// Pipeline holds the shared, reusable services the state machine needs:
// the color manager is expensive to build and safe to share across
// concurrent requests.
type Pipeline struct {
	colors             *colorspace.Manager
	useEmbeddedProfile bool
}

// New constructs a Pipeline around a (possibly conversion-disabled)
// color manager.
func New(colors *colorspace.Manager, useEmbeddedProfile bool) *Pipeline {
	return &Pipeline{colors: colors, useEmbeddedProfile: useEmbeddedProfile}
}

var mimeByFormat = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
	"avif": "image/avif",
}

// sniff reports the registered image.Decode format name for data, and
// the mime type that corresponds to it. ok is false when no registered
// decoder recognizes the bytes (the unknown/SVG path then takes over).
func sniff(data []byte) (format, mime string, ok bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", "", false
	}
	mime, known := mimeByFormat[format]
	if !known {
		return format, "application/octet-stream", true
	}
	return format, mime, true
}

// Process runs the full pipeline state machine against origin bytes.
func (p *Pipeline) Process(data []byte, q reqparams.Query, accepted negotiate.Formats) (Result, error) {
	format, mime, recognized := sniff(data)

	if q.AsIs() {
		if recognized {
			return Result{MimeType: mime, Bytes: data}, nil
		}
		return p.processUnknown(data)
	}

	if !recognized {
		return p.processUnknown(data)
	}

	if format == "gif" {
		return p.processGIF(data, q)
	}
	return p.processRaster(data, format, q, accepted)
}

// chooseOutputFormat implements the format-choice rule (§4.8): AVIF
// wins if requested and accepted, then WebP, else the input format is
// kept unchanged.
func chooseOutputFormat(formatIn string, q reqparams.Query, accepted negotiate.Formats) string {
	if q.AVIF && accepted.Has(negotiate.AVIF) {
		return "avif"
	}
	if q.WebP && accepted.Has(negotiate.WebP) {
		return "webp"
	}
	return formatIn
}

func decodeErr(format string, err error) error {
	return apperr.New(apperr.KindDecodeError, fmt.Sprintf("decode %s", format), err)
}

func encodeErr(format string, err error) error {
	return apperr.New(apperr.KindEncodeError, fmt.Sprintf("encode %s", format), err)
}
