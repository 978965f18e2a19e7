package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/srwiley/oksvg"
	"golang.org/x/text/encoding/unicode"

	"github.com/livesense-inc/fanlin-go/internal/apperr"
)

// processUnknown is the unknown-format path (§4.8): bytes that no
// registered raster decoder recognizes are probed as text, and, if
// valid, parsed as SVG. On success the original bytes are returned
// unmodified under image/svg+xml; any failure surfaces UnsupportedFormat.
func (p *Pipeline) processUnknown(data []byte) (Result, error) {
	text, err := decodeText(data)
	if err != nil {
		return Result{}, apperr.New(apperr.KindUnsupportedFormat, "not valid text", err)
	}

	if _, err := oksvg.ReadIconStream(strings.NewReader(text)); err != nil {
		return Result{}, apperr.New(apperr.KindUnsupportedFormat, "not parseable as SVG", err)
	}
	return Result{MimeType: "image/svg+xml", Bytes: data}, nil
}

// decodeText implements the three-way text probe: UTF-16LE (FF FE BOM),
// UTF-16BE (FE FF BOM), or plain UTF-8.
func decodeText(data []byte) (string, error) {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		out, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		if !utf8.Valid(data) {
			return "", apperr.New(apperr.KindUnsupportedFormat, "invalid utf-8", nil)
		}
		return string(data), nil
	}
}
