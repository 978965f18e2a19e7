package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/livesense-inc/fanlin-go/internal/colorspace"
	"github.com/livesense-inc/fanlin-go/internal/negotiate"
	"github.com/livesense-inc/fanlin-go/internal/reqparams"
)

func mustManager(t *testing.T) *colorspace.Manager {
	t.Helper()
	m, err := colorspace.NewManager(nil)
	if err != nil {
		t.Fatalf("NewManager(nil) failed: %v", err)
	}
	return m
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 10, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func noopQuery() reqparams.Query {
	return reqparams.Parse(func(string) (string, bool) { return "", false })
}

func TestProcessAsIsReturnsOriginalBytesForRecognizedFormat(t *testing.T) {
	data := encodePNG(t, 4, 4)
	p := New(mustManager(t), false)

	res, err := p.Process(data, noopQuery(), 0)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", res.MimeType)
	}
	if !bytes.Equal(res.Bytes, data) {
		t.Errorf("as-is path re-encoded bytes instead of passing them through")
	}
}

func TestProcessAsIsSVGPassthrough(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`)
	p := New(mustManager(t), false)

	res, err := p.Process(svg, noopQuery(), 0)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.MimeType != "image/svg+xml" {
		t.Errorf("MimeType = %q, want image/svg+xml", res.MimeType)
	}
	if !bytes.Equal(res.Bytes, svg) {
		t.Errorf("SVG path must return original bytes verbatim")
	}
}

func TestChooseOutputFormat(t *testing.T) {
	cases := []struct {
		name     string
		formatIn string
		q        reqparams.Query
		accepted negotiate.Formats
		want     string
	}{
		{"avif requested and accepted", "jpeg", reqparams.Query{AVIF: true}, negotiate.AVIF, "avif"},
		{"avif requested, not accepted", "jpeg", reqparams.Query{AVIF: true}, 0, "jpeg"},
		{"webp requested and accepted", "png", reqparams.Query{WebP: true}, negotiate.WebP, "webp"},
		{"avif wins over webp", "png", reqparams.Query{AVIF: true, WebP: true}, negotiate.AVIF | negotiate.WebP, "avif"},
		{"nothing requested keeps input", "bmp", reqparams.Query{}, negotiate.AVIF | negotiate.WebP, "bmp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := chooseOutputFormat(tc.formatIn, tc.q, tc.accepted)
			if got != tc.want {
				t.Errorf("chooseOutputFormat() = %q, want %q", got, tc.want)
			}
		})
	}
}
