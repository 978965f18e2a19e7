package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"testing"

	"github.com/livesense-inc/fanlin-go/internal/reqparams"
)

func encodeTestGIF(t *testing.T, frameCount int) []byte {
	t.Helper()
	g := &gif.GIF{}
	for i := 0; i < frameCount; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 8, 8), palette.Plan9)
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				frame.Set(x, y, color.RGBA{R: uint8(i * 10), A: 255})
			}
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	buf := new(bytes.Buffer)
	if err := gif.EncodeAll(buf, g); err != nil {
		t.Fatalf("gif.EncodeAll: %v", err)
	}
	return buf.Bytes()
}

func TestProcessGIFPreservesFrameCountAndTiming(t *testing.T) {
	data := encodeTestGIF(t, 3)
	p := New(mustManager(t), false)

	q := reqparams.Query{HasWidth: true, Width: 4, HasHeight: true, Height: 4, RGB: color.RGBA{A: 255}}
	res, err := p.Process(data, q, 0)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.MimeType != "image/gif" {
		t.Fatalf("MimeType = %q, want image/gif", res.MimeType)
	}

	decoded, err := gif.DecodeAll(bytes.NewReader(res.Bytes))
	if err != nil {
		t.Fatalf("re-decoding processed GIF failed: %v", err)
	}
	if len(decoded.Image) != 3 {
		t.Errorf("frame count = %d, want 3", len(decoded.Image))
	}
	for i, d := range decoded.Delay {
		if d != 10 {
			t.Errorf("frame %d delay = %d, want 10 (timing must survive)", i, d)
		}
	}
}

func TestProcessGIFFrameNeverPanics(t *testing.T) {
	src := image.NewPaletted(image.Rect(0, 0, 4, 4), palette.Plan9)
	q := reqparams.Query{HasWidth: true, Width: 2, HasHeight: true, Height: 2, Crop: true, RGB: color.RGBA{A: 255}}

	out := processGIFFrame(src, q)
	if out == nil {
		t.Fatal("processGIFFrame returned nil")
	}
}

func TestPlaceholderFrameIsOnePixel(t *testing.T) {
	f := placeholderFrame()
	b := f.Bounds()
	if b.Dx() != 1 || b.Dy() != 1 {
		t.Errorf("placeholder frame dims = %dx%d, want 1x1", b.Dx(), b.Dy())
	}
}
