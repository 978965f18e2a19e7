package pipeline

import (
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/livesense-inc/fanlin-go/internal/reqparams"
)

func TestResizeAndPadFitNeverEnlarges(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	q := reqparams.Query{HasWidth: true, Width: 50, HasHeight: true, Height: 50, Crop: false, RGB: color.RGBA{A: 255}}

	out := resizeAndPad(src, q)
	b := out.Bounds()
	if b.Dx() > 50 || b.Dy() > 50 {
		t.Errorf("fit-into enlarged the image: got %dx%d, want <= 50x50", b.Dx(), b.Dy())
	}
}

func TestResizeAndPadCropExact(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 40))
	q := reqparams.Query{HasWidth: true, Width: 60, HasHeight: true, Height: 60, Crop: true, RGB: color.RGBA{A: 255}}

	out := resizeAndPad(src, q)
	b := out.Bounds()
	if b.Dx() != 60 || b.Dy() != 60 {
		t.Errorf("crop must produce exact target dims, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestResizeAndPadPadsWithRequestColor(t *testing.T) {
	// A narrow source fit into a wider box leaves bars that must be
	// filled with the requested color, not left transparent/black.
	src := image.NewRGBA(image.Rect(0, 0, 10, 100))
	fillColor := color.RGBA{R: 200, G: 10, B: 10, A: 255}
	q := reqparams.Query{HasWidth: true, Width: 100, HasHeight: true, Height: 100, Crop: false, RGB: fillColor}

	out := resizeAndPad(src, q)
	b := out.Bounds()
	if b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("expected padded canvas 100x100, got %dx%d", b.Dx(), b.Dy())
	}
	corner := out.At(0, 0)
	r, g, bl, _ := corner.RGBA()
	if uint8(r>>8) != fillColor.R || uint8(g>>8) != fillColor.G || uint8(bl>>8) != fillColor.B {
		t.Errorf("corner pixel = %v, want fill color %v", corner, fillColor)
	}
}

func TestApplyOrientationRotate180(t *testing.T) {
	src := imaging.New(2, 1, color.RGBA{A: 255})
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 0, color.RGBA{B: 255, A: 255})

	out := applyOrientation(src, 3)
	r, _, _, _ := out.At(1, 0).RGBA()
	if uint8(r>>8) != 255 {
		t.Errorf("Rotate180 did not move the red pixel to the opposite corner")
	}
}

func TestPNGCompressionTierByQuality(t *testing.T) {
	cases := []struct {
		quality uint8
		want    png.CompressionLevel
	}{
		{10, png.BestCompression},
		{49, png.BestCompression},
		{50, png.DefaultCompression},
		{84, png.DefaultCompression},
		{85, png.BestSpeed},
		{100, png.BestSpeed},
	}
	for _, tc := range cases {
		if got := pngCompressionTier(tc.quality); got != tc.want {
			t.Errorf("pngCompressionTier(%d) = %v, want %v", tc.quality, got, tc.want)
		}
	}
}

func TestClampQuality(t *testing.T) {
	if clampQuality(0) != 1 {
		t.Errorf("clampQuality(0) should clamp to 1")
	}
	if clampQuality(255) != 100 {
		t.Errorf("clampQuality(255) should clamp to 100")
	}
	if clampQuality(75) != 75 {
		t.Errorf("clampQuality(75) should be unchanged")
	}
}
