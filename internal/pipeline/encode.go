package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const avifSpeed = 10

// encodeRaster dispatches to the per-format encoder chosen by
// chooseOutputFormat, applying the quality-dependent tuning §4.8 step 8
// describes for each codec.
func encodeRaster(img image.Image, format string, quality uint8) (encoded []byte, mime string, err error) {
	buf := new(bytes.Buffer)
	switch format {
	case "png":
		enc := png.Encoder{CompressionLevel: pngCompressionTier(quality)}
		err = enc.Encode(buf, img)
		mime = "image/png"
	case "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: int(clampQuality(quality))})
		mime = "image/jpeg"
	case "avif":
		err = avif.Encode(buf, img, avif.Options{Quality: int(clampQuality(quality)), Speed: avifSpeed})
		mime = "image/avif"
	case "webp":
		err = encodeWebP(buf, img, quality)
		mime = "image/webp"
	case "bmp":
		err = bmp.Encode(buf, img)
		mime = "image/bmp"
	case "tiff":
		err = tiff.Encode(buf, img, nil)
		mime = "image/tiff"
	default:
		err = png.Encode(buf, img)
		mime = "image/png"
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), mime, nil
}

// pngCompressionTier maps the request quality onto the three stdlib PNG
// compression levels: Best below 50, Default below 85, Fast above.
func pngCompressionTier(quality uint8) png.CompressionLevel {
	switch {
	case quality < 50:
		return png.BestCompression
	case quality < 85:
		return png.DefaultCompression
	default:
		return png.BestSpeed
	}
}

func clampQuality(q uint8) uint8 {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// encodeWebP re-materializes img as RGBA (per §4.8 step 8) and encodes
// it losslessly at quality 100, lossy otherwise.
func encodeWebP(buf *bytes.Buffer, img image.Image, quality uint8) error {
	rgba := imaging.Clone(img)
	q := clampQuality(quality)
	opts := &webp.Options{Lossless: q == 100, Quality: float32(q)}
	return webp.Encode(buf, rgba, opts)
}
