package pipeline

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/livesense-inc/fanlin-go/internal/colorspace"
	"github.com/livesense-inc/fanlin-go/internal/negotiate"
	"github.com/livesense-inc/fanlin-go/internal/reqparams"
)

// processRaster runs steps 1-8 of §4.8 against a JPEG/PNG/BMP/TIFF/…
// input.
func (p *Pipeline) processRaster(data []byte, format string, q reqparams.Query, accepted negotiate.Formats) (Result, error) {
	orientation := readOrientation(data)

	img, err := p.decodeRaster(data, format)
	if err != nil {
		return Result{}, decodeErr(format, err)
	}

	img = applyOrientation(img, orientation)

	if q.Grayscale {
		img = imaging.Grayscale(img)
	} else if q.Inverse {
		img = imaging.Invert(img)
	}

	img = resizeAndPad(img, q)

	if q.Blur > 0 {
		img = imaging.Blur(img, float64(q.Blur))
	}

	outFormat := chooseOutputFormat(format, q, accepted)
	encoded, mime, err := encodeRaster(img, outFormat, q.Quality)
	if err != nil {
		return Result{}, encodeErr(outFormat, err)
	}
	return Result{MimeType: mime, Bytes: encoded}, nil
}

// decodeRaster decodes raw bytes into an image.Image, probing for
// CMYK/YCCK JPEGs (§4.7/§4.8 step 2) before falling back to the
// registered generic decoder for every other raster format.
func (p *Pipeline) decodeRaster(data []byte, format string) (image.Image, error) {
	if format != "jpeg" || !p.colors.Available() {
		img, _, err := image.Decode(bytes.NewReader(data))
		return img, err
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	cmyk, ok := img.(*image.CMYK)
	if !ok {
		return img, nil
	}
	return p.colorConvertCMYK(cmyk, data)
}

// colorConvertCMYK feeds a decoded CMYK raster through the YCCK pre-step
// (when the source was Adobe-transform=2) and the color manager's
// CMYK_8 -> RGB_8 transform, preferring an embedded ICC profile when
// configured to do so.
func (p *Pipeline) colorConvertCMYK(cmyk *image.CMYK, rawJPEG []byte) (image.Image, error) {
	transform, haveTransform := p.colors.Default()
	if p.useEmbeddedProfile {
		if profileBytes, ok := extractICCProfile(rawJPEG); ok {
			if embedded, err := p.colors.FromEmbeddedProfile(profileBytes); err == nil {
				transform, haveTransform = embedded, true
			}
		}
	}
	if !haveTransform {
		// No conversion available: leave the CMYK raster as-is and let
		// the downstream encoder/renderer do what it can with it.
		return cmyk, nil
	}

	pixels := make([]byte, len(cmyk.Pix))
	copy(pixels, cmyk.Pix)
	if transformFlag, ok := adobeTransform(rawJPEG); ok && transformFlag == 2 {
		colorspace.YCCKToCMYK(pixels)
	}

	bounds := cmyk.Bounds()
	pixelCount := bounds.Dx() * bounds.Dy()
	rgb := make([]byte, pixelCount*3)
	transform.Convert(rgb, pixels, pixelCount)

	out := image.NewRGBA(bounds)
	for i := 0; i < pixelCount; i++ {
		out.Pix[i*4+0] = rgb[i*3+0]
		out.Pix[i*4+1] = rgb[i*3+1]
		out.Pix[i*4+2] = rgb[i*3+2]
		out.Pix[i*4+3] = 0xFF
	}
	return out, nil
}

// readOrientation reads the EXIF orientation tag, tolerating its
// absence (no EXIF segment, or no orientation tag within it).
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// applyOrientation maps the 8 EXIF orientation values onto the
// corresponding flip/rotate transform.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// resizeAndPad implements §4.8 steps 5-6: resize-to-fill or fit-into,
// then pad onto a canvas filled with the request's RGB color when the
// result is smaller than the requested dimensions on either axis.
func resizeAndPad(img image.Image, q reqparams.Query) image.Image {
	return resizeAndPadWithFilter(img, q, imaging.Lanczos)
}

func resizeAndPadWithFilter(img image.Image, q reqparams.Query, filter imaging.ResampleFilter) image.Image {
	if !q.HasDimensions() {
		return img
	}
	w, h := int(q.Width), int(q.Height)
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		if q.Crop {
			img = imaging.Fill(img, w, h, imaging.Center, filter)
		} else {
			img = imaging.Fit(img, w, h, filter)
		}
	}

	b = img.Bounds()
	if b.Dx() >= w && b.Dy() >= h {
		return img
	}
	canvas := imaging.New(w, h, q.RGB)
	offX := (w - b.Dx()) / 2
	offY := (h - b.Dy()) / 2
	return imaging.Paste(canvas, img, image.Pt(offX, offY))
}
