package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"

	"github.com/livesense-inc/fanlin-go/internal/reqparams"
)

// placeholderGray is the dark-gray shade substituted for a frame whose
// processing fails, per §4.8's GIF path.
const placeholderGray = 64

// processGIF decodes every frame with no size limit, transforms each
// one independently with Nearest-Neighbor filtering, and re-encodes the
// animation with image/gif's encoder and an infinite loop; no encoder
// speed setting is applied, as image/gif has none. A frame whose
// processing fails is replaced by a 1x1 dark-gray placeholder so the
// animation's frame count and timing survive.
func (p *Pipeline) processGIF(data []byte, q reqparams.Query) (Result, error) {
	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return Result{}, decodeErr("gif", err)
	}

	frames := make([]*image.Paletted, len(decoded.Image))
	for i, frame := range decoded.Image {
		frames[i] = processGIFFrame(frame, q)
	}

	out := &gif.GIF{
		Image:     frames,
		Delay:     decoded.Delay,
		Disposal:  decoded.Disposal,
		LoopCount: 0, // 0 means loop forever in image/gif
	}

	buf := new(bytes.Buffer)
	if err := gif.EncodeAll(buf, out); err != nil {
		return Result{}, encodeErr("gif", err)
	}
	return Result{MimeType: "image/gif", Bytes: buf.Bytes()}, nil
}

// processGIFFrame applies steps 4-6 (grayscale/invert, resize, pad) to a
// single frame with Nearest-Neighbor filtering, recovering to a
// placeholder if the transform panics on a malformed frame.
func processGIFFrame(src *image.Paletted, q reqparams.Query) (out *image.Paletted) {
	defer func() {
		if r := recover(); r != nil {
			out = placeholderFrame()
		}
	}()

	var img image.Image = src
	if q.Grayscale {
		img = imaging.Grayscale(img)
	} else if q.Inverse {
		img = imaging.Invert(img)
	}
	img = giftResizeAndPad(img, q)
	return quantizeFrame(img)
}

// giftResizeAndPad is resizeAndPad's GIF-path sibling: it uses gift's
// filter chains instead of imaging's, since gift composes a resize (and,
// for the crop case, a fill-then-center-crop) without allocating a full
// imaging pipeline per frame — worthwhile here since it runs once per
// animation frame rather than once per request.
func giftResizeAndPad(img image.Image, q reqparams.Query) image.Image {
	if !q.HasDimensions() {
		return img
	}
	w, h := int(q.Width), int(q.Height)
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		var filter *gift.GIFT
		if q.Crop {
			filter = gift.New(gift.ResizeToFill(w, h, gift.NearestNeighborResampling, gift.CenterAnchor))
		} else {
			filter = gift.New(gift.ResizeToFit(w, h, gift.NearestNeighborResampling))
		}
		dst := image.NewRGBA(filter.Bounds(b))
		filter.Draw(dst, img)
		img = dst
	}

	b = img.Bounds()
	if b.Dx() >= w && b.Dy() >= h {
		return img
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: q.RGB}, image.Point{}, draw.Src)
	offX := (w - b.Dx()) / 2
	offY := (h - b.Dy()) / 2
	draw.Draw(canvas, image.Rect(offX, offY, offX+b.Dx(), offY+b.Dy()), img, b.Min, draw.Src)
	return canvas
}

// quantizeFrame maps an RGBA frame back onto the fixed Plan 9 palette
// with Floyd-Steinberg dithering, since the GIF format requires indexed
// pixels.
func quantizeFrame(img image.Image) *image.Paletted {
	dst := image.NewPaletted(img.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(dst, img.Bounds(), img, image.Point{})
	return dst
}

func placeholderFrame() *image.Paletted {
	pal := color.Palette{color.RGBA{R: placeholderGray, G: placeholderGray, B: placeholderGray, A: 255}}
	frame := image.NewPaletted(image.Rect(0, 0, 1, 1), pal)
	frame.SetColorIndex(0, 0, 0)
	return frame
}
