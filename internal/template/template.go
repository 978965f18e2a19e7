// Package template renders a small JSON scene graph (image and text
// nodes over a solid background) onto a canvas. It backs the optional,
// experimental `/cgi/render/:template` endpoint — outside the C1-C10
// core — and is only wired up when experimental.enable_template_render
// is set.
package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/gift"
	"github.com/fogleman/gg"
)

const (
	maxCanvasDimension = 2048
	defaultFontSize    = 24.0
)

// Node is one element of the scene graph: either a group (any other
// ClassName, rendered by recursing into Children), an Image, or a Text.
type Node struct {
	ClassName string `json:"className"`
	Attrs     Attrs  `json:"attrs"`
	Children  []Node `json:"children,omitempty"`
}

// Attrs carries every field any node kind might use; unused fields are
// simply ignored by that node's renderer.
type Attrs struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`

	FontSize float64 `json:"fontSize"`
	Text     string  `json:"text"`
	Fill     string  `json:"fill"`

	Path string `json:"path"`
}

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

func substituteVariables(tmpl string, variables map[string]string) string {
	return variablePattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := strings.Trim(match, "{} ")
		if val, ok := variables[key]; ok {
			return val
		}
		return match
	})
}

// Render substitutes {{var}} placeholders, parses the result as a Node
// tree rooted in a fixed-size canvas, draws it, and PNG-encodes the
// result. fontPath is the TrueType font used for Text nodes.
func Render(templateJSON string, variables map[string]string, fontPath string) ([]byte, error) {
	substituted := substituteVariables(templateJSON, variables)

	var root Node
	if err := json.Unmarshal([]byte(substituted), &root); err != nil {
		return nil, fmt.Errorf("template: parse JSON: %w", err)
	}

	width, height := root.Attrs.Width, root.Attrs.Height
	if width <= 0 || height <= 0 || width > maxCanvasDimension || height > maxCanvasDimension {
		return nil, fmt.Errorf("template: canvas size %dx%d out of range (1..%d)", width, height, maxCanvasDimension)
	}

	dc := gg.NewContext(width, height)
	fill := root.Attrs.Fill
	if fill == "" {
		fill = "#00000000"
	}
	dc.Push()
	dc.SetHexColor(fill)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()
	dc.Pop()

	if err := renderNode(dc, root, fontPath); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("template: encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func renderNode(dc *gg.Context, node Node, fontPath string) error {
	switch node.ClassName {
	case "Image":
		return renderImageNode(dc, &node.Attrs)
	case "Text":
		return renderTextNode(dc, &node.Attrs, fontPath)
	default:
		for _, child := range node.Children {
			if err := renderNode(dc, child, fontPath); err != nil {
				return err
			}
		}
		return nil
	}
}

// renderImageNode loads a local image and, when the node specifies a
// target box, resizes it to fit that box (never upscaling) before
// drawing it at (x, y).
func renderImageNode(dc *gg.Context, attrs *Attrs) error {
	if attrs.Path == "" {
		return nil
	}
	f, err := os.Open(filepath.Clean(attrs.Path))
	if err != nil {
		return fmt.Errorf("template: open image %s: %w", attrs.Path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("template: decode image %s: %w", attrs.Path, err)
	}

	if attrs.Width > 0 && attrs.Height > 0 {
		img = fitWithinBox(img, attrs.Width, attrs.Height)
	}

	dc.Push()
	dc.DrawImage(img, int(attrs.X), int(attrs.Y))
	dc.Pop()
	return nil
}

// fitWithinBox scales img down to fit inside w x h, preserving aspect
// ratio, using gift's Lanczos resampler; it never enlarges.
func fitWithinBox(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}
	filter := gift.New(gift.ResizeToFit(w, h, gift.LanczosResampling))
	dst := image.NewRGBA(filter.Bounds(b))
	filter.Draw(dst, img)
	return dst
}

func renderTextNode(dc *gg.Context, attrs *Attrs, fontPath string) error {
	fontSize := attrs.FontSize
	if fontSize == 0 {
		fontSize = defaultFontSize
	}
	fill := attrs.Fill
	if fill == "" {
		fill = "#000000"
	}

	dc.Push()
	defer dc.Pop()
	if fontPath != "" {
		if err := dc.LoadFontFace(fontPath, fontSize); err != nil {
			return fmt.Errorf("template: load font: %w", err)
		}
	}
	dc.SetHexColor(fill)
	dc.DrawStringAnchored(attrs.Text, attrs.X, attrs.Y, 0, 1.1)
	return nil
}
