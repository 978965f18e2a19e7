// Package colorspace provides the CMYK/YCCK -> sRGB conversion service
// used by the raster pipeline for JPEGs that carry CMYK pixel data. It
// wraps github.com/mandykoh/prism's ICC transform machinery, which
// operates on exactly the CMYK_8 -> RGB_8 layouts this service needs.
package colorspace

import (
	"bytes"
	"fmt"

	"github.com/mandykoh/prism/icc"
	"github.com/mandykoh/prism/ycck"
)

// Transform converts a buffer of interleaved CMYK_8 pixels into
// interleaved RGB_8 pixels. Implementations must be safe for concurrent
// use by many requests at once (constructed cache-free).
type Transform interface {
	Convert(dst, src []byte, pixelCount int)
}

// iccTransform adapts an *icc.Transform (input CMYK_8, output RGB_8,
// perceptual intent, no internal cache) to the Transform interface.
type iccTransform struct {
	t *icc.Transform
}

func (x *iccTransform) Convert(dst, src []byte, pixelCount int) {
	x.t.Convert(dst, src, pixelCount)
}

// Manager owns an optional default ICC->sRGB transform, built once at
// startup, and can build on-the-fly transforms from embedded profiles
// found in individual JPEGs.
type Manager struct {
	defaultTransform Transform
}

// NewManager builds a Manager from an ICC profile blob. A nil/empty
// profile leaves the Manager without a default transform
// (Manager.Default returns nil, ok=false); embedded profiles can still
// be turned into transforms through FromEmbeddedProfile.
func NewManager(iccProfile []byte) (*Manager, error) {
	if len(iccProfile) == 0 {
		return &Manager{}, nil
	}
	profile, err := icc.NewProfileReader(bytes.NewReader(iccProfile)).ReadProfile()
	if err != nil {
		return nil, fmt.Errorf("colorspace: failed to parse default ICC profile: %w", err)
	}
	t, err := icc.NewTransform(profile, icc.PixelFormatCMYK8, icc.PixelFormatRGB8, icc.IntentPerceptual, false)
	if err != nil {
		return nil, fmt.Errorf("colorspace: failed to build default transform: %w", err)
	}
	return &Manager{defaultTransform: &iccTransform{t: t}}, nil
}

// Default returns the startup-configured transform, if any.
func (m *Manager) Default() (Transform, bool) {
	if m == nil || m.defaultTransform == nil {
		return nil, false
	}
	return m.defaultTransform, true
}

// Available reports whether color conversion is possible at all (either
// a default profile was loaded, or embedded profiles can be honored on a
// per-request basis — callers still need actual profile bytes for the
// latter).
func (m *Manager) Available() bool {
	return m != nil
}

// FromEmbeddedProfile builds a one-off transform from a JPEG's embedded
// ICC profile. On any parse/construction failure the caller should fall
// back to Default() rather than fail the request.
func (m *Manager) FromEmbeddedProfile(profileBytes []byte) (Transform, error) {
	profile, err := icc.NewProfileReader(bytes.NewReader(profileBytes)).ReadProfile()
	if err != nil {
		return nil, fmt.Errorf("colorspace: failed to parse embedded ICC profile: %w", err)
	}
	t, err := icc.NewTransform(profile, icc.PixelFormatCMYK8, icc.PixelFormatRGB8, icc.IntentPerceptual, false)
	if err != nil {
		return nil, fmt.Errorf("colorspace: failed to build embedded transform: %w", err)
	}
	return &iccTransform{t: t}, nil
}

// YCCKToCMYK performs the pre-step JPEG decoders need before CMYK
// conversion: YCCK-coded pixels arrive as (Y, Cb, Cr, K); this rewrites
// them in place to (C, M, Y, K) using
// (C,M,Y) = (Y·K/255, Cb·K/255, Cr·K/255), leaving K unchanged.
func YCCKToCMYK(pixels []byte) {
	ycck.ToCMYK(pixels)
}

