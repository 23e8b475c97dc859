// Package filter - the adjustment stage: ordered color/tone filters backed by
// the bild library, plus the pixel-level convolutions (sharpen, noise,
// vignette) that a compositing chain cannot express, applied directly to the
// raw buffer.
package filter

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/pixora-labs/go-imaging/surface"
)

// Options holds one filter chain request. The zero value of every adjustment
// field is the identity; percentage fields treat 100 as identity and are
// clamped to [0, 300] to prevent degenerate renders.
type Options struct {
	// Brightness percentage: 100 is identity, 300 is the cap. The zero
	// value means unset and leaves the channel untouched.
	Brightness int
	// Contrast percentage, same scale as Brightness.
	Contrast int
	// Saturation percentage, same scale as Brightness.
	Saturation int
	// Hue rotation in degrees.
	Hue int
	// Blur is the gaussian radius in pixels, clamped to [0, 50].
	Blur float64
	// Sepia, Grayscale and Invert are toggles.
	Sepia     bool
	Grayscale bool
	Invert    bool

	// Sharpen intensity 0-100, blending the kernelled result with the
	// original.
	Sharpen int
	// Noise intensity 0-100.
	Noise int
	// NoiseSeed seeds the noise generator; 0 seeds from the clock.
	NoiseSeed int64
	// Vignette intensity 0-100.
	Vignette int
}

// maxPercent caps the percentage adjustments.
const maxPercent = 300

// maxBlurRadius caps the gaussian blur radius in pixels.
const maxBlurRadius = 50

// Normalize clamps every field to its documented range.
func (o *Options) Normalize() {
	o.Brightness = clampInt(o.Brightness, 0, maxPercent)
	o.Contrast = clampInt(o.Contrast, 0, maxPercent)
	o.Saturation = clampInt(o.Saturation, 0, maxPercent)
	if o.Blur < 0 {
		o.Blur = 0
	}
	if o.Blur > maxBlurRadius {
		o.Blur = maxBlurRadius
	}
	o.Sharpen = clampInt(o.Sharpen, 0, 100)
	o.Noise = clampInt(o.Noise, 0, 100)
	o.Vignette = clampInt(o.Vignette, 0, 100)
}

// Apply runs the full filter chain on the surface in its documented order:
// tone adjustments, hue, blur, toggles, then the pixel convolutions.
func Apply(s *surface.Surface, opts Options) {
	opts.Normalize()

	var img image.Image = s.NRGBA()
	changed := false

	// Percentage adjustments map 100 -> 0 on bild's -1..n change scale.
	if opts.Brightness != 0 && opts.Brightness != 100 {
		img = adjust.Brightness(img, float64(opts.Brightness)/100-1)
		changed = true
	}
	if opts.Contrast != 0 && opts.Contrast != 100 {
		img = adjust.Contrast(img, float64(opts.Contrast)/100-1)
		changed = true
	}
	if opts.Saturation != 0 && opts.Saturation != 100 {
		img = adjust.Saturation(img, float64(opts.Saturation)/100-1)
		changed = true
	}
	if opts.Hue != 0 {
		img = adjust.Hue(img, opts.Hue)
		changed = true
	}
	if opts.Blur > 0 {
		img = blur.Gaussian(img, opts.Blur)
		changed = true
	}
	if opts.Sepia {
		img = effect.Sepia(img)
		changed = true
	}
	if opts.Grayscale {
		img = effect.Grayscale(img)
		changed = true
	}
	if opts.Invert {
		img = effect.Invert(img)
		changed = true
	}

	if changed {
		s.Replace(imaging.Clone(img))
	}

	if opts.Sharpen > 0 {
		Sharpen(s, opts.Sharpen)
	}
	if opts.Noise > 0 {
		Noise(s, opts.Noise, opts.NoiseSeed)
	}
	if opts.Vignette > 0 {
		Vignette(s, opts.Vignette)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
