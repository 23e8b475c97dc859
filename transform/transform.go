// Package transform - geometric operations over a surface: resize, crop,
// rotate and flip. Each operation replaces the surface's buffer in place and
// delegates the resampling itself to the imaging library, keeping this
// package a thin validation and dimension-math layer.
package transform

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/pixora-labs/go-imaging/surface"
)

// ErrUnsupportedOperation indicates a geometric request that degenerates to
// nothing, such as a crop rectangle with zero area.
var ErrUnsupportedOperation = errors.New("transform: unsupported operation")

// CropMode selects how crop coordinates are interpreted.
type CropMode string

const (
	// CropPercent interprets coordinates as 0-100 percentages of the
	// source dimensions.
	CropPercent CropMode = "percentage"
	// CropPixels interprets coordinates as absolute pixels.
	CropPixels CropMode = "pixels"
)

// FlipDirection selects the mirror axis.
type FlipDirection string

const (
	FlipHorizontal FlipDirection = "horizontal"
	FlipVertical   FlipDirection = "vertical"
	FlipBoth       FlipDirection = "both"
)

// Resize scales the surface to the target dimensions using Lanczos
// resampling.
//
// Arguments:
//   - s: The surface to mutate.
//   - width, height: Target dimensions. When exactly one is given (>0) and
//     keepAspect is set, the other is derived from the source aspect ratio.
//     When both are given and keepAspect is set, the image is fitted inside
//     the box without distortion.
//
// The final dimensions pass through the surface profile's safe-pixel clamp
// before allocation, so a hostile target can never exceed the ceiling.
func Resize(s *surface.Surface, width, height int, keepAspect bool) error {
	srcW, srcH := s.Width(), s.Height()
	if width <= 0 && height <= 0 {
		return errors.Wrap(ErrUnsupportedOperation, "resize requires a target width or height")
	}

	w, h := width, height
	switch {
	case w <= 0:
		w = int(math.Round(float64(h) * float64(srcW) / float64(srcH)))
	case h <= 0:
		h = int(math.Round(float64(w) * float64(srcH) / float64(srcW)))
	case keepAspect:
		// Fit inside the requested box.
		scale := math.Min(float64(w)/float64(srcW), float64(h)/float64(srcH))
		w = int(math.Round(float64(srcW) * scale))
		h = int(math.Round(float64(srcH) * scale))
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	if cw, ch, clamped := s.Profile().ClampPixels(w, h); clamped {
		w, h = cw, ch
	}

	s.Replace(imaging.Resize(s.NRGBA(), w, h, imaging.Lanczos))
	return nil
}

// CropRect is a crop request in either percentage or pixel coordinates.
type CropRect struct {
	X, Y          float64
	Width, Height float64
}

// Crop cuts the surface down to the requested rectangle. The computed source
// rectangle is clamped to the buffer bounds before sampling; a rectangle that
// clamps to zero area fails with ErrUnsupportedOperation.
func Crop(s *surface.Surface, rect CropRect, mode CropMode) error {
	srcW, srcH := s.Width(), s.Height()

	x, y, w, h := rect.X, rect.Y, rect.Width, rect.Height
	if w <= 0 || h <= 0 {
		return errors.Wrapf(ErrUnsupportedOperation, "crop rectangle %v has non-positive size", rect)
	}
	if mode == CropPercent {
		x = x / 100 * float64(srcW)
		y = y / 100 * float64(srcH)
		w = w / 100 * float64(srcW)
		h = h / 100 * float64(srcH)
	}

	r := image.Rect(int(x), int(y), int(x+w), int(y+h)).Intersect(image.Rect(0, 0, srcW, srcH))
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return errors.Wrapf(ErrUnsupportedOperation, "crop rectangle %v has no area inside %dx%d", rect, srcW, srcH)
	}

	s.Replace(imaging.Crop(s.NRGBA(), r))
	return nil
}

// RotatedBounds computes the bounding box of a w x h image rotated by the
// given angle, so no corners are clipped.
func RotatedBounds(w, h int, degrees float64) (int, int) {
	rad := degrees * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	outW := int(math.Round(float64(w)*cos + float64(h)*sin))
	outH := int(math.Round(float64(w)*sin + float64(h)*cos))
	return outW, outH
}

// Rotate turns the surface by an arbitrary angle in degrees, counterclockwise,
// about the buffer center. The output buffer grows to the rotated bounding box
// and uncovered corners are filled with the background color.
func Rotate(s *surface.Surface, degrees float64, background color.NRGBA) error {
	// Normalize so multiples of 360 stay an exact no-op.
	deg := math.Mod(degrees, 360)
	if deg == 0 {
		return nil
	}

	s.Replace(imaging.Rotate(s.NRGBA(), deg, background))
	return nil
}

// Flip mirrors the surface without changing its dimensions.
func Flip(s *surface.Surface, direction FlipDirection) error {
	switch direction {
	case FlipHorizontal:
		s.Replace(imaging.FlipH(s.NRGBA()))
	case FlipVertical:
		s.Replace(imaging.FlipV(s.NRGBA()))
	case FlipBoth:
		s.Replace(imaging.FlipV(imaging.FlipH(s.NRGBA())))
	default:
		return errors.Wrapf(ErrUnsupportedOperation, "unknown flip direction %q", direction)
	}
	return nil
}
