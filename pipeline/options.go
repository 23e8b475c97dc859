// Package pipeline - the orchestrator: decodes a source file, dispatches one
// typed operation through the processing stages, re-encodes the result, and
// runs the same flow across batches with partial-failure semantics.
package pipeline

import (
	"image"
	"image/color"
	"strconv"

	"github.com/pixora-labs/go-imaging/filter"
	"github.com/pixora-labs/go-imaging/removal"
	"github.com/pixora-labs/go-imaging/surface"
	"github.com/pixora-labs/go-imaging/transform"
	"github.com/pixora-labs/go-imaging/watermark"
)

// Kind names a processing operation.
type Kind string

const (
	KindResize           Kind = "resize"
	KindCrop             Kind = "crop"
	KindRotate           Kind = "rotate"
	KindFlip             Kind = "flip"
	KindConvert          Kind = "convertFormat"
	KindFilter           Kind = "applyFilters"
	KindWatermark        Kind = "addWatermark"
	KindRemoveBackground Kind = "removeBackground"
)

// Options is the tagged union over the per-operation option records. Exactly
// one concrete type exists per Kind; validation happens in the concrete
// record, not in stage code.
type Options interface {
	Kind() Kind
}

// Output configures the encode step shared by every operation.
type Output struct {
	// Format of the encoded result; FormatAuto (the zero value behaves
	// the same) picks PNG for buffers with alpha, JPEG otherwise.
	Format surface.Format
	// Quality in [1,100] for lossy formats; 0 uses the profile default.
	Quality int
	// BackgroundColor is the hex color flattened under transparent pixels
	// for formats without alpha. Empty means white.
	BackgroundColor string
}

// ResizeOptions scales the image.
type ResizeOptions struct {
	Width, Height int
	// KeepAspect fits the image inside the box, or derives the missing
	// dimension when only one is given.
	KeepAspect bool
	Output     Output
}

func (ResizeOptions) Kind() Kind { return KindResize }

// CropOptions cuts a sub-rectangle.
type CropOptions struct {
	Rect   transform.CropRect
	Mode   transform.CropMode
	Output Output
}

func (CropOptions) Kind() Kind { return KindCrop }

// RotateOptions turns the image by an arbitrary angle.
type RotateOptions struct {
	Degrees float64
	// BackgroundColor fills the uncovered corners; empty means white.
	BackgroundColor string
	Output          Output
}

func (RotateOptions) Kind() Kind { return KindRotate }

// FlipOptions mirrors the image.
type FlipOptions struct {
	Direction transform.FlipDirection
	Output    Output
}

func (FlipOptions) Kind() Kind { return KindFlip }

// ConvertOptions re-encodes without touching pixels.
type ConvertOptions struct {
	Output Output
}

func (ConvertOptions) Kind() Kind { return KindConvert }

// FilterOptions runs the adjustment chain.
type FilterOptions struct {
	Filters filter.Options
	Output  Output
}

func (FilterOptions) Kind() Kind { return KindFilter }

// WatermarkOptions overlays text and/or an image mark. At least one of Text
// and Mark must be set.
type WatermarkOptions struct {
	Text   string
	Mark   image.Image
	Anchor watermark.Position
	// Opacity in [0,1]; 0 defaults to 0.5.
	Opacity float64
	// FontSize in points for text marks; 0 derives from the canvas width.
	FontSize float64
	// Color is the hex glyph color; empty means white.
	Color  string
	Output Output
}

func (WatermarkOptions) Kind() Kind { return KindWatermark }

// RemoveBackgroundOptions runs the background removal engine. Output format
// is forced to PNG because the cutout needs an alpha channel.
type RemoveBackgroundOptions struct {
	Removal removal.Options
	Output  Output
}

func (RemoveBackgroundOptions) Kind() Kind { return KindRemoveBackground }

// ParseHexColor parses "#rrggbb", "rrggbb", "#rgb" or "rgb" into an opaque
// color. Unparseable input falls back to white, matching the flatten default.
func ParseHexColor(s string) color.NRGBA {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return white
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return white
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}
}
