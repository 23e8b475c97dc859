// Package watermark - overlays text or an external image onto a surface at
// one of six anchor positions. Watermarking is purely additive: it never
// changes the canvas dimensions.
//
// Text is rendered with the embedded Go Regular typeface at any point size,
// so the compositor has no runtime font-file dependency.
package watermark

import (
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/pixora-labs/go-imaging/surface"
)

// Position anchors the watermark on the canvas.
type Position string

const (
	PositionCenter      Position = "center"
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
	// PositionDiagonal rotates the text 45 degrees counterclockwise about
	// the canvas center.
	PositionDiagonal Position = "diagonal"
)

// margin keeps edge-anchored watermarks off the exact border.
const margin = 16

// shadowOffset is the drop shadow displacement in pixels.
const shadowOffset = 2

// TextOptions configures a text watermark.
type TextOptions struct {
	// Text is the string to draw. Required.
	Text string
	// Position anchors the text; defaults to PositionBottomRight.
	Position Position
	// Opacity in [0, 1]; 0 defaults to 0.5.
	Opacity float64
	// FontSize in points; 0 derives a size from the canvas width.
	FontSize float64
	// Color of the glyphs; the zero value defaults to white.
	Color color.NRGBA
	// NoShadow suppresses the drop shadow, which is on by default.
	NoShadow bool
}

// ImageOptions configures an image watermark.
type ImageOptions struct {
	// Mark is the overlay image. Required.
	Mark image.Image
	// Position anchors the overlay; defaults to PositionBottomRight.
	Position Position
	// Opacity in [0, 1]; 0 defaults to 0.5.
	Opacity float64
}

var (
	fontOnce sync.Once
	fontOTF  *opentype.Font
	fontErr  error
)

// regularFont parses the embedded typeface once per process.
func regularFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		fontOTF, fontErr = opentype.Parse(goregular.TTF)
	})
	return fontOTF, fontErr
}

// DrawText composites a text watermark onto the surface.
//
// Arguments:
//   - s: The surface to mutate.
//   - opts: Text, anchor, opacity, size and color. See TextOptions.
//
// Returns:
//   - error: When the text is empty or the typeface cannot be prepared.
func DrawText(s *surface.Surface, opts TextOptions) error {
	if opts.Text == "" {
		return errors.New("watermark: empty text")
	}
	opacity := opts.Opacity
	if opacity <= 0 {
		opacity = 0.5
	}
	if opacity > 1 {
		opacity = 1
	}
	size := opts.FontSize
	if size <= 0 {
		size = float64(s.Width()) / 20
		if size < 12 {
			size = 12
		}
	}
	col := opts.Color
	if col == (color.NRGBA{}) {
		col = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}

	layer, err := renderTextLayer(opts.Text, size, col, !opts.NoShadow)
	if err != nil {
		return err
	}

	if opts.Position == PositionDiagonal {
		layer = imaging.Rotate(layer, 45, color.NRGBA{})
	}

	pos := anchorPoint(s.Width(), s.Height(), layer.Bounds().Dx(), layer.Bounds().Dy(), opts.Position)
	s.Replace(imaging.Overlay(s.NRGBA(), layer, pos, opacity))
	return nil
}

// DrawImage composites an image watermark onto the surface.
func DrawImage(s *surface.Surface, opts ImageOptions) error {
	if opts.Mark == nil {
		return errors.New("watermark: nil watermark image")
	}
	opacity := opts.Opacity
	if opacity <= 0 {
		opacity = 0.5
	}
	if opacity > 1 {
		opacity = 1
	}

	mark := imaging.Clone(opts.Mark)
	if opts.Position == PositionDiagonal {
		mark = imaging.Rotate(mark, 45, color.NRGBA{})
	}

	pos := anchorPoint(s.Width(), s.Height(), mark.Bounds().Dx(), mark.Bounds().Dy(), opts.Position)
	s.Replace(imaging.Overlay(s.NRGBA(), mark, pos, opacity))
	return nil
}

// renderTextLayer draws the text (and optional drop shadow) onto a tightly
// sized transparent layer.
func renderTextLayer(text string, size float64, col color.NRGBA, shadow bool) (*image.NRGBA, error) {
	otf, err := regularFont()
	if err != nil {
		return nil, errors.Wrap(err, "watermark: parse typeface")
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "watermark: build face")
	}
	defer face.Close()

	d := &font.Drawer{Face: face}
	textW := d.MeasureString(text).Ceil()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	textH := metrics.Height.Ceil()

	layer := image.NewNRGBA(image.Rect(0, 0, textW+shadowOffset, textH+shadowOffset))
	d.Dst = layer

	if shadow {
		d.Src = image.NewUniform(color.NRGBA{A: 160})
		d.Dot = fixed.P(shadowOffset, ascent+shadowOffset)
		d.DrawString(text)
	}

	d.Src = image.NewUniform(col)
	d.Dot = fixed.P(0, ascent)
	d.DrawString(text)

	return layer, nil
}

// anchorPoint computes the top-left placement of a markW x markH layer on a
// w x h canvas for the given anchor. Diagonal centers the rotated layer.
func anchorPoint(w, h, markW, markH int, pos Position) image.Point {
	switch pos {
	case PositionTopLeft:
		return image.Pt(margin, margin)
	case PositionTopRight:
		return image.Pt(w-markW-margin, margin)
	case PositionBottomLeft:
		return image.Pt(margin, h-markH-margin)
	case PositionCenter, PositionDiagonal:
		return image.Pt((w-markW)/2, (h-markH)/2)
	default: // PositionBottomRight
		return image.Pt(w-markW-margin, h-markH-margin)
	}
}
