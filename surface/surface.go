// Package surface - provides the pixel buffer access layer for the processing
// pipeline. A Surface owns a mutable, non-premultiplied RGBA buffer obtained by
// decoding a compressed image, and can re-encode that buffer into JPEG, PNG or
// WebP output.
//
// Every processing stage in this module operates against a Surface rather than
// a display canvas, which keeps the pixel algorithms portable and testable.
//
// Pipeline position:
//
// ┌──────────────┐
// │ Input bytes  │
// └──────┬───────┘
// ┌──────────────────────────────────────────┐
// │ Decode (sniff format, size ceiling)      │
// └──────┬───────────────────────────────────┘
// ┌──────────────────────────────────────────┐
// │ Safe-pixel clamp (Lanczos downsample)    │
// └──────┬───────────────────────────────────┘
// ┌──────────────────────────────────────────┐
// │ Stages mutate the NRGBA buffer           │
// └──────┬───────────────────────────────────┘
// ┌──────────────────────────────────────────┐
// │ Encode (flatten for JPEG, quality clamp) │
// └──────────────────────────────────────────┘
package surface

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // register GIF decoding (static first frame)
	"image/jpeg"
	"image/png"
	"math"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // register BMP decoding
	_ "golang.org/x/image/webp" // register WebP decoding
)

// Sentinel errors for the access layer. Callers match with errors.Is.
var (
	// ErrDecode indicates the source bytes are not a supported raster format.
	ErrDecode = errors.New("surface: undecodable image data")
	// ErrEncode indicates the target buffer could not be finalized.
	ErrEncode = errors.New("surface: encode failed")
	// ErrSizeLimit indicates the source file exceeds the input ceiling.
	ErrSizeLimit = errors.New("surface: size limit exceeded")
)

// Format identifies an encoded image format.
type Format string

const (
	// FormatAuto selects PNG when the buffer carries meaningful alpha,
	// JPEG otherwise.
	FormatAuto Format = "auto"
	// FormatJPEG is the JPEG image format.
	FormatJPEG Format = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG Format = "png"
	// FormatWebP is the WebP image format.
	FormatWebP Format = "webp"
)

// MIMEType returns the MIME type string for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// ParseFormat normalizes a user-supplied format name. Unrecognized names fall
// back to FormatAuto.
func ParseFormat(name string) Format {
	switch name {
	case "jpeg", "jpg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "webp":
		return FormatWebP
	default:
		return FormatAuto
	}
}

// Surface owns a mutable RGBA pixel buffer for one processing call.
//
// Invariant: len(Pix()) == Width()*Height()*4, non-premultiplied alpha,
// row-major order. A Surface is never shared between concurrent operations;
// each call allocates, mutates and releases its own buffer.
type Surface struct {
	img     *image.NRGBA
	profile Profile
}

// Decode sniffs and decodes a compressed image into a Surface using the
// desktop profile. Supported input formats: JPEG, PNG, WebP, GIF (first
// frame) and BMP.
//
// Arguments:
//   - data: The raw bytes of the source file.
//
// Returns:
//   - *Surface: The decoded surface, already clamped to the safe-pixel ceiling.
//   - error: ErrSizeLimit when the file exceeds the input ceiling, ErrDecode
//     when the bytes cannot be decoded.
func Decode(data []byte) (*Surface, error) {
	return DecodeWithProfile(data, DesktopProfile())
}

// DecodeWithProfile decodes with an explicit device profile. Mobile-class
// profiles lower the pixel ceiling pre-emptively so the clustering and edge
// detection stages stay within memory bounds.
func DecodeWithProfile(data []byte, p Profile) (*Surface, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrDecode, "empty input")
	}
	if len(data) > p.MaxInputBytes {
		return nil, errors.Wrapf(ErrSizeLimit, "input is %d bytes, ceiling is %d", len(data), p.MaxInputBytes)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}

	return FromImageWithProfile(src, p), nil
}

// FromImage wraps an already-decoded image in a Surface using the desktop
// profile. The image is copied into a fresh NRGBA buffer.
func FromImage(src image.Image) *Surface {
	return FromImageWithProfile(src, DesktopProfile())
}

// FromImageWithProfile wraps an already-decoded image, applying the profile's
// safe-pixel clamp before the buffer is handed to any stage.
func FromImageWithProfile(src image.Image, p Profile) *Surface {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	if cw, ch, clamped := p.ClampPixels(w, h); clamped {
		// Lanczos3 keeps the working copy sharp enough for edge detection
		// to remain meaningful after the downsample.
		src = resize.Resize(uint(cw), uint(ch), src, resize.Lanczos3)
	}

	return &Surface{img: imaging.Clone(src), profile: p}
}

// Width returns the buffer width in pixels.
func (s *Surface) Width() int { return s.img.Bounds().Dx() }

// Height returns the buffer height in pixels.
func (s *Surface) Height() int { return s.img.Bounds().Dy() }

// Profile returns the device profile the surface was decoded under.
func (s *Surface) Profile() Profile { return s.profile }

// Pix exposes the raw RGBA byte slice for in-place pixel algorithms.
// The slice is w*h*4 bytes, row-major, non-premultiplied.
func (s *Surface) Pix() []byte { return s.img.Pix }

// Stride returns the row stride of the underlying buffer in bytes.
func (s *Surface) Stride() int { return s.img.Stride }

// NRGBA returns the underlying image for stages that delegate to bitmap
// library primitives. Mutations through the returned image are visible to
// the surface.
func (s *Surface) NRGBA() *image.NRGBA { return s.img }

// Replace swaps the underlying buffer, typically after a geometric stage
// produced a new image with different dimensions.
func (s *Surface) Replace(img *image.NRGBA) {
	s.img = img
}

// HasAlpha reports whether any pixel carries an alpha value below opaque.
// Every pixel is checked: FormatAuto turns the answer into a lossy JPEG
// flatten, so missing a small transparent region is not acceptable, and the
// scan is one linear pass over Pix.
func (s *Surface) HasAlpha() bool {
	w, h := s.Width(), s.Height()
	for y := 0; y < h; y++ {
		row := y * s.img.Stride
		for x := 0; x < w; x++ {
			if s.img.Pix[row+x*4+3] < 0xff {
				return true
			}
		}
	}
	return false
}

// Checksum generates a deterministic checksum of the pixel buffer to verify
// idempotency of processing calls.
//
// Returns:
//   - A hex-encoded MD5 checksum string, or "empty" for a released surface.
func (s *Surface) Checksum() string {
	if s.img == nil || len(s.img.Pix) == 0 {
		return "empty"
	}
	hash := md5.New()
	hash.Write(s.img.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}

// Release drops the pixel buffer so peak memory stays bounded between batch
// items. The surface must not be used after Release.
func (s *Surface) Release() {
	s.img = nil
}

// Encode compresses the buffer into the requested format.
//
// Arguments:
//   - format: Target format. FormatAuto picks PNG for buffers with alpha,
//     JPEG otherwise.
//   - quality: JPEG/WebP quality in [1,100]. Values outside the range are
//     clamped; 0 uses the profile default.
//
// Returns:
//   - []byte: The encoded image.
//   - Format: The concrete format that was written (resolves FormatAuto).
//   - error: ErrEncode when the buffer cannot be finalized.
//
// For JPEG output the buffer is first flattened onto an opaque background,
// since JPEG has no alpha channel and transparent pixels would otherwise
// come out black.
func (s *Surface) Encode(format Format, quality int) ([]byte, Format, error) {
	return s.EncodeOn(format, quality, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
}

// EncodeOn is Encode with an explicit flatten background color for formats
// without an alpha channel.
func (s *Surface) EncodeOn(format Format, quality int, background color.NRGBA) ([]byte, Format, error) {
	if s.img == nil || s.Width() <= 0 || s.Height() <= 0 {
		return nil, format, errors.Wrap(ErrEncode, "zero-area surface")
	}

	if quality <= 0 {
		quality = s.profile.DefaultQuality
	}
	if quality > 100 {
		quality = 100
	}

	if format == FormatAuto || format == "" {
		format = FormatJPEG
		if s.HasAlpha() {
			format = FormatPNG
		}
	}

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		flat := s.flatten(background)
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
			return nil, format, errors.Wrap(ErrEncode, err.Error())
		}
	case FormatPNG:
		if err := png.Encode(&buf, s.img); err != nil {
			return nil, format, errors.Wrap(ErrEncode, err.Error())
		}
	case FormatWebP:
		if err := webp.Encode(&buf, s.img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, format, errors.Wrap(ErrEncode, err.Error())
		}
	default:
		return nil, format, errors.Wrapf(ErrEncode, "unsupported output format %q", format)
	}

	return buf.Bytes(), format, nil
}

// flatten composites the buffer over an opaque background.
func (s *Surface) flatten(background color.NRGBA) *image.NRGBA {
	b := s.img.Bounds()
	flat := image.NewNRGBA(b)
	draw.Draw(flat, b, image.NewUniform(background), image.Point{}, draw.Src)
	draw.Draw(flat, b, s.img, b.Min, draw.Over)
	return flat
}

// Luminance returns the perceptual luminance of the pixel at (x, y) using the
// BT.601 weights. Shared by the edge detection and cluster scoring stages.
func (s *Surface) Luminance(x, y int) float64 {
	off := y*s.img.Stride + x*4
	p := s.img.Pix[off : off+3 : off+3]
	return 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
}

// scaleFor computes the uniform downscale factor that brings w*h under
// maxPixels. Returns 1.0 when no downscale is needed.
func scaleFor(w, h, maxPixels int) float64 {
	if w*h <= maxPixels {
		return 1.0
	}
	return math.Sqrt(float64(maxPixels) / float64(w*h))
}
