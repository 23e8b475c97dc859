package surface

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// testImage builds a solid-color image of the given size.
func testImage(w, h int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeFormats(t *testing.T) {
	src := testImage(64, 48, color.NRGBA{R: 200, G: 10, B: 10, A: 255})

	var jpegBuf, pngBuf, webpBuf, gifBuf, bmpBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, src, nil))
	require.NoError(t, png.Encode(&pngBuf, src))
	require.NoError(t, webp.Encode(&webpBuf, src, &webp.Options{Quality: 90}))
	require.NoError(t, gif.Encode(&gifBuf, src, nil))
	require.NoError(t, bmp.Encode(&bmpBuf, src))

	tests := []struct {
		name string
		data []byte
	}{
		{"JPEG", jpegBuf.Bytes()},
		{"PNG", pngBuf.Bytes()},
		{"WebP", webpBuf.Bytes()},
		{"GIF", gifBuf.Bytes()},
		{"BMP", bmpBuf.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decode(tt.data)
			require.NoError(t, err, "decode should succeed for valid %s", tt.name)
			assert.Equal(t, 64, s.Width(), "width should survive the decode")
			assert.Equal(t, 48, s.Height(), "height should survive the decode")
			assert.Equal(t, 64*48*4, len(s.Pix()), "buffer length invariant")
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrDecode, "garbage bytes should fail with ErrDecode")

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrDecode, "empty input should fail with ErrDecode")
}

func TestDecodeInputCeiling(t *testing.T) {
	big := make([]byte, MaxInputBytes+1)
	_, err := Decode(big)
	assert.ErrorIs(t, err, ErrSizeLimit, "oversized input should fail before decoding")
}

// TestRoundTripDimensions covers the decode(encode(decode(bytes))) identity
// for every supported format pair.
func TestRoundTripDimensions(t *testing.T) {
	src := encodePNG(t, testImage(120, 77, color.NRGBA{R: 30, G: 90, B: 160, A: 255}))
	first, err := Decode(src)
	require.NoError(t, err)

	for _, format := range []Format{FormatJPEG, FormatPNG, FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			data, written, err := first.Encode(format, 90)
			require.NoError(t, err)
			assert.Equal(t, format, written)

			second, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, first.Width(), second.Width(), "round trip must preserve width")
			assert.Equal(t, first.Height(), second.Height(), "round trip must preserve height")
		})
	}
}

func TestSafePixelClamp(t *testing.T) {
	// 3000x3000 = 9M px, well above the ceiling.
	s := FromImage(testImage(3000, 3000, color.NRGBA{R: 1, G: 2, B: 3, A: 255}))
	assert.LessOrEqual(t, s.Width()*s.Height(), MaxSafePixels,
		"working buffer must never exceed the safe-pixel ceiling")

	// Aspect ratio is preserved through the clamp.
	wide := FromImage(testImage(4000, 1000, color.NRGBA{A: 255}))
	ratio := float64(wide.Width()) / float64(wide.Height())
	assert.InDelta(t, 4.0, ratio, 0.01, "clamp must preserve aspect ratio")
}

func TestClampPixelsSideLimit(t *testing.T) {
	p := DesktopProfile()
	p.MaxPixels = 100_000_000 // disable the area clamp
	w, h, clamped := p.ClampPixels(9000, 100)
	assert.True(t, clamped)
	assert.LessOrEqual(t, w, MaxSide, "either side must respect the side clamp")
	assert.Greater(t, h, 0)
}

func TestMobileProfileLowersCeilings(t *testing.T) {
	desktop := DesktopProfile()
	mobile := MobileProfile()
	assert.Less(t, mobile.MaxPixels, desktop.MaxPixels)
	assert.Less(t, mobile.DefaultQuality, desktop.DefaultQuality)
}

func TestEncodeJPEGFlattensAlpha(t *testing.T) {
	// Fully transparent buffer: JPEG output should decode to the flatten
	// background (white), not black.
	s := FromImage(testImage(10, 10, color.NRGBA{R: 255, A: 0}))
	data, _, err := s.Encode(FormatJPEG, 95)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	p := out.Pix()
	assert.Greater(t, p[0], uint8(200), "transparent pixels must flatten to the background, not black")
}

func TestEncodeAutoFormat(t *testing.T) {
	opaque := FromImage(testImage(8, 8, color.NRGBA{R: 9, G: 9, B: 9, A: 255}))
	_, written, err := opaque.Encode(FormatAuto, 0)
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, written, "opaque buffers auto-select JPEG")

	transparent := FromImage(testImage(8, 8, color.NRGBA{R: 9, A: 128}))
	_, written, err = transparent.Encode(FormatAuto, 0)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, written, "buffers with alpha auto-select PNG")
}

// TestHasAlphaFindsSinglePixel guards the FormatAuto decision: even one
// transparent pixel must route the output to PNG, so the alpha scan cannot
// skip pixels.
func TestHasAlphaFindsSinglePixel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 33, 33))
	for y := 0; y < 33; y++ {
		for x := 0; x < 33; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 50, G: 50, B: 50, A: 255})
		}
	}
	img.SetNRGBA(17, 13, color.NRGBA{R: 50, G: 50, B: 50, A: 0})

	s := FromImage(img)
	assert.True(t, s.HasAlpha(), "a lone transparent pixel must be detected")

	_, written, err := s.Encode(FormatAuto, 0)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, written, "partial transparency must not flatten into JPEG")
}

func TestEncodeReleasedSurface(t *testing.T) {
	s := FromImage(testImage(4, 4, color.NRGBA{A: 255}))
	s.Release()
	_, _, err := s.Encode(FormatPNG, 0)
	assert.ErrorIs(t, err, ErrEncode, "a released surface cannot be encoded")
}

func TestChecksumIdempotency(t *testing.T) {
	a := FromImage(testImage(16, 16, color.NRGBA{R: 40, G: 50, B: 60, A: 255}))
	b := FromImage(testImage(16, 16, color.NRGBA{R: 40, G: 50, B: 60, A: 255}))
	assert.Equal(t, a.Checksum(), b.Checksum(), "identical buffers must hash identically")

	b.Pix()[0] ^= 0xff
	assert.NotEqual(t, a.Checksum(), b.Checksum(), "a mutated buffer must hash differently")

	a.Release()
	assert.Equal(t, "empty", a.Checksum())
}

func TestErrorsAreWrapped(t *testing.T) {
	_, err := Decode([]byte{0x00})
	require.Error(t, err)
	assert.Equal(t, ErrDecode, errors.Cause(err), "sentinels must survive wrapping")
}

func BenchmarkDecodeEncode(b *testing.B) {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, testImage(800, 600, color.NRGBA{R: 120, G: 140, B: 160, A: 255}), nil)
	data := buf.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := Decode(data)
		if err != nil {
			b.Fatal(err)
		}
		if _, _, err := s.Encode(FormatJPEG, 85); err != nil {
			b.Fatal(err)
		}
	}
}
