package filter

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixora-labs/go-imaging/surface"
)

func solidSurface(w, h int, c color.NRGBA) *surface.Surface {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return surface.FromImage(img)
}

func TestNormalizeClampsRanges(t *testing.T) {
	o := Options{Brightness: 500, Contrast: -10, Blur: 99, Sharpen: 150, Noise: -1, Vignette: 101}
	o.Normalize()
	assert.Equal(t, 300, o.Brightness)
	assert.Equal(t, 0, o.Contrast)
	assert.Equal(t, float64(50), o.Blur)
	assert.Equal(t, 100, o.Sharpen)
	assert.Equal(t, 0, o.Noise)
	assert.Equal(t, 100, o.Vignette)
}

func TestApplyIdentity(t *testing.T) {
	s := solidSurface(16, 16, color.NRGBA{R: 120, G: 130, B: 140, A: 255})
	before := s.Checksum()
	Apply(s, Options{Brightness: 100, Contrast: 100, Saturation: 100})
	assert.Equal(t, before, s.Checksum(), "identity percentages must leave the buffer untouched")
}

func TestBrightnessDirection(t *testing.T) {
	dark := solidSurface(8, 8, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	Apply(dark, Options{Brightness: 200})
	assert.Greater(t, dark.Pix()[0], uint8(100), "brightness 200 must lighten the pixel")

	dim := solidSurface(8, 8, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	Apply(dim, Options{Brightness: 50})
	assert.Less(t, dim.Pix()[0], uint8(100), "brightness 50 must darken the pixel")
}

func TestGrayscaleEqualizesChannels(t *testing.T) {
	s := solidSurface(8, 8, color.NRGBA{R: 250, G: 20, B: 20, A: 255})
	Apply(s, Options{Grayscale: true})
	p := s.Pix()
	assert.Equal(t, p[0], p[1], "grayscale output has equal channels")
	assert.Equal(t, p[1], p[2], "grayscale output has equal channels")
}

func TestInvert(t *testing.T) {
	s := solidSurface(4, 4, color.NRGBA{R: 255, G: 0, B: 10, A: 255})
	Apply(s, Options{Invert: true})
	p := s.Pix()
	assert.Equal(t, uint8(0), p[0])
	assert.Equal(t, uint8(255), p[1])
}

func TestSharpenBorderNoOp(t *testing.T) {
	// Checkerboard interior with a known border row.
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	s := surface.FromImage(img)
	borderBefore := make([]byte, 8*4)
	copy(borderBefore, s.Pix()[:8*4])

	Sharpen(s, 100)

	assert.Equal(t, borderBefore, s.Pix()[:8*4], "the 1px border is a documented no-op")
}

func TestSharpenUniformIsIdentity(t *testing.T) {
	s := solidSurface(16, 16, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	before := s.Checksum()
	Sharpen(s, 100)
	assert.Equal(t, before, s.Checksum(), "the kernel sums to 1, so flat regions are unchanged")
}

func TestSharpenZeroIntensity(t *testing.T) {
	s := solidSurface(8, 8, color.NRGBA{R: 10, A: 255})
	before := s.Checksum()
	Sharpen(s, 0)
	assert.Equal(t, before, s.Checksum())
}

func TestNoiseDeterministicWithSeed(t *testing.T) {
	a := solidSurface(32, 32, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	b := solidSurface(32, 32, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	Noise(a, 40, 7)
	Noise(b, 40, 7)
	assert.Equal(t, a.Checksum(), b.Checksum(), "a fixed seed makes noise reproducible")

	c := solidSurface(32, 32, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	Noise(c, 40, 8)
	assert.NotEqual(t, a.Checksum(), c.Checksum(), "different seeds diverge")
}

func TestNoiseLeavesAlpha(t *testing.T) {
	s := solidSurface(16, 16, color.NRGBA{R: 128, G: 128, B: 128, A: 200})
	Noise(s, 80, 1)
	for off := 3; off < len(s.Pix()); off += 4 {
		assert.Equal(t, uint8(200), s.Pix()[off], "alpha must be untouched by noise")
	}
}

func TestVignetteDarkensCornersOnly(t *testing.T) {
	s := solidSurface(64, 64, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	Vignette(s, 80)

	pix := s.Pix()
	corner := pix[0]
	center := pix[32*s.Stride()+32*4]
	assert.Less(t, corner, center, "corners darken more than the center")
	assert.InDelta(t, 200, float64(center), 8, "the exact center is nearly untouched")
}

func BenchmarkSharpen(b *testing.B) {
	s := solidSurface(1024, 768, color.NRGBA{R: 128, G: 64, B: 32, A: 255})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sharpen(s, 60)
	}
}

func BenchmarkVignette(b *testing.B) {
	s := solidSurface(1024, 768, color.NRGBA{R: 128, G: 64, B: 32, A: 255})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Vignette(s, 50)
	}
}
