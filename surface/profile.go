package surface

// Size ceilings that are part of the processing contract. The input ceiling
// is applied uniformly to every call path; the pixel ceiling bounds worst-case
// memory and CPU in the clustering and edge-detection stages.
const (
	// MaxInputBytes is the authoritative input file ceiling (25MB).
	MaxInputBytes = 25 << 20
	// MaxSafePixels caps the working buffer area (~2.36M px, 1536x1536).
	MaxSafePixels = 1536 * 1536
	// MaxSide caps either buffer dimension.
	MaxSide = 4096
	// softMemoryBytes is the soft ceiling on estimated live pixel data.
	// Each working pixel costs ~8 bytes (decode copy + working copy).
	softMemoryBytes = 100 << 20
	// workingBytesPerPixel estimates live bytes per pixel during a call.
	workingBytesPerPixel = 8
)

// Profile bounds the resources one processing call may use. Mobile-class
// devices get lower ceilings pre-emptively instead of letting a call grow
// until the environment kills it.
type Profile struct {
	// MaxInputBytes rejects source files above this size outright.
	MaxInputBytes int
	// MaxPixels caps the working buffer area; larger decodes are
	// downsampled by sqrt(MaxPixels/(w*h)) before any stage runs.
	MaxPixels int
	// MaxSide caps either buffer dimension.
	MaxSide int
	// DefaultQuality is the encode quality used when the caller passes 0.
	DefaultQuality int
}

// DesktopProfile returns the default resource profile.
func DesktopProfile() Profile {
	return Profile{
		MaxInputBytes:  MaxInputBytes,
		MaxPixels:      MaxSafePixels,
		MaxSide:        MaxSide,
		DefaultQuality: 90,
	}
}

// MobileProfile returns a constrained profile for mobile-class devices:
// half the pixel ceiling and a lower default encode quality.
func MobileProfile() Profile {
	return Profile{
		MaxInputBytes:  MaxInputBytes,
		MaxPixels:      MaxSafePixels / 2,
		MaxSide:        2048,
		DefaultQuality: 80,
	}
}

// effectiveMaxPixels folds the soft memory ceiling into the profile's pixel
// ceiling so live image data stays near the 100MB estimate.
func (p Profile) effectiveMaxPixels() int {
	memCap := softMemoryBytes / workingBytesPerPixel
	if p.MaxPixels < memCap {
		return p.MaxPixels
	}
	return memCap
}

// ClampPixels computes clamped dimensions for a w x h image under the
// profile's ceilings, preserving aspect ratio.
//
// Returns:
//   - The clamped width and height.
//   - true when a downsample is required, false when (w, h) already fits.
func (p Profile) ClampPixels(w, h int) (int, int, bool) {
	if w <= 0 || h <= 0 {
		return w, h, false
	}

	maxPixels := p.effectiveMaxPixels()
	scale := scaleFor(w, h, maxPixels)

	// Side clamp applies on top of the area clamp.
	if s := float64(p.MaxSide) / float64(w); s < scale {
		scale = s
	}
	if s := float64(p.MaxSide) / float64(h); s < scale {
		scale = s
	}

	if scale >= 1.0 {
		return w, h, false
	}

	cw := int(float64(w) * scale)
	ch := int(float64(h) * scale)
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	return cw, ch, true
}
