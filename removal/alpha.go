package removal

import (
	"math"

	"github.com/pixora-labs/go-imaging/surface"
)

// applyAlpha turns the mask into the surface's alpha channel. Background
// pixels (mask above the threshold) become fully transparent, or graded by
// distance to the nearest foreground pixel when feathering is on. Foreground
// alpha is left alone unless detail preservation boosts it.
func applyAlpha(s *surface.Surface, mask []byte, opts Options) {
	w, h := s.Width(), s.Height()
	pix := s.Pix()
	stride := s.Stride()

	var dist []int
	if opts.FeatherEdges {
		dist = foregroundDistance(mask, w, h)
	}

	for y := 0; y < h; y++ {
		row := y * stride
		for x := 0; x < w; x++ {
			i := y*w + x
			off := row + x*4 + 3
			if mask[i] > backgroundThreshold {
				if opts.FeatherEdges && dist[i] < featherRadius {
					// Soft edge: opaque right at the boundary,
					// fading to transparent over the radius.
					grade := 1 - float64(dist[i])/featherRadius
					pix[off] = uint8(math.Round(float64(pix[off]) * grade))
				} else {
					pix[off] = 0
				}
				continue
			}
			if opts.PreserveDetails {
				boosted := float64(pix[off]) * detailBoost
				if boosted > 255 {
					boosted = 255
				}
				pix[off] = uint8(boosted)
			}
		}
	}
}

// foregroundDistance is a multi-source breadth-first distance transform:
// every foreground pixel starts at 0 and the wave expands through the
// 4-neighborhood up to featherRadius. Background pixels farther than the
// radius keep a sentinel distance.
func foregroundDistance(mask []byte, w, h int) []int {
	const far = featherRadius + 1

	dist := make([]int, w*h)
	queue := make([]int, 0, w*h/4)
	for i := range dist {
		if mask[i] <= backgroundThreshold {
			queue = append(queue, i)
		} else {
			dist[i] = far
		}
	}

	for head := 0; head < len(queue); head++ {
		i := queue[head]
		d := dist[i] + 1
		if d > featherRadius {
			continue
		}
		x, y := i%w, i/w
		for _, n := range [4]int{i - 1, i + 1, i - w, i + w} {
			switch n {
			case i - 1:
				if x == 0 {
					continue
				}
			case i + 1:
				if x == w-1 {
					continue
				}
			case i - w:
				if y == 0 {
					continue
				}
			case i + w:
				if y == h-1 {
					continue
				}
			}
			if dist[n] > d {
				dist[n] = d
				queue = append(queue, n)
			}
		}
	}
	return dist
}

// smoothAlpha replaces each pixel's alpha with a distance-weighted average of
// neighboring alphas, approximating a gaussian blur restricted to the alpha
// channel. The radius derives from the smoothing amount: ceil(smoothing/20).
func smoothAlpha(s *surface.Surface, smoothing int) {
	radius := int(math.Ceil(float64(smoothing) / 20))
	if radius < 1 {
		return
	}

	w, h := s.Width(), s.Height()
	pix := s.Pix()
	stride := s.Stride()

	src := make([]byte, w*h)
	for y := 0; y < h; y++ {
		row := y * stride
		for x := 0; x < w; x++ {
			src[y*w+x] = pix[row+x*4+3]
		}
	}

	// Precompute the window weights once; exp in the pixel loop would
	// dominate the pass.
	size := 2*radius + 1
	weights := make([]float64, size*size)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d := math.Hypot(float64(dx), float64(dy))
			weights[(dy+radius)*size+(dx+radius)] = math.Exp(-d / float64(radius))
		}
	}

	for y := 0; y < h; y++ {
		row := y * stride
		for x := 0; x < w; x++ {
			var sum, total float64
			for dy := -radius; dy <= radius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					wgt := weights[(dy+radius)*size+(dx+radius)]
					sum += wgt * float64(src[ny*w+nx])
					total += wgt
				}
			}
			pix[row+x*4+3] = uint8(math.Round(sum / total))
		}
	}
}
