package removal

import (
	"math"
	"sync"

	"github.com/pixora-labs/go-imaging/surface"
)

// rgb is a small value type for sampled colors.
type rgb struct {
	r, g, b float64
}

func (c rgb) distance(o rgb) float64 {
	dr, dg, db := c.r-o.r, c.g-o.g, c.b-o.b
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// pixelAt reads the RGB channels at (x, y).
func pixelAt(s *surface.Surface, x, y int) rgb {
	off := y*s.Stride() + x*4
	p := s.Pix()[off : off+3 : off+3]
	return rgb{float64(p[0]), float64(p[1]), float64(p[2])}
}

// borderSamplePoints returns the 12 fixed background-candidate locations:
// four corners, four side midpoints and four quarter-points along the top
// and bottom edges.
func borderSamplePoints(w, h int) [][2]int {
	return [][2]int{
		{0, 0}, {w - 1, 0}, {0, h - 1}, {w - 1, h - 1},
		{w / 2, 0}, {w / 2, h - 1}, {0, h / 2}, {w - 1, h / 2},
		{w / 4, 0}, {3 * w / 4, 0}, {w / 4, h - 1}, {3 * w / 4, h - 1},
	}
}

// dominantBorderColor picks the representative background color: sampled
// border colors are bucketed by quantizing each channel to the nearest 10,
// and the fullest bucket wins.
func dominantBorderColor(s *surface.Surface) rgb {
	type bucket struct {
		sum   rgb
		count int
	}
	buckets := make(map[[3]int]*bucket)

	var best *bucket
	for _, pt := range borderSamplePoints(s.Width(), s.Height()) {
		c := pixelAt(s, pt[0], pt[1])
		key := [3]int{
			int(math.Round(c.r/10)) * 10,
			int(math.Round(c.g/10)) * 10,
			int(math.Round(c.b/10)) * 10,
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum.r += c.r
		b.sum.g += c.g
		b.sum.b += c.b
		b.count++
		if best == nil || b.count > best.count {
			best = b
		}
	}

	n := float64(best.count)
	return rgb{best.sum.r / n, best.sum.g / n, best.sum.b / n}
}

// sobelEdges computes a per-pixel edge map: 255 where the Sobel gradient
// magnitude of the luminance exceeds the threshold, 0 elsewhere. The 1px
// border carries no gradient and stays 0.
//
// Rows are processed in chunks across goroutines; each chunk writes a
// disjoint slice of the map, so no synchronization beyond the WaitGroup is
// needed.
func sobelEdges(s *surface.Surface, threshold float64) []byte {
	w, h := s.Width(), s.Height()
	edges := make([]byte, w*h)

	// Luminance plane first, so the gradient loop reads bytes, not pixels.
	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lum[y*w+x] = s.Luminance(x, y)
		}
	}

	rowRange := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 1; x < w-1; x++ {
				i := y*w + x
				gx := -lum[i-w-1] + lum[i-w+1] +
					-2*lum[i-1] + 2*lum[i+1] +
					-lum[i+w-1] + lum[i+w+1]
				gy := -lum[i-w-1] - 2*lum[i-w] - lum[i-w+1] +
					lum[i+w-1] + 2*lum[i+w] + lum[i+w+1]
				if math.Sqrt(gx*gx+gy*gy) > threshold {
					edges[i] = 255
				}
			}
		}
	}

	interior := h - 2
	if interior < 64 {
		rowRange(1, h-1)
		return edges
	}

	chunk := chooseChunk(interior)
	var wg sync.WaitGroup
	for start := 1; start < h-1; start += chunk {
		end := start + chunk
		if end > h-1 {
			end = h - 1
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			rowRange(y0, y1)
		}(start, end)
	}
	wg.Wait()
	return edges
}

// smoothnessMask inverts the edge map: smooth pixels are background
// candidates.
func smoothnessMask(edges []byte) []byte {
	mask := make([]byte, len(edges))
	for i, v := range edges {
		if v == 0 {
			mask[i] = 255
		}
	}
	return mask
}

// colorDistanceMask marks pixels whose Euclidean RGB distance to the dominant
// background color is below the threshold.
func colorDistanceMask(s *surface.Surface, background rgb, threshold float64) []byte {
	w, h := s.Width(), s.Height()
	mask := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if pixelAt(s, x, y).distance(background) < threshold {
				mask[y*w+x] = 255
			}
		}
	}
	return mask
}

// centroidDistanceMask is colorDistanceMask against a cluster centroid.
func centroidDistanceMask(s *surface.Surface, centroid rgb, threshold float64) []byte {
	return colorDistanceMask(s, centroid, threshold)
}

// blendMasks combines the smoothness and color masks with the tuned weights,
// rounding to an 8-bit value per pixel. Smoothness is only background
// evidence where the color mask agrees: a smooth pixel far from the
// background color is a subject interior, and without the gate the 0.6
// smoothness weight alone would cross backgroundThreshold and hollow out
// the foreground.
func blendMasks(smooth, colors []byte) []byte {
	mask := make([]byte, len(smooth))
	for i := range mask {
		sm := float64(smooth[i])
		if colors[i] == 0 {
			sm = 0
		}
		v := edgeMaskWeight*sm + colorMaskWeight*float64(colors[i])
		mask[i] = uint8(math.Round(v))
	}
	return mask
}

// floodBackgroundMask builds the pure edge-detection mask: a breadth-first
// flood from every border pixel that expands through non-edge pixels within
// the color threshold of the dominant background. Pixels the flood reaches
// are background (255); everything enclosed by edges stays foreground.
func floodBackgroundMask(s *surface.Surface, edges []byte, background rgb, threshold float64) []byte {
	w, h := s.Width(), s.Height()
	mask := make([]byte, w*h)
	visited := make([]bool, w*h)

	admit := func(i, x, y int) bool {
		return !visited[i] && edges[i] == 0 && pixelAt(s, x, y).distance(background) < threshold
	}

	// Seed from the full border, not just the 12 sample points, so
	// disconnected background regions on any side are still reached.
	queue := make([][2]int, 0, 2*(w+h))
	push := func(x, y int) {
		i := y*w + x
		if admit(i, x, y) {
			visited[i] = true
			mask[i] = 255
			queue = append(queue, [2]int{x, y})
		}
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}

	for head := 0; head < len(queue); head++ {
		x, y := queue[head][0], queue[head][1]
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}
	return mask
}

// colorVariation estimates normalized color spread over a sparse sample grid:
// the mean distance of sampled pixels to their mean color, scaled into [0,1].
func colorVariation(s *surface.Surface) float64 {
	w, h := s.Width(), s.Height()

	var samples []rgb
	var mean rgb
	for y := 0; y < h; y += clusterSampleStep {
		for x := 0; x < w; x += clusterSampleStep {
			c := pixelAt(s, x, y)
			samples = append(samples, c)
			mean.r += c.r
			mean.g += c.g
			mean.b += c.b
		}
	}
	n := float64(len(samples))
	mean.r /= n
	mean.g /= n
	mean.b /= n

	var spread float64
	for _, c := range samples {
		spread += c.distance(mean)
	}
	// 128 is roughly half the per-channel range; distances above that are
	// saturated to "high variation".
	v := spread / n / 128
	if v > 1 {
		v = 1
	}
	return v
}

// chooseChunk picks a row chunk size that balances goroutine overhead and
// cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
