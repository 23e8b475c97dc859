package removal

import (
	"math/rand"
	"time"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/pixora-labs/go-imaging/surface"
)

// centroid is a k-means cluster center in RGB space. float32 is plenty of
// precision for 8-bit channels and halves the working set.
type centroid struct {
	r, g, b float32
	count   int
}

func (c centroid) distanceTo(r, g, b float32) float32 {
	dr, dg, db := c.r-r, c.g-g, c.b-b
	return math32.Sqrt(dr*dr + dg*dg + db*db)
}

// backgroundCluster samples the surface sparsely, clusters the samples with
// k-means and returns the centroid most likely to be the background.
//
// Cluster scoring follows the tuned heuristic: score = count * edgeAffinity
// where edgeAffinity = (brightness/255) * (1 - saturation/255). Large,
// bright, low-saturation clusters read as "background".
//
// Arguments:
//   - s: The surface to sample.
//   - seed: Fixes centroid initialization; 0 seeds from the clock.
//
// Returns:
//   - rgb: The winning centroid.
//   - error: When the surface yields too few samples to cluster.
func backgroundCluster(s *surface.Surface, seed int64) (rgb, error) {
	w, h := s.Width(), s.Height()

	var samples [][3]float32
	for y := 0; y < h; y += clusterSampleStep {
		for x := 0; x < w; x += clusterSampleStep {
			c := pixelAt(s, x, y)
			samples = append(samples, [3]float32{float32(c.r), float32(c.g), float32(c.b)})
		}
	}

	k := 4
	if colorVariation(s) > autoColorVariation {
		k = 5
	}
	if len(samples) < k {
		return rgb{}, errors.Errorf("removal: %d samples is too few for %d clusters", len(samples), k)
	}

	centroids := runKMeans(samples, k, seed)

	best := centroids[0]
	bestScore := float32(-1)
	for _, c := range centroids {
		score := float32(c.count) * edgeAffinity(c)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return rgb{float64(best.r), float64(best.g), float64(best.b)}, nil
}

// edgeAffinity scores how background-like a cluster color is: bright and
// desaturated colors score high.
func edgeAffinity(c centroid) float32 {
	maxC := math32.Max(c.r, math32.Max(c.g, c.b))
	minC := math32.Min(c.r, math32.Min(c.g, c.b))
	brightness := (c.r + c.g + c.b) / 3
	saturation := maxC - minC
	return (brightness / 255) * (1 - saturation/255)
}

// runKMeans refines k randomly initialized centroids over the samples for a
// fixed number of iterations. Empty clusters are reseeded from a random
// sample so k stays constant.
func runKMeans(samples [][3]float32, k int, seed int64) []centroid {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	centroids := make([]centroid, k)
	for i := range centroids {
		p := samples[rng.Intn(len(samples))]
		centroids[i] = centroid{r: p[0], g: p[1], b: p[2]}
	}

	assign := make([]int, len(samples))
	for iter := 0; iter < clusterIterations; iter++ {
		// Assignment step.
		for i, p := range samples {
			bestIdx, bestDist := 0, float32(math32.MaxFloat32)
			for j, c := range centroids {
				if d := c.distanceTo(p[0], p[1], p[2]); d < bestDist {
					bestDist = d
					bestIdx = j
				}
			}
			assign[i] = bestIdx
		}

		// Update step.
		sums := make([][3]float32, k)
		counts := make([]int, k)
		for i, p := range samples {
			j := assign[i]
			sums[j][0] += p[0]
			sums[j][1] += p[1]
			sums[j][2] += p[2]
			counts[j]++
		}
		for j := range centroids {
			if counts[j] == 0 {
				p := samples[rng.Intn(len(samples))]
				centroids[j] = centroid{r: p[0], g: p[1], b: p[2]}
				continue
			}
			n := float32(counts[j])
			centroids[j] = centroid{
				r:     sums[j][0] / n,
				g:     sums[j][1] / n,
				b:     sums[j][2] / n,
				count: counts[j],
			}
		}
	}
	return centroids
}
