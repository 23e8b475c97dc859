// Package removal - the background removal engine: a heuristic pipeline of
// border-color sampling, Sobel edge detection, color-distance masking,
// k-means clustering, flood fill and alpha feathering that cuts a foreground
// subject out of a uniform-ish background.
//
// Pipeline (hybrid algorithm):
//
// ┌──────────────────────────────┐
// │ Border sampling (12 points)  │
// └──────┬───────────────────────┘
// ┌──────────────────────────────┐
// │ Dominant background color    │
// └──────┬───────────────────────┘
// ┌──────────────┬───────────────┐
// │ Edge mask    │ Color mask    │
// └──────┬───────┴──────┬────────┘
// ┌──────────────────────────────┐
// │ Weighted blend (0.6 / 0.4)   │
// └──────┬───────────────────────┘
// ┌──────────────────────────────┐
// │ Alpha apply + feathering     │
// └──────┬───────────────────────┘
// ┌──────────────────────────────┐
// │ Alpha smoothing (optional)   │
// └──────────────────────────────┘
//
// The stages run strictly in order with no branching back; every buffer the
// pipeline allocates lives for exactly one call.
package removal

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/pixora-labs/go-imaging/surface"
)

// Algorithm selects the mask construction strategy.
type Algorithm string

const (
	// AlgorithmAuto inspects edge density and color variation and picks
	// one of the concrete algorithms.
	AlgorithmAuto Algorithm = "auto"
	// AlgorithmHybrid blends the edge smoothness mask with the
	// color-distance mask.
	AlgorithmHybrid Algorithm = "hybrid"
	// AlgorithmEdge flood-fills the background from the borders, stopping
	// at detected edges.
	AlgorithmEdge Algorithm = "edge-detection"
	// AlgorithmCluster builds the mask from k-means color clusters.
	AlgorithmCluster Algorithm = "k-means"
)

// Empirically tuned pipeline constants. These are deliberate magic numbers
// carried over intact; Sensitivity is the only user-facing knob.
const (
	// edgeFactor scales sensitivity into the Sobel magnitude threshold.
	edgeFactor = 2.5
	// colorFactor scales sensitivity into the background color distance.
	colorFactor = 3.0
	// colorFactorAdvanced is the wider distance used by the cluster path.
	colorFactorAdvanced = 3.5
	// edgeMaskWeight and colorMaskWeight blend the two masks.
	edgeMaskWeight  = 0.6
	colorMaskWeight = 0.4
	// backgroundThreshold splits the blended mask into background and
	// foreground.
	backgroundThreshold = 128
	// featherRadius is the search radius for edge-aware alpha grading.
	featherRadius = 10
	// detailBoost is the alpha gain applied to foreground pixels when
	// detail preservation is requested.
	detailBoost = 1.1
	// autoEdgeDensity and autoColorVariation drive algorithm selection.
	autoEdgeDensity    = 0.10
	autoColorVariation = 0.3
	// clusterSampleStep samples every Nth pixel for clustering.
	clusterSampleStep = 16
	// clusterIterations bounds the k-means refinement loop.
	clusterIterations = 10
)

// Options configures one removal call.
type Options struct {
	// Sensitivity tunes every threshold in the pipeline; clamped to
	// [1, 100], 0 defaults to 30.
	Sensitivity int
	// FeatherEdges grades alpha near the foreground boundary instead of
	// cutting hard.
	FeatherEdges bool
	// PreserveDetails boosts foreground alpha slightly to keep fine
	// structures from thinning out.
	PreserveDetails bool
	// Smoothing, when > 0, blurs the alpha channel with radius
	// ceil(Smoothing/20).
	Smoothing int
	// Algorithm selects the mask strategy; defaults to AlgorithmAuto.
	Algorithm Algorithm
}

func (o *Options) normalize() {
	if o.Sensitivity == 0 {
		o.Sensitivity = 30
	}
	if o.Sensitivity < 1 {
		o.Sensitivity = 1
	}
	if o.Sensitivity > 100 {
		o.Sensitivity = 100
	}
	if o.Smoothing < 0 {
		o.Smoothing = 0
	}
	if o.Algorithm == "" {
		o.Algorithm = AlgorithmAuto
	}
}

// Config configures an Engine.
type Config struct {
	// Logger receives debug events (selected algorithm, mask statistics).
	// The zero value logs nowhere.
	Logger zerolog.Logger
	// Seed fixes the k-means centroid initialization; 0 seeds from the
	// clock per call.
	Seed int64
}

// Engine runs background removal calls. Construct one with NewEngine and
// share it freely: an Engine holds only configuration, never per-call state,
// so it is safe for concurrent use.
type Engine struct {
	log  zerolog.Logger
	seed int64
}

// NewEngine returns an initialized engine handle. Callers hold the handle
// instead of relying on process-wide state.
func NewEngine(cfg Config) *Engine {
	return &Engine{log: cfg.Logger, seed: cfg.Seed}
}

// Remove cuts the background out of the surface by zeroing (or feathering)
// the alpha of background pixels in place. The caller is responsible for
// encoding the result as PNG, since the cutout is only meaningful in an
// alpha-capable format.
func (e *Engine) Remove(s *surface.Surface, opts Options) error {
	opts.normalize()

	w, h := s.Width(), s.Height()
	if w < 3 || h < 3 {
		return errors.New("removal: image too small for edge analysis")
	}

	dominant := dominantBorderColor(s)
	edges := sobelEdges(s, float64(opts.Sensitivity)*edgeFactor)

	algo := opts.Algorithm
	if algo == AlgorithmAuto {
		algo = e.selectAlgorithm(s, edges)
	}

	var mask []byte
	switch algo {
	case AlgorithmHybrid:
		smooth := smoothnessMask(edges)
		colors := colorDistanceMask(s, dominant, float64(opts.Sensitivity)*colorFactor)
		mask = blendMasks(smooth, colors)
	case AlgorithmEdge:
		mask = floodBackgroundMask(s, edges, dominant, float64(opts.Sensitivity)*colorFactor)
	case AlgorithmCluster:
		centroid, err := backgroundCluster(s, e.seed)
		if err != nil {
			return err
		}
		mask = centroidDistanceMask(s, centroid, float64(opts.Sensitivity)*colorFactorAdvanced)
	default:
		return errors.Errorf("removal: unknown algorithm %q", opts.Algorithm)
	}

	applyAlpha(s, mask, opts)
	if opts.Smoothing > 0 {
		smoothAlpha(s, opts.Smoothing)
	}

	e.log.Debug().
		Str("algorithm", string(algo)).
		Int("sensitivity", opts.Sensitivity).
		Int("width", w).
		Int("height", h).
		Msg("background removed")
	return nil
}

// selectAlgorithm implements the auto policy: hybrid for busy, colorful
// images; pure edge fill when only the edge signal is strong; clustering
// otherwise.
func (e *Engine) selectAlgorithm(s *surface.Surface, edges []byte) Algorithm {
	var edgeCount int
	for _, v := range edges {
		if v > 0 {
			edgeCount++
		}
	}
	density := float64(edgeCount) / float64(len(edges))
	variation := colorVariation(s)

	switch {
	case density > autoEdgeDensity && variation > autoColorVariation:
		return AlgorithmHybrid
	case density > autoEdgeDensity:
		return AlgorithmEdge
	default:
		return AlgorithmCluster
	}
}
