package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/pixora-labs/go-imaging/filter"
	"github.com/pixora-labs/go-imaging/profiler"
	"github.com/pixora-labs/go-imaging/removal"
	"github.com/pixora-labs/go-imaging/surface"
	"github.com/pixora-labs/go-imaging/transform"
	"github.com/pixora-labs/go-imaging/watermark"
)

// ErrCancelled indicates the caller's context was done before the operation
// started any decode work.
var ErrCancelled = errors.New("pipeline: operation cancelled")

// Stage names the coarse phases of a single processing call, for progress
// hooks.
type Stage string

const (
	StageDecoding   Stage = "decoding"
	StageProcessing Stage = "processing"
	StageEncoding   Stage = "encoding"
)

// EncodedImage is the result of one processing call. Ownership transfers to
// the caller; the pipeline keeps no reference.
type EncodedImage struct {
	Data     []byte
	MIMEType string
	Format   surface.Format
	Width    int
	Height   int
}

// Processor dispatches typed operations through the processing stages. A
// Processor holds only configuration and is safe for concurrent use; every
// call allocates, mutates and releases its own buffer.
type Processor struct {
	profile surface.Profile
	log     zerolog.Logger
	engine  *removal.Engine
	prof    *profiler.Profiler
	onStage func(Stage)
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithProfile sets the resource profile (default: desktop).
func WithProfile(p surface.Profile) ProcessorOption {
	return func(pr *Processor) { pr.profile = p }
}

// WithLogger sets the structured logger (default: no logging).
func WithLogger(log zerolog.Logger) ProcessorOption {
	return func(pr *Processor) { pr.log = log }
}

// WithEngine sets the background removal engine (default: a fresh engine
// sharing the processor's logger).
func WithEngine(e *removal.Engine) ProcessorOption {
	return func(pr *Processor) { pr.engine = e }
}

// WithStageHook registers a callback fired as each phase of a call begins.
func WithStageHook(hook func(Stage)) ProcessorOption {
	return func(pr *Processor) { pr.onStage = hook }
}

// WithProfiler records per-kind operation timings into the given profiler.
func WithProfiler(prof *profiler.Profiler) ProcessorOption {
	return func(pr *Processor) { pr.prof = prof }
}

// New builds a Processor.
func New(opts ...ProcessorOption) *Processor {
	p := &Processor{
		profile: surface.DesktopProfile(),
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	if p.engine == nil {
		p.engine = removal.NewEngine(removal.Config{Logger: p.log})
	}
	return p
}

// Process decodes src, runs the operation described by opts, and returns the
// re-encoded result.
//
// Arguments:
//   - ctx: Checked before any decode work; an already-done context fails
//     with ErrCancelled.
//   - src: The raw bytes of the source file.
//   - opts: One of the typed option records; its concrete type selects the
//     operation.
//
// Returns:
//   - *EncodedImage: The encoded result with its final dimensions.
//   - error: ErrCancelled, or any stage error, propagated unwrapped so
//     errors.Is matching works against the stage sentinels.
func (p *Processor) Process(ctx context.Context, src []byte, opts Options) (*EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(ErrCancelled, err.Error())
	}
	if opts == nil {
		return nil, errors.New("pipeline: nil options")
	}
	if p.prof != nil {
		start := time.Now()
		defer func() { p.prof.RecordOperation(string(opts.Kind()), time.Since(start)) }()
	}

	p.stage(StageDecoding)
	s, err := surface.DecodeWithProfile(src, p.profile)
	if err != nil {
		return nil, err
	}
	// The buffer is released on every exit path to bound peak memory
	// across batch items.
	defer s.Release()

	p.stage(StageProcessing)
	output, err := p.dispatch(s, opts)
	if err != nil {
		return nil, err
	}

	p.stage(StageEncoding)
	data, format, err := s.EncodeOn(output.Format, output.Quality, ParseHexColor(output.BackgroundColor))
	if err != nil {
		return nil, err
	}

	return &EncodedImage{
		Data:     data,
		MIMEType: format.MIMEType(),
		Format:   format,
		Width:    s.Width(),
		Height:   s.Height(),
	}, nil
}

// dispatch mutates the surface per the concrete option record and returns
// the output settings to encode with.
func (p *Processor) dispatch(s *surface.Surface, opts Options) (Output, error) {
	switch o := opts.(type) {
	case ResizeOptions:
		return o.Output, transform.Resize(s, o.Width, o.Height, o.KeepAspect)
	case CropOptions:
		mode := o.Mode
		if mode == "" {
			mode = transform.CropPixels
		}
		return o.Output, transform.Crop(s, o.Rect, mode)
	case RotateOptions:
		return o.Output, transform.Rotate(s, o.Degrees, ParseHexColor(o.BackgroundColor))
	case FlipOptions:
		return o.Output, transform.Flip(s, o.Direction)
	case ConvertOptions:
		return o.Output, nil
	case FilterOptions:
		filter.Apply(s, o.Filters)
		return o.Output, nil
	case WatermarkOptions:
		return o.Output, p.applyWatermark(s, o)
	case RemoveBackgroundOptions:
		// The cutout is only meaningful with an alpha channel.
		out := o.Output
		out.Format = surface.FormatPNG
		return out, p.engine.Remove(s, o.Removal)
	default:
		return Output{}, errors.Errorf("pipeline: unknown operation type %T", opts)
	}
}

func (p *Processor) applyWatermark(s *surface.Surface, o WatermarkOptions) error {
	if o.Text == "" && o.Mark == nil {
		return errors.New("pipeline: watermark needs text or an image mark")
	}
	if o.Text != "" {
		err := watermark.DrawText(s, watermark.TextOptions{
			Text:     o.Text,
			Position: o.Anchor,
			Opacity:  o.Opacity,
			FontSize: o.FontSize,
			Color:    ParseHexColor(o.Color),
		})
		if err != nil {
			return err
		}
	}
	if o.Mark != nil {
		return watermark.DrawImage(s, watermark.ImageOptions{
			Mark:     o.Mark,
			Position: o.Anchor,
			Opacity:  o.Opacity,
		})
	}
	return nil
}

func (p *Processor) stage(s Stage) {
	if p.onStage != nil {
		p.onStage(s)
	}
}
