package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Source is one input file in a batch.
type Source struct {
	// Name identifies the item in results (typically the file name).
	Name string
	// Data is the raw bytes of the file.
	Data []byte
}

// ItemSuccess records one processed batch item.
type ItemSuccess struct {
	// Name echoes the source identifier.
	Name string
	// Image is the encoded result.
	Image *EncodedImage
}

// ItemFailure records one failed batch item.
type ItemFailure struct {
	// Name echoes the source identifier.
	Name string
	// Err is the original stage error; its message is what a UI surfaces.
	Err error
}

// BatchResult aggregates one batch run. Ownership transfers to the caller.
type BatchResult struct {
	Succeeded []ItemSuccess
	Failed    []ItemFailure
}

// BatchOptions configures a batch run.
type BatchOptions struct {
	// Workers bounds the worker pool. 0 or 1 processes strictly
	// sequentially, which keeps progress order deterministic; higher
	// values trade that for throughput. Each worker owns its buffers,
	// so no sharing occurs at any setting.
	Workers int
	// OnProgress, if set, is called after each item completes with the
	// percentage of items finished. The value is computed from a shared
	// completion counter, so it is monotone under any worker count.
	OnProgress func(percent float64)
}

// ProcessBatch applies one operation across the sources in order. A failing
// item is captured in Failed and the batch continues; the call itself never
// fails. A cancelled context marks the remaining items as failed with
// ErrCancelled instead of abandoning them silently.
func (p *Processor) ProcessBatch(ctx context.Context, sources []Source, opts Options, batch BatchOptions) *BatchResult {
	result := &BatchResult{}
	if len(sources) == 0 {
		return result
	}

	workers := batch.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(sources) {
		workers = len(sources)
	}

	type slot struct {
		success *ItemSuccess
		failure *ItemFailure
	}
	slots := make([]slot, len(sources))

	var completed int
	var mu sync.Mutex
	finish := func() {
		mu.Lock()
		completed++
		c := completed
		mu.Unlock()
		if batch.OnProgress != nil {
			batch.OnProgress(float64(c) / float64(len(sources)) * 100)
		}
	}

	work := make(chan int, len(sources))
	for i := range sources {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				src := sources[idx]
				img, err := p.Process(ctx, src.Data, opts)
				if err != nil {
					p.log.Warn().
						Str("item", src.Name).
						Err(err).
						Msg("batch item failed")
					slots[idx].failure = &ItemFailure{Name: src.Name, Err: err}
				} else {
					slots[idx].success = &ItemSuccess{Name: src.Name, Image: img}
				}
				finish()
			}
		}()
	}
	wg.Wait()

	// Rebuild the two lists in source order regardless of worker
	// interleaving.
	for _, s := range slots {
		if s.success != nil {
			result.Succeeded = append(result.Succeeded, *s.success)
		} else {
			result.Failed = append(result.Failed, *s.failure)
		}
	}

	p.log.Info().
		Int("total", len(sources)).
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Msg("batch complete")
	return result
}

// LoadDirectorySources reads every image file in a directory into batch
// sources, sorted by file name.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []Source: One source per recognized image file.
//   - error: Error if the directory or a file cannot be read.
func LoadDirectorySources(dir string) ([]Source, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var sources []Source
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(file.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp":
			data, readErr := os.ReadFile(filepath.Join(dir, file.Name()))
			if readErr != nil {
				return nil, readErr
			}
			sources = append(sources, Source{Name: file.Name(), Data: data})
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})
	return sources, nil
}
