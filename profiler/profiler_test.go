package profiler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperationAggregates(t *testing.T) {
	p := New()
	p.RecordOperation("resize", 10*time.Millisecond)
	p.RecordOperation("resize", 30*time.Millisecond)
	p.RecordOperation("crop", 5*time.Millisecond)

	stats := p.Snapshot()
	require.Len(t, stats, 2)

	// Sorted by name: crop, resize.
	assert.Equal(t, "crop", stats[0].Name)
	assert.Equal(t, int64(1), stats[0].Count)

	resize := stats[1]
	assert.Equal(t, int64(2), resize.Count)
	assert.Equal(t, 40*time.Millisecond, resize.Total)
	assert.Equal(t, 10*time.Millisecond, resize.Min)
	assert.Equal(t, 30*time.Millisecond, resize.Max)
	assert.Equal(t, 20*time.Millisecond, resize.Avg)
}

func TestTrack(t *testing.T) {
	p := New()
	p.Track("op", func() { time.Sleep(time.Millisecond) })

	stats := p.Snapshot()
	require.Len(t, stats, 1)
	assert.GreaterOrEqual(t, stats[0].Min, time.Millisecond)
}

func TestConcurrentRecording(t *testing.T) {
	p := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.RecordOperation("op", time.Microsecond)
			}
		}()
	}
	wg.Wait()

	stats := p.Snapshot()
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1600), stats[0].Count)
}

func TestReset(t *testing.T) {
	p := New()
	p.RecordOperation("op", time.Second)
	p.Reset()
	assert.Empty(t, p.Snapshot())
}
