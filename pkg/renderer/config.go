// Package renderer drives camera samples through the scene. The image is
// split into many sub-windows, each rendered by a Task on a bounded pool of
// workers, and the results are accumulated on the camera's film.
package renderer

import (
	"fmt"
	"math/bits"
	"runtime"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/shirou/gopsutil/v3/cpu"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Config contains configuration for a SamplerRenderer
type Config struct {
	Workers             int     // Number of parallel workers (0 = detect logical CPUs)
	TaskCount           int     // Number of sub-windows (0 = derived from workers and pixels)
	FirstPassIterations int     // Iterations per task before the checkpoint (0 = single pass)
	CheckpointPath      string  // Checkpoint file the final pass resumes from; empty keeps it in memory. Film sums are not saved.
	SplatScale          float64 // Scale applied to splatted contributions on write
	Seed                int64   // Keys the per-task generators
}

// DefaultConfig returns a single-pass render on every logical CPU
func DefaultConfig() Config {
	return Config{
		Workers:    0,
		SplatScale: 1,
	}
}

// DetectWorkers returns the number of logical CPUs
func DetectWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// workers resolves the configured worker count
func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return DetectWorkers()
}

// TaskCount returns the number of tasks for an image of pixels pixels: the
// smallest power of two no less than 32 tasks per worker and one task per
// 256 pixels
func TaskCount(workers, pixels int) int {
	n := max(32*max(1, workers), pixels/256, 1)
	return 1 << bits.Len(uint(n-1))
}
