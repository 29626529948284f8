package renderer

import (
	"time"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Tasks          int           // Total number of tasks
	EmptyTasks     int           // Tasks whose sub-window held no pixels
	TotalSamples   int64         // Total number of samples taken
	TracedSamples  int64         // Samples whose camera ray was traced
	InvalidSamples int64         // Samples discarded as NaN, negative or infinite
	NaN            int64         // Not-a-number radiance values
	Negative       int64         // Negative luminance values
	Infinite       int64         // Infinite luminance values
	MeanSamples    float64       // Average samples per non-empty task
	StdSamples     float64       // Standard deviation of samples per non-empty task
	MaxTaskSamples int64         // Most samples taken by a single task
	MaxTaskTime    time.Duration // Longest time spent in a single task
	Rays           core.RayStats // Acceleration work summed over all camera rays
	Elapsed        time.Duration
}

// CellVisitsPerRay returns the mean number of cell visits of a traced camera ray
func (s RenderStats) CellVisitsPerRay() float64 {
	if s.TracedSamples == 0 {
		return 0
	}
	return float64(s.Rays.CellVisits) / float64(s.TracedSamples)
}

// summarize folds the counters of every task into one RenderStats
func summarize(tasks []*Task, elapsed time.Duration) RenderStats {
	stats := RenderStats{Tasks: len(tasks), Elapsed: elapsed}

	var perTask []float64
	for _, t := range tasks {
		if t.Sampler() == nil {
			stats.EmptyTasks++
			continue
		}
		ts := t.Stats()
		stats.TotalSamples += ts.Samples
		stats.TracedSamples += ts.Traced
		stats.NaN += ts.NaN
		stats.Negative += ts.Negative
		stats.Infinite += ts.Infinite
		stats.Rays.Add(ts.Rays)
		stats.MaxTaskTime = max(stats.MaxTaskTime, ts.Elapsed)
		perTask = append(perTask, float64(ts.Samples))
	}
	stats.InvalidSamples = stats.NaN + stats.Negative + stats.Infinite

	switch len(perTask) {
	case 0:
	case 1:
		stats.MeanSamples = perTask[0]
	default:
		stats.MeanSamples, stats.StdSamples = stat.MeanStdDev(perTask, nil)
	}
	if len(perTask) > 0 {
		stats.MaxTaskSamples = int64(floats.Max(perTask))
	}
	return stats
}
