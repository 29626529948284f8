package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/df07/go-grid-raytracer/pkg/camera"
	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/integrator"
	"github.com/df07/go-grid-raytracer/pkg/sampler"
	"github.com/df07/go-grid-raytracer/pkg/scene"
)

// SamplerRenderer renders a scene by splitting the sampler's window into
// independent tasks
type SamplerRenderer struct {
	config     Config
	scene      *scene.Scene
	camera     camera.Camera
	sampler    sampler.Sampler
	integrator integrator.SurfaceIntegrator
	logger     core.Logger

	tasks      []*Task
	checkpoint *Checkpoint
}

// NewSamplerRenderer creates a renderer; a nil logger discards diagnostics
func NewSamplerRenderer(s *scene.Scene, cam camera.Camera, smp sampler.Sampler, integ integrator.SurfaceIntegrator,
	config Config, logger core.Logger) *SamplerRenderer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &SamplerRenderer{
		config:     config,
		scene:      s,
		camera:     cam,
		sampler:    smp,
		integrator: integ,
		logger:     logger,
	}
}

// Tasks returns the tasks of the last render
func (r *SamplerRenderer) Tasks() []*Task {
	return r.tasks
}

// Checkpoint returns the checkpoint taken between the two passes of the last
// render, nil for a single-pass render
func (r *SamplerRenderer) Checkpoint() *Checkpoint {
	return r.checkpoint
}

// Render renders the image and writes it through the camera's film. A
// cancelled render returns ctx.Err() and writes nothing.
func (r *SamplerRenderer) Render(ctx context.Context) (RenderStats, error) {
	start := time.Now()

	if err := r.integrator.Preprocess(r.scene); err != nil {
		return RenderStats{}, fmt.Errorf("integrator preprocess failed: %w", err)
	}
	if g, ok := r.scene.Grid(); ok {
		gs := g.Stats()
		res := g.Resolution()
		r.logger.Printf("Grid %dx%dx%d: %d of %d voxels occupied, %.2f ± %.2f primitives per voxel (max %d)\n",
			res[0], res[1], res[2], gs.NonEmpty, gs.Voxels, gs.MeanOccupancy, gs.StdOccupancy, gs.MaxOccupancy)
	}

	// Integrators request their sample arrays once; every task copies the layout
	prototype := &sampler.Sample{}
	r.integrator.RequestSamples(r.sampler, prototype, r.scene)

	workers := r.config.workers()
	window := r.sampler.Window()
	count := r.config.TaskCount
	if count <= 0 {
		pixels := r.camera.Film().PixelExtent()
		count = TaskCount(workers, pixels.Dx()*pixels.Dy())
	}

	r.tasks = make([]*Task, count)
	for i := range r.tasks {
		r.tasks[i] = newTask(i, count, r.config.Seed, r.scene, r.camera, r.integrator, r.sampler, prototype, r.logger)
	}
	r.checkpoint = nil
	r.logger.Printf("Rendering %dx%d window with %d tasks on %d workers\n", window.Dx(), window.Dy(), count, workers)

	if r.config.FirstPassIterations > 0 {
		if err := r.runPass(ctx, "first", workers, r.config.FirstPassIterations); err != nil {
			return RenderStats{}, err
		}

		r.checkpoint = takeCheckpoint(r.tasks, window)
		if r.config.CheckpointPath != "" {
			// The final pass resumes from the persisted cursors
			if err := SaveCheckpoint(r.config.CheckpointPath, r.checkpoint); err != nil {
				return RenderStats{}, err
			}
			cp, err := LoadCheckpoint(r.config.CheckpointPath)
			if err != nil {
				return RenderStats{}, err
			}
			r.checkpoint = cp
			r.logger.Printf("Checkpoint written to %s\n", r.config.CheckpointPath)
		}
		if err := resume(r.tasks, window, r.checkpoint); err != nil {
			return RenderStats{}, err
		}
	}

	if err := r.runPass(ctx, "final", workers, -1); err != nil {
		return RenderStats{}, err
	}

	if err := r.camera.Film().WriteImage(r.config.SplatScale); err != nil {
		return RenderStats{}, fmt.Errorf("failed to write image: %w", err)
	}

	stats := summarize(r.tasks, time.Since(start))
	if stats.InvalidSamples > 0 {
		r.logger.Printf("Discarded %d invalid samples (%d NaN, %d negative, %d infinite)\n",
			stats.InvalidSamples, stats.NaN, stats.Negative, stats.Infinite)
	}
	return stats, nil
}

// runPass runs every task for at most maxIterations on the worker pool
func (r *SamplerRenderer) runPass(ctx context.Context, name string, workers, maxIterations int) error {
	passStart := time.Now()

	pool := NewWorkerPool(workers, len(r.tasks))
	pool.Start(ctx)
	for _, t := range r.tasks {
		pool.SubmitTask(t, maxIterations)
	}
	pool.Stop()

	var errs []error
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			errs = append(errs, result.Error)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s pass failed: %w", name, errors.Join(errs...))
	}

	r.logger.Printf("Completed %s pass in %v\n", name, time.Since(passStart))
	return nil
}
