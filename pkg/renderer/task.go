package renderer

import (
	"context"
	"math"
	"time"

	"github.com/df07/go-grid-raytracer/pkg/camera"
	"github.com/df07/go-grid-raytracer/pkg/colorspace"
	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/integrator"
	"github.com/df07/go-grid-raytracer/pkg/sampler"
	"github.com/df07/go-grid-raytracer/pkg/scene"
)

// negativeLuminance is the luminance below which a sample counts as negative
const negativeLuminance = -1e-5

// TaskStats counts the work done by one task
type TaskStats struct {
	Iterations int
	Samples    int64
	Traced     int64 // Samples whose ray was traced (non-zero camera weight)
	NaN        int64
	Negative   int64
	Infinite   int64
	Rays       core.RayStats
	Elapsed    time.Duration
}

// Invalid returns the number of samples whose radiance was discarded
func (s TaskStats) Invalid() int64 {
	return s.NaN + s.Negative + s.Infinite
}

// Task renders one sub-window of the image. A task is run by one worker at a
// time; everything it mutates apart from the film is its own.
type Task struct {
	id, count  int
	scene      *scene.Scene
	camera     camera.Camera
	integrator integrator.SurfaceIntegrator
	sampler    sampler.Sampler // nil when the sub-window is empty
	logger     core.Logger

	rng      *core.RNG
	samples  []*sampler.Sample
	rays     []core.Ray
	radiance []core.Vec3
	hits     []core.HitRecord
	diffCoef float64

	stats TaskStats
}

// newTask creates task id of count. Task id renders sub-window count-1-id.
func newTask(id, count int, seed int64, s *scene.Scene, cam camera.Camera, integ integrator.SurfaceIntegrator,
	root sampler.Sampler, prototype *sampler.Sample, logger core.Logger) *Task {
	t := &Task{
		id:         id,
		count:      count,
		scene:      s,
		camera:     cam,
		integrator: integ,
		sampler:    root.GetSubSampler(count-1-id, count),
		logger:     logger,
		rng:        core.NewRNG(core.MixSeed(seed, int64(id))),
	}
	if t.sampler == nil {
		return t
	}

	n := t.sampler.MaximumSampleCount()
	t.samples = prototype.Duplicate(n)
	t.rays = make([]core.Ray, n)
	t.radiance = make([]core.Vec3, n)
	t.hits = make([]core.HitRecord, n)
	t.diffCoef = 1 / math.Sqrt(float64(t.sampler.SamplesPerPixel()))
	return t
}

// ID returns the task's index
func (t *Task) ID() int {
	return t.id
}

// Sampler returns the task's sampler, nil for an empty sub-window
func (t *Task) Sampler() sampler.Sampler {
	return t.sampler
}

// Stats returns the counters accumulated over every run of the task
func (t *Task) Stats() TaskStats {
	return t.stats
}

// Run draws batches of samples until the sampler is exhausted, maxIterations
// batches have been processed (-1 for no limit) or ctx is cancelled
func (t *Task) Run(ctx context.Context, maxIterations int) error {
	if t.sampler == nil {
		return nil
	}
	start := time.Now()
	defer func() { t.stats.Elapsed += time.Since(start) }()

	for iter := 0; maxIterations < 0 || iter < maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		count := t.sampler.GetMoreSamples(t.samples, t.rng)
		if count == 0 {
			break
		}
		t.stats.Iterations++

		for i := 0; i < count; i++ {
			t.radiance[i] = t.traceSample(t.samples[i], &t.rays[i], &t.hits[i])
		}

		if t.sampler.ReportResults(t.samples, t.rays, t.radiance, t.hits, count) {
			f := t.camera.Film()
			for i := 0; i < count; i++ {
				f.AddSample(&t.samples[i].CameraSample, t.radiance[i], &t.rays[i])
			}
		}
	}
	return nil
}

// traceSample generates the camera ray for sample and returns its radiance
func (t *Task) traceSample(sample *sampler.Sample, ray *core.Ray, hit *core.HitRecord) core.Vec3 {
	t.stats.Samples++
	weight, r := t.camera.GenerateRayDifferential(&sample.CameraSample)
	r.ScaleDifferentials(t.diffCoef)
	*ray = r
	*hit = core.HitRecord{}

	if weight <= 0 {
		return core.Vec3{}
	}
	t.stats.Traced++

	var l core.Vec3
	if t.scene.Intersect(ray, hit) {
		l = t.integrator.Li(t.scene, ray, hit, sample, t.rng)
	} else {
		l = t.scene.Emission(ray)
	}
	t.stats.Rays.Add(ray.Stats)
	return t.guard(l.Multiply(weight), sample)
}

// guard replaces radiance that would poison the film with black
func (t *Task) guard(l core.Vec3, sample *sampler.Sample) core.Vec3 {
	if l.HasNaN() {
		t.stats.NaN++
		t.logger.Printf("Task %d: not-a-number radiance at (%.2f, %.2f), setting to black\n", t.id, sample.ImageX, sample.ImageY)
		return core.Vec3{}
	}
	y := colorspace.Y(l)
	if y < negativeLuminance {
		t.stats.Negative++
		t.logger.Printf("Task %d: negative luminance %g at (%.2f, %.2f), setting to black\n", t.id, y, sample.ImageX, sample.ImageY)
		return core.Vec3{}
	}
	if math.IsInf(y, 1) {
		t.stats.Infinite++
		t.logger.Printf("Task %d: infinite luminance at (%.2f, %.2f), setting to black\n", t.id, sample.ImageX, sample.ImageY)
		return core.Vec3{}
	}
	return l
}
