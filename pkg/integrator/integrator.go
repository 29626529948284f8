// Package integrator computes the radiance carried by camera rays that hit
// scene geometry.
package integrator

import (
	"fmt"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/sampler"
	"github.com/df07/go-grid-raytracer/pkg/scene"
)

// SurfaceIntegrator shades the nearest hit of a camera ray
type SurfaceIntegrator interface {
	// Preprocess runs once before rendering starts
	Preprocess(s *scene.Scene) error

	// RequestSamples adds the sample arrays Li needs to the prototype sample
	RequestSamples(smp sampler.Sampler, sample *sampler.Sample, s *scene.Scene)

	// Li returns the radiance leaving hit toward the ray origin. Shadow work
	// is folded into ray.Stats.
	Li(s *scene.Scene, ray *core.Ray, hit *core.HitRecord, sample *sampler.Sample, rng *core.RNG) core.Vec3
}

// Config holds the settings of every integrator; each reads its own fields
type Config struct {
	Type        string  // "ao" (default) or "occlusion"
	AOSamples   int     // Shadow rays per hit for ambient occlusion
	MaxDistance float64 // Occluder search distance, 0 means unbounded
}

// DefaultConfig returns single-sample ambient occlusion
func DefaultConfig() Config {
	return Config{Type: "ao", AOSamples: 1}
}

// New creates the integrator selected by config
func New(config Config) (SurfaceIntegrator, error) {
	switch config.Type {
	case "", "ao", "ambientocclusion":
		return NewAmbientOcclusion(config.AOSamples, config.MaxDistance), nil
	case "occlusion":
		return &Occlusion{}, nil
	default:
		return nil, fmt.Errorf("unknown integrator %q", config.Type)
	}
}
