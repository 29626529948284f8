package integrator

import (
	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/sampler"
	"github.com/df07/go-grid-raytracer/pkg/scene"
)

// Occlusion returns white for every hit, producing a coverage mask
type Occlusion struct{}

func (o *Occlusion) Preprocess(s *scene.Scene) error { return nil }

func (o *Occlusion) RequestSamples(smp sampler.Sampler, sample *sampler.Sample, s *scene.Scene) {}

// Li is constant one
func (o *Occlusion) Li(s *scene.Scene, ray *core.Ray, hit *core.HitRecord, sample *sampler.Sample, rng *core.RNG) core.Vec3 {
	return core.NewVec3(1, 1, 1)
}
