package integrator

import (
	"math"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/sampler"
	"github.com/df07/go-grid-raytracer/pkg/scene"
)

// shadowRayOffset keeps occlusion rays from re-hitting their own surface
const shadowRayOffset = 0.01

// AmbientOcclusion shades a hit by the fraction of cosine-distributed
// directions over its hemisphere that escape within MaxDistance
type AmbientOcclusion struct {
	Samples     int
	MaxDistance float64

	sampleIndex int // Index of the requested 2D array, -1 if none
}

// NewAmbientOcclusion creates the integrator; samples below one become one
// and a non-positive maxDistance means unbounded
func NewAmbientOcclusion(samples int, maxDistance float64) *AmbientOcclusion {
	if maxDistance <= 0 {
		maxDistance = math.Inf(1)
	}
	return &AmbientOcclusion{Samples: max(1, samples), MaxDistance: maxDistance, sampleIndex: -1}
}

func (ao *AmbientOcclusion) Preprocess(s *scene.Scene) error { return nil }

// RequestSamples asks for one 2D value per shadow ray, rounded to what the sampler prefers
func (ao *AmbientOcclusion) RequestSamples(smp sampler.Sampler, sample *sampler.Sample, s *scene.Scene) {
	ao.Samples = max(1, smp.RoundSize(ao.Samples))
	ao.sampleIndex = sample.Add2D(ao.Samples)
}

// Li returns the unoccluded fraction as a grey level
func (ao *AmbientOcclusion) Li(s *scene.Scene, ray *core.Ray, hit *core.HitRecord, sample *sampler.Sample, rng *core.RNG) core.Vec3 {
	// hit.Normal already faces the incoming ray
	normal := hit.Normal
	unoccluded := 0

	for i := 0; i < ao.Samples; i++ {
		var u core.Vec2
		if ao.sampleIndex >= 0 && sample != nil && ao.sampleIndex < len(sample.TwoD) {
			u = sample.Get2D(ao.sampleIndex, i)
		} else {
			u = rng.Vec2()
		}
		dir := core.SampleCosineHemisphere(normal, u)

		shadow := core.NewRaySegment(hit.Point, dir, shadowRayOffset, ao.MaxDistance)
		shadow.Time = ray.Time
		if !s.IntersectP(&shadow) {
			unoccluded++
		}
		ray.Stats.AddShadow(shadow.Stats)
	}

	v := float64(unoccluded) / float64(ao.Samples)
	return core.NewVec3(v, v, v)
}
