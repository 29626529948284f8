package sampler

import (
	"fmt"
	"image"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

// RandomSampler hands out spp uniformly random samples per pixel, one per
// call, scanning its window row by row. Every pixel's samples and every
// sample's auxiliary values are drawn from streams keyed by the sampler seed
// and the pixel, so the output does not depend on how the image is split.
type RandomSampler struct {
	window       image.Rectangle
	spp          int
	shutterOpen  float64
	shutterClose float64
	seed         int64

	xPos, yPos   int
	samplePos    int
	imageSamples []float64 // 5*spp values: image offsets, lens, time
	pixelRNG     *core.RNG
}

// NewRandomSampler creates a sampler over window. spp below one is treated as one.
func NewRandomSampler(window image.Rectangle, spp int, shutterOpen, shutterClose float64, seed int64) *RandomSampler {
	spp = max(1, spp)
	return &RandomSampler{
		window:       window,
		spp:          spp,
		shutterOpen:  shutterOpen,
		shutterClose: shutterClose,
		seed:         seed,
		// Positioned just before the first pixel so the first call loads it
		xPos:         window.Min.X - 1,
		yPos:         window.Min.Y,
		samplePos:    spp,
		imageSamples: make([]float64, 5*spp),
		pixelRNG:     core.NewRNG(seed),
	}
}

func (s *RandomSampler) loadPixel() {
	s.pixelRNG.Seed(core.MixSeed(s.seed, int64(s.xPos), int64(s.yPos)))
	for i := range s.imageSamples {
		s.imageSamples[i] = s.pixelRNG.Float64()
	}
	// Shift image samples to pixel coordinates
	for o := 0; o < 2*s.spp; o += 2 {
		s.imageSamples[o] += float64(s.xPos)
		s.imageSamples[o+1] += float64(s.yPos)
	}
	s.samplePos = 0
}

// GetMoreSamples fills samples[0] with the next sample and reseeds rng for it
func (s *RandomSampler) GetMoreSamples(samples []*Sample, rng *core.RNG) int {
	if s.window.Empty() {
		return 0
	}
	if s.samplePos == s.spp {
		if s.yPos >= s.window.Max.Y {
			return 0
		}
		s.xPos++
		if s.xPos == s.window.Max.X {
			s.xPos = s.window.Min.X
			s.yPos++
		}
		if s.yPos >= s.window.Max.Y {
			return 0
		}
		s.loadPixel()
	}

	k := s.samplePos
	sample := samples[0]
	sample.ImageX = s.imageSamples[2*k]
	sample.ImageY = s.imageSamples[2*k+1]
	sample.LensU = s.imageSamples[2*s.spp+2*k]
	sample.LensV = s.imageSamples[2*s.spp+2*k+1]
	sample.Time = core.Lerp(s.imageSamples[4*s.spp+k], s.shutterOpen, s.shutterClose)

	// Everything drawn for this sample, here or by the integrator, comes
	// from a stream owned by the sample
	rng.Seed(core.MixSeed(s.seed, int64(s.xPos), int64(s.yPos), int64(k)))
	for i := range sample.OneD {
		for j := range sample.OneD[i] {
			sample.OneD[i][j] = rng.Float64()
		}
	}
	for i := range sample.TwoD {
		for j := range sample.TwoD[i] {
			sample.TwoD[i][j] = rng.Float64()
		}
	}

	s.samplePos++
	return 1
}

func (s *RandomSampler) MaximumSampleCount() int {
	return 1
}

// ReportResults accepts every batch
func (s *RandomSampler) ReportResults(samples []*Sample, rays []core.Ray, radiance []core.Vec3, hits []core.HitRecord, count int) bool {
	return true
}

func (s *RandomSampler) GetSubSampler(num, count int) Sampler {
	window := ComputeSubWindow(s.window, num, count)
	if window.Empty() {
		return nil
	}
	return NewRandomSampler(window, s.spp, s.shutterOpen, s.shutterClose, s.seed)
}

func (s *RandomSampler) RoundSize(size int) int {
	return size
}

func (s *RandomSampler) SamplesPerPixel() int {
	return s.spp
}

func (s *RandomSampler) Window() image.Rectangle {
	return s.window
}

// Cursor returns the current scan position
func (s *RandomSampler) Cursor() Cursor {
	return Cursor{X: s.xPos, Y: s.yPos, SamplePos: s.samplePos}
}

// Resume moves the sampler to a position previously returned by Cursor
func (s *RandomSampler) Resume(c Cursor) error {
	if c.SamplePos < 0 || c.SamplePos > s.spp {
		return fmt.Errorf("cursor sample position %d outside [0, %d]", c.SamplePos, s.spp)
	}
	if c.X < s.window.Min.X-1 || c.X >= s.window.Max.X || c.Y < s.window.Min.Y || c.Y > s.window.Max.Y {
		return fmt.Errorf("cursor (%d, %d) outside window %v", c.X, c.Y, s.window)
	}
	if c.SamplePos < s.spp && (c.X < s.window.Min.X || c.Y >= s.window.Max.Y) {
		return fmt.Errorf("cursor (%d, %d) has pending samples outside window %v", c.X, c.Y, s.window)
	}

	s.xPos, s.yPos = c.X, c.Y
	if c.SamplePos < s.spp {
		s.loadPixel()
	}
	s.samplePos = c.SamplePos
	return nil
}
