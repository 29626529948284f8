// Package sampler generates camera samples and splits the image into the
// disjoint sub-windows rendered by independent tasks.
package sampler

import (
	"image"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

// Sampler produces camera samples over a window of the film's sample extent
type Sampler interface {
	// GetMoreSamples fills samples and returns how many it produced. Zero
	// means the window is exhausted.
	GetMoreSamples(samples []*Sample, rng *core.RNG) int
	MaximumSampleCount() int
	// ReportResults may reject a batch, in which case it is not added to the film
	ReportResults(samples []*Sample, rays []core.Ray, radiance []core.Vec3, hits []core.HitRecord, count int) bool
	// GetSubSampler returns the sampler for sub-window num of count, or nil
	// when that sub-window is empty
	GetSubSampler(num, count int) Sampler
	RoundSize(size int) int
	SamplesPerPixel() int
	Window() image.Rectangle
	Cursor() Cursor
	Resume(c Cursor) error
}

// Cursor is a sampler's position: the pixel being sampled and how many of
// its samples were handed out
type Cursor struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	SamplePos int `json:"sample_pos"`
}

// ComputeSubWindow returns sub-window num of count. The window is cut into
// nx columns and ny rows with nx*ny == count, halving nx while it is even and
// the tiles are more than twice as wide as they are tall. Every pixel of the
// window lands in exactly one sub-window.
func ComputeSubWindow(window image.Rectangle, num, count int) image.Rectangle {
	dx := window.Dx()
	dy := window.Dy()
	nx, ny := count, 1
	for nx&1 == 0 && 2*dx*ny < dy*nx {
		nx >>= 1
		ny <<= 1
	}

	xo := num % nx
	yo := num / nx
	tx0 := float64(xo) / float64(nx)
	tx1 := float64(xo+1) / float64(nx)
	ty0 := float64(yo) / float64(ny)
	ty1 := float64(yo+1) / float64(ny)

	minX, maxX := float64(window.Min.X), float64(window.Max.X)
	minY, maxY := float64(window.Min.Y), float64(window.Max.Y)
	return image.Rectangle{
		Min: image.Pt(int(core.Lerp(tx0, minX, maxX)), int(core.Lerp(ty0, minY, maxY))),
		Max: image.Pt(int(core.Lerp(tx1, minX, maxX)), int(core.Lerp(ty1, minY, maxY))),
	}
}
