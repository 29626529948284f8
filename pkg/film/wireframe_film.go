package film

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
	"sync/atomic"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"golang.org/x/image/vector"
)

// Projector maps world points to raster coordinates. ok is false for points
// that cannot be projected, such as those behind the viewer.
type Projector interface {
	WorldToRaster(p core.Vec3) (x, y float64, ok bool)
}

// WireframeFilmConfig contains configuration for a WireframeFilm
type WireframeFilmConfig struct {
	Width     int
	Height    int
	Crop      CropWindow
	Path      string  // The drawing goes to <Path>-wfr.png
	RayStride int     // Keep every RayStride-th sampled ray
	RayLength float64 // Length drawn for rays that hit nothing
	LineWidth float64 // In pixels
}

// DefaultWireframeFilmConfig returns a config that keeps one ray in 64
func DefaultWireframeFilmConfig() WireframeFilmConfig {
	return WireframeFilmConfig{
		Width:     640,
		Height:    480,
		Crop:      FullCrop(),
		Path:      "render",
		RayStride: 64,
		RayLength: 10,
		LineWidth: 1,
	}
}

type lineGroup struct {
	color color.Color
	lines []core.Segment
}

var rayColor = color.RGBA{R: 0xd0, G: 0x30, B: 0x30, A: 0xff}

// WireframeFilm draws scene debug geometry and a subset of the sampled rays
// as lines, seen through its own projector
type WireframeFilm struct {
	config    WireframeFilmConfig
	extent    image.Rectangle
	projector Projector

	mu     sync.Mutex
	groups []lineGroup
	rays   []core.Segment
	seen   atomic.Int64
}

// NewWireframeFilm creates a wireframe film. A projector must be set before writing.
func NewWireframeFilm(config WireframeFilmConfig) (*WireframeFilm, error) {
	extent, err := pixelExtent(config.Width, config.Height, config.Crop)
	if err != nil {
		return nil, err
	}
	config.RayStride = max(1, config.RayStride)
	if config.RayLength <= 0 {
		config.RayLength = 10
	}
	if config.LineWidth <= 0 {
		config.LineWidth = 1
	}
	return &WireframeFilm{config: config, extent: extent}, nil
}

// SetProjector sets the view the drawing is made from
func (w *WireframeFilm) SetProjector(p Projector) {
	w.projector = p
}

// AddLines adds static geometry, such as voxel boundaries, drawn in c
func (w *WireframeFilm) AddLines(lines []core.Segment, c color.Color) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.groups = append(w.groups, lineGroup{color: c, lines: lines})
}

// AddSample records the ray from its origin to its nearest hit
func (w *WireframeFilm) AddSample(sample *core.CameraSample, radiance core.Vec3, ray *core.Ray) {
	if ray == nil {
		return
	}
	if (w.seen.Add(1)-1)%int64(w.config.RayStride) != 0 {
		return
	}
	t := math.Min(ray.TMax, w.config.RayLength/math.Max(ray.Direction.Length(), 1e-12))
	segment := core.Segment{A: ray.At(ray.TMin), B: ray.At(t)}

	w.mu.Lock()
	w.rays = append(w.rays, segment)
	w.mu.Unlock()
}

func (w *WireframeFilm) Splat(sample *core.CameraSample, radiance core.Vec3) {}

func (w *WireframeFilm) SampleExtent() image.Rectangle {
	return image.Rectangle{Min: w.extent.Min, Max: w.extent.Max.Add(image.Pt(1, 1))}
}

func (w *WireframeFilm) PixelExtent() image.Rectangle {
	return w.extent
}

func (w *WireframeFilm) Resolution() (int, int) {
	return w.config.Width, w.config.Height
}

// RayCount returns how many rays were kept for drawing
func (w *WireframeFilm) RayCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.rays)
}

// Image draws every recorded line on a white background
func (w *WireframeFilm) Image() (*image.RGBA, error) {
	if w.projector == nil {
		return nil, fmt.Errorf("wireframe film has no projector")
	}

	img := image.NewRGBA(image.Rect(0, 0, w.extent.Dx(), w.extent.Dy()))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, g := range w.groups {
		w.drawLines(img, g.lines, g.color)
	}
	w.drawLines(img, w.rays, rayColor)
	return img, nil
}

func (w *WireframeFilm) drawLines(img *image.RGBA, lines []core.Segment, c color.Color) {
	size := img.Bounds().Size()
	r := vector.NewRasterizer(size.X, size.Y)
	half := w.config.LineWidth / 2
	ox, oy := float64(w.extent.Min.X), float64(w.extent.Min.Y)

	drawn := 0
	for _, line := range lines {
		ax, ay, okA := w.projector.WorldToRaster(line.A)
		bx, by, okB := w.projector.WorldToRaster(line.B)
		if !okA || !okB {
			continue
		}
		ax, ay, bx, by = ax-ox, ay-oy, bx-ox, by-oy

		dx, dy := bx-ax, by-ay
		length := math.Hypot(dx, dy)
		if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
			continue
		}
		// Offset perpendicular to the line to give it width
		nx, ny := -dy/length*half, dx/length*half

		r.MoveTo(float32(ax+nx), float32(ay+ny))
		r.LineTo(float32(bx+nx), float32(by+ny))
		r.LineTo(float32(bx-nx), float32(by-ny))
		r.LineTo(float32(ax-nx), float32(ay-ny))
		r.ClosePath()
		drawn++
	}

	if drawn > 0 {
		r.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
	}
}

// WriteImage writes the drawing to <path>-wfr.png
func (w *WireframeFilm) WriteImage(splatScale float64) error {
	img, err := w.Image()
	if err != nil {
		return err
	}
	if err := WriteImageFile(w.config.Path+"-wfr.png", img); err != nil {
		return fmt.Errorf("failed to write wireframe: %w", err)
	}
	return nil
}
