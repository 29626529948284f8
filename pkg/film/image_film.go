package film

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/df07/go-grid-raytracer/pkg/colorspace"
	"github.com/df07/go-grid-raytracer/pkg/core"
)

const filterTableSize = 16

// ImageFilmConfig contains configuration for an ImageFilm
type ImageFilmConfig struct {
	Width  int
	Height int
	Crop   CropWindow
	Filter Filter  // nil selects a 0.5 box filter
	Path   string  // Output file; the extension picks the format
	Gamma  float64 // Display gamma applied on write; 1 writes linear values
}

// DefaultImageFilmConfig returns a full-frame 640x480 film with a box filter
func DefaultImageFilmConfig() ImageFilmConfig {
	return ImageFilmConfig{
		Width:  640,
		Height: 480,
		Crop:   FullCrop(),
		Filter: NewBoxFilter(0.5, 0.5),
		Path:   "render.png",
		Gamma:  2.0,
	}
}

// pixel accumulates filtered XYZ radiance. The mutex guards every field
// when the filter support spans several pixels.
type pixel struct {
	mu        sync.Mutex
	xyz       core.Vec3
	weightSum float64
	splatXYZ  core.Vec3
}

// ImageFilm reconstructs an image by splatting every sample into the pixels
// within its filter support, weighted by a tabulated kernel
type ImageFilm struct {
	config      ImageFilmConfig
	filter      Filter
	extent      image.Rectangle
	pixels      []pixel
	filterTable [filterTableSize * filterTableSize]float64
	syncNeeded  bool
}

// NewImageFilm creates a film. An invalid crop window returns ErrCropWindow.
func NewImageFilm(config ImageFilmConfig) (*ImageFilm, error) {
	if config.Filter == nil {
		config.Filter = NewBoxFilter(0.5, 0.5)
	}
	if xw, yw := config.Filter.XWidth(), config.Filter.YWidth(); !(xw > 0) || !(yw > 0) {
		return nil, fmt.Errorf("%w: %gx%g", ErrFilterWidth, xw, yw)
	}
	if config.Gamma <= 0 {
		config.Gamma = 1
	}

	extent, err := pixelExtent(config.Width, config.Height, config.Crop)
	if err != nil {
		return nil, err
	}

	f := &ImageFilm{
		config:     config,
		filter:     config.Filter,
		extent:     extent,
		pixels:     make([]pixel, extent.Dx()*extent.Dy()),
		syncNeeded: config.Filter.XWidth() > 0.5 || config.Filter.YWidth() > 0.5,
	}

	// Precompute filter weight table over one quadrant of the support
	xw, yw := f.filter.XWidth(), f.filter.YWidth()
	for y := 0; y < filterTableSize; y++ {
		fy := (float64(y) + 0.5) * yw / filterTableSize
		for x := 0; x < filterTableSize; x++ {
			fx := (float64(x) + 0.5) * xw / filterTableSize
			f.filterTable[y*filterTableSize+x] = f.filter.Evaluate(fx, fy)
		}
	}
	return f, nil
}

func (f *ImageFilm) at(x, y int) *pixel {
	return &f.pixels[(y-f.extent.Min.Y)*f.extent.Dx()+(x-f.extent.Min.X)]
}

func tableIndex(p int, d, invWidth float64) int {
	return min(int(math.Abs((float64(p)-d)*invWidth*filterTableSize)), filterTableSize-1)
}

// AddSample adds radiance to every pixel whose filter support covers the sample.
// With a support no wider than a pixel only the pixel the sample was
// generated in is updated; it belongs to a single task, so no lock is taken.
func (f *ImageFilm) AddSample(sample *core.CameraSample, radiance core.Vec3, ray *core.Ray) {
	xw, yw := f.filter.XWidth(), f.filter.YWidth()
	dx, dy := sample.ImageX-0.5, sample.ImageY-0.5

	x0, x1 := boxSupport(sample.ImageX, xw, f.extent.Min.X, f.extent.Max.X)
	y0, y1 := boxSupport(sample.ImageY, yw, f.extent.Min.Y, f.extent.Max.Y)
	if !f.syncNeeded {
		// The support covers at most the pixel the sample lies in
		px, py := int(math.Floor(sample.ImageX)), int(math.Floor(sample.ImageY))
		x0, x1 = max(x0, px), min(x1, px)
		y0, y1 = max(y0, py), min(y1, py)
	}
	if x1 < x0 || y1 < y0 {
		return
	}

	xyz := colorspace.RGBToXYZ(radiance)
	invXW, invYW := 1.0/xw, 1.0/yw

	for y := y0; y <= y1; y++ {
		iy := tableIndex(y, dy, invYW)
		for x := x0; x <= x1; x++ {
			weight := f.filterTable[iy*filterTableSize+tableIndex(x, dx, invXW)]
			p := f.at(x, y)
			if f.syncNeeded {
				p.mu.Lock()
			}
			p.xyz = p.xyz.Add(xyz.Multiply(weight))
			p.weightSum += weight
			if f.syncNeeded {
				p.mu.Unlock()
			}
		}
	}
}

// Splat replaces the splat value of the pixel containing the sample
func (f *ImageFilm) Splat(sample *core.CameraSample, radiance core.Vec3) {
	pt := image.Pt(int(math.Floor(sample.ImageX)), int(math.Floor(sample.ImageY)))
	if !pt.In(f.extent) {
		return
	}
	p := f.at(pt.X, pt.Y)
	xyz := colorspace.RGBToXYZ(radiance)
	p.mu.Lock()
	p.splatXYZ = xyz
	p.mu.Unlock()
}

func (f *ImageFilm) SampleExtent() image.Rectangle {
	xw, yw := f.filter.XWidth(), f.filter.YWidth()
	return image.Rect(
		int(math.Floor(float64(f.extent.Min.X)+0.5-xw)),
		int(math.Floor(float64(f.extent.Min.Y)+0.5-yw)),
		int(math.Ceil(float64(f.extent.Max.X)+0.5+xw)),
		int(math.Ceil(float64(f.extent.Max.Y)+0.5+yw)),
	)
}

func (f *ImageFilm) PixelExtent() image.Rectangle {
	return f.extent
}

func (f *ImageFilm) Resolution() (int, int) {
	return f.config.Width, f.config.Height
}

// Pixel returns the reconstructed linear RGB of pixel (x, y), before splats,
// and the pixel's accumulated filter weight
func (f *ImageFilm) Pixel(x, y int) (core.Vec3, float64) {
	if !image.Pt(x, y).In(f.extent) {
		return core.Vec3{}, 0
	}
	p := f.at(x, y)
	p.mu.Lock()
	defer p.mu.Unlock()

	rgb := colorspace.XYZToRGB(p.xyz)
	if p.weightSum != 0 {
		rgb = rgb.Multiply(1.0 / p.weightSum).Max(core.Vec3{})
	}
	return rgb, p.weightSum
}

// Image converts the accumulated radiance to a 16-bit image of the pixel extent
func (f *ImageFilm) Image(splatScale float64) *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, f.extent.Dx(), f.extent.Dy()))
	for y := f.extent.Min.Y; y < f.extent.Max.Y; y++ {
		for x := f.extent.Min.X; x < f.extent.Max.X; x++ {
			rgb, _ := f.Pixel(x, y)

			p := f.at(x, y)
			p.mu.Lock()
			splat := p.splatXYZ
			p.mu.Unlock()
			rgb = rgb.Add(colorspace.XYZToRGB(splat).Multiply(splatScale))

			img.SetRGBA64(x-f.extent.Min.X, y-f.extent.Min.Y, f.toColor(rgb))
		}
	}
	return img
}

// toColor applies gamma correction and clamps to the displayable range
func (f *ImageFilm) toColor(rgb core.Vec3) color.RGBA64 {
	rgb = rgb.Max(core.Vec3{}).GammaCorrect(f.config.Gamma).Clamp(0.0, 1.0)
	return color.RGBA64{
		R: uint16(math.Round(0xffff * rgb.X)),
		G: uint16(math.Round(0xffff * rgb.Y)),
		B: uint16(math.Round(0xffff * rgb.Z)),
		A: 0xffff,
	}
}

// WriteImage encodes the image to the configured path
func (f *ImageFilm) WriteImage(splatScale float64) error {
	if err := WriteImageFile(f.config.Path, f.Image(splatScale)); err != nil {
		return fmt.Errorf("failed to write film: %w", err)
	}
	return nil
}
