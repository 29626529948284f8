// Package film reconstructs images from radiance samples. Films receive
// samples from many render tasks at once and are safe for concurrent use.
package film

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

// ErrCropWindow reports a crop window that does not select a valid region of the image
var ErrCropWindow = errors.New("invalid crop window")

// ErrFilterWidth reports a filter without a positive support on both axes
var ErrFilterWidth = errors.New("filter width must be positive")

// Film accumulates camera samples into an image
type Film interface {
	AddSample(sample *core.CameraSample, radiance core.Vec3, ray *core.Ray)
	// Splat sets a contribution that bypasses filtering
	Splat(sample *core.CameraSample, radiance core.Vec3)
	// SampleExtent is the range of raster positions samples must cover so
	// that every pixel gets its full filter support
	SampleExtent() image.Rectangle
	PixelExtent() image.Rectangle
	Resolution() (width, height int)
	WriteImage(splatScale float64) error
}

// CropWindow selects a sub-rectangle of the image in NDC, [0,1] on both axes
type CropWindow struct {
	X0, X1 float64
	Y0, Y1 float64
}

// FullCrop selects the whole image
func FullCrop() CropWindow {
	return CropWindow{X0: 0, X1: 1, Y0: 0, Y1: 1}
}

// pixelExtent computes the pixels selected by crop on a width x height image
func pixelExtent(width, height int, crop CropWindow) (image.Rectangle, error) {
	if width <= 0 || height <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: resolution %dx%d", ErrCropWindow, width, height)
	}
	if crop.X0 < 0 || crop.X1 > 1 || crop.Y0 < 0 || crop.Y1 > 1 || crop.X0 >= crop.X1 || crop.Y0 >= crop.Y1 {
		return image.Rectangle{}, fmt.Errorf("%w: %+v", ErrCropWindow, crop)
	}

	xStart := int(math.Ceil(float64(width) * crop.X0))
	xCount := max(1, int(math.Ceil(float64(width)*crop.X1))-xStart)
	yStart := int(math.Ceil(float64(height) * crop.Y0))
	yCount := max(1, int(math.Ceil(float64(height)*crop.Y1))-yStart)
	if xCount > width || yCount > height {
		return image.Rectangle{}, fmt.Errorf("%w: %dx%d pixels on a %dx%d image", ErrCropWindow, xCount, yCount, width, height)
	}
	return image.Rect(xStart, yStart, xStart+xCount, yStart+yCount), nil
}

// boxSupport returns the inclusive pixel range whose centres lie within
// half-width w of image coordinate p, clipped to [lo, hi)
func boxSupport(p, w float64, lo, hi int) (int, int) {
	d := p - 0.5
	p0 := max(int(math.Ceil(d-w)), lo)
	p1 := min(int(math.Floor(d+w)), hi-1)
	return p0, p1
}
