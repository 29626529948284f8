package film

import (
	"fmt"
	"math"
)

// Filter is a separable-support reconstruction kernel centred on the origin.
// Evaluate is only called with |x| <= XWidth() and |y| <= YWidth().
type Filter interface {
	XWidth() float64
	YWidth() float64
	Evaluate(x, y float64) float64
}

// BoxFilter weights every sample inside its support equally
type BoxFilter struct {
	xWidth, yWidth float64
}

// NewBoxFilter creates a box filter with the given half-widths
func NewBoxFilter(xWidth, yWidth float64) *BoxFilter {
	return &BoxFilter{xWidth: xWidth, yWidth: yWidth}
}

func (f *BoxFilter) XWidth() float64 { return f.xWidth }
func (f *BoxFilter) YWidth() float64 { return f.yWidth }

func (f *BoxFilter) Evaluate(x, y float64) float64 {
	return 1.0
}

// TriangleFilter falls off linearly to zero at the edge of its support
type TriangleFilter struct {
	xWidth, yWidth float64
}

// NewTriangleFilter creates a triangle filter with the given half-widths
func NewTriangleFilter(xWidth, yWidth float64) *TriangleFilter {
	return &TriangleFilter{xWidth: xWidth, yWidth: yWidth}
}

func (f *TriangleFilter) XWidth() float64 { return f.xWidth }
func (f *TriangleFilter) YWidth() float64 { return f.yWidth }

func (f *TriangleFilter) Evaluate(x, y float64) float64 {
	return math.Max(0, f.xWidth-math.Abs(x)) * math.Max(0, f.yWidth-math.Abs(y))
}

// GaussianFilter is a Gaussian shifted down so it reaches zero at the support edge
type GaussianFilter struct {
	xWidth, yWidth float64
	alpha          float64
	expX, expY     float64
}

// NewGaussianFilter creates a Gaussian filter; larger alpha gives a narrower kernel
func NewGaussianFilter(xWidth, yWidth, alpha float64) *GaussianFilter {
	return &GaussianFilter{
		xWidth: xWidth,
		yWidth: yWidth,
		alpha:  alpha,
		expX:   math.Exp(-alpha * xWidth * xWidth),
		expY:   math.Exp(-alpha * yWidth * yWidth),
	}
}

func (f *GaussianFilter) XWidth() float64 { return f.xWidth }
func (f *GaussianFilter) YWidth() float64 { return f.yWidth }

func (f *GaussianFilter) Evaluate(x, y float64) float64 {
	return f.gaussian(x, f.expX) * f.gaussian(y, f.expY)
}

func (f *GaussianFilter) gaussian(d, expv float64) float64 {
	return math.Max(0, math.Exp(-f.alpha*d*d)-expv)
}

// NewFilter builds a filter by name: "box", "triangle" or "gaussian".
// Non-positive widths select the filter's usual default.
func NewFilter(name string, xWidth, yWidth float64) (Filter, error) {
	switch name {
	case "", "box":
		return NewBoxFilter(orDefault(xWidth, 0.5), orDefault(yWidth, 0.5)), nil
	case "triangle":
		return NewTriangleFilter(orDefault(xWidth, 2), orDefault(yWidth, 2)), nil
	case "gaussian":
		return NewGaussianFilter(orDefault(xWidth, 2), orDefault(yWidth, 2), 2), nil
	default:
		return nil, fmt.Errorf("unknown filter %q", name)
	}
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
