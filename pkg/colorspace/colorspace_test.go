package colorspace

import (
	"math"
	"testing"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

func TestRoundTrip(t *testing.T) {
	colors := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 1, 1),
		core.NewVec3(0.25, 0.5, 0.75),
		core.NewVec3(3, 0, 0.1),
	}

	for _, rgb := range colors {
		back := XYZToRGB(RGBToXYZ(rgb))
		if back.Subtract(rgb).Length() > 1e-9 {
			t.Errorf("Round trip of %v gave %v", rgb, back)
		}
	}
}

func TestInverseMatchesPublishedMatrix(t *testing.T) {
	// First row of the commonly published XYZ to linear sRGB matrix
	expected := []float64{3.240479, -1.537150, -0.498535}
	for j, want := range expected {
		if math.Abs(xyzToRGB[0][j]-want) > 1e-3 {
			t.Errorf("xyzToRGB[0][%d]: expected %f, got %f", j, want, xyzToRGB[0][j])
		}
	}
}

func TestY(t *testing.T) {
	if y := Y(core.NewVec3(1, 1, 1)); math.Abs(y-1.0) > 1e-5 {
		t.Errorf("White should have luminance ~1, got %f", y)
	}
	if y := Y(core.NewVec3(-1, -1, -1)); y >= 0 {
		t.Errorf("Negative RGB should have negative luminance, got %f", y)
	}
	if y := RGBToXYZ(core.NewVec3(0.2, 0.3, 0.4)).Y; math.Abs(y-Y(core.NewVec3(0.2, 0.3, 0.4))) > 1e-12 {
		t.Errorf("Y should equal the XYZ Y component")
	}
}
