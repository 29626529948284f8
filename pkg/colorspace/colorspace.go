// Package colorspace converts linear RGB radiance to and from CIE XYZ.
package colorspace

import (
	"fmt"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"gonum.org/v1/gonum/mat"
)

// sRGB primaries, D65 white point
var rgbToXYZData = []float64{
	0.412453, 0.357580, 0.180423,
	0.212671, 0.715160, 0.072169,
	0.019334, 0.119193, 0.950227,
}

var (
	rgbToXYZ [3][3]float64
	xyzToRGB [3][3]float64
)

func init() {
	forward := mat.NewDense(3, 3, rgbToXYZData)

	var inverse mat.Dense
	if err := inverse.Inverse(forward); err != nil {
		panic(fmt.Sprintf("colorspace: RGB to XYZ matrix is singular: %v", err))
	}

	rgbToXYZ = toArray(forward)
	xyzToRGB = toArray(&inverse)
}

func toArray(m mat.Matrix) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

func apply(m *[3][3]float64, v core.Vec3) core.Vec3 {
	return core.Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// RGBToXYZ converts linear RGB to XYZ
func RGBToXYZ(rgb core.Vec3) core.Vec3 {
	return apply(&rgbToXYZ, rgb)
}

// XYZToRGB converts XYZ back to linear RGB
func XYZToRGB(xyz core.Vec3) core.Vec3 {
	return apply(&xyzToRGB, xyz)
}

// Y returns the luminance of a linear RGB value
func Y(rgb core.Vec3) float64 {
	return rgbToXYZ[1][0]*rgb.X + rgbToXYZ[1][1]*rgb.Y + rgbToXYZ[1][2]*rgb.Z
}
