package lights

import (
	"github.com/df07/go-grid-raytracer/pkg/core"
)

// GradientInfiniteLight blends between two colors by the ray's vertical direction
type GradientInfiniteLight struct {
	topColor    core.Vec3
	bottomColor core.Vec3
}

// NewGradientInfiniteLight creates a sky-style gradient light
func NewGradientInfiniteLight(topColor, bottomColor core.Vec3) *GradientInfiniteLight {
	return &GradientInfiniteLight{topColor: topColor, bottomColor: bottomColor}
}

func (gil *GradientInfiniteLight) Type() LightType {
	return LightTypeInfinite
}

// Emit evaluates the gradient in the ray direction
func (gil *GradientInfiniteLight) Emit(ray *core.Ray) core.Vec3 {
	direction := ray.Direction.Normalize()
	t := 0.5 * (direction.Y + 1.0) // Map Y from [-1,1] to [0,1]
	return gil.bottomColor.Multiply(1.0 - t).Add(gil.topColor.Multiply(t))
}
