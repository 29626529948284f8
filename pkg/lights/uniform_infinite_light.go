package lights

import (
	"github.com/df07/go-grid-raytracer/pkg/core"
)

// UniformInfiniteLight emits the same radiance in every direction
type UniformInfiniteLight struct {
	emission core.Vec3
}

// NewUniformInfiniteLight creates a new uniform infinite light
func NewUniformInfiniteLight(emission core.Vec3) *UniformInfiniteLight {
	return &UniformInfiniteLight{emission: emission}
}

func (uil *UniformInfiniteLight) Type() LightType {
	return LightTypeInfinite
}

// Emit returns the constant emission
func (uil *UniformInfiniteLight) Emit(ray *core.Ray) core.Vec3 {
	return uil.emission
}
