// Package lights holds the emitters consulted when a ray leaves the scene.
package lights

import "github.com/df07/go-grid-raytracer/pkg/core"

type LightType string

const (
	LightTypeInfinite LightType = "infinite"
)

// Light is evaluated for rays that escape every primitive
type Light interface {
	Type() LightType

	// Emit evaluates emission in the direction of the given ray
	Emit(ray *core.Ray) core.Vec3
}

// TotalEmission sums the emission of every light along ray
func TotalEmission(lights []Light, ray *core.Ray) core.Vec3 {
	var total core.Vec3
	for _, light := range lights {
		total = total.Add(light.Emit(ray))
	}
	return total
}
