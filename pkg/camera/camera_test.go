package camera

import (
	"image"
	"math"
	"testing"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/film"
)

// MockFilm only reports a resolution
type MockFilm struct {
	width, height int
}

func (m *MockFilm) AddSample(sample *core.CameraSample, radiance core.Vec3, ray *core.Ray) {}
func (m *MockFilm) Splat(sample *core.CameraSample, radiance core.Vec3)                    {}
func (m *MockFilm) SampleExtent() image.Rectangle                                          { return image.Rect(0, 0, m.width, m.height) }
func (m *MockFilm) PixelExtent() image.Rectangle                                           { return image.Rect(0, 0, m.width, m.height) }
func (m *MockFilm) Resolution() (int, int)                                                 { return m.width, m.height }
func (m *MockFilm) WriteImage(splatScale float64) error                                    { return nil }

var _ film.Film = (*MockFilm)(nil)

func newTestCamera(t *testing.T, config Config, width, height int) *PerspectiveCamera {
	t.Helper()
	cam, err := NewPerspective(config, &MockFilm{width: width, height: height})
	if err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}
	return cam
}

func TestPerspectiveCamera_CenterRay(t *testing.T) {
	config := DefaultConfig()
	config.Eye = core.NewVec3(1, 2, 3)
	config.LookAt = core.NewVec3(-2, 0, 1)
	cam := newTestCamera(t, config, 64, 48)

	weight, ray := cam.GenerateRay(&core.CameraSample{ImageX: 32, ImageY: 24})
	if weight != 1 {
		t.Errorf("Expected weight 1, got %f", weight)
	}
	if ray.Origin.Subtract(config.Eye).Length() > 1e-9 {
		t.Errorf("Expected origin at the eye, got %v", ray.Origin)
	}
	expected := config.LookAt.Subtract(config.Eye).Normalize()
	if ray.Direction.Subtract(expected).Length() > 1e-9 {
		t.Errorf("Expected direction %v, got %v", expected, ray.Direction)
	}
}

func TestPerspectiveCamera_FieldOfView(t *testing.T) {
	config := DefaultConfig()
	config.Eye = core.NewVec3(0, 0, 0)
	config.LookAt = core.NewVec3(0, 0, -1)
	config.FOV = 60
	// Wide image: the field of view spans the vertical axis
	cam := newTestCamera(t, config, 200, 100)
	forward := core.NewVec3(0, 0, -1)

	_, top := cam.GenerateRay(&core.CameraSample{ImageX: 100, ImageY: 0})
	if math.Abs(top.Direction.Dot(forward)-math.Cos(math.Pi/6)) > 1e-9 {
		t.Errorf("Expected 30 degrees to the top edge, got %f degrees", math.Acos(top.Direction.Dot(forward))*180/math.Pi)
	}
	if top.Direction.Y <= 0 {
		t.Errorf("Expected raster row 0 to look up, got %v", top.Direction)
	}

	_, left := cam.GenerateRay(&core.CameraSample{ImageX: 0, ImageY: 50})
	expected := math.Atan(2 * math.Tan(math.Pi/6))
	if math.Abs(math.Acos(left.Direction.Dot(forward))-expected) > 1e-9 {
		t.Errorf("Expected %f radians to the left edge, got %f", expected, math.Acos(left.Direction.Dot(forward)))
	}
	if left.Direction.X >= 0 {
		t.Errorf("Expected raster column 0 to look left, got %v", left.Direction)
	}
}

func TestPerspectiveCamera_WorldToRasterRoundTrip(t *testing.T) {
	config := DefaultConfig()
	config.Eye = core.NewVec3(1.341364, 0.2693291, -1.40054)
	config.LookAt = core.NewVec3(0, 0, 0)
	cam := newTestCamera(t, config, 320, 240)

	points := [][2]float64{{0.5, 0.5}, {160, 120}, {319.5, 10.25}, {17.75, 239.5}}
	for _, p := range points {
		_, ray := cam.GenerateRay(&core.CameraSample{ImageX: p[0], ImageY: p[1]})
		x, y, ok := cam.WorldToRaster(ray.At(3))
		if !ok {
			t.Fatalf("Point %v: expected a projection", p)
		}
		if math.Abs(x-p[0]) > 1e-6 || math.Abs(y-p[1]) > 1e-6 {
			t.Errorf("Expected raster %v, got (%f, %f)", p, x, y)
		}
	}

	behind := config.Eye.Add(config.Eye.Subtract(config.LookAt))
	if _, _, ok := cam.WorldToRaster(behind); ok {
		t.Error("Expected a point behind the camera to be rejected")
	}
}

func TestPerspectiveCamera_Differentials(t *testing.T) {
	cam := newTestCamera(t, DefaultConfig(), 100, 100)
	sample := &core.CameraSample{ImageX: 40.25, ImageY: 70.5}

	_, ray := cam.GenerateRayDifferential(sample)
	if !ray.HasDifferentials {
		t.Fatal("Expected differentials")
	}

	x, y, _ := cam.WorldToRaster(ray.RxOrigin.Add(ray.RxDirection.Multiply(4)))
	if math.Abs(x-41.25) > 1e-6 || math.Abs(y-70.5) > 1e-6 {
		t.Errorf("Expected x differential at (41.25, 70.5), got (%f, %f)", x, y)
	}
	x, y, _ = cam.WorldToRaster(ray.RyOrigin.Add(ray.RyDirection.Multiply(4)))
	if math.Abs(x-40.25) > 1e-6 || math.Abs(y-71.5) > 1e-6 {
		t.Errorf("Expected y differential at (40.25, 71.5), got (%f, %f)", x, y)
	}
}

func TestPerspectiveCamera_DepthOfField(t *testing.T) {
	config := DefaultConfig()
	config.Eye = core.NewVec3(0, 0, 0)
	config.LookAt = core.NewVec3(0, 0, -1)
	config.LensRadius = 0.5
	config.FocalDistance = 4
	cam := newTestCamera(t, config, 50, 50)

	focusPoint := func(u, v float64) core.Vec3 {
		_, ray := cam.GenerateRay(&core.CameraSample{ImageX: 12.5, ImageY: 30, LensU: u, LensV: v, Time: 0.3})
		if ray.Time != 0.3 {
			t.Errorf("Expected ray time 0.3, got %f", ray.Time)
		}
		// Intersect with the plane z = -4
		return ray.At((-4 - ray.Origin.Z) / ray.Direction.Z)
	}

	a := focusPoint(0.1, 0.9)
	b := focusPoint(0.8, 0.2)
	if a.Subtract(b).Length() > 1e-9 {
		t.Errorf("Expected lens rays to meet on the focal plane, got %v and %v", a, b)
	}

	_, r1 := cam.GenerateRay(&core.CameraSample{ImageX: 12.5, ImageY: 30, LensU: 0.1, LensV: 0.9})
	_, r2 := cam.GenerateRay(&core.CameraSample{ImageX: 12.5, ImageY: 30, LensU: 0.8, LensV: 0.2})
	if r1.Origin.Subtract(r2.Origin).Length() < 1e-3 {
		t.Error("Expected different lens samples to start at different points")
	}
}

func TestPerspectiveCamera_FrustumLines(t *testing.T) {
	cam := newTestCamera(t, DefaultConfig(), 40, 30)
	lines := cam.FrustumLines(2)
	if len(lines) != 8 {
		t.Fatalf("Expected 8 frustum lines, got %d", len(lines))
	}
	for i := 0; i < len(lines); i += 2 {
		far := lines[i].B
		// Default camera looks down -z from z=5
		if math.Abs(far.Z-3) > 1e-9 {
			t.Errorf("Expected frustum corner at z=3, got %v", far)
		}
	}
}

func TestNewPerspective_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"eye at look-at", func(c *Config) { c.LookAt = c.Eye }},
		{"up along view", func(c *Config) { c.Up = core.NewVec3(0, 0, 1) }},
		{"zero fov", func(c *Config) { c.FOV = 0 }},
		{"straight fov", func(c *Config) { c.FOV = 180 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)
			if _, err := NewPerspective(config, &MockFilm{width: 10, height: 10}); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
