// Package camera turns camera samples into world-space rays.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/film"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera generates rays for camera samples. The returned weight scales the
// radiance carried by the ray; zero means the sample should not be traced.
type Camera interface {
	GenerateRay(sample *core.CameraSample) (float64, core.Ray)
	GenerateRayDifferential(sample *core.CameraSample) (float64, core.Ray)
	Film() film.Film
}

// Config contains the camera placement and lens parameters
type Config struct {
	Eye           core.Vec3
	LookAt        core.Vec3
	Up            core.Vec3
	FOV           float64 // Field of view in degrees along the shorter image axis
	LensRadius    float64 // Zero for a pinhole camera
	FocalDistance float64 // Distance to the plane in focus; used when LensRadius > 0
	ShutterOpen   float64
	ShutterClose  float64
}

// DefaultConfig returns a pinhole camera at z=5 looking at the origin
func DefaultConfig() Config {
	return Config{
		Eye:           core.NewVec3(0, 0, 5),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		FOV:           60,
		FocalDistance: 1e6,
		ShutterOpen:   0,
		ShutterClose:  1,
	}
}

const (
	nearClip = 1e-2
	farClip  = 1000.0
)

// PerspectiveCamera is a thin-lens perspective camera. Camera space looks
// down -z with +y up; raster y grows downward.
type PerspectiveCamera struct {
	config        Config
	film          film.Film
	cameraToWorld mgl64.Mat4
	worldToCamera mgl64.Mat4
	rasterToCam   mgl64.Mat4
	camToRaster   mgl64.Mat4
	dxCamera      core.Vec3
	dyCamera      core.Vec3
}

// NewPerspective creates a perspective camera rendering into f
func NewPerspective(config Config, f film.Film) (*PerspectiveCamera, error) {
	forward := config.LookAt.Subtract(config.Eye)
	if forward.Length() == 0 {
		return nil, errors.New("camera eye and look-at point coincide")
	}
	if forward.Cross(config.Up).Length() == 0 {
		return nil, errors.New("camera up vector is parallel to the view direction")
	}
	if config.FOV <= 0 || config.FOV >= 180 {
		return nil, fmt.Errorf("camera field of view %g outside (0, 180)", config.FOV)
	}

	xRes, yRes := f.Resolution()
	frame := float64(xRes) / float64(yRes)
	left, right, bottom, top := -1.0, 1.0, -1.0/frame, 1.0/frame
	if frame > 1 {
		left, right, bottom, top = -frame, frame, -1, 1
	}

	worldToCamera := mgl64.LookAtV(toMgl(config.Eye), toMgl(config.LookAt), toMgl(config.Up))
	cameraToScreen := mgl64.Perspective(mgl64.DegToRad(config.FOV), 1, nearClip, farClip)
	rasterToScreen := mgl64.Translate3D(left, top, 0).
		Mul4(mgl64.Scale3D((right-left)/float64(xRes), -(top-bottom)/float64(yRes), 1))
	rasterToCamera := cameraToScreen.Inv().Mul4(rasterToScreen)

	c := &PerspectiveCamera{
		config:        config,
		film:          f,
		worldToCamera: worldToCamera,
		cameraToWorld: worldToCamera.Inv(),
		rasterToCam:   rasterToCamera,
		camToRaster:   rasterToCamera.Inv(),
	}

	origin := c.rasterToCamera(0, 0)
	c.dxCamera = c.rasterToCamera(1, 0).Subtract(origin)
	c.dyCamera = c.rasterToCamera(0, 1).Subtract(origin)
	return c, nil
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// rasterToCamera returns the point on the near plane under raster position (x, y)
func (c *PerspectiveCamera) rasterToCamera(x, y float64) core.Vec3 {
	return fromMgl(mgl64.TransformCoordinate(mgl64.Vec3{x, y, -1}, c.rasterToCam))
}

func (c *PerspectiveCamera) Film() film.Film {
	return c.film
}

// Config returns the camera configuration
func (c *PerspectiveCamera) Config() Config {
	return c.config
}

// lensRay builds the camera-space ray through pCamera, refracted through the
// lens point when the camera has an aperture
func (c *PerspectiveCamera) lensRay(pCamera core.Vec3, lens core.Vec2) (core.Vec3, core.Vec3) {
	dir := pCamera.Normalize()
	if c.config.LensRadius <= 0 {
		return core.Vec3{}, dir
	}

	lensPoint := core.ConcentricSampleDisk(lens)
	origin := core.NewVec3(lensPoint.X*c.config.LensRadius, lensPoint.Y*c.config.LensRadius, 0)

	// Point on the plane of focus
	ft := c.config.FocalDistance / -dir.Z
	focus := dir.Multiply(ft)
	return origin, focus.Subtract(origin).Normalize()
}

func (c *PerspectiveCamera) toWorld(origin, dir core.Vec3) (core.Vec3, core.Vec3) {
	o := mgl64.TransformCoordinate(toMgl(origin), c.cameraToWorld)
	d := mgl64.TransformNormal(toMgl(dir), c.cameraToWorld)
	return fromMgl(o), fromMgl(d).Normalize()
}

// GenerateRay creates the world-space ray for sample
func (c *PerspectiveCamera) GenerateRay(sample *core.CameraSample) (float64, core.Ray) {
	pCamera := c.rasterToCamera(sample.ImageX, sample.ImageY)
	origin, dir := c.lensRay(pCamera, core.NewVec2(sample.LensU, sample.LensV))
	origin, dir = c.toWorld(origin, dir)

	ray := core.NewRay(origin, dir)
	ray.Time = sample.Time
	return 1.0, ray
}

// GenerateRayDifferential creates the ray for sample along with the rays one
// pixel over in x and y
func (c *PerspectiveCamera) GenerateRayDifferential(sample *core.CameraSample) (float64, core.Ray) {
	weight, ray := c.GenerateRay(sample)

	pCamera := c.rasterToCamera(sample.ImageX, sample.ImageY)
	lens := core.NewVec2(sample.LensU, sample.LensV)
	rxOrigin, rxDir := c.toWorld(c.lensRay(pCamera.Add(c.dxCamera), lens))
	ryOrigin, ryDir := c.toWorld(c.lensRay(pCamera.Add(c.dyCamera), lens))
	ray.SetDifferentials(rxOrigin, rxDir, ryOrigin, ryDir)
	return weight, ray
}

// WorldToRaster projects p onto the image. Points in front of the near
// plane are rejected.
func (c *PerspectiveCamera) WorldToRaster(p core.Vec3) (float64, float64, bool) {
	pc := mgl64.TransformCoordinate(toMgl(p), c.worldToCamera)
	if pc[2] > -nearClip {
		return 0, 0, false
	}
	r := mgl64.TransformCoordinate(pc, c.camToRaster)
	if math.IsNaN(r[0]) || math.IsNaN(r[1]) {
		return 0, 0, false
	}
	return r[0], r[1], true
}

// FrustumLines returns the edges of the viewing pyramid cut off at depth,
// for wireframe output
func (c *PerspectiveCamera) FrustumLines(depth float64) []core.Segment {
	xRes, yRes := c.film.Resolution()
	corners := [4][2]float64{{0, 0}, {float64(xRes), 0}, {float64(xRes), float64(yRes)}, {0, float64(yRes)}}

	eye := c.config.Eye
	var far [4]core.Vec3
	for i, corner := range corners {
		pCamera := c.rasterToCamera(corner[0], corner[1])
		dir := pCamera.Normalize()
		_, d := c.toWorld(core.Vec3{}, dir)
		// Scale so the corner lies depth units in front of the camera
		far[i] = eye.Add(d.Multiply(depth / -dir.Z))
	}

	lines := make([]core.Segment, 0, 8)
	for i := range far {
		lines = append(lines, core.Segment{A: eye, B: far[i]})
		lines = append(lines, core.Segment{A: far[i], B: far[(i+1)%4]})
	}
	return lines
}
