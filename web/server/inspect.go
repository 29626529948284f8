package server

import (
	"net/http"
	"strconv"

	"github.com/df07/go-grid-raytracer/pkg/camera"
	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/film"
	"github.com/df07/go-grid-raytracer/pkg/geometry"
	"github.com/df07/go-grid-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for a pixel inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Voxel        *[3]int                `json:"voxel,omitempty"` // Grid voxel holding the hit point
	CellVisits   int64                  `json:"cellVisits"`
	Tests        int64                  `json:"primitiveTests"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// InspectResult contains information about the primitive hit through a pixel
type InspectResult struct {
	Hit    bool
	Record core.HitRecord
	Stats  core.RayStats
}

// inspectPixel casts a ray through the centre of pixel (pixelX, pixelY)
func inspectPixel(sceneObj *scene.Scene, width, height, pixelX, pixelY int) (InspectResult, error) {
	// The film only supplies the resolution
	f, err := film.NewImageFilm(film.ImageFilmConfig{Width: width, Height: height, Crop: film.FullCrop()})
	if err != nil {
		return InspectResult{}, err
	}
	cam, err := camera.NewPerspective(sceneObj.Camera, f)
	if err != nil {
		return InspectResult{}, err
	}

	// Pinhole ray through the pixel centre at the shutter opening
	sample := core.CameraSample{ImageX: float64(pixelX) + 0.5, ImageY: float64(pixelY) + 0.5, LensU: 0.5, LensV: 0.5}
	_, ray := cam.GenerateRay(&sample)

	var result InspectResult
	result.Hit = sceneObj.Intersect(&ray, &result.Record)
	result.Stats = ray.Stats
	return result, nil
}

// extractGeometryInfo describes the primitive that was hit
func extractGeometryInfo(p core.Primitive) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := p.(type) {
	case *geometry.Sphere:
		properties["center"] = [3]float64{geom.Center.X, geom.Center.Y, geom.Center.Z}
		properties["radius"] = geom.Radius
		return "sphere", properties

	case *geometry.Triangle:
		properties["vertices"] = [][3]float64{
			{geom.V0.X, geom.V0.Y, geom.V0.Z},
			{geom.V1.X, geom.V1.Y, geom.V1.Z},
			{geom.V2.X, geom.V2.Y, geom.V2.Z},
		}
		n := geom.Normal()
		properties["normal"] = [3]float64{n.X, n.Y, n.Z}
		return "triangle", properties

	case *geometry.TriangleMesh:
		properties["triangleCount"] = geom.TriangleCount()
		return "mesh", properties

	default:
		return "unknown", properties
	}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	inspectReq := &RenderRequest{}
	if err := s.parseSceneParams(values, inspectReq); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	// Parse pixel coordinates
	pixelX, err := strconv.Atoi(values.Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(values.Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	sceneObj, err := s.loadScene(inspectReq.Scene, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := inspectPixel(sceneObj, inspectReq.Width, inspectReq.Height, pixelX, pixelY)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := InspectResponse{
		Hit:        result.Hit,
		CellVisits: result.Stats.CellVisits,
		Tests:      result.Stats.PrimitiveTests,
	}
	if result.Hit {
		rec := result.Record
		response.GeometryType, response.Properties = extractGeometryInfo(rec.Primitive)
		response.Point = [3]float64{rec.Point.X, rec.Point.Y, rec.Point.Z}
		response.Normal = [3]float64{rec.Normal.X, rec.Normal.Y, rec.Normal.Z}
		response.Distance = rec.T
		response.FrontFace = rec.FrontFace
		if g, ok := sceneObj.Grid(); ok {
			v := [3]int(g.VoxelOf(rec.Point))
			response.Voxel = &v
		}
	}
	writeJSON(w, http.StatusOK, response)
}
