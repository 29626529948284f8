package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/scene"
)

// Server handles web requests for the grid raytracer
type Server struct {
	port int
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	return &Server{port: port}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string `json:"scene"`      // Built-in scene name
	Width      int    `json:"width"`      // Image width
	Height     int    `json:"height"`     // Image height
	SPP        int    `json:"spp"`        // Samples per pixel
	Seed       int64  `json:"seed"`       // Sampler seed
	Integrator string `json:"integrator"` // "ao" or "occlusion"
	AOSamples  int    `json:"aoSamples"`  // Ambient occlusion rays per sample
	Workers    int    `json:"workers"`    // 0 = all logical CPUs
}

// Handler returns the routes served by the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	mux.Handle("/", http.FileServer(http.Dir("static/")))

	// API endpoints
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes with the request limits
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"scenes": scene.BuiltinNames(),
		"limits": map[string]interface{}{
			"width":     map[string]int{"min": 16, "max": 2000},
			"height":    map[string]int{"min": 16, "max": 2000},
			"spp":       map[string]int{"min": 1, "max": 4096},
			"aoSamples": map[string]int{"min": 1, "max": 256},
		},
	}
	writeJSON(w, http.StatusOK, response)
}

// parseSceneParams parses the parameters shared by rendering and inspection
func (s *Server) parseSceneParams(values url.Values, req *RenderRequest) error {
	req.Scene = values.Get("scene")
	if req.Scene == "" {
		req.Scene = "cube" // Default scene
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 400, 16, 2000); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(values, "height", 300, 16, 2000); err != nil {
		return err
	}
	return nil
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	values := r.URL.Query()
	req := &RenderRequest{}
	if err := s.parseSceneParams(values, req); err != nil {
		return nil, err
	}

	var err error
	if req.SPP, err = parseIntParam(values, "spp", 4, 1, 4096); err != nil {
		return nil, err
	}
	if req.AOSamples, err = parseIntParam(values, "aoSamples", 4, 1, 256); err != nil {
		return nil, err
	}
	if req.Workers, err = parseIntParam(values, "workers", 0, 0, 1024); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(values, "seed", 1, 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)

	req.Integrator = values.Get("integrator")
	if req.Integrator == "" {
		req.Integrator = "ao"
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.SPP > 64 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}
	return req, nil
}

// loadScene builds a built-in scene
func (s *Server) loadScene(name string, logger core.Logger) (*scene.Scene, error) {
	desc, err := scene.Builtin(name)
	if err != nil {
		return nil, err
	}
	return desc.Build(logger)
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
