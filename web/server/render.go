package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"net/http"
	"time"

	"github.com/df07/go-grid-raytracer/pkg/camera"
	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/film"
	"github.com/df07/go-grid-raytracer/pkg/integrator"
	"github.com/df07/go-grid-raytracer/pkg/renderer"
	"github.com/df07/go-grid-raytracer/pkg/sampler"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "complete", "error"
	Data string `json:"data"` // JSON-encoded data
}

// RenderResult is sent once the image is finished
type RenderResult struct {
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	Tasks            int     `json:"tasks"`
	TotalSamples     int64   `json:"totalSamples"`
	InvalidSamples   int64   `json:"invalidSamples"`
	MeanTaskSamples  float64 `json:"meanTaskSamples"`
	CellVisitsPerRay float64 `json:"cellVisitsPerRay"`
	PrimitiveTests   int64   `json:"primitiveTests"`
	ShadowTests      int64   `json:"shadowTests"`
}

// memoryFilm keeps the finished image instead of writing it to disk
type memoryFilm struct {
	*film.ImageFilm
	img *image.RGBA64
}

func (m *memoryFilm) WriteImage(splatScale float64) error {
	m.img = m.ImageFilm.Image(splatScale)
	return nil
}

// handleRender renders a built-in scene, streaming log lines and then the
// finished image via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	logger := NewWebLogger(fmt.Sprintf("render-%d", time.Now().UnixNano()), consoleSink(ctx, sseEventChan))
	result, err := s.render(ctx, req, logger)
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", err.Error())
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", err.Error())
		return
	}
	s.sendEvent(ctx, sseEventChan, "complete", string(data))
}

// render runs a whole render for req and encodes the image
func (s *Server) render(ctx context.Context, req *RenderRequest, logger core.Logger) (*RenderResult, error) {
	startTime := time.Now()

	sceneObj, err := s.loadScene(req.Scene, logger)
	if err != nil {
		return nil, err
	}

	imageFilm, err := film.NewImageFilm(film.ImageFilmConfig{
		Width:  req.Width,
		Height: req.Height,
		Crop:   film.FullCrop(),
		Gamma:  2.0,
	})
	if err != nil {
		return nil, err
	}
	f := &memoryFilm{ImageFilm: imageFilm}

	cam, err := camera.NewPerspective(sceneObj.Camera, f)
	if err != nil {
		return nil, err
	}
	integ, err := integrator.New(integrator.Config{Type: req.Integrator, AOSamples: req.AOSamples})
	if err != nil {
		return nil, err
	}
	smp := sampler.NewRandomSampler(f.SampleExtent(), req.SPP, sceneObj.Camera.ShutterOpen, sceneObj.Camera.ShutterClose, req.Seed)

	config := renderer.DefaultConfig()
	config.Workers = req.Workers
	config.Seed = req.Seed

	stats, err := renderer.NewSamplerRenderer(sceneObj, cam, smp, integ, config, logger).Render(ctx)
	if err != nil {
		return nil, fmt.Errorf("render error: %w", err)
	}

	imageData, err := imageToBase64PNG(f.img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &RenderResult{
		ImageData: imageData,
		Stats: Stats{
			Tasks:            stats.Tasks,
			TotalSamples:     stats.TotalSamples,
			InvalidSamples:   stats.InvalidSamples,
			MeanTaskSamples:  stats.MeanSamples,
			CellVisitsPerRay: stats.CellVisitsPerRay(),
			PrimitiveTests:   stats.Rays.PrimitiveTests,
			ShadowTests:      stats.Rays.ShadowPrimitiveTests,
		},
		ElapsedMs: time.Since(startTime).Milliseconds(),
	}, nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// consoleSink forwards console messages to the SSE stream, dropping them
// when the stream is backed up
func consoleSink(ctx context.Context, sseEventChan chan<- SSEEvent) func(ConsoleMessage) {
	return func(msg ConsoleMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Error marshaling console message: %v", err)
			return
		}
		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
			// Channel full, skip message to avoid blocking
		}
	}
}

// sendEvent queues an event unless the client has gone away
func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType, data string) {
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
	}
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				// Channel closed
				return
			}

			// Write SSE event
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}
