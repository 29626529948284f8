package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/df07/go-grid-raytracer/pkg/camera"
	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/film"
	"github.com/df07/go-grid-raytracer/pkg/integrator"
	"github.com/df07/go-grid-raytracer/pkg/renderer"
	"github.com/df07/go-grid-raytracer/pkg/sampler"
	"github.com/df07/go-grid-raytracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	scene      string
	width      int
	height     int
	spp        int
	seed       int64
	workers    int
	tasks      int
	integrator string
	aoSamples  int
	aoDistance float64
	filter     string
	filterSize float64
	out        string
	crop       film.CropWindow
	falseColor bool
	wireframe  bool
	firstPass  int
	checkpoint string

	accel     string
	gridRes   [3]int
	cell      string
	threshold float64
}

var (
	gridColor    = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
	frustumColor = color.RGBA{R: 0x20, G: 0x60, B: 0xd0, A: 0xff}
)

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)

	fs.StringVar(&opts.scene, "scene", "cube", "Built-in scene ("+strings.Join(scene.BuiltinNames(), ", ")+") or path to a JSON scene file")
	fs.IntVar(&opts.width, "width", 400, "Image width in pixels")
	fs.IntVar(&opts.height, "height", 300, "Image height in pixels")
	fs.IntVar(&opts.spp, "spp", 4, "Samples per pixel")
	fs.Int64Var(&opts.seed, "seed", 1, "Random seed; equal seeds give identical images")
	fs.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = all logical CPUs)")
	fs.IntVar(&opts.tasks, "tasks", 0, "Number of render tasks (0 = automatic)")
	fs.StringVar(&opts.integrator, "integrator", "ao", "Surface integrator: 'ao' or 'occlusion'")
	fs.IntVar(&opts.aoSamples, "ao-samples", 4, "Ambient occlusion rays per sample")
	fs.Float64Var(&opts.aoDistance, "ao-distance", 0, "Ambient occlusion reach (0 = unlimited)")
	fs.StringVar(&opts.filter, "filter", "box", "Reconstruction filter: 'box', 'triangle' or 'gaussian'")
	fs.Float64Var(&opts.filterSize, "filter-width", 0, "Filter half-width in pixels (0 = filter default)")
	fs.StringVar(&opts.out, "out", filepath.Join("output", "render.png"), "Output image; .png, .tif or .bmp")
	crop := fs.String("crop", "0,1,0,1", "Crop window x0,x1,y0,y1 in [0,1]")
	fs.BoolVar(&opts.falseColor, "falsecolor", false, "Also write per-pixel acceleration statistics")
	fs.BoolVar(&opts.wireframe, "wireframe", false, "Also draw the grid, camera frustum and sampled rays")
	fs.IntVar(&opts.firstPass, "first-pass", 0, "Samples per task before the checkpoint (0 = single pass)")
	fs.StringVar(&opts.checkpoint, "checkpoint", "", "Write the checkpoint between passes to this file")
	fs.StringVar(&opts.accel, "accel", "", "Accelerator: 'grid' or 'bvh' (default from the scene)")
	gridRes := fs.String("grid-res", "", "Grid resolution nx,ny,nz (default from the scene)")
	fs.StringVar(&opts.cell, "cell", "", "Grid cell kind: group, always, never, probabilistic or binary")
	fs.Float64Var(&opts.threshold, "threshold", 0, "Hit rate of probabilistic cells")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.width <= 0 || opts.height <= 0 {
		return opts, fmt.Errorf("invalid resolution %dx%d", opts.width, opts.height)
	}
	if opts.spp <= 0 {
		return opts, fmt.Errorf("samples per pixel must be positive, got %d", opts.spp)
	}

	var err error
	if opts.crop, err = parseCrop(*crop); err != nil {
		return opts, err
	}
	if *gridRes != "" {
		if opts.gridRes, err = parseResolution(*gridRes); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// parseFloats splits a comma separated list of exactly n numbers
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated values, got %q", n, s)
	}
	values := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", p, err)
		}
		values[i] = v
	}
	return values, nil
}

func parseCrop(s string) (film.CropWindow, error) {
	v, err := parseFloats(s, 4)
	if err != nil {
		return film.CropWindow{}, fmt.Errorf("crop window: %w", err)
	}
	return film.CropWindow{X0: v[0], X1: v[1], Y0: v[2], Y1: v[3]}, nil
}

func parseResolution(s string) ([3]int, error) {
	var res [3]int
	v, err := parseFloats(s, 3)
	if err != nil {
		return res, fmt.Errorf("grid resolution: %w", err)
	}
	for i := range res {
		if v[i] < 1 || v[i] != float64(int(v[i])) {
			return res, fmt.Errorf("grid resolution: %g is not a positive integer", v[i])
		}
		res[i] = int(v[i])
	}
	return res, nil
}

// loadScene builds the requested scene with the accelerator overrides applied
func loadScene(opts options, logger core.Logger) (*scene.Scene, error) {
	desc, err := scene.Load(opts.scene)
	if err != nil {
		return nil, err
	}
	if opts.accel != "" {
		desc.Accelerator.Type = opts.accel
	}
	if opts.gridRes != [3]int{} {
		desc.Accelerator.Resolution = opts.gridRes
	}
	if opts.cell != "" {
		desc.Accelerator.Cell = opts.cell
	}
	if opts.threshold > 0 {
		desc.Accelerator.Threshold = opts.threshold
	}
	if desc.Accelerator.Seed == 0 {
		desc.Accelerator.Seed = opts.seed
	}
	return desc.Build(logger)
}

// createFilm builds the image film plus the optional debug films
func createFilm(opts options, s *scene.Scene) (film.Film, *film.WireframeFilm, error) {
	filter, err := film.NewFilter(opts.filter, opts.filterSize, opts.filterSize)
	if err != nil {
		return nil, nil, err
	}
	imageFilm, err := film.NewImageFilm(film.ImageFilmConfig{
		Width:  opts.width,
		Height: opts.height,
		Crop:   opts.crop,
		Filter: filter,
		Path:   opts.out,
		Gamma:  2.0,
	})
	if err != nil {
		return nil, nil, err
	}
	if !opts.falseColor && !opts.wireframe {
		return imageFilm, nil, nil
	}

	base := strings.TrimSuffix(opts.out, filepath.Ext(opts.out))
	films := []film.Film{imageFilm}
	if opts.falseColor {
		fc, err := film.NewFalseColorFilm(opts.width, opts.height, opts.crop, base)
		if err != nil {
			return nil, nil, err
		}
		films = append(films, fc)
	}

	var wf *film.WireframeFilm
	if opts.wireframe {
		cfg := film.DefaultWireframeFilmConfig()
		cfg.Width, cfg.Height, cfg.Crop, cfg.Path = opts.width, opts.height, opts.crop, base
		cfg.RayLength = s.Bounds().Diagonal().Length()
		if wf, err = film.NewWireframeFilm(cfg); err != nil {
			return nil, nil, err
		}
		films = append(films, wf)
	}

	multi, err := film.NewMultiFilm(films...)
	if err != nil {
		return nil, nil, err
	}
	return multi, wf, nil
}

// setupWireframe views the scene from outside its bounds, drawing the grid
// and the render camera's frustum
func setupWireframe(wf *film.WireframeFilm, s *scene.Scene, cam *camera.PerspectiveCamera) error {
	bounds := s.Bounds()
	center := bounds.Center()
	reach := max(bounds.Diagonal().Length(), 1)

	debugConfig := camera.DefaultConfig()
	debugConfig.Eye = center.Add(core.NewVec3(0.8, 0.9, 1.3).Normalize().Multiply(1.5 * reach))
	debugConfig.LookAt = center
	debugCam, err := camera.NewPerspective(debugConfig, wf)
	if err != nil {
		return fmt.Errorf("wireframe camera: %w", err)
	}
	wf.SetProjector(debugCam)

	if g, ok := s.Grid(); ok {
		wf.AddLines(g.Lines(), gridColor)
	}
	wf.AddLines(cam.FrustumLines(reach), frustumColor)
	return nil
}

// run renders the scene described by opts
func run(ctx context.Context, opts options, logger core.Logger) (renderer.RenderStats, error) {
	s, err := loadScene(opts, logger)
	if err != nil {
		return renderer.RenderStats{}, err
	}
	logger.Printf("Scene %q: %d primitives, %d lights\n", s.Name, s.PrimitiveCount(), len(s.Lights))

	if dir := filepath.Dir(opts.out); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return renderer.RenderStats{}, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, wf, err := createFilm(opts, s)
	if err != nil {
		return renderer.RenderStats{}, err
	}
	cam, err := camera.NewPerspective(s.Camera, f)
	if err != nil {
		return renderer.RenderStats{}, err
	}
	if wf != nil {
		if err := setupWireframe(wf, s, cam); err != nil {
			return renderer.RenderStats{}, err
		}
	}

	integ, err := integrator.New(integrator.Config{Type: opts.integrator, AOSamples: opts.aoSamples, MaxDistance: opts.aoDistance})
	if err != nil {
		return renderer.RenderStats{}, err
	}
	smp := sampler.NewRandomSampler(f.SampleExtent(), opts.spp, s.Camera.ShutterOpen, s.Camera.ShutterClose, opts.seed)

	config := renderer.DefaultConfig()
	config.Workers = opts.workers
	config.TaskCount = opts.tasks
	config.FirstPassIterations = opts.firstPass
	config.CheckpointPath = opts.checkpoint
	config.Seed = opts.seed

	r := renderer.NewSamplerRenderer(s, cam, smp, integ, config, logger)
	stats, err := r.Render(ctx)
	if err != nil {
		return stats, err
	}

	if multi, ok := f.(*film.MultiFilm); ok {
		for _, sub := range multi.Films() {
			if fc, ok := sub.(*film.FalseColorFilm); ok {
				for _, ps := range fc.Summary() {
					logger.Printf("  %-24s total %.0f, mean %.2f ± %.2f, max %.0f\n", ps.Name, ps.Total, ps.Mean, ps.StdDev, ps.Max)
				}
			}
		}
	}
	return stats, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := renderer.NewDefaultLogger()
	logger.Printf("Starting Grid Raytracer...\n")

	startTime := time.Now()
	stats, err := run(ctx, opts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Printf("Render completed in %v\n", time.Since(startTime))
	logger.Printf("Samples: %d (%.1f ± %.1f per task, max %d), %.2f cell visits per camera ray\n",
		stats.TotalSamples, stats.MeanSamples, stats.StdSamples, stats.MaxTaskSamples, stats.CellVisitsPerRay())
	logger.Printf("Render saved as %s\n", opts.out)
}
