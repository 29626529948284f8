package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"github.com/df07/go-grid-raytracer/pkg/film"
	"github.com/df07/go-grid-raytracer/pkg/scene"
)

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if opts.scene != "cube" {
		t.Errorf("Expected scene 'cube', got %q", opts.scene)
	}
	if opts.width != 400 || opts.height != 300 {
		t.Errorf("Expected 400x300, got %dx%d", opts.width, opts.height)
	}
	if opts.crop != film.FullCrop() {
		t.Errorf("Expected a full crop window, got %+v", opts.crop)
	}
	if opts.gridRes != [3]int{} {
		t.Errorf("Expected no grid resolution override, got %v", opts.gridRes)
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{"all options", []string{"-scene", "spheregrid", "-width", "64", "-height", "48", "-spp", "2",
			"-crop", "0.25,0.75,0,0.5", "-grid-res", "4,4,2", "-falsecolor", "-wireframe"}, false},
		{"zero width", []string{"-width", "0"}, true},
		{"zero spp", []string{"-spp", "0"}, true},
		{"bad crop", []string{"-crop", "0,1"}, true},
		{"bad grid resolution", []string{"-grid-res", "4,0,4"}, true},
		{"unknown flag", []string{"-bogus"}, true},
		{"stray argument", []string{"extra"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args)
			if tt.expectError && err == nil {
				t.Error("Expected an error, got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestParseCrop(t *testing.T) {
	crop, err := parseCrop("0.1, 0.9, 0.2, 0.8")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := film.CropWindow{X0: 0.1, X1: 0.9, Y0: 0.2, Y1: 0.8}
	if crop != expected {
		t.Errorf("Expected %+v, got %+v", expected, crop)
	}

	for _, bad := range []string{"", "a,b,c,d", "0,1,0,1,0"} {
		if _, err := parseCrop(bad); err == nil {
			t.Errorf("Expected an error for crop %q", bad)
		}
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		input       string
		expected    [3]int
		expectError bool
	}{
		{"1,1,1", [3]int{1, 1, 1}, false},
		{"16, 8, 4", [3]int{16, 8, 4}, false},
		{"0,1,1", [3]int{}, true},
		{"1.5,1,1", [3]int{}, true},
		{"1,1", [3]int{}, true},
	}

	for _, tt := range tests {
		got, err := parseResolution(tt.input)
		if tt.expectError {
			if err == nil {
				t.Errorf("Expected an error for %q", tt.input)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("parseResolution(%q): expected %v, got %v (%v)", tt.input, tt.expected, got, err)
		}
	}
}

func TestLoadScene(t *testing.T) {
	base, err := parseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range scene.BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			opts := base
			opts.scene = name
			s, err := loadScene(opts, core.NopLogger{})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s.PrimitiveCount() == 0 {
				t.Error("Expected primitives")
			}
			if _, ok := s.Grid(); !ok {
				t.Error("Expected the scene to be indexed by a grid")
			}
		})
	}

	t.Run("grid resolution override", func(t *testing.T) {
		opts := base
		opts.gridRes = [3]int{1, 1, 1}
		s, err := loadScene(opts, core.NopLogger{})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		g, ok := s.Grid()
		if !ok || g.Resolution() != [3]int{1, 1, 1} {
			t.Errorf("Expected a 1x1x1 grid")
		}
	})

	t.Run("bvh override", func(t *testing.T) {
		opts := base
		opts.accel = "bvh"
		s, err := loadScene(opts, core.NopLogger{})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, ok := s.Grid(); ok {
			t.Error("Expected a BVH, got a grid")
		}
	})

	t.Run("unknown scene", func(t *testing.T) {
		opts := base
		opts.scene = "nonexistent"
		if _, err := loadScene(opts, core.NopLogger{}); !errors.Is(err, scene.ErrUnknownScene) {
			t.Errorf("Expected ErrUnknownScene, got %v", err)
		}
	})
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	opts, err := parseFlags([]string{
		"-width", "16", "-height", "12", "-spp", "1", "-workers", "2", "-ao-samples", "2",
		"-falsecolor", "-wireframe", "-first-pass", "3",
		"-checkpoint", filepath.Join(dir, "checkpoint.json"),
		"-out", filepath.Join(dir, "cube.png"),
	})
	if err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	stats, err := run(context.Background(), opts, core.NopLogger{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if expected := int64(17 * 13); stats.TotalSamples != expected {
		t.Errorf("Expected %d samples, got %d", expected, stats.TotalSamples)
	}

	for _, name := range []string{"cube.png", "cube-p.falsecolor", "cube-t.falsecolor", "cube-wfr.png", "checkpoint.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	opts, err := parseFlags([]string{"-width", "16", "-height", "12", "-out", filepath.Join(dir, "cube.png")})
	if err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := run(ctx, opts, core.NopLogger{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cube.png")); !os.IsNotExist(err) {
		t.Errorf("Expected no image after cancellation, got %v", err)
	}
}
