package film

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/df07/go-grid-raytracer/pkg/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistic planes written by FalseColorFilm, in file suffix order
var falseColorPlanes = []struct {
	suffix string
	name   string
	value  func(s *core.RayStats) int64
}{
	{"p", "cell visits", func(s *core.RayStats) int64 { return s.CellVisits }},
	{"s", "shadow cell visits", func(s *core.RayStats) int64 { return s.ShadowCellVisits }},
	{"r", "primitive tests", func(s *core.RayStats) int64 { return s.PrimitiveTests }},
	{"t", "shadow primitive tests", func(s *core.RayStats) int64 { return s.ShadowPrimitiveTests }},
}

// FalseColorFilm records how much acceleration work each pixel's rays cost
// instead of their radiance. Each statistic is written as a plain-text grid.
type FalseColorFilm struct {
	width, height int
	extent        image.Rectangle
	path          string
	planes        [4][]atomic.Int64
}

// NewFalseColorFilm creates a statistics film; files are written next to path
func NewFalseColorFilm(width, height int, crop CropWindow, path string) (*FalseColorFilm, error) {
	extent, err := pixelExtent(width, height, crop)
	if err != nil {
		return nil, err
	}
	f := &FalseColorFilm{width: width, height: height, extent: extent, path: path}
	for i := range f.planes {
		f.planes[i] = make([]atomic.Int64, extent.Dx()*extent.Dy())
	}
	return f, nil
}

// AddSample adds the ray's counters to every pixel within half a pixel of the sample
func (f *FalseColorFilm) AddSample(sample *core.CameraSample, radiance core.Vec3, ray *core.Ray) {
	if ray == nil {
		return
	}
	x0, x1 := boxSupport(sample.ImageX, 0.5, f.extent.Min.X, f.extent.Max.X)
	y0, y1 := boxSupport(sample.ImageY, 0.5, f.extent.Min.Y, f.extent.Max.Y)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			offset := (y-f.extent.Min.Y)*f.extent.Dx() + (x - f.extent.Min.X)
			for i, plane := range falseColorPlanes {
				f.planes[i][offset].Add(plane.value(&ray.Stats))
			}
		}
	}
}

// Splat is ignored; splats carry no ray
func (f *FalseColorFilm) Splat(sample *core.CameraSample, radiance core.Vec3) {}

func (f *FalseColorFilm) SampleExtent() image.Rectangle {
	return image.Rectangle{Min: f.extent.Min, Max: f.extent.Max.Add(image.Pt(1, 1))}
}

func (f *FalseColorFilm) PixelExtent() image.Rectangle {
	return f.extent
}

func (f *FalseColorFilm) Resolution() (int, int) {
	return f.width, f.height
}

// Count returns one statistic of pixel (x, y); plane indexes follow the
// p, s, r, t file order
func (f *FalseColorFilm) Count(plane, x, y int) int64 {
	if !image.Pt(x, y).In(f.extent) {
		return 0
	}
	return f.planes[plane][(y-f.extent.Min.Y)*f.extent.Dx()+(x-f.extent.Min.X)].Load()
}

// PlaneSummary describes the distribution of one statistic over the image
type PlaneSummary struct {
	Name   string
	Total  float64
	Mean   float64
	StdDev float64
	Max    float64
}

// Summary computes per-plane statistics
func (f *FalseColorFilm) Summary() []PlaneSummary {
	summaries := make([]PlaneSummary, len(falseColorPlanes))
	values := make([]float64, f.extent.Dx()*f.extent.Dy())
	for i, plane := range falseColorPlanes {
		for j := range values {
			values[j] = float64(f.planes[i][j].Load())
		}
		mean, std := stat.MeanStdDev(values, nil)
		if len(values) < 2 {
			std = 0
		}
		summaries[i] = PlaneSummary{
			Name:   plane.name,
			Total:  floats.Sum(values),
			Mean:   mean,
			StdDev: std,
			Max:    floats.Max(values),
		}
	}
	return summaries
}

// WriteImage writes one grid per statistic, a row of space separated
// integers per image row, to <path>-p.falsecolor, -s, -r and -t
func (f *FalseColorFilm) WriteImage(splatScale float64) error {
	for i, plane := range falseColorPlanes {
		name := f.path + "-" + plane.suffix + ".falsecolor"
		if err := f.writePlane(name, i); err != nil {
			return fmt.Errorf("failed to write %s plane: %w", plane.name, err)
		}
	}
	return nil
}

func (f *FalseColorFilm) writePlane(name string, plane int) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)

	var buf []byte
	for y := 0; y < f.extent.Dy(); y++ {
		buf = buf[:0]
		for x := 0; x < f.extent.Dx(); x++ {
			if x > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendInt(buf, f.planes[plane][y*f.extent.Dx()+x].Load(), 10)
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			file.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
