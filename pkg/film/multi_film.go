package film

import (
	"errors"
	"image"

	"github.com/df07/go-grid-raytracer/pkg/core"
)

// MultiFilm forwards every sample to several films. Extents and resolution
// are those of the first film.
type MultiFilm struct {
	films []Film
}

// NewMultiFilm combines films; at least one is required
func NewMultiFilm(films ...Film) (*MultiFilm, error) {
	if len(films) == 0 {
		return nil, errors.New("multi film needs at least one film")
	}
	return &MultiFilm{films: films}, nil
}

// Films returns the wrapped films
func (m *MultiFilm) Films() []Film {
	return m.films
}

func (m *MultiFilm) AddSample(sample *core.CameraSample, radiance core.Vec3, ray *core.Ray) {
	for _, f := range m.films {
		f.AddSample(sample, radiance, ray)
	}
}

func (m *MultiFilm) Splat(sample *core.CameraSample, radiance core.Vec3) {
	for _, f := range m.films {
		f.Splat(sample, radiance)
	}
}

func (m *MultiFilm) SampleExtent() image.Rectangle {
	return m.films[0].SampleExtent()
}

func (m *MultiFilm) PixelExtent() image.Rectangle {
	return m.films[0].PixelExtent()
}

func (m *MultiFilm) Resolution() (int, int) {
	return m.films[0].Resolution()
}

// WriteImage writes every film, returning all failures joined
func (m *MultiFilm) WriteImage(splatScale float64) error {
	var errs []error
	for _, f := range m.films {
		if err := f.WriteImage(splatScale); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
