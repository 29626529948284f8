package sampler

import "github.com/df07/go-grid-raytracer/pkg/core"

// Sample is a camera sample plus the extra sample arrays integrators ask for.
// N1D and N2D hold the requested array sizes; OneD and TwoD the values, with
// TwoD[i] storing 2*N2D[i] numbers as consecutive pairs.
type Sample struct {
	core.CameraSample

	N1D  []int
	N2D  []int
	OneD [][]float64
	TwoD [][]float64
}

// Add1D requests an array of num 1D values and returns its index
func (s *Sample) Add1D(num int) int {
	s.N1D = append(s.N1D, num)
	return len(s.N1D) - 1
}

// Add2D requests an array of num 2D values and returns its index
func (s *Sample) Add2D(num int) int {
	s.N2D = append(s.N2D, num)
	return len(s.N2D) - 1
}

// Duplicate returns count samples with the same requested arrays, each with
// its own storage
func (s *Sample) Duplicate(count int) []*Sample {
	samples := make([]*Sample, count)
	for i := range samples {
		d := &Sample{
			N1D:  append([]int(nil), s.N1D...),
			N2D:  append([]int(nil), s.N2D...),
			OneD: make([][]float64, len(s.N1D)),
			TwoD: make([][]float64, len(s.N2D)),
		}
		for j, n := range s.N1D {
			d.OneD[j] = make([]float64, n)
		}
		for j, n := range s.N2D {
			d.TwoD[j] = make([]float64, 2*n)
		}
		samples[i] = d
	}
	return samples
}

// Get2D returns pair j of 2D array i
func (s *Sample) Get2D(i, j int) core.Vec2 {
	return core.NewVec2(s.TwoD[i][2*j], s.TwoD[i][2*j+1])
}
