package volume

import (
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the voxel values of a volume.
type Stats struct {
	Min, Max byte
	Mean     float64
	StdDev   float64
	Median   float64
	NonZero  int
}

// Summarize computes Stats from a 256-bin histogram of data.
func Summarize(data []byte) Stats {
	if len(data) == 0 {
		return Stats{}
	}
	var counts [256]float64
	for _, b := range data {
		counts[b]++
	}

	values := make([]float64, 256)
	for i := range values {
		values[i] = float64(i)
	}

	s := Stats{Min: 255}
	for i, c := range counts {
		if c == 0 {
			continue
		}
		s.Min = min(s.Min, byte(i))
		s.Max = max(s.Max, byte(i))
	}
	s.NonZero = len(data) - int(counts[0])
	s.Mean, s.StdDev = stat.MeanStdDev(values, counts[:])
	if len(data) == 1 {
		s.StdDev = 0
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, values, counts[:])
	return s
}
