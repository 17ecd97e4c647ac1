package statistics

import (
	"fmt"
	"math"
	"sort"
)

// Statistics accumulates a stream of scores and reports their distribution
type Statistics struct {
	Count  int
	Sum    float64
	SumSq  float64   // Sum of squares for variance calculation
	Values []float64 // Store all values for median/percentile calculation

	MinValue float64
	MaxValue float64
}

// Add incorporates a new value into the statistics
func (s *Statistics) Add(v float64) {
	if s.Count == 0 || v < s.MinValue {
		s.MinValue = v
	}
	if s.Count == 0 || v > s.MaxValue {
		s.MaxValue = v
	}
	s.Count++
	s.Sum += v
	s.SumSq += v * v
	s.Values = append(s.Values, v)
}

// AddInt is Add for integer scores
func (s *Statistics) AddInt(v int) {
	s.Add(float64(v))
}

// Mean returns the arithmetic mean of all values
func (s *Statistics) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Variance returns the sample variance of all values
func (s *Statistics) Variance() float64 {
	if s.Count < 2 {
		return 0
	}
	mean := s.Mean()
	v := (s.SumSq - float64(s.Count)*mean*mean) / float64(s.Count-1)
	// Rounding can push a zero variance slightly negative.
	return math.Max(v, 0)
}

// StdDev returns the sample standard deviation of all values
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Count))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Min returns the smallest value seen
func (s *Statistics) Min() float64 {
	return s.MinValue
}

// Max returns the largest value seen
func (s *Statistics) Max() float64 {
	return s.MaxValue
}

// Median returns the median value of all values
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s *Statistics) sorted() []float64 {
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	return sorted
}

// Merge folds other into s
func (s *Statistics) Merge(other *Statistics) {
	for _, v := range other.Values {
		s.Add(v)
	}
}

// Validate checks that the running totals agree with the stored values
func (s *Statistics) Validate() error {
	if s.Count < 0 {
		return fmt.Errorf("invalid count: %d", s.Count)
	}
	if len(s.Values) != s.Count {
		return fmt.Errorf("values array length (%d) does not match count (%d)",
			len(s.Values), s.Count)
	}
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	if math.Abs(sum-s.Sum) > 1e-6 {
		return fmt.Errorf("sum mismatch: running=%.6f, values=%.6f", s.Sum, sum)
	}
	return nil
}
