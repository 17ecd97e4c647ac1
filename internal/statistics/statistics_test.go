package statistics

import (
	"math"
	"strings"
	"testing"
)

func TestStatistics_Empty(t *testing.T) {
	stats := &Statistics{}

	if stats.Mean() != 0 {
		t.Errorf("Expected mean of 0 for empty stats, got %f", stats.Mean())
	}
	if stats.Variance() != 0 {
		t.Errorf("Expected variance of 0 for empty stats, got %f", stats.Variance())
	}
	if stats.StdDev() != 0 {
		t.Errorf("Expected stddev of 0 for empty stats, got %f", stats.StdDev())
	}
	if stats.StdError() != 0 {
		t.Errorf("Expected stderr of 0 for empty stats, got %f", stats.StdError())
	}
	if stats.Median() != 0 {
		t.Errorf("Expected median of 0 for empty stats, got %f", stats.Median())
	}
	if stats.Percentile(0.5) != 0 {
		t.Errorf("Expected percentile of 0 for empty stats, got %f", stats.Percentile(0.5))
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Expected empty stats to validate, got %v", err)
	}
}

func TestStatistics_SingleValue(t *testing.T) {
	stats := &Statistics{}
	stats.AddInt(161)

	if stats.Count != 1 {
		t.Errorf("Expected 1 value, got %d", stats.Count)
	}
	if stats.Mean() != 161 {
		t.Errorf("Expected mean of 161, got %f", stats.Mean())
	}
	if stats.Variance() != 0 {
		t.Errorf("Expected variance of 0 for single value, got %f", stats.Variance())
	}
	if stats.Median() != 161 {
		t.Errorf("Expected median of 161, got %f", stats.Median())
	}
	if stats.Min() != 161 || stats.Max() != 161 {
		t.Errorf("Expected min and max of 161, got %f and %f", stats.Min(), stats.Max())
	}
}

func TestStatistics_MultipleValues(t *testing.T) {
	stats := &Statistics{}

	// Round scores including a bust
	for _, v := range []int{12, 0, 30, 7, 21} {
		stats.AddInt(v)
	}

	expectedMean := (12.0 + 0 + 30 + 7 + 21) / 5.0
	if math.Abs(stats.Mean()-expectedMean) > 1e-9 {
		t.Errorf("Expected mean of %f, got %f", expectedMean, stats.Mean())
	}

	// Sorted values: 0, 7, 12, 21, 30
	if stats.Median() != 12 {
		t.Errorf("Expected median of 12, got %f", stats.Median())
	}
	if stats.Min() != 0 {
		t.Errorf("Expected min of 0, got %f", stats.Min())
	}
	if stats.Max() != 30 {
		t.Errorf("Expected max of 30, got %f", stats.Max())
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Expected valid stats, got %v", err)
	}
}

func TestStatistics_MedianEven(t *testing.T) {
	stats := &Statistics{}
	for _, v := range []float64{4, 1, 3, 2} {
		stats.Add(v)
	}
	if stats.Median() != 2.5 {
		t.Errorf("Expected median of 2.5, got %f", stats.Median())
	}
}

func TestStatistics_Percentiles(t *testing.T) {
	stats := &Statistics{}

	for i := 1; i <= 5; i++ {
		stats.Add(float64(i))
	}

	tests := []struct {
		percentile float64
		expected   float64
	}{
		{0.0, 1.0},
		{0.25, 2.0},
		{0.5, 3.0},
		{0.75, 4.0},
		{1.0, 5.0},
		{0.125, 1.5},
	}

	for _, test := range tests {
		result := stats.Percentile(test.percentile)
		if math.Abs(result-test.expected) > 1e-9 {
			t.Errorf("Percentile %.3f: expected %f, got %f", test.percentile, test.expected, result)
		}
	}
}

func TestStatistics_ConfidenceInterval(t *testing.T) {
	stats := &Statistics{}

	for _, v := range []float64{1, 2, 3, 4, 5} {
		stats.Add(v)
	}

	low, high := stats.ConfidenceInterval95()
	mean := stats.Mean()

	if math.Abs((low+high)/2-mean) > 1e-9 {
		t.Errorf("Confidence interval not symmetric around mean. Low: %f, High: %f, Mean: %f", low, high, mean)
	}
	if high-low <= 0 {
		t.Errorf("Confidence interval should be positive width, got %f", high-low)
	}
}

func TestStatistics_Variance(t *testing.T) {
	stats := &Statistics{}

	// [1, 3, 5] -> sample variance = 4.0
	for _, v := range []float64{1, 3, 5} {
		stats.Add(v)
	}

	if math.Abs(stats.Variance()-4.0) > 1e-9 {
		t.Errorf("Expected variance of 4, got %f", stats.Variance())
	}
	if math.Abs(stats.StdDev()-2.0) > 1e-9 {
		t.Errorf("Expected stddev of 2, got %f", stats.StdDev())
	}
}

func TestStatistics_Merge(t *testing.T) {
	a, b := &Statistics{}, &Statistics{}
	a.Add(1)
	a.Add(2)
	b.Add(10)

	a.Merge(b)
	if a.Count != 3 {
		t.Errorf("Expected 3 values after merge, got %d", a.Count)
	}
	if a.Max() != 10 {
		t.Errorf("Expected max of 10 after merge, got %f", a.Max())
	}
	if b.Count != 1 {
		t.Errorf("Merge must not modify its argument, got count %d", b.Count)
	}
}

func TestStatistics_Validate_ValuesMismatch(t *testing.T) {
	stats := &Statistics{}
	stats.Count = 2
	stats.Sum = 1
	stats.Values = []float64{1.0}

	err := stats.Validate()
	if err == nil {
		t.Fatal("Expected validation to fail with values array mismatch")
	}
	if !strings.Contains(err.Error(), "values array length") {
		t.Errorf("Expected values array length error, got: %v", err)
	}
}

func TestStatistics_Validate_SumMismatch(t *testing.T) {
	stats := &Statistics{}
	stats.Add(3)
	stats.Sum = 4

	err := stats.Validate()
	if err == nil {
		t.Fatal("Expected validation to fail with sum mismatch")
	}
	if !strings.Contains(err.Error(), "sum mismatch") {
		t.Errorf("Expected sum mismatch error, got: %v", err)
	}
}
