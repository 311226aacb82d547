package stats

import (
	"math"

	"golang.org/x/exp/slices"
)

// Summary describes the distribution of a set of durations, in milliseconds.
// All fields but Count are nil when Count is zero.
type Summary struct {
	Count int      `json:"n"`
	Mean  *float64 `json:"avg_ms,omitempty"`
	P50   *float64 `json:"p50_ms,omitempty"`
	P95   *float64 `json:"p95_ms,omitempty"`
	Min   *float64 `json:"min_ms,omitempty"`
	Max   *float64 `json:"max_ms,omitempty"`
}

// Percentile returns the p-th percentile (p in [0, 1]) of values, linearly interpolating between the
// two closest ranks. Returns NaN for empty input, which callers must treat as "no data".
// values is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	if len(values) == 1 {
		return values[0]
	}
	xs := slices.Clone(values)
	slices.Sort(xs)
	return percentileOfSorted(xs, p)
}

// p outside [0, 1] is clamped to the nearest end.
func percentileOfSorted(xs []float64, p float64) float64 {
	k := math.Max(0, math.Min(1, p)) * float64(len(xs)-1)
	f := int(math.Floor(k))
	c := f + 1
	if c > len(xs)-1 {
		c = len(xs) - 1
	}
	if f == c {
		return xs[f]
	}
	return xs[f] + (xs[c]-xs[f])*(k-float64(f))
}

// Summarize computes count, mean, median, 95th percentile, min and max of values,
// each rounded to 2 decimal places.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{Count: 0}
	}
	xs := slices.Clone(values)
	slices.Sort(xs)
	return Summary{
		Count: len(xs),
		Mean:  roundedPtr(mean(xs)),
		P50:   roundedPtr(percentileOfSorted(xs, 0.50)),
		P95:   roundedPtr(percentileOfSorted(xs, 0.95)),
		Min:   roundedPtr(xs[0]),
		Max:   roundedPtr(xs[len(xs)-1]),
	}
}

// Round rounds v to 2 decimal places.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundedPtr(v float64) *float64 {
	r := Round(v)
	return &r
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
