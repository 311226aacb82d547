package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	tests := map[string]struct {
		values []float64
		p      float64
		want   float64
	}{
		"single element p0":         {[]float64{42}, 0, 42},
		"single element p95":        {[]float64{42}, 0.95, 42},
		"single element p100":       {[]float64{42}, 1, 42},
		"p0 is min":                 {[]float64{3, 1, 2}, 0, 1},
		"p100 is max":               {[]float64{3, 1, 2}, 1, 3},
		"median of odd":             {[]float64{5, 1, 3}, 0.5, 3},
		"median of even":            {[]float64{4, 1, 3, 2}, 0.5, 2.5},
		"p95 interpolates":          {[]float64{10, 20, 30, 40, 50}, 0.95, 48},
		"p25 interpolates":          {[]float64{1, 2, 3, 4}, 0.25, 1.75},
		"duplicates":                {[]float64{7, 7, 7, 7}, 0.95, 7},
		"two elements interpolated": {[]float64{100, 0}, 0.1, 10},
		"negative p clamps to min":  {[]float64{3, 1, 2}, -0.5, 1},
		"p above one clamps to max": {[]float64{3, 1, 2}, 1.5, 3},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Percentile(tc.values, tc.p), 1e-9)
		})
	}
}

func TestPercentile_Empty(t *testing.T) {
	for _, p := range []float64{0, 0.5, 0.95, 1} {
		assert.True(t, math.IsNaN(Percentile(nil, p)))
		assert.True(t, math.IsNaN(Percentile([]float64{}, p)))
	}
}

func TestPercentile_DoesNotModifyInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Percentile(values, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]float64{12.346, 10, 11, 30.001, 15})

	require.Equal(t, 5, summary.Count)
	assert.Equal(t, 15.67, *summary.Mean)
	assert.Equal(t, 12.35, *summary.P50)
	assert.Equal(t, 27.0, *summary.P95)
	assert.Equal(t, 10.0, *summary.Min)
	assert.Equal(t, 30.0, *summary.Max)
}

func TestSummarize_Ordering(t *testing.T) {
	inputs := [][]float64{
		{1},
		{5, 5},
		{9, 1, 8, 2, 7, 3},
		{0.01, 1000, 33.3, 2.5, 2.5, 600, 14},
	}
	for _, values := range inputs {
		summary := Summarize(values)
		assert.Equal(t, len(values), summary.Count)
		assert.LessOrEqual(t, *summary.Min, *summary.P50)
		assert.LessOrEqual(t, *summary.P50, *summary.P95)
		assert.LessOrEqual(t, *summary.P95, *summary.Max)
		assert.LessOrEqual(t, *summary.Min, *summary.Mean)
		assert.LessOrEqual(t, *summary.Mean, *summary.Max)
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, Summary{Count: 0}, summary)
}

func TestSummarize_Idempotent(t *testing.T) {
	values := []float64{3.14159, 2.71828, 1.41421, 1.73205}
	first := Summarize(values)
	second := Summarize(values)
	assert.Equal(t, first, second)
	assert.Equal(t, math.Float64bits(*first.P95), math.Float64bits(*second.P95))
	assert.Equal(t, []float64{3.14159, 2.71828, 1.41421, 1.73205}, values)
}
