package calculate

import "math"

// MA computes a simple trailing moving average. Each element is the
// arithmetic mean of the period most recent points; indices with fewer than
// period points available are NaN.
func MA(prices []float64, period int) []float64 {
	ma := make([]float64, len(prices))
	for i := range ma {
		ma[i] = math.NaN()
	}
	if period <= 0 || len(prices) < period {
		return ma
	}

	// Summing each window from scratch keeps every element the exact mean
	// of its trailing points, unaffected by accumulated rounding.
	for i := period - 1; i < len(prices); i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += prices[j]
		}
		ma[i] = sum / float64(period)
	}

	return ma
}

// Last returns the final element of an indicator series, or NaN when the
// series is empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}
