package calculate

import (
	"math"
	"testing"
)

func generateTestPrices(n int, generator func(int) float64) []float64 {
	prices := make([]float64, n)
	for i := 0; i < n; i++ {
		prices[i] = generator(i)
	}
	return prices
}

func TestRSIBounds(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
	}{
		{
			name: "oscillating walk",
			prices: generateTestPrices(100, func(i int) float64 {
				return 100 + 5*math.Sin(float64(i)*0.7) + float64(i%7)
			}),
		},
		{
			name: "downtrend with bounces",
			prices: generateTestPrices(60, func(i int) float64 {
				return 200 - float64(i)*1.5 + float64(i%3)*2
			}),
		},
		{
			name: "uptrend",
			prices: generateTestPrices(60, func(i int) float64 {
				return 50 + float64(i)*0.8
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi := RSI(tt.prices, 14)
			if len(rsi) != len(tt.prices) {
				t.Fatalf("RSI length = %d, want %d", len(rsi), len(tt.prices))
			}
			for i, v := range rsi {
				if math.IsNaN(v) {
					t.Fatalf("RSI[%d] is NaN for well-formed input", i)
				}
				if v < 0 || v > 100 {
					t.Errorf("RSI[%d] = %v, want in [0,100]", i, v)
				}
			}
		})
	}
}

func TestRSIAllGainsIs100(t *testing.T) {
	prices := generateTestPrices(30, func(i int) float64 {
		return 100 + float64(i)*2
	})

	rsi := RSI(prices, 14)
	for i, v := range rsi {
		if v != 100 {
			t.Errorf("RSI[%d] = %v, want exactly 100 for non-negative deltas", i, v)
		}
	}
}

func TestRSIInsufficientData(t *testing.T) {
	prices := generateTestPrices(14, func(i int) float64 {
		return 100 + float64(i)
	})

	// 14 points is one short of period+1
	rsi := RSI(prices, 14)
	for i, v := range rsi {
		if !math.IsNaN(v) {
			t.Errorf("RSI[%d] = %v, want NaN for series shorter than period+1", i, v)
		}
	}
}

func TestMAExactMean(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	ma := MA(prices, 3)

	for i := 0; i < 2; i++ {
		if !math.IsNaN(ma[i]) {
			t.Errorf("MA[%d] = %v, want NaN before period-1 points", i, ma[i])
		}
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if got := ma[i+2]; got != w {
			t.Errorf("MA[%d] = %v, want %v", i+2, got, w)
		}
	}
}

func TestMAFractionalFixture(t *testing.T) {
	prices := []float64{10.5, 11.25, 12}
	ma := MA(prices, 3)
	if got := ma[2]; got != 11.25 {
		t.Errorf("MA[2] = %v, want exactly 11.25", got)
	}
}

func TestMAInsufficientData(t *testing.T) {
	ma := MA([]float64{1, 2}, 5)
	for i, v := range ma {
		if !math.IsNaN(v) {
			t.Errorf("MA[%d] = %v, want NaN", i, v)
		}
	}
}

func TestLast(t *testing.T) {
	if !math.IsNaN(Last(nil)) {
		t.Error("Last(nil) should be NaN")
	}
	if got := Last([]float64{1, 2, 3}); got != 3 {
		t.Errorf("Last = %v, want 3", got)
	}
}
