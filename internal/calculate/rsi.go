package calculate

import "math"

// RSI computes Wilder's smoothed Relative Strength Index over the whole
// price series. The first period deltas seed the average gain/loss; from
// index period onward the averages are smoothed exponentially. Values at
// indices below period repeat the seed RSI.
//
// When the series has fewer than period+1 points the indicator is
// undefined and every element is NaN, which callers must treat as "skip
// this instrument". When the average loss is zero the RSI is defined as
// 100 so the output always stays inside [0, 100].
func RSI(prices []float64, period int) []float64 {
	rsi := make([]float64, len(prices))
	for i := range rsi {
		rsi[i] = math.NaN()
	}
	if period <= 0 || len(prices) < period+1 {
		return rsi
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	seed := rsiValue(avgGain, avgLoss)
	for i := 0; i < period; i++ {
		rsi[i] = seed
	}

	for i := period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain = (avgGain*float64(period-1) + change) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - change) / float64(period)
		}
		rsi[i] = rsiValue(avgGain, avgLoss)
	}

	return rsi
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
