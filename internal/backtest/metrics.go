package backtest

import (
	"fmt"
	"math"

	"github.com/benjamintsai23/margin-momentum-trading/models"
)

// calculateMetrics derives the performance figures from the trade log and
// equity curve. With zero trades every rate is zero and the final capital
// is the last curve value, or the initial capital when the curve is empty.
func (e *Engine) calculateMetrics(trades []models.Trade, curve []models.EquityPoint, start, end string) *models.BacktestResult {
	result := &models.BacktestResult{
		StartDate:      start,
		EndDate:        end,
		InitialCapital: e.initialCapital,
		FinalCapital:   e.initialCapital,
		Trades:         trades,
		EquityCurve:    curve,
	}
	if len(curve) > 0 {
		result.FinalCapital = curve[len(curve)-1].Value
	}
	if len(trades) == 0 {
		return result
	}

	result.TotalTrades = len(trades)
	for _, t := range trades {
		if t.PnL > 0 {
			result.WinningTrades++
		} else {
			// Break-even counts as losing
			result.LosingTrades++
		}
	}
	result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades)

	result.TotalReturn = (result.FinalCapital - e.initialCapital) / e.initialCapital

	days := models.DaysBetween(start, end)
	if days > 0 {
		result.AnnualReturn = math.Pow(result.FinalCapital/e.initialCapital, 365/float64(days)) - 1
	}

	var returns []float64
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev != 0 {
			returns = append(returns, (curve[i].Value-prev)/prev)
		}
	}
	mean := calculateMean(returns)
	stdDev := calculateStdDev(returns, mean)
	if stdDev > 0 {
		result.SharpeRatio = mean / stdDev * math.Sqrt(252) // Annualized
	}

	result.MaxDrawdown = maxDrawdown(curve)
	return result
}

// maxDrawdown is the worst peak-to-trough decline relative to the running
// maximum, a non-positive number.
func maxDrawdown(curve []models.EquityPoint) float64 {
	var worst float64
	runMax := math.Inf(-1)
	for _, p := range curve {
		if p.Value > runMax {
			runMax = p.Value
		}
		if runMax > 0 {
			if dd := (p.Value - runMax) / runMax; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func calculateStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}

// FormatResult creates a human-readable summary of a backtest run.
func (e *Engine) FormatResult(result *models.BacktestResult) string {
	if result == nil {
		return "No backtest results available"
	}

	output := "\n===== BACKTEST RESULTS =====\n"
	output += fmt.Sprintf("Period: %s ~ %s\n", result.StartDate, result.EndDate)
	output += fmt.Sprintf("Initial capital: %.0f\n", result.InitialCapital)
	output += fmt.Sprintf("Final capital: %.0f\n", result.FinalCapital)
	output += fmt.Sprintf("Total return: %.2f%%\n", result.TotalReturn*100)
	output += fmt.Sprintf("Annual return: %.2f%%\n", result.AnnualReturn*100)
	output += fmt.Sprintf("Sharpe ratio: %.2f\n", result.SharpeRatio)
	output += fmt.Sprintf("Maximum drawdown: %.2f%%\n", result.MaxDrawdown*100)
	output += fmt.Sprintf("\nTotal trades: %d\n", result.TotalTrades)
	output += fmt.Sprintf("Winning trades: %d\n", result.WinningTrades)
	output += fmt.Sprintf("Losing trades: %d\n", result.LosingTrades)
	output += fmt.Sprintf("Win rate: %.2f%%\n", result.WinRate*100)

	return output
}
