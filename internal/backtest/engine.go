package backtest

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/benjamintsai23/margin-momentum-trading/config"
	"github.com/benjamintsai23/margin-momentum-trading/models"
)

// Strategy produces the signal set for one date, or an empty set. It must
// be pure with respect to engine state; the engine calls it once per date.
type Strategy func(date string) ([]models.Signal, error)

// holding is an open position. Owned exclusively by the engine; one holding
// per instrument, no averaging-in.
type holding struct {
	shares            int
	entryPrice        float64
	entryDate         string
	grade             models.Grade
	expectedReturnPct float64
	stopLossPct       float64
	holdingDaysTarget int
	lastValue         float64 // shares * last known price, for days without data
}

// Engine simulates the strategy day by day over a calendar date range,
// managing cash and holdings and recording an equity curve.
type Engine struct {
	cfg            *config.Config
	initialCapital float64
	logger         zerolog.Logger
}

// NewEngine creates a backtest engine with the configured initial capital.
func NewEngine(cfg *config.Config, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:            cfg,
		initialCapital: cfg.InitialCapital,
		logger:         logger.With().Str("component", "backtest").Logger(),
	}
}

// SetInitialCapital overrides the starting capital for this engine.
func (e *Engine) SetInitialCapital(capital float64) {
	e.initialCapital = capital
}

// Run executes a single simulation over [start, end] inclusive. Either the
// run completes and returns a full result, or it fails before producing
// anything; the caller never sees a partial equity curve.
func (e *Engine) Run(prices *models.Table, start, end string, strategy Strategy) (*models.BacktestResult, error) {
	if prices.Empty() {
		return nil, fmt.Errorf("stock price data not available")
	}
	dates, err := models.DateRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("invalid date range %s ~ %s: %w", start, end, err)
	}

	e.logger.Info().Str("start", start).Str("end", end).Msg("starting backtest")

	cash := e.initialCapital
	holdings := make(map[string]*holding)
	var trades []models.Trade
	curve := make([]models.EquityPoint, 0, len(dates))
	lastEquity := e.initialCapital

	for _, date := range dates {
		// Non-trading days carry the curve forward at the last known value.
		if !prices.HasDate(date) {
			curve = append(curve, models.EquityPoint{Date: date, Value: lastEquity})
			continue
		}

		signals, err := strategy(date)
		if err != nil {
			return nil, fmt.Errorf("strategy failed on %s: %w", date, err)
		}

		e.openPositions(prices, holdings, signals, date, &cash)
		trades = e.closePositions(prices, holdings, signals, date, &cash, trades)

		// Mark to market: cash plus every open holding at today's price,
		// or its last valid contribution when today's price is missing.
		value := cash
		for _, id := range sortedHoldingIDs(holdings) {
			h := holdings[id]
			if price, ok := prices.Cell(id, date); ok && price > 0 {
				h.lastValue = float64(h.shares) * price
			}
			value += h.lastValue
		}
		curve = append(curve, models.EquityPoint{Date: date, Value: value})
		lastEquity = value
	}

	result := e.calculateMetrics(trades, curve, start, end)
	e.logger.Info().
		Float64("total_return", result.TotalReturn).
		Float64("annual_return", result.AnnualReturn).
		Int("trades", result.TotalTrades).
		Msg("backtest complete")
	return result, nil
}

// openPositions enters a new holding for each buy signal of an instrument
// not already held. Position size is capped by both the per-position limit
// on initial capital and a tenth of current cash.
func (e *Engine) openPositions(prices *models.Table, holdings map[string]*holding, signals []models.Signal, date string, cash *float64) {
	for _, sig := range signals {
		if sig.Type != models.SignalBuy {
			continue
		}
		if _, held := holdings[sig.StockID]; held {
			continue
		}

		price, ok := prices.Cell(sig.StockID, date)
		if !ok || price <= 0 {
			continue
		}

		positionSize := math.Min(e.initialCapital*e.cfg.MaxPositionSize, *cash*0.10)
		shares := int(positionSize / price)
		if shares < 1 {
			continue
		}

		*cash -= float64(shares) * price
		holdings[sig.StockID] = &holding{
			shares:            shares,
			entryPrice:        price,
			entryDate:         date,
			grade:             sig.Grade,
			expectedReturnPct: sig.ExpectedReturnPct,
			stopLossPct:       sig.StopLossPct,
			holdingDaysTarget: sig.HoldingDaysTarget,
			lastValue:         float64(shares) * price,
		}
		e.logger.Debug().Str("stock", sig.StockID).Float64("price", price).Int("shares", shares).Msg("entry")
	}
}

// closePositions checks every open holding against the exit conditions in
// fixed priority: target, stop-loss, time, same-day sell signal. Only the
// first matching condition triggers, so a stop-loss beats a sell signal on
// the same day. Target and stop exits settle at their theoretical price,
// not the live one.
func (e *Engine) closePositions(prices *models.Table, holdings map[string]*holding, signals []models.Signal, date string, cash *float64, trades []models.Trade) []models.Trade {
	var closed []string
	for _, id := range sortedHoldingIDs(holdings) {
		h := holdings[id]

		price, ok := prices.Cell(id, date)
		if !ok || price <= 0 {
			continue
		}

		holdingDays := models.DaysBetween(h.entryDate, date)
		pnlPct := (price - h.entryPrice) / h.entryPrice

		var exitReason string
		var exitPrice float64
		switch {
		case pnlPct >= h.expectedReturnPct/100:
			exitReason = models.ExitTarget
			exitPrice = h.entryPrice * (1 + h.expectedReturnPct/100)
		case pnlPct <= h.stopLossPct/100:
			exitReason = models.ExitStopLoss
			exitPrice = h.entryPrice * (1 + h.stopLossPct/100)
		case holdingDays >= h.holdingDaysTarget:
			exitReason = models.ExitTime
			exitPrice = price
		case hasSellSignal(signals, id):
			exitReason = models.ExitSignal
			exitPrice = price
		default:
			continue
		}

		proceeds := float64(h.shares) * exitPrice
		*cash += proceeds

		trades = append(trades, models.Trade{
			StockID:           id,
			EntryDate:         h.entryDate,
			ExitDate:          date,
			EntryPrice:        h.entryPrice,
			ExitPrice:         exitPrice,
			Shares:            h.shares,
			SignalType:        models.SignalBuy,
			SignalGrade:       h.grade,
			ExpectedReturnPct: h.expectedReturnPct,
			StopLossPct:       h.stopLossPct,
			PnL:               proceeds - h.entryPrice*float64(h.shares),
			PnLPct:            (exitPrice - h.entryPrice) / h.entryPrice,
			ExitReason:        exitReason,
			HoldingDays:       holdingDays,
		})
		closed = append(closed, id)
		e.logger.Debug().Str("stock", id).Float64("price", exitPrice).Str("reason", exitReason).Msg("exit")
	}

	for _, id := range closed {
		delete(holdings, id)
	}
	return trades
}

func hasSellSignal(signals []models.Signal, stockID string) bool {
	for _, sig := range signals {
		if sig.StockID == stockID && sig.Type == models.SignalSell {
			return true
		}
	}
	return false
}

// sortedHoldingIDs keeps per-day processing order reproducible.
func sortedHoldingIDs(holdings map[string]*holding) []string {
	ids := make([]string, 0, len(holdings))
	for id := range holdings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
