package analyzer

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/benjamintsai23/margin-momentum-trading/config"
	"github.com/benjamintsai23/margin-momentum-trading/internal/calculate"
	"github.com/benjamintsai23/margin-momentum-trading/models"
)

// S-grade escalation cutoffs on top of the base buy/sell rule.
const (
	sGradeMarginChange = 0.15
	sGradeRSI          = 25.0
	sGradePriceVsMA20  = -0.05
	urgentShortChange  = 0.15
	urgentRSI          = 75.0
)

// Expected-return annotations per buy grade, in percent.
const (
	expectedReturnS = 15.0
	expectedReturnA = 10.0
)

// Detector evaluates margin/short anomalies combined with momentum
// indicators and emits graded buy/sell signals for one analysis date.
type Detector struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewDetector creates a detector with an injected logger.
func NewDetector(cfg *config.Config, logger zerolog.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		logger: logger.With().Str("component", "detector").Logger(),
	}
}

// Detect scans every instrument in the price table independently and
// returns the day's flat signal set. A problem with one instrument is
// logged and skipped, never aborting the batch. An entirely empty price
// table is a terminal error; an empty margin bundle just yields no signals.
func (d *Detector) Detect(prices *models.Table, margin models.MarginData, analysisDate string) ([]models.Signal, error) {
	if prices.Empty() {
		return nil, fmt.Errorf("stock price data not available")
	}

	if d.cfg.DetectionMode == config.ModeFallback {
		return d.detectFallback(prices, analysisDate), nil
	}

	marginToday, ok := margin.Field(models.FieldMarginTodayBalance)
	if !ok {
		d.logger.Warn().Str("date", analysisDate).Msg("margin balance dataset missing, no signals")
		return nil, nil
	}
	marginPrev, _ := margin.Field(models.FieldMarginPrevBalance)
	shortToday, _ := margin.Field(models.FieldShortTodayBalance)
	shortPrev, _ := margin.Field(models.FieldShortPrevBalance)

	var signals []models.Signal
	for _, stockID := range prices.Instruments() {
		sig := d.evaluate(prices, marginToday, marginPrev, shortToday, shortPrev, stockID, analysisDate)
		if sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals, nil
}

// evaluate applies the full margin-vs-short rule to a single instrument.
// Returns nil when no signal fires or required data is missing.
func (d *Detector) evaluate(prices, marginToday, marginPrev, shortToday, shortPrev *models.Table, stockID, analysisDate string) (sig *models.Signal) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug().Str("stock", stockID).Interface("panic", r).Msg("skipping instrument")
			sig = nil
		}
	}()

	price, ok := prices.Cell(stockID, analysisDate)
	if !ok || price <= 0 {
		return nil
	}

	rsiVal, ma20Val, ok := d.momentum(prices, stockID, analysisDate)
	if !ok {
		return nil
	}
	priceVsMA20 := 0.0
	if ma20Val > 0 {
		priceVsMA20 = (price - ma20Val) / ma20Val
	}

	marginBalance, ok := marginToday.LatestOnOrBefore(stockID, analysisDate)
	if !ok {
		return nil
	}
	// A missing previous-day figure defaults to today's balance, which
	// forces a 0% change instead of an error.
	prevMargin, ok := marginPrev.LatestOnOrBefore(stockID, analysisDate)
	if !ok {
		prevMargin = marginBalance
	}
	marginPctChange := 0.0
	if prevMargin > 0 {
		marginPctChange = (marginBalance - prevMargin) / prevMargin
	}

	shortBalance, ok := shortToday.LatestOnOrBefore(stockID, analysisDate)
	if !ok {
		shortBalance = 0
	}
	prevShort, ok := shortPrev.LatestOnOrBefore(stockID, analysisDate)
	if !ok {
		prevShort = shortBalance
	}
	shortPctChange := 0.0
	if prevShort > 0 {
		shortPctChange = (shortBalance - prevShort) / prevShort
	}

	marginShortRatio := 0.0
	if marginBalance > 0 {
		marginShortRatio = shortBalance / marginBalance
	}

	base := models.Signal{
		StockID:          stockID,
		AnalysisDate:     analysisDate,
		Price:            price,
		RSI:              round2(rsiVal),
		MA20:             round2(ma20Val),
		MarginBalance:    int64(marginBalance),
		ShortBalance:     int64(shortBalance),
		MarginShortRatio: round2(marginShortRatio),
	}

	// Buy: margin surge into technical oversold below the 20-day mean.
	if marginPctChange > d.cfg.MarginIncreaseThreshold && rsiVal < d.cfg.RSIOversold && priceVsMA20 < 0 {
		grade := models.GradeA
		expected := expectedReturnA
		if marginPctChange > sGradeMarginChange && rsiVal < sGradeRSI && priceVsMA20 < sGradePriceVsMA20 {
			grade = models.GradeS
			expected = expectedReturnS
		}

		base.Type = models.SignalBuy
		base.Grade = grade
		base.MarginChangePct = round2(marginPctChange * 100)
		base.Anomaly = fmt.Sprintf("margin surge (+%.1f%%) + RSI oversold (%.1f)", marginPctChange*100, rsiVal)
		base.ExpectedReturnPct = expected
		base.StopLossPct = d.cfg.StopLossPct
		base.HoldingDaysTarget = d.cfg.HoldingDays
		return &base
	}

	// Sell: short surge into technical overbought above the 20-day mean.
	// Mutually exclusive with the buy rule.
	if shortPctChange > d.cfg.ShortIncreaseThreshold && rsiVal > d.cfg.RSIOverbought && priceVsMA20 > 0 {
		grade := models.GradeHigh
		if shortPctChange > urgentShortChange && rsiVal > urgentRSI {
			grade = models.GradeUrgent
		}

		base.Type = models.SignalSell
		base.Grade = grade
		base.ShortChangePct = round2(shortPctChange * 100)
		base.Anomaly = fmt.Sprintf("short surge (+%.1f%%) + RSI overbought (%.1f)", shortPctChange*100, rsiVal)
		base.RiskWarning = "strong institutional short positioning"
		return &base
	}

	return nil
}

// detectFallback is the simplified RSI-only rule used when the richer
// margin fields are unavailable. It drops the margin-change condition,
// grades on RSI depth alone and caps scanning at the first instruments in
// sorted id order.
func (d *Detector) detectFallback(prices *models.Table, analysisDate string) []models.Signal {
	ids := prices.Instruments()
	if limit := d.cfg.FallbackStockLimit; limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	var signals []models.Signal
	for _, stockID := range ids {
		price, ok := prices.Cell(stockID, analysisDate)
		if !ok || price <= 0 {
			continue
		}
		rsiVal, ma20Val, ok := d.momentum(prices, stockID, analysisDate)
		if !ok {
			continue
		}
		priceVsMA20 := 0.0
		if ma20Val > 0 {
			priceVsMA20 = (price - ma20Val) / ma20Val
		}

		sig := models.Signal{
			StockID:      stockID,
			AnalysisDate: analysisDate,
			Price:        price,
			RSI:          round2(rsiVal),
			MA20:         round2(ma20Val),
		}

		switch {
		case rsiVal < d.cfg.RSIOversold && priceVsMA20 < 0:
			sig.Type = models.SignalBuy
			sig.Grade = models.GradeA
			sig.ExpectedReturnPct = expectedReturnA
			if rsiVal < sGradeRSI {
				sig.Grade = models.GradeS
				sig.ExpectedReturnPct = expectedReturnS
			}
			sig.Anomaly = fmt.Sprintf("fallback detection: RSI oversold (%.1f)", rsiVal)
			sig.StopLossPct = d.cfg.StopLossPct
			sig.HoldingDaysTarget = d.cfg.HoldingDays
		case rsiVal > d.cfg.RSIOverbought && priceVsMA20 > 0:
			sig.Type = models.SignalSell
			sig.Grade = models.GradeHigh
			if rsiVal > urgentRSI {
				sig.Grade = models.GradeUrgent
			}
			sig.Anomaly = fmt.Sprintf("fallback detection: RSI overbought (%.1f)", rsiVal)
			sig.RiskWarning = "overbought without margin confirmation"
		default:
			continue
		}

		signals = append(signals, sig)
	}
	return signals
}

// momentum computes the instrument's latest RSI and MA20 from the price
// series truncated at the analysis date. Reports false when either
// indicator is unavailable, which callers treat as "skip this instrument".
func (d *Detector) momentum(prices *models.Table, stockID, analysisDate string) (rsiVal, ma20Val float64, ok bool) {
	series := prices.SeriesUpTo(stockID, analysisDate)
	rsiVal = calculate.Last(calculate.RSI(series, d.cfg.RSIPeriod))
	ma20Val = calculate.Last(calculate.MA(series, d.cfg.MAMedium))
	if math.IsNaN(rsiVal) || math.IsNaN(ma20Val) {
		return 0, 0, false
	}
	return rsiVal, ma20Val, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
