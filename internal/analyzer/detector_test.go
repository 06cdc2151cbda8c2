package analyzer

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/benjamintsai23/margin-momentum-trading/config"
	"github.com/benjamintsai23/margin-momentum-trading/models"
)

func testConfig() *config.Config {
	return &config.Config{
		MarginIncreaseThreshold: 0.10,
		ShortIncreaseThreshold:  0.10,
		RSIPeriod:               14,
		RSIOversold:             30,
		RSIOverbought:           70,
		MAShort:                 5,
		MAMedium:                20,
		MALong:                  60,
		HoldingDays:             5,
		StopLossPct:             -8,
		MaxPositionSize:         0.10,
		InitialCapital:          1000000,
		MinStockPrice:           10,
		MaxStockPrice:           500,
		DetectionMode:           config.ModeFull,
		FallbackStockLimit:      20,
	}
}

func testDates(n int) []string {
	dates := make([]string, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		dates[i] = start.AddDate(0, 0, i).Format(models.DateFormat)
	}
	return dates
}

// makePriceTable aligns each series with a shared daily date axis.
func makePriceTable(series map[string][]float64) *models.Table {
	n := 0
	for _, s := range series {
		if len(s) > n {
			n = len(s)
		}
	}
	table := &models.Table{
		Dates:  testDates(n),
		Values: make(map[string]map[string]float64),
	}
	for id, s := range series {
		cells := make(map[string]float64, len(s))
		for i, v := range s {
			cells[table.Dates[i]] = v
		}
		table.Values[id] = cells
	}
	return table
}

// makeBalanceTable pins a single per-instrument value on one date.
func makeBalanceTable(date string, values map[string]float64) *models.Table {
	table := &models.Table{
		Dates:  []string{date},
		Values: make(map[string]map[string]float64),
	}
	for id, v := range values {
		table.Values[id] = map[string]float64{date: v}
	}
	return table
}

func declining(n int, from, step float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = from - float64(i)*step
	}
	return s
}

func rising(n int, from, step float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = from + float64(i)*step
	}
	return s
}

func TestDetectBuySignalSGrade(t *testing.T) {
	// Steady decline: RSI collapses to 0 and price sits well below MA20.
	prices := makePriceTable(map[string][]float64{
		"2330": declining(25, 130, 2),
	})
	evalDate := prices.Dates[24]

	margin := models.MarginData{
		models.FieldMarginTodayBalance: makeBalanceTable(evalDate, map[string]float64{"2330": 1200000}),
		models.FieldMarginPrevBalance:  makeBalanceTable(evalDate, map[string]float64{"2330": 1000000}),
	}

	d := NewDetector(testConfig(), zerolog.Nop())
	signals, err := d.Detect(prices, margin, evalDate)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want exactly 1", len(signals))
	}

	sig := signals[0]
	if sig.Type != models.SignalBuy {
		t.Errorf("signal type = %v, want BUY", sig.Type)
	}
	if sig.Grade != models.GradeS {
		t.Errorf("grade = %v, want S", sig.Grade)
	}
	if sig.ExpectedReturnPct != 15 {
		t.Errorf("expected return = %v, want 15", sig.ExpectedReturnPct)
	}
	if sig.StopLossPct != -8 {
		t.Errorf("stop loss = %v, want -8", sig.StopLossPct)
	}
	if sig.HoldingDaysTarget != 5 {
		t.Errorf("holding days target = %v, want 5", sig.HoldingDaysTarget)
	}
	if sig.MarginBalance != 1200000 {
		t.Errorf("margin balance = %v, want 1200000", sig.MarginBalance)
	}
}

func TestDetectBuySignalAGradeOnModestMarginChange(t *testing.T) {
	prices := makePriceTable(map[string][]float64{
		"2330": declining(25, 130, 2),
	})
	evalDate := prices.Dates[24]

	// +12% margin change clears the buy threshold but not the S cutoff.
	margin := models.MarginData{
		models.FieldMarginTodayBalance: makeBalanceTable(evalDate, map[string]float64{"2330": 1120000}),
		models.FieldMarginPrevBalance:  makeBalanceTable(evalDate, map[string]float64{"2330": 1000000}),
	}

	d := NewDetector(testConfig(), zerolog.Nop())
	signals, err := d.Detect(prices, margin, evalDate)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if signals[0].Grade != models.GradeA {
		t.Errorf("grade = %v, want A", signals[0].Grade)
	}
	if signals[0].ExpectedReturnPct != 10 {
		t.Errorf("expected return = %v, want 10", signals[0].ExpectedReturnPct)
	}
}

func TestDetectSellSignalHighGrade(t *testing.T) {
	// Steady rise: RSI pins at 100 and price sits above MA20.
	prices := makePriceTable(map[string][]float64{
		"2454": rising(25, 100, 2),
	})
	evalDate := prices.Dates[24]

	// +12% short change: above the sell threshold, below the URGENT cutoff.
	margin := models.MarginData{
		models.FieldMarginTodayBalance: makeBalanceTable(evalDate, map[string]float64{"2454": 1000000}),
		models.FieldMarginPrevBalance:  makeBalanceTable(evalDate, map[string]float64{"2454": 1000000}),
		models.FieldShortTodayBalance:  makeBalanceTable(evalDate, map[string]float64{"2454": 1120000}),
		models.FieldShortPrevBalance:   makeBalanceTable(evalDate, map[string]float64{"2454": 1000000}),
	}

	d := NewDetector(testConfig(), zerolog.Nop())
	signals, err := d.Detect(prices, margin, evalDate)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want exactly 1", len(signals))
	}

	sig := signals[0]
	if sig.Type != models.SignalSell {
		t.Errorf("signal type = %v, want SELL", sig.Type)
	}
	if sig.Grade != models.GradeHigh {
		t.Errorf("grade = %v, want HIGH", sig.Grade)
	}
	if sig.ExpectedReturnPct != 0 {
		t.Errorf("sell signal carries expected return %v, want none", sig.ExpectedReturnPct)
	}
	if sig.RiskWarning == "" {
		t.Error("sell signal should carry a risk warning")
	}
}

func TestDetectUrgentSellOnSharpShortSurge(t *testing.T) {
	prices := makePriceTable(map[string][]float64{
		"2454": rising(25, 100, 2),
	})
	evalDate := prices.Dates[24]

	margin := models.MarginData{
		models.FieldMarginTodayBalance: makeBalanceTable(evalDate, map[string]float64{"2454": 1000000}),
		models.FieldShortTodayBalance:  makeBalanceTable(evalDate, map[string]float64{"2454": 1200000}),
		models.FieldShortPrevBalance:   makeBalanceTable(evalDate, map[string]float64{"2454": 1000000}),
	}

	d := NewDetector(testConfig(), zerolog.Nop())
	signals, err := d.Detect(prices, margin, evalDate)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if signals[0].Grade != models.GradeUrgent {
		t.Errorf("grade = %v, want URGENT for +20%% short change and RSI > 75", signals[0].Grade)
	}
}

func TestDetectSkipsInstrumentsWithoutIndicators(t *testing.T) {
	// Too few points for RSI(14) and MA(20)
	prices := makePriceTable(map[string][]float64{
		"1101": declining(10, 100, 1),
	})
	evalDate := prices.Dates[9]

	margin := models.MarginData{
		models.FieldMarginTodayBalance: makeBalanceTable(evalDate, map[string]float64{"1101": 2000000}),
		models.FieldMarginPrevBalance:  makeBalanceTable(evalDate, map[string]float64{"1101": 1000000}),
	}

	d := NewDetector(testConfig(), zerolog.Nop())
	signals, err := d.Detect(prices, margin, evalDate)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("got %d signals, want 0 when indicators are unavailable", len(signals))
	}
}

func TestDetectSkipsInstrumentMissingFromMarginTable(t *testing.T) {
	prices := makePriceTable(map[string][]float64{
		"2330": declining(25, 130, 2),
	})
	evalDate := prices.Dates[24]

	margin := models.MarginData{
		models.FieldMarginTodayBalance: makeBalanceTable(evalDate, map[string]float64{"9999": 1200000}),
	}

	d := NewDetector(testConfig(), zerolog.Nop())
	signals, err := d.Detect(prices, margin, evalDate)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("got %d signals, want 0 for instrument without margin data", len(signals))
	}
}

func TestDetectEmptyMarginBundleYieldsNoSignals(t *testing.T) {
	prices := makePriceTable(map[string][]float64{
		"2330": declining(25, 130, 2),
	})
	evalDate := prices.Dates[24]

	d := NewDetector(testConfig(), zerolog.Nop())
	signals, err := d.Detect(prices, models.MarginData{}, evalDate)
	if err != nil {
		t.Fatalf("Detect() error = %v, want tolerant empty result", err)
	}
	if len(signals) != 0 {
		t.Errorf("got %d signals, want 0", len(signals))
	}
}

func TestDetectEmptyPriceTableIsFatal(t *testing.T) {
	d := NewDetector(testConfig(), zerolog.Nop())
	if _, err := d.Detect(&models.Table{}, models.MarginData{}, "2024-01-25"); err == nil {
		t.Error("Detect() with empty price table should return an error")
	}
}

func TestDetectMissingPrevBalanceDefaultsToZeroChange(t *testing.T) {
	prices := makePriceTable(map[string][]float64{
		"2330": declining(25, 130, 2),
	})
	evalDate := prices.Dates[24]

	// No previous-balance dataset at all: change must default to 0%,
	// which keeps the buy rule from firing.
	margin := models.MarginData{
		models.FieldMarginTodayBalance: makeBalanceTable(evalDate, map[string]float64{"2330": 1200000}),
	}

	d := NewDetector(testConfig(), zerolog.Nop())
	signals, err := d.Detect(prices, margin, evalDate)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("got %d signals, want 0 when margin change defaults to zero", len(signals))
	}
}

func TestDetectFallbackMode(t *testing.T) {
	cfg := testConfig()
	cfg.DetectionMode = config.ModeFallback
	cfg.FallbackStockLimit = 1

	prices := makePriceTable(map[string][]float64{
		"1101": declining(25, 130, 2),
		"2330": declining(25, 130, 2),
	})
	evalDate := prices.Dates[24]

	d := NewDetector(cfg, zerolog.Nop())
	signals, err := d.Detect(prices, models.MarginData{}, evalDate)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	// Limit of 1 instrument in sorted id order: only 1101 is scanned.
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if signals[0].StockID != "1101" {
		t.Errorf("stock = %v, want 1101 (first in sorted order)", signals[0].StockID)
	}
	if signals[0].Type != models.SignalBuy || signals[0].Grade != models.GradeS {
		t.Errorf("got %v/%v, want BUY/S from RSI depth alone", signals[0].Type, signals[0].Grade)
	}
}
