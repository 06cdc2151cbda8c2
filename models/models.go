package models

// SignalType distinguishes buy and sell recommendations.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// Grade is the confidence/urgency label attached to a signal.
// S/A/B are buy grades, URGENT/HIGH are sell grades.
type Grade string

const (
	GradeS      Grade = "S"
	GradeA      Grade = "A"
	GradeB      Grade = "B"
	GradeUrgent Grade = "URGENT"
	GradeHigh   Grade = "HIGH"
)

// Priority returns the display ordering of a grade, lower first.
func (g Grade) Priority() int {
	switch g {
	case GradeS:
		return 0
	case GradeA:
		return 1
	case GradeB:
		return 2
	case GradeUrgent:
		return 3
	case GradeHigh:
		return 4
	}
	return 5
}

// Signal is one graded buy/sell recommendation for a single instrument on a
// single analysis date. Immutable once emitted by the detector.
type Signal struct {
	StockID          string     `json:"stock_id"`
	AnalysisDate     string     `json:"analysis_date"`
	Type             SignalType `json:"signal_type"`
	Grade            Grade      `json:"signal_grade"`
	Price            float64    `json:"price"`
	RSI              float64    `json:"rsi"`
	MA20             float64    `json:"ma20"`
	MarginBalance    int64      `json:"margin_balance"`
	MarginChangePct  float64    `json:"margin_change_pct"`
	ShortBalance     int64      `json:"short_balance"`
	ShortChangePct   float64    `json:"short_change_pct"`
	MarginShortRatio float64    `json:"margin_short_ratio"`
	Anomaly          string     `json:"anomaly"`

	// Buy-only trade plan fields.
	ExpectedReturnPct float64 `json:"expected_return_pct,omitempty"`
	StopLossPct       float64 `json:"stop_loss_pct,omitempty"`
	HoldingDaysTarget int     `json:"holding_days_target,omitempty"`

	// Sell-only advisory text.
	RiskWarning string `json:"risk_warning,omitempty"`
}

// Exit reasons recorded on closed trades.
const (
	ExitTarget   = "target"
	ExitStopLoss = "stop_loss"
	ExitTime     = "time"
	ExitSignal   = "signal"
	ExitManual   = "manual"
)

// Trade is an immutable record of a closed position.
type Trade struct {
	StockID           string     `json:"stock_id"`
	EntryDate         string     `json:"entry_date"`
	ExitDate          string     `json:"exit_date"`
	EntryPrice        float64    `json:"entry_price"`
	ExitPrice         float64    `json:"exit_price"`
	Shares            int        `json:"shares"`
	SignalType        SignalType `json:"signal_type"`
	SignalGrade       Grade      `json:"signal_grade"`
	ExpectedReturnPct float64    `json:"expected_return_pct"`
	StopLossPct       float64    `json:"stop_loss_pct"`
	PnL               float64    `json:"pnl"`
	PnLPct            float64    `json:"pnl_pct"`
	ExitReason        string     `json:"exit_reason"`
	HoldingDays       int        `json:"holding_days"`
}

// EquityPoint is one day of the simulated portfolio value.
type EquityPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// BacktestResult aggregates a completed simulation run.
type BacktestResult struct {
	StartDate      string        `json:"start_date"`
	EndDate        string        `json:"end_date"`
	InitialCapital float64       `json:"initial_capital"`
	FinalCapital   float64       `json:"final_capital"`
	TotalTrades    int           `json:"total_trades"`
	WinningTrades  int           `json:"winning_trades"`
	LosingTrades   int           `json:"losing_trades"`
	WinRate        float64       `json:"win_rate"`
	TotalReturn    float64       `json:"total_return"`
	AnnualReturn   float64       `json:"annual_return"`
	SharpeRatio    float64       `json:"sharpe_ratio"`
	MaxDrawdown    float64       `json:"max_drawdown"`
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
}
