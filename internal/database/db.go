package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benjamintsai23/margin-momentum-trading/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	// Create PostgreSQL connection string
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id BIGSERIAL PRIMARY KEY,
			stock_id TEXT NOT NULL,
			analysis_date DATE NOT NULL,
			signal_type TEXT NOT NULL,
			signal_grade TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			rsi DOUBLE PRECISION,
			ma20 DOUBLE PRECISION,
			margin_balance BIGINT,
			margin_change_pct DOUBLE PRECISION,
			short_balance BIGINT,
			short_change_pct DOUBLE PRECISION,
			anomaly TEXT,
			expected_return_pct DOUBLE PRECISION,
			stop_loss_pct DOUBLE PRECISION,
			holding_days_target INT,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (stock_id, analysis_date, signal_type)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id UUID PRIMARY KEY,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			initial_capital DOUBLE PRECISION NOT NULL,
			final_capital DOUBLE PRECISION NOT NULL,
			total_trades INT NOT NULL,
			winning_trades INT NOT NULL,
			losing_trades INT NOT NULL,
			win_rate DOUBLE PRECISION NOT NULL,
			total_return DOUBLE PRECISION NOT NULL,
			annual_return DOUBLE PRECISION NOT NULL,
			sharpe_ratio DOUBLE PRECISION NOT NULL,
			max_drawdown DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS backtest_trades (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES backtest_runs(run_id),
			stock_id TEXT NOT NULL,
			entry_date DATE NOT NULL,
			exit_date DATE NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			exit_price DOUBLE PRECISION NOT NULL,
			shares INT NOT NULL,
			signal_grade TEXT NOT NULL,
			pnl DOUBLE PRECISION NOT NULL,
			pnl_pct DOUBLE PRECISION NOT NULL,
			exit_reason TEXT NOT NULL,
			holding_days INT NOT NULL
		)
	`)

	return err
}

// SaveSignals stores a day's signal set, replacing any earlier rows for the
// same stock/date/type.
func (db *DB) SaveSignals(signals []models.Signal) error {
	now := time.Now()
	for _, s := range signals {
		_, err := db.Exec(`
			INSERT INTO signals (
				stock_id, analysis_date, signal_type, signal_grade, price,
				rsi, ma20, margin_balance, margin_change_pct,
				short_balance, short_change_pct, anomaly,
				expected_return_pct, stop_loss_pct, holding_days_target, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (stock_id, analysis_date, signal_type)
			DO UPDATE SET
				signal_grade = EXCLUDED.signal_grade,
				price = EXCLUDED.price,
				rsi = EXCLUDED.rsi,
				ma20 = EXCLUDED.ma20,
				margin_balance = EXCLUDED.margin_balance,
				margin_change_pct = EXCLUDED.margin_change_pct,
				short_balance = EXCLUDED.short_balance,
				short_change_pct = EXCLUDED.short_change_pct,
				anomaly = EXCLUDED.anomaly,
				expected_return_pct = EXCLUDED.expected_return_pct,
				stop_loss_pct = EXCLUDED.stop_loss_pct,
				holding_days_target = EXCLUDED.holding_days_target,
				created_at = EXCLUDED.created_at
		`,
			s.StockID, s.AnalysisDate, string(s.Type), string(s.Grade), s.Price,
			s.RSI, s.MA20, s.MarginBalance, s.MarginChangePct,
			s.ShortBalance, s.ShortChangePct, s.Anomaly,
			s.ExpectedReturnPct, s.StopLossPct, s.HoldingDaysTarget, now)
		if err != nil {
			return fmt.Errorf("saving signal for %s: %w", s.StockID, err)
		}
	}
	return nil
}

// SaveBacktest stores a completed run with its trade log and returns the
// generated run id.
func (db *DB) SaveBacktest(result *models.BacktestResult) (string, error) {
	runID := uuid.New().String()

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO backtest_runs (
			run_id, start_date, end_date, initial_capital, final_capital,
			total_trades, winning_trades, losing_trades, win_rate,
			total_return, annual_return, sharpe_ratio, max_drawdown, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		runID, result.StartDate, result.EndDate, result.InitialCapital, result.FinalCapital,
		result.TotalTrades, result.WinningTrades, result.LosingTrades, result.WinRate,
		result.TotalReturn, result.AnnualReturn, result.SharpeRatio, result.MaxDrawdown, time.Now())
	if err != nil {
		return "", fmt.Errorf("saving backtest run: %w", err)
	}

	for _, t := range result.Trades {
		_, err = tx.Exec(`
			INSERT INTO backtest_trades (
				run_id, stock_id, entry_date, exit_date, entry_price, exit_price,
				shares, signal_grade, pnl, pnl_pct, exit_reason, holding_days
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			runID, t.StockID, t.EntryDate, t.ExitDate, t.EntryPrice, t.ExitPrice,
			t.Shares, string(t.SignalGrade), t.PnL, t.PnLPct, t.ExitReason, t.HoldingDays)
		if err != nil {
			return "", fmt.Errorf("saving trade for %s: %w", t.StockID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}
