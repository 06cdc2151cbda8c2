package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/benjamintsai23/margin-momentum-trading/config"
	"github.com/benjamintsai23/margin-momentum-trading/internal/analyzer"
	"github.com/benjamintsai23/margin-momentum-trading/internal/backtest"
	"github.com/benjamintsai23/margin-momentum-trading/internal/database"
	"github.com/benjamintsai23/margin-momentum-trading/internal/finlab"
	"github.com/benjamintsai23/margin-momentum-trading/models"
)

func main() {
	start := flag.String("start", "2023-01-01", "backtest start date (YYYY-MM-DD)")
	end := flag.String("end", "", "backtest end date (YYYY-MM-DD), defaults to yesterday")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}

	endDate := *end
	if endDate == "" {
		endDate = time.Now().AddDate(0, 0, -1).Format(models.DateFormat)
	}

	client := finlab.NewClient(finlab.ClientOptions{
		Token:          cfg.FinlabToken,
		BaseURL:        cfg.FinlabAPIURL,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})

	ctx := context.Background()

	// Fetch the tables once up front; the strategy re-evaluates per date
	// against the same immutable data.
	prices, err := client.GetPriceTable(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("fetching price data failed")
	}
	margin, err := client.GetMarginData(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("fetching margin data failed")
	}

	detector := analyzer.NewDetector(cfg, log.Logger)
	filter := analyzer.NewFilter(cfg)
	strategy := func(date string) ([]models.Signal, error) {
		signals, err := detector.Detect(prices, margin, date)
		if err != nil {
			return nil, err
		}
		return filter.Apply(signals), nil
	}

	engine := backtest.NewEngine(cfg, log.Logger)
	result, err := engine.Run(prices, *start, endDate, strategy)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}

	fmt.Println(engine.FormatResult(result))
	persistResult(cfg, result)
}

func persistResult(cfg *config.Config, result *models.BacktestResult) {
	db, err := database.New(database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, result not persisted")
		return
	}
	defer db.Close()

	runID, err := db.SaveBacktest(result)
	if err != nil {
		log.Error().Err(err).Msg("saving backtest failed")
		return
	}
	log.Info().Str("run_id", runID).Msg("backtest persisted")
}
