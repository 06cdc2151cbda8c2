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
	"github.com/benjamintsai23/margin-momentum-trading/internal/database"
	"github.com/benjamintsai23/margin-momentum-trading/internal/finlab"
	"github.com/benjamintsai23/margin-momentum-trading/internal/notify"
	"github.com/benjamintsai23/margin-momentum-trading/models"
)

func main() {
	date := flag.String("date", "", "analysis date (YYYY-MM-DD), defaults to yesterday")
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

	client := finlab.NewClient(finlab.ClientOptions{
		Token:          cfg.FinlabToken,
		BaseURL:        cfg.FinlabAPIURL,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})

	a := analyzer.New(client, cfg, log.Logger)

	ctx := context.Background()
	signals, err := a.Analyze(ctx, *date)
	if err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}

	printSignals(signals)
	persistSignals(cfg, signals)
	notifySignals(cfg, signals)

	log.Info().Msg("analysis run finished")
}

func printSignals(signals []models.Signal) {
	if len(signals) == 0 {
		fmt.Println("No anomaly signals today")
		return
	}

	fmt.Printf("\n%-8s %-6s %-8s %10s %8s %10s %12s  %s\n",
		"STOCK", "TYPE", "GRADE", "PRICE", "RSI", "MA20", "CHANGE%", "ANOMALY")
	for _, s := range signals {
		change := s.MarginChangePct
		if s.Type == models.SignalSell {
			change = s.ShortChangePct
		}
		fmt.Printf("%-8s %-6s %-8s %10.2f %8.1f %10.2f %12.2f  %s\n",
			s.StockID, s.Type, s.Grade, s.Price, s.RSI, s.MA20, change, s.Anomaly)
	}
}

func persistSignals(cfg *config.Config, signals []models.Signal) {
	if len(signals) == 0 {
		return
	}

	db, err := database.New(database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, signals not persisted")
		return
	}
	defer db.Close()

	if err := db.SaveSignals(signals); err != nil {
		log.Error().Err(err).Msg("saving signals failed")
		return
	}
	log.Info().Int("signals", len(signals)).Msg("signals persisted")
}

func notifySignals(cfg *config.Config, signals []models.Signal) {
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
		return
	}

	notifier, err := notify.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("telegram notifier unavailable")
		return
	}

	if len(signals) == 0 {
		if err := notifier.SendMessage("Margin momentum analysis complete\n\nNo anomaly signals today", notify.PriorityNormal); err != nil {
			log.Error().Err(err).Msg("telegram notification failed")
		}
		return
	}

	if err := notifier.SendBuySignals(signals); err != nil {
		log.Error().Err(err).Msg("buy signal notification failed")
	}
	if err := notifier.SendSellSignals(signals); err != nil {
		log.Error().Err(err).Msg("sell signal notification failed")
	}
	if err := notifier.SendDailySummary(signals); err != nil {
		log.Error().Err(err).Msg("daily summary notification failed")
	}
}
