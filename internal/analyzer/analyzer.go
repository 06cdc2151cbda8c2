package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/benjamintsai23/margin-momentum-trading/config"
	"github.com/benjamintsai23/margin-momentum-trading/models"
)

// Analyzer runs the full margin/short momentum analysis for one date:
// fetch price and margin tables, detect anomalies, filter and order the
// resulting signal set.
type Analyzer struct {
	client   models.DataClient
	detector *Detector
	filter   *Filter
	logger   zerolog.Logger
}

// New creates an analyzer around a data-source client.
func New(client models.DataClient, cfg *config.Config, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		client:   client,
		detector: NewDetector(cfg, logger),
		filter:   NewFilter(cfg),
		logger:   logger.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze produces the filtered signal set for the given date. An empty
// date defaults to yesterday. The price table being entirely empty is a
// terminal error; partial margin data degrades to fewer or no signals.
func (a *Analyzer) Analyze(ctx context.Context, analysisDate string) ([]models.Signal, error) {
	if analysisDate == "" {
		analysisDate = time.Now().AddDate(0, 0, -1).Format(models.DateFormat)
	}

	a.logger.Info().Str("date", analysisDate).Msg("starting margin momentum analysis")

	prices, err := a.client.GetPriceTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching price data: %w", err)
	}
	margin, err := a.client.GetMarginData(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching margin data: %w", err)
	}

	signals, err := a.detector.Detect(prices, margin, analysisDate)
	if err != nil {
		return nil, err
	}

	signals = a.filter.Apply(signals)
	a.logger.Info().Str("date", analysisDate).Int("signals", len(signals)).Msg("analysis complete")
	return signals, nil
}
